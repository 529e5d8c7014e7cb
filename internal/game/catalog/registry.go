package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknown is wrapped by every lookup that misses.
var ErrUnknown = errors.New("unknown catalog entry")

// Registry holds every definition of a loaded catalog, indexed by ID.
// It is read-only after LoadDirectory or Build returns.
type Registry struct {
	attacks     map[string]*Attack
	gear        map[string]*Gear
	defensive   map[string]*DefensiveModifier
	offensive   map[string]*OffensiveModifier
	consumables map[string]*Consumable
	effects     map[EffectKind]EffectDef
	characters  map[string]*CharacterDef
}

func newRegistry() *Registry {
	return &Registry{
		attacks:     make(map[string]*Attack),
		gear:        make(map[string]*Gear),
		defensive:   make(map[string]*DefensiveModifier),
		offensive:   make(map[string]*OffensiveModifier),
		consumables: make(map[string]*Consumable),
		effects:     make(map[EffectKind]EffectDef),
		characters:  make(map[string]*CharacterDef),
	}
}

func lookup[T any](m map[string]T, kind, id string) (T, error) {
	v, ok := m[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("catalog: %s %q: %w", kind, id, ErrUnknown)
	}
	return v, nil
}

// Attack returns the attack with id.
func (r *Registry) Attack(id string) (*Attack, error) { return lookup(r.attacks, "attack", id) }

// Gear returns the gear with id.
func (r *Registry) Gear(id string) (*Gear, error) { return lookup(r.gear, "gear", id) }

// DefensiveModifier returns the defensive modifier with id.
func (r *Registry) DefensiveModifier(id string) (*DefensiveModifier, error) {
	return lookup(r.defensive, "defensive modifier", id)
}

// OffensiveModifier returns the offensive modifier with id.
func (r *Registry) OffensiveModifier(id string) (*OffensiveModifier, error) {
	return lookup(r.offensive, "offensive modifier", id)
}

// Consumable returns the consumable with id.
func (r *Registry) Consumable(id string) (*Consumable, error) {
	return lookup(r.consumables, "consumable", id)
}

// Character returns the character template with id.
func (r *Registry) Character(id string) (*CharacterDef, error) {
	return lookup(r.characters, "character", id)
}

// Effect returns the definition of a temporary effect.
func (r *Registry) Effect(kind EffectKind) (EffectDef, error) {
	def, ok := r.effects[kind]
	if !ok {
		return EffectDef{}, fmt.Errorf("catalog: effect %q: %w", kind, ErrUnknown)
	}
	return def, nil
}

// CharacterIDs returns every character template ID in sorted order.
func (r *Registry) CharacterIDs() []string {
	ids := make([]string, 0, len(r.characters))
	for id := range r.characters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Counts reports how many definitions of each kind are loaded, keyed by kind name.
func (r *Registry) Counts() map[string]int {
	return map[string]int{
		"attacks":     len(r.attacks),
		"gear":        len(r.gear),
		"modifiers":   len(r.defensive) + len(r.offensive),
		"consumables": len(r.consumables),
		"effects":     len(r.effects),
		"characters":  len(r.characters),
	}
}
