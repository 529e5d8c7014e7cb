// Package status tracks the temporary effects afflicting combatants: poison,
// which deals damage every round, and rot-plague, which forces the victim to
// skip its next turn.
package status

import (
	"fmt"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
	"github.com/cory-johannsen/finalbattle/internal/game/party"
)

// Entry is one afflicted combatant together with the roster it was a member
// of when afflicted and the rounds left before the effect wears off.
type Entry struct {
	Target    *party.Combatant
	Roster    *party.Roster
	Remaining int
}

// Affliction reports what Afflict did.
type Affliction int

const (
	// Ignored means the target was already afflicted and nothing changed.
	Ignored Affliction = iota
	// Added means a new entry was created.
	Added
	// Refreshed means an existing entry was reset to the full duration.
	Refreshed
)

// Tick records one entry's effect during a round tick.
type Tick struct {
	Kind      catalog.EffectKind
	Target    *party.Combatant
	Damage    int
	HP        int
	Remaining int
}

// Registry is the ordered set of active entries for one effect kind. It keeps
// at most one entry per combatant.
// It is not safe for concurrent use; the caller must serialise access.
type Registry struct {
	def     catalog.EffectDef
	entries []*Entry
}

// NewRegistry creates an empty registry for def.
//
// Precondition: def.Duration >= 1.
func NewRegistry(def catalog.EffectDef) (*Registry, error) {
	if def.Duration < 1 {
		return nil, fmt.Errorf("status: %s duration must be >= 1, got %d", def.Kind, def.Duration)
	}
	return &Registry{def: def}, nil
}

// Kind returns the effect kind this registry tracks.
func (r *Registry) Kind() catalog.EffectKind { return r.def.Kind }

// Duration returns the number of rounds a fresh entry lasts.
func (r *Registry) Duration() int { return r.def.Duration }

// Afflict records target, a member of roster, as suffering the effect.
// Re-afflicting a poisoned combatant refreshes its remaining rounds; a
// combatant already sick with rot-plague is left unchanged.
//
// Postcondition: exactly one entry exists for target.
func (r *Registry) Afflict(target *party.Combatant, roster *party.Roster) Affliction {
	if e := r.find(target); e != nil {
		if r.def.Kind == catalog.EffectPoison {
			e.Remaining = r.def.Duration
			e.Roster = roster
			return Refreshed
		}
		return Ignored
	}
	r.entries = append(r.entries, &Entry{Target: target, Roster: roster, Remaining: r.def.Duration})
	return Added
}

// Has reports whether target currently has an entry.
func (r *Registry) Has(target *party.Combatant) bool {
	return r.find(target) != nil
}

// Remaining returns the rounds left on target's entry, or 0.
func (r *Registry) Remaining(target *party.Combatant) int {
	if e := r.find(target); e != nil {
		return e.Remaining
	}
	return 0
}

// Len returns the number of active entries.
func (r *Registry) Len() int { return len(r.entries) }

// Entries returns a snapshot of the active entries in affliction order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = *e
	}
	return out
}

// Prune drops entries whose effect has worn off or whose target is dead or no
// longer a member of its recorded roster.
//
// Postcondition: every remaining entry targets a living roster member with at
// least one round left.
func (r *Registry) Prune() []Entry {
	var dropped []Entry
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.Remaining <= 0 || !e.Target.IsAlive() || !e.Roster.Contains(e.Target) {
			dropped = append(dropped, *e)
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = nil
	}
	r.entries = kept
	return dropped
}

// Tick prunes, applies one round of the effect to every remaining entry and
// prunes again so expired entries do not linger.
//
// Postcondition: each returned Tick corresponds to one effect application.
func (r *Registry) Tick() []Tick {
	r.Prune()
	ticks := make([]Tick, 0, len(r.entries))
	for _, e := range r.entries {
		t := Tick{Kind: r.def.Kind, Target: e.Target}
		switch r.def.Kind {
		case catalog.EffectPoison:
			t.Damage = r.def.Damage
			e.Target.ApplyDamage(r.def.Damage)
		case catalog.EffectRotPlague:
			e.Target.ForceSkip()
		}
		e.Remaining--
		t.HP = e.Target.HP()
		t.Remaining = e.Remaining
		ticks = append(ticks, t)
	}
	r.Prune()
	return ticks
}

func (r *Registry) find(target *party.Combatant) *Entry {
	for _, e := range r.entries {
		if e.Target == target {
			return e
		}
	}
	return nil
}
