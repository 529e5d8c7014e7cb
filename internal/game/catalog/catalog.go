// Package catalog defines the immutable data the battle engine is built from:
// attacks, gear, attack modifiers, consumables, status-effect definitions and
// character templates. Definitions are loaded from YAML and never mutated once
// a Registry has been built.
package catalog

import (
	"fmt"

	"github.com/cory-johannsen/finalbattle/internal/game/dice"
)

// Side identifies which roster a combatant fights for.
type Side int

const (
	SideHero Side = iota
	SideMonster
)

// String returns "hero" or "monster".
func (s Side) String() string {
	switch s {
	case SideHero:
		return "hero"
	case SideMonster:
		return "monster"
	default:
		return "unknown"
	}
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideHero {
		return SideMonster
	}
	return SideHero
}

// AttackKind distinguishes how an attack picks its victims.
type AttackKind int

const (
	// AttackStandard hits one chosen target.
	AttackStandard AttackKind = iota
	// AttackArea hits every living member of the opposing roster.
	AttackArea
	// AttackGear is the attack carried by an equipped weapon.
	AttackGear
)

// String returns the YAML name of the kind.
func (k AttackKind) String() string {
	switch k {
	case AttackStandard:
		return "standard"
	case AttackArea:
		return "area"
	case AttackGear:
		return "gear"
	default:
		return "unknown"
	}
}

// Category is the damage category an attack belongs to. Type-gated defensive
// modifiers only react to their required category.
type Category int

const (
	CategoryNormal Category = iota
	CategoryDecoding
)

// String returns the YAML name of the category.
func (c Category) String() string {
	switch c {
	case CategoryNormal:
		return "normal"
	case CategoryDecoding:
		return "decoding"
	default:
		return "unknown"
	}
}

// SideEffectKind enumerates the on-hit side effects.
type SideEffectKind int

const (
	SideEffectSteal SideEffectKind = iota + 1
)

// String returns the YAML name of the side effect.
func (k SideEffectKind) String() string {
	if k == SideEffectSteal {
		return "steal"
	}
	return "unknown"
}

// SideEffect is an on-hit effect rolled with its own probability.
type SideEffect struct {
	Kind   SideEffectKind
	Chance float64
}

// EffectKind enumerates the multi-turn afflictions tracked by the status registries.
type EffectKind int

const (
	EffectPoison EffectKind = iota + 1
	EffectRotPlague
)

// String returns the YAML name of the effect.
func (k EffectKind) String() string {
	switch k {
	case EffectPoison:
		return "poison"
	case EffectRotPlague:
		return "rot_plague"
	default:
		return "unknown"
	}
}

// DamageRule selects how an attack's base damage is computed.
type DamageRule int

const (
	// DamageFixed rolls the attack's Damage expression.
	DamageFixed DamageRule = iota
	// DamageRoundScaled depends on the battle round: 5 when the round is a
	// multiple of both 3 and 5, 2 when it is a multiple of either, else 1.
	DamageRoundScaled
)

// String returns the YAML name of the rule.
func (r DamageRule) String() string {
	switch r {
	case DamageFixed:
		return "fixed"
	case DamageRoundScaled:
		return "round_scaled"
	default:
		return "unknown"
	}
}

// Attack is an immutable attack definition.
type Attack struct {
	ID          string
	Name        string
	Kind        AttackKind
	Category    Category
	Damage      dice.Expression
	Rule        DamageRule
	Probability float64
	SideEffect  Optional[SideEffect]
	Effect      Optional[EffectKind]
}

// IsArea reports whether the attack hits the whole opposing roster.
func (a *Attack) IsArea() bool { return a.Kind == AttackArea }

// RoundScaledDamage computes the DamageRoundScaled value for round.
func RoundScaledDamage(round int) int {
	by3, by5 := round%3 == 0, round%5 == 0
	switch {
	case by3 && by5:
		return 5
	case by3 || by5:
		return 2
	default:
		return 1
	}
}

// GearSlot is the equipment slot a piece of gear occupies.
type GearSlot int

const (
	SlotWeapon GearSlot = iota
	SlotArmor
)

// String returns the YAML name of the slot.
func (s GearSlot) String() string {
	switch s {
	case SlotWeapon:
		return "weapon"
	case SlotArmor:
		return "armor"
	default:
		return "unknown"
	}
}

// Gear is an equippable weapon or armor. Weapons carry the attack they grant;
// either slot may carry an offensive modifier applied to its wearer's attacks.
// DefensiveValue and OffensiveValue are display-only catalog data; they never
// enter the damage pipeline.
type Gear struct {
	ID                string
	Name              string
	Slot              GearSlot
	Attack            Optional[*Attack]
	DefensiveValue    int
	OffensiveValue    int
	OffensiveModifier Optional[*OffensiveModifier]
}

// String returns the gear's display name.
func (g *Gear) String() string { return g.Name }

// DefensiveModifier adjusts incoming damage. When Gate is present the modifier
// only applies to attacks of that category.
type DefensiveModifier struct {
	ID    string
	Name  string
	Value int
	Gate  Optional[Category]
}

// Applies reports whether the modifier reacts to an attack of category c.
func (m *DefensiveModifier) Applies(c Category) bool {
	gate, gated := m.Gate.Get()
	return !gated || gate == c
}

// OffensiveModifier adds to outgoing damage. Value may be a dice expression.
type OffensiveModifier struct {
	ID    string
	Name  string
	Value dice.Expression
}

// Consumable is a single-use item.
type Consumable struct {
	ID   string
	Name string
	Heal int
}

// String returns the consumable's display name.
func (c *Consumable) String() string { return c.Name }

// EffectDef parameterises a temporary effect.
type EffectDef struct {
	Kind     EffectKind
	Duration int
	// Damage is applied on every poison tick; unused by rot-plague.
	Damage int
}

// CharacterDef is a template combatants are instantiated from.
type CharacterDef struct {
	ID               string
	Name             string
	Side             Side
	MaxHP            int
	StandardAttack   *Attack
	AdditionalAttack Optional[*Attack]
	Weapon           Optional[*Gear]
	Armor            Optional[*Gear]
	Defense          Optional[*DefensiveModifier]
	SoulXP           int
	Taunt            Optional[string]
	// PlayerNamed marks the template whose display name is chosen by the player.
	PlayerNamed bool
}

func parseSide(s string) (Side, error) {
	switch s {
	case "hero":
		return SideHero, nil
	case "monster":
		return SideMonster, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func parseAttackKind(s string) (AttackKind, error) {
	switch s {
	case "", "standard":
		return AttackStandard, nil
	case "area":
		return AttackArea, nil
	case "gear":
		return AttackGear, nil
	default:
		return 0, fmt.Errorf("unknown attack kind %q", s)
	}
}

func parseCategory(s string) (Category, error) {
	switch s {
	case "", "normal":
		return CategoryNormal, nil
	case "decoding":
		return CategoryDecoding, nil
	default:
		return 0, fmt.Errorf("unknown category %q", s)
	}
}

func parseEffectKind(s string) (EffectKind, error) {
	switch s {
	case "poison":
		return EffectPoison, nil
	case "rot_plague":
		return EffectRotPlague, nil
	default:
		return 0, fmt.Errorf("unknown effect %q", s)
	}
}

func parseSideEffectKind(s string) (SideEffectKind, error) {
	if s == "steal" {
		return SideEffectSteal, nil
	}
	return 0, fmt.Errorf("unknown side effect %q", s)
}

func parseDamageRule(s string) (DamageRule, error) {
	switch s {
	case "", "fixed":
		return DamageFixed, nil
	case "round_scaled":
		return DamageRoundScaled, nil
	default:
		return 0, fmt.Errorf("unknown damage rule %q", s)
	}
}

func parseSlot(s string) (GearSlot, error) {
	switch s {
	case "weapon":
		return SlotWeapon, nil
	case "armor":
		return SlotArmor, nil
	default:
		return 0, fmt.Errorf("unknown gear slot %q", s)
	}
}
