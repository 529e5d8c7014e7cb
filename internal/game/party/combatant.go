// Package party holds the mutable per-side battle state: combatants, the
// rosters they belong to, each side's item and gear inventories and the queue
// of monster waves waiting to enter the fight.
package party

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
)

// ForcedAction is an action a combatant is compelled to take on its next turn.
type ForcedAction int

const (
	// ForcedSkip makes the combatant do nothing.
	ForcedSkip ForcedAction = iota + 1
)

// Combatant is one live participant in a battle.
//
// Invariant: 0 <= HP() <= MaxHP after every mutation.
type Combatant struct {
	ID         string
	TemplateID string
	Name       string
	Side       catalog.Side
	MaxHP      int
	hp         int

	StandardAttack   *catalog.Attack
	AdditionalAttack catalog.Optional[*catalog.Attack]
	Weapon           catalog.Optional[*catalog.Gear]
	Armor            catalog.Optional[*catalog.Gear]
	Defense          catalog.Optional[*catalog.DefensiveModifier]

	// Souls is experience dropped on death for monsters and the charge
	// accumulated toward a damage bonus for heroes.
	Souls int

	forced  catalog.Optional[ForcedAction]
	taunt   catalog.Optional[string]
	roster  *Roster
	removed bool
}

// NewCombatant instantiates a full-health combatant from def with a fresh ID.
//
// Precondition: def must not be nil.
func NewCombatant(def *catalog.CharacterDef) *Combatant {
	return &Combatant{
		ID:               uuid.New().String(),
		TemplateID:       def.ID,
		Name:             def.Name,
		Side:             def.Side,
		MaxHP:            def.MaxHP,
		hp:               def.MaxHP,
		StandardAttack:   def.StandardAttack,
		AdditionalAttack: def.AdditionalAttack,
		Weapon:           def.Weapon,
		Armor:            def.Armor,
		Defense:          def.Defense,
		Souls:            def.SoulXP,
		forced:           catalog.None[ForcedAction](),
		taunt:            def.Taunt,
	}
}

// String returns the combatant's display name.
func (c *Combatant) String() string { return c.Name }

// HP returns current health.
func (c *Combatant) HP() int { return c.hp }

// IsAlive reports whether current health is above zero.
func (c *Combatant) IsAlive() bool { return c.hp > 0 }

// SetHP sets current health, clamped to [0, MaxHP].
func (c *Combatant) SetHP(hp int) {
	c.hp = clamp(hp, 0, c.MaxHP)
}

// ApplyDamage subtracts amount from current health and returns the new value.
// A negative amount heals.
//
// Postcondition: 0 <= HP() <= MaxHP.
func (c *Combatant) ApplyDamage(amount int) int {
	c.SetHP(c.hp - amount)
	return c.hp
}

// Heal adds amount to current health and returns the health actually restored.
//
// Postcondition: 0 <= HP() <= MaxHP.
func (c *Combatant) Heal(amount int) int {
	before := c.hp
	c.SetHP(c.hp + amount)
	return c.hp - before
}

// ForceSkip makes the combatant skip its next turn.
func (c *Combatant) ForceSkip() {
	c.forced = catalog.Some(ForcedSkip)
}

// PendingForcedAction reports the forced action waiting for the next turn, if any.
func (c *Combatant) PendingForcedAction() (ForcedAction, bool) {
	return c.forced.Get()
}

// TakeForcedAction returns and clears the pending forced action.
func (c *Combatant) TakeForcedAction() (ForcedAction, bool) {
	fa, ok := c.forced.Get()
	c.forced = catalog.None[ForcedAction]()
	return fa, ok
}

// TakeTaunt returns the combatant's taunt line the first time it is called
// and nothing afterwards.
func (c *Combatant) TakeTaunt() (string, bool) {
	line, ok := c.taunt.Get()
	c.taunt = catalog.None[string]()
	return line, ok
}

// Slot returns the gear equipped in slot.
func (c *Combatant) Slot(slot catalog.GearSlot) catalog.Optional[*catalog.Gear] {
	if slot == catalog.SlotArmor {
		return c.Armor
	}
	return c.Weapon
}

// Equip puts g into its slot and returns whatever was there before.
//
// Precondition: g must not be nil.
func (c *Combatant) Equip(g *catalog.Gear) catalog.Optional[*catalog.Gear] {
	prev := c.Slot(g.Slot)
	if g.Slot == catalog.SlotArmor {
		c.Armor = catalog.Some(g)
	} else {
		c.Weapon = catalog.Some(g)
	}
	return prev
}

// Unequip empties slot and returns the gear it held.
func (c *Combatant) Unequip(slot catalog.GearSlot) catalog.Optional[*catalog.Gear] {
	prev := c.Slot(slot)
	if slot == catalog.SlotArmor {
		c.Armor = catalog.None[*catalog.Gear]()
	} else {
		c.Weapon = catalog.None[*catalog.Gear]()
	}
	return prev
}

// EquippedGear returns the equipped weapon and armor, weapon first.
func (c *Combatant) EquippedGear() []*catalog.Gear {
	var out []*catalog.Gear
	for _, slot := range []catalog.Optional[*catalog.Gear]{c.Weapon, c.Armor} {
		if g, ok := slot.Get(); ok {
			out = append(out, g)
		}
	}
	return out
}

// Attacks lists the attacks the combatant can choose from: the standard
// attack, the additional standard attack and the equipped weapon's attack.
func (c *Combatant) Attacks() []*catalog.Attack {
	out := []*catalog.Attack{c.StandardAttack}
	if a, ok := c.AdditionalAttack.Get(); ok {
		out = append(out, a)
	}
	if w, ok := c.Weapon.Get(); ok {
		if a, ok := w.Attack.Get(); ok {
			out = append(out, a)
		}
	}
	return out
}

// Roster returns the roster the combatant currently belongs to, or nil.
func (c *Combatant) Roster() *Roster { return c.roster }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
