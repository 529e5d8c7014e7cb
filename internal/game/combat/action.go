package combat

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
	"github.com/cory-johannsen/finalbattle/internal/game/party"
)

// ActionKind is the top-level choice a combatant makes on its turn.
type ActionKind int

const (
	ActionSkip ActionKind = iota
	ActionAttack
	ActionUseItem
	ActionEquipGear
)

// String returns the human-readable action name.
func (k ActionKind) String() string {
	switch k {
	case ActionSkip:
		return "skip"
	case ActionAttack:
		return "attack"
	case ActionUseItem:
		return "use item"
	case ActionEquipGear:
		return "equip gear"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Choice is what a Selector decided. Attack and Target index into the
// TurnView's Attacks and Opponents; Inventory indexes Items or Gear
// depending on Action.
type Choice struct {
	Action    ActionKind
	Attack    int
	Target    int
	Inventory int
}

// Skip returns a Choice that does nothing.
func Skip() Choice { return Choice{Action: ActionSkip} }

// AttackView describes one attack the actor may use.
type AttackView struct {
	ID          string
	Name        string
	Kind        catalog.AttackKind
	Probability float64
}

// ItemView describes one consumable in the actor's side inventory.
type ItemView struct {
	ID   string
	Name string
	Heal int
}

// GearView describes one piece of unequipped gear in the side inventory.
type GearView struct {
	ID   string
	Name string
	Slot catalog.GearSlot
}

// TurnView is the read-only state a Selector decides from.
type TurnView struct {
	Round      int
	Controller party.Controller
	Actor      Snapshot
	Attacks    []AttackView
	Allies     []Snapshot
	Opponents  []Snapshot
	Items      []ItemView
	Gear       []GearView
}

// HasWeapon reports whether the actor has a weapon equipped.
func (v TurnView) HasWeapon() bool { return v.Actor.Weapon != "" }

// Selector picks the action for one combatant's turn. Select may block
// (waiting for a human, pacing a bot) and must return promptly once ctx is done.
type Selector interface {
	Select(ctx context.Context, view TurnView) (Choice, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, view TurnView) (Choice, error)

// Select calls f(ctx, view).
func (f SelectorFunc) Select(ctx context.Context, view TurnView) (Choice, error) {
	return f(ctx, view)
}

// ActionContext is the transient state of one action while it resolves.
type ActionContext struct {
	Actor  *party.Combatant
	Attack *catalog.Attack
	// Target indexes the opposing roster; area attacks report index 0.
	Target int
	Damage int
}

func refOf(c *party.Combatant) Ref {
	return Ref{ID: c.ID, Name: c.Name, Side: c.Side}
}

func snapshotOf(c *party.Combatant) Snapshot {
	s := Snapshot{Ref: refOf(c), HP: c.HP(), MaxHP: c.MaxHP}
	if w, ok := c.Weapon.Get(); ok {
		s.Weapon = w.Name
	}
	if a, ok := c.Armor.Get(); ok {
		s.Armor = a.Name
	}
	return s
}

func snapshots(r *party.Roster) []Snapshot {
	members := r.Members()
	out := make([]Snapshot, len(members))
	for i, m := range members {
		out[i] = snapshotOf(m)
	}
	return out
}

func buildView(round int, actor *party.Combatant, own, opp *party.Roster) TurnView {
	v := TurnView{
		Round:      round,
		Controller: own.Controller,
		Actor:      snapshotOf(actor),
		Allies:     snapshots(own),
		Opponents:  snapshots(opp),
	}
	for _, a := range actor.Attacks() {
		v.Attacks = append(v.Attacks, AttackView{ID: a.ID, Name: a.Name, Kind: a.Kind, Probability: a.Probability})
	}
	for _, it := range own.Items() {
		v.Items = append(v.Items, ItemView{ID: it.ID, Name: it.Name, Heal: it.Heal})
	}
	for _, g := range own.Gear() {
		v.Gear = append(v.Gear, GearView{ID: g.ID, Name: g.Name, Slot: g.Slot})
	}
	return v
}
