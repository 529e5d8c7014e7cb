package party

import (
	"fmt"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
)

// Controller identifies who picks a roster's actions.
type Controller int

const (
	ControllerHuman Controller = iota
	ControllerBot
)

// String returns "human" or "bot".
func (c Controller) String() string {
	if c == ControllerBot {
		return "bot"
	}
	return "human"
}

// Roster is one side of the battle. Member order is turn order.
//
// Invariant: a combatant belongs to at most one roster and is never re-added
// after removal.
type Roster struct {
	Side       catalog.Side
	Controller Controller
	// Waves is the queue of monster groups still to come; nil for the hero side.
	Waves *WaveQueue

	members     []*Combatant
	items       []*catalog.Consumable
	gear        []*catalog.Gear
	turnsPlayed int
}

// NewRoster creates an empty roster for side, controlled by ctl.
func NewRoster(side catalog.Side, ctl Controller) *Roster {
	r := &Roster{Side: side, Controller: ctl}
	if side == catalog.SideMonster {
		r.Waves = &WaveQueue{}
	}
	return r
}

// Add appends combatants to the end of the turn order.
//
// Postcondition: on error no combatant has been added.
func (r *Roster) Add(cs ...*Combatant) error {
	seen := make(map[*Combatant]bool, len(cs))
	for _, c := range cs {
		switch {
		case seen[c]:
			return fmt.Errorf("party: %s (%s) listed twice", c.Name, c.ID)
		case c.removed:
			return fmt.Errorf("party: %s (%s) was removed and cannot rejoin", c.Name, c.ID)
		case c.roster != nil:
			return fmt.Errorf("party: %s (%s) already belongs to the %s roster", c.Name, c.ID, c.roster.Side)
		}
	}
	for _, c := range cs {
		c.roster = r
		c.Side = r.Side
		r.members = append(r.members, c)
	}
	return nil
}

// Remove takes c out of the roster permanently.
//
// Postcondition: returns true iff c was a member; c can never be re-added.
func (r *Roster) Remove(c *Combatant) bool {
	for i, m := range r.members {
		if m == c {
			r.members = append(r.members[:i], r.members[i+1:]...)
			c.roster = nil
			c.removed = true
			return true
		}
	}
	return false
}

// Contains reports whether c is currently a member.
func (r *Roster) Contains(c *Combatant) bool {
	return c != nil && c.roster == r
}

// Len returns the number of members.
func (r *Roster) Len() int { return len(r.members) }

// IsEmpty reports whether the roster has no members left.
func (r *Roster) IsEmpty() bool { return len(r.members) == 0 }

// At returns the member at index i.
func (r *Roster) At(i int) (*Combatant, bool) {
	if i < 0 || i >= len(r.members) {
		return nil, false
	}
	return r.members[i], true
}

// Members returns a snapshot of the members in turn order.
func (r *Roster) Members() []*Combatant {
	out := make([]*Combatant, len(r.members))
	copy(out, r.members)
	return out
}

// Fallen returns members whose health has reached zero, in turn order.
func (r *Roster) Fallen() []*Combatant {
	var out []*Combatant
	for _, m := range r.members {
		if !m.IsAlive() {
			out = append(out, m)
		}
	}
	return out
}

// TurnsPlayed returns how many full roster turns this side has completed.
func (r *Roster) TurnsPlayed() int { return r.turnsPlayed }

// AddTurn records one completed roster turn.
func (r *Roster) AddTurn() { r.turnsPlayed++ }
