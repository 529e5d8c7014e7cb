package party

import (
	"fmt"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
)

// AddItems appends consumables to the side's item inventory.
func (r *Roster) AddItems(items ...*catalog.Consumable) {
	r.items = append(r.items, items...)
}

// Items returns a snapshot of the item inventory.
func (r *Roster) Items() []*catalog.Consumable {
	out := make([]*catalog.Consumable, len(r.items))
	copy(out, r.items)
	return out
}

// TakeItem removes and returns the consumable at index i.
//
// Postcondition: on error the inventory is unchanged.
func (r *Roster) TakeItem(i int) (*catalog.Consumable, error) {
	if i < 0 || i >= len(r.items) {
		return nil, fmt.Errorf("party: item index %d out of range [0, %d)", i, len(r.items))
	}
	item := r.items[i]
	r.items = append(r.items[:i], r.items[i+1:]...)
	return item, nil
}

// AddGear appends gear to the side's unequipped gear inventory.
func (r *Roster) AddGear(gear ...*catalog.Gear) {
	r.gear = append(r.gear, gear...)
}

// Gear returns a snapshot of the gear inventory.
func (r *Roster) Gear() []*catalog.Gear {
	out := make([]*catalog.Gear, len(r.gear))
	copy(out, r.gear)
	return out
}

// TakeGear removes and returns the gear at index i.
//
// Postcondition: on error the inventory is unchanged.
func (r *Roster) TakeGear(i int) (*catalog.Gear, error) {
	if i < 0 || i >= len(r.gear) {
		return nil, fmt.Errorf("party: gear index %d out of range [0, %d)", i, len(r.gear))
	}
	g := r.gear[i]
	r.gear = append(r.gear[:i], r.gear[i+1:]...)
	return g, nil
}

// DrainInventories empties both inventories and returns their contents.
func (r *Roster) DrainInventories() ([]*catalog.Gear, []*catalog.Consumable) {
	gear, items := r.gear, r.items
	r.gear, r.items = nil, nil
	return gear, items
}
