package party

import "github.com/cory-johannsen/finalbattle/internal/game/catalog"

// Wave is one queued monster group with the gear and items it brings. The
// three parts travel as a single bundle so they can never fall out of step.
type Wave struct {
	Characters []*Combatant
	Gear       []*catalog.Gear
	Items      []*catalog.Consumable
}

// WaveQueue is the ordered list of monster waves not yet in the fight.
type WaveQueue struct {
	waves []Wave
}

// Push appends w to the back of the queue.
func (q *WaveQueue) Push(w Wave) {
	q.waves = append(q.waves, w)
}

// Pop removes and returns the front wave.
func (q *WaveQueue) Pop() (Wave, bool) {
	if len(q.waves) == 0 {
		return Wave{}, false
	}
	w := q.waves[0]
	q.waves = q.waves[1:]
	return w, true
}

// Len returns the number of waves still queued.
func (q *WaveQueue) Len() int { return len(q.waves) }
