package combat

import (
	"context"
	"sync"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
)

// EventKind names one kind of battle notification.
type EventKind int

const (
	KindRoundStarted EventKind = iota
	KindTurnStarted
	KindTaunted
	KindSkipped
	KindAttackUsed
	KindAttackMissed
	KindDefensiveModifierApplied
	KindOffensiveModifierApplied
	KindGearStolen
	KindCharacterPoisoned
	KindCharacterPlagueSick
	KindPoisonTicked
	KindPlagueTicked
	KindSoulBonus
	KindDamageDealt
	KindCharacterDied
	KindGearLooted
	KindSoulsAbsorbed
	KindItemConsumed
	KindGearEquipped
	KindWaveCleared
	KindWaveReleased
	KindSideDefeated
	KindBattleOver
)

var kindNames = [...]string{
	"round_started", "turn_started", "taunted", "skipped", "attack_used", "attack_missed",
	"defensive_modifier_applied", "offensive_modifier_applied", "gear_stolen",
	"character_poisoned", "character_plague_sick", "poison_ticked", "plague_ticked",
	"soul_bonus", "damage_dealt", "character_died", "gear_looted", "souls_absorbed",
	"item_consumed", "gear_equipped", "wave_cleared", "wave_released", "side_defeated",
	"battle_over",
}

// String returns the snake_case name of the kind.
func (k EventKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Event is one observable battle fact. Events carry value snapshots only;
// observers never receive pointers into mutable battle state.
type Event interface {
	Kind() EventKind
}

// Ref identifies a combatant in an event.
type Ref struct {
	ID   string
	Name string
	Side catalog.Side
}

// Snapshot is a read-only view of one combatant's visible state.
type Snapshot struct {
	Ref
	HP     int
	MaxHP  int
	Weapon string
	Armor  string
}

type (
	RoundStarted struct{ Round int }

	// TurnStarted opens one combatant's turn and carries both rosters for display.
	TurnStarted struct {
		Round    int
		Actor    Ref
		Heroes   []Snapshot
		Monsters []Snapshot
	}

	Taunted struct {
		Actor Ref
		Line  string
	}

	Skipped struct {
		Actor  Ref
		Forced bool
	}

	AttackUsed struct {
		Actor  Ref
		Attack string
		Target Ref
		Area   bool
	}

	AttackMissed struct {
		Actor  Ref
		Attack string
	}

	DefensiveModifierApplied struct {
		Target   Ref
		Modifier string
		Value    int
		Damage   int
	}

	OffensiveModifierApplied struct {
		Actor    Ref
		Gear     string
		Modifier string
		Value    int
		Damage   int
	}

	GearStolen struct {
		Actor  Ref
		Target Ref
		Gear   string
	}

	CharacterPoisoned struct {
		Target    Ref
		Turns     int
		Refreshed bool
	}

	CharacterPlagueSick struct {
		Target Ref
		Turns  int
	}

	PoisonTicked struct {
		Target    Ref
		Damage    int
		HP        int
		Remaining int
	}

	PlagueTicked struct {
		Target    Ref
		Remaining int
	}

	SoulBonus struct {
		Actor  Ref
		Damage int
	}

	DamageDealt struct {
		Actor  Ref
		Target Ref
		Damage int
		HP     int
		MaxHP  int
	}

	CharacterDied struct{ Target Ref }

	GearLooted struct {
		From Ref
		Side catalog.Side
		Gear string
	}

	SoulsAbsorbed struct {
		Actor  Ref
		From   Ref
		Amount int
		Total  int
	}

	ItemConsumed struct {
		Actor  Ref
		Item   string
		Healed int
		HP     int
	}

	GearEquipped struct {
		Actor    Ref
		Gear     string
		Replaced string
	}

	// WaveCleared reports the defeated wave's inventories moving to the heroes.
	WaveCleared struct {
		Gear  []string
		Items []string
	}

	WaveReleased struct {
		Number     int
		Characters []string
		Remaining  int
	}

	SideDefeated struct{ Side catalog.Side }

	BattleOver struct {
		Winner catalog.Side
		Rounds int
	}
)

func (RoundStarted) Kind() EventKind             { return KindRoundStarted }
func (TurnStarted) Kind() EventKind              { return KindTurnStarted }
func (Taunted) Kind() EventKind                  { return KindTaunted }
func (Skipped) Kind() EventKind                  { return KindSkipped }
func (AttackUsed) Kind() EventKind               { return KindAttackUsed }
func (AttackMissed) Kind() EventKind             { return KindAttackMissed }
func (DefensiveModifierApplied) Kind() EventKind { return KindDefensiveModifierApplied }
func (OffensiveModifierApplied) Kind() EventKind { return KindOffensiveModifierApplied }
func (GearStolen) Kind() EventKind               { return KindGearStolen }
func (CharacterPoisoned) Kind() EventKind        { return KindCharacterPoisoned }
func (CharacterPlagueSick) Kind() EventKind      { return KindCharacterPlagueSick }
func (PoisonTicked) Kind() EventKind             { return KindPoisonTicked }
func (PlagueTicked) Kind() EventKind             { return KindPlagueTicked }
func (SoulBonus) Kind() EventKind                { return KindSoulBonus }
func (DamageDealt) Kind() EventKind              { return KindDamageDealt }
func (CharacterDied) Kind() EventKind            { return KindCharacterDied }
func (GearLooted) Kind() EventKind               { return KindGearLooted }
func (SoulsAbsorbed) Kind() EventKind            { return KindSoulsAbsorbed }
func (ItemConsumed) Kind() EventKind             { return KindItemConsumed }
func (GearEquipped) Kind() EventKind             { return KindGearEquipped }
func (WaveCleared) Kind() EventKind              { return KindWaveCleared }
func (WaveReleased) Kind() EventKind             { return KindWaveReleased }
func (SideDefeated) Kind() EventKind             { return KindSideDefeated }
func (BattleOver) Kind() EventKind               { return KindBattleOver }

// Notifier receives battle events in the order they happen.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify calls f(ev).
func (f NotifierFunc) Notify(ev Event) { f(ev) }

// Notifiers fans every event out to each member in order.
type Notifiers []Notifier

// Notify forwards ev to every notifier.
func (ns Notifiers) Notify(ev Event) {
	for _, n := range ns {
		n.Notify(ev)
	}
}

// Recorder keeps every event it receives. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify appends ev.
func (r *Recorder) Notify(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of everything recorded so far, in order.
func (r *Recorder) Kinds() []EventKind {
	evs := r.Events()
	out := make([]EventKind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind()
	}
	return out
}

// ChannelNotifier forwards events onto a typed channel for a frontend that
// consumes them from another goroutine. Each send blocks until the event is
// received or ctx is done, so a stalled receiver cannot hang the battle.
type ChannelNotifier struct {
	ctx context.Context
	ch  chan<- Event
}

// NewChannelNotifier creates a ChannelNotifier sending on ch until ctx is done.
//
// Precondition: ctx and ch must not be nil.
func NewChannelNotifier(ctx context.Context, ch chan<- Event) *ChannelNotifier {
	return &ChannelNotifier{ctx: ctx, ch: ch}
}

// Notify sends ev on the channel, giving up when the context is done.
func (n *ChannelNotifier) Notify(ev Event) {
	select {
	case n.ch <- ev:
	case <-n.ctx.Done():
	}
}
