package combat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
	"github.com/cory-johannsen/finalbattle/internal/game/dice"
	"github.com/cory-johannsen/finalbattle/internal/game/party"
	"github.com/cory-johannsen/finalbattle/internal/game/status"
)

// ErrBattleOver is returned when Run is called on a finished battle.
var ErrBattleOver = errors.New("combat: battle is over")

// Options configures a Controller.
type Options struct {
	Heroes          *party.Roster
	Monsters        *party.Roster
	HeroSelector    Selector
	MonsterSelector Selector
	Poison          catalog.EffectDef
	Plague          catalog.EffectDef
	Roller          *dice.Roller
	// Notifier receives every battle event; nil discards them.
	Notifier Notifier
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// BotDelay paces bot-controlled turns so a watcher can follow them.
	BotDelay time.Duration
}

// Outcome is the result of a finished battle.
type Outcome struct {
	Winner catalog.Side
	Rounds int
}

// Controller drives the battle: it alternates sides, walks each roster in
// turn order, asks the side's Selector for every action and hands the
// choice to the Resolver. It is not safe for concurrent use.
type Controller struct {
	heroes    *party.Roster
	monsters  *party.Roster
	selectors map[catalog.Side]Selector
	poison    *status.Registry
	plague    *status.Registry
	resolver  *Resolver
	notifier  Notifier
	logger    *zap.Logger
	botDelay  time.Duration

	progress    Progress
	round       int
	alternation int
	active      *party.Roster
	index       int
	finished    bool
}

// NewController validates opts and creates a Controller at round 1 with the
// hero side to act first.
//
// Postcondition: on error the returned Controller is nil.
func NewController(opts Options) (*Controller, error) {
	var errs []error
	if opts.Heroes == nil || opts.Monsters == nil {
		errs = append(errs, errors.New("both rosters are required"))
	} else if opts.Heroes.Side != catalog.SideHero || opts.Monsters.Side != catalog.SideMonster {
		errs = append(errs, errors.New("rosters are on the wrong sides"))
	}
	if opts.HeroSelector == nil || opts.MonsterSelector == nil {
		errs = append(errs, errors.New("both selectors are required"))
	}
	if opts.Roller == nil {
		errs = append(errs, errors.New("roller is required"))
	}
	poison, err := status.NewRegistry(opts.Poison)
	if err != nil {
		errs = append(errs, err)
	}
	plague, err := status.NewRegistry(opts.Plague)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("combat: invalid options: %w", errors.Join(errs...))
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(Event) {})
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		heroes:   opts.Heroes,
		monsters: opts.Monsters,
		selectors: map[catalog.Side]Selector{
			catalog.SideHero:    opts.HeroSelector,
			catalog.SideMonster: opts.MonsterSelector,
		},
		poison:   poison,
		plague:   plague,
		resolver: NewResolver(opts.Roller, notifier, logger),
		notifier: notifier,
		logger:   logger,
		botDelay: opts.BotDelay,
		round:    1,
		active:   opts.Heroes,
	}, nil
}

// Round returns the current round, starting at 1.
func (c *Controller) Round() int { return c.round }

// Budget returns how many queued waves may still be released.
func (c *Controller) Budget() int { return c.progress.Budget }

// WavesReleased returns how many queued waves have entered the fight.
func (c *Controller) WavesReleased() int { return c.progress.Released }

// ActiveSide returns the side whose roster turn is current.
func (c *Controller) ActiveSide() catalog.Side { return c.active.Side }

// ActiveIndex returns the turn-order index of the combatant acting now.
func (c *Controller) ActiveIndex() int { return c.index }

// Poison returns the poison registry.
func (c *Controller) Poison() *status.Registry { return c.poison }

// Plague returns the rot-plague registry.
func (c *Controller) Plague() *status.Registry { return c.plague }

// QueueWave appends w to the monster wave queue and grants one more release.
func (c *Controller) QueueWave(w party.Wave) {
	c.monsters.Waves.Push(w)
	c.progress.Budget++
}

// BeginSideTurn selects the roster whose turn it is from the alternation
// counter and points the active index at its first member.
func (c *Controller) BeginSideTurn() {
	c.active = c.heroes
	if c.alternation%2 == 1 {
		c.active = c.monsters
	}
	c.index = 0
}

// Advance hands the turn to the other side.
func (c *Controller) Advance() {
	c.alternation++
}

// RunRosterTurn lets every member of the active roster act once, in turn
// order, then records the roster turn. It stops early once either roster is
// empty and returns the first Selector error.
func (c *Controller) RunRosterTurn(ctx context.Context) error {
	for c.index = 0; c.index < c.active.Len(); c.index++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.heroes.IsEmpty() || c.monsters.IsEmpty() {
			break
		}
		actor, ok := c.active.At(c.index)
		if !ok || !actor.IsAlive() {
			continue
		}
		if err := c.takeTurn(ctx, actor); err != nil {
			return err
		}
	}
	c.index = clampIndex(c.index, c.active.Len())
	c.active.AddTurn()
	return nil
}

// CompleteRound closes the round once both sides have played the same
// number of roster turns: the status registries tick, casualties are
// settled and the round counter advances.
//
// Postcondition: returns true iff the round counter was incremented.
func (c *Controller) CompleteRound() bool {
	if c.heroes.TurnsPlayed() != c.monsters.TurnsPlayed() {
		return false
	}
	for _, t := range c.poison.Tick() {
		c.notifier.Notify(PoisonTicked{Target: refOf(t.Target), Damage: t.Damage, HP: t.HP, Remaining: t.Remaining})
	}
	for _, t := range c.plague.Tick() {
		c.notifier.Notify(PlagueTicked{Target: refOf(t.Target), Remaining: t.Remaining})
	}
	f := c.field(c.active)
	c.resolver.Settle(f, nil)
	c.resolver.CheckSides(f)

	c.round++
	c.logger.Info("round complete", zap.Int("next_round", c.round))
	if !c.over() {
		c.notifier.Notify(RoundStarted{Round: c.round})
	}
	return true
}

// Run plays the battle until one side is empty.
//
// Postcondition: exactly one BattleOver event has been emitted on success.
func (c *Controller) Run(ctx context.Context) (Outcome, error) {
	if c.finished {
		return Outcome{}, ErrBattleOver
	}
	c.resolver.CheckSides(c.field(c.heroes))
	if !c.over() {
		c.notifier.Notify(RoundStarted{Round: c.round})
	}
	for !c.over() {
		c.BeginSideTurn()
		if err := c.RunRosterTurn(ctx); err != nil {
			return Outcome{}, err
		}
		if c.over() {
			break
		}
		c.CompleteRound()
		c.Advance()
	}
	c.finished = true

	out := Outcome{Winner: catalog.SideHero, Rounds: c.round}
	if c.heroes.IsEmpty() {
		out.Winner = catalog.SideMonster
	}
	c.logger.Info("battle over", zap.Stringer("winner", out.Winner), zap.Int("rounds", out.Rounds))
	c.notifier.Notify(BattleOver{Winner: out.Winner, Rounds: out.Rounds})
	return out, nil
}

func (c *Controller) over() bool {
	return c.heroes.IsEmpty() || c.monsters.IsEmpty()
}

func (c *Controller) takeTurn(ctx context.Context, actor *party.Combatant) error {
	own := c.active
	opp := c.monsters
	if own == c.monsters {
		opp = c.heroes
	}
	c.notifier.Notify(TurnStarted{Round: c.round, Actor: refOf(actor), Heroes: snapshots(c.heroes), Monsters: snapshots(c.monsters)})
	if line, ok := actor.TakeTaunt(); ok {
		c.notifier.Notify(Taunted{Actor: refOf(actor), Line: line})
	}
	if fa, ok := actor.TakeForcedAction(); ok && fa == party.ForcedSkip {
		c.logger.Debug("forced skip", zap.String("actor", actor.Name))
		c.notifier.Notify(Skipped{Actor: refOf(actor), Forced: true})
		return nil
	}

	choice, err := c.selectors[own.Side].Select(ctx, buildView(c.round, actor, own, opp))
	if err != nil {
		return fmt.Errorf("selecting action for %s: %w", actor.Name, err)
	}
	c.logger.Debug("action chosen",
		zap.String("actor", actor.Name),
		zap.Stringer("action", choice.Action),
		zap.Int("attack", choice.Attack),
		zap.Int("target", choice.Target),
		zap.Int("inventory", choice.Inventory),
	)
	c.apply(actor, choice)
	if own.Controller == party.ControllerBot {
		return pace(ctx, c.botDelay)
	}
	return nil
}

func (c *Controller) apply(actor *party.Combatant, choice Choice) {
	f := c.field(c.active)
	switch choice.Action {
	case ActionAttack:
		attacks := actor.Attacks()
		idx := choice.Attack
		if idx < 0 || idx >= len(attacks) {
			idx = 0
		}
		c.resolver.Attack(f, &ActionContext{Actor: actor, Attack: attacks[idx], Target: choice.Target})
	case ActionUseItem:
		c.resolver.UseItem(f, actor, choice.Inventory)
	case ActionEquipGear:
		c.resolver.EquipGear(f, actor, choice.Inventory)
	default:
		c.notifier.Notify(Skipped{Actor: refOf(actor)})
	}
}

func (c *Controller) field(own *party.Roster) *Field {
	opp := c.monsters
	if own == c.monsters {
		opp = c.heroes
	}
	return &Field{
		Own:       own,
		Opponents: opp,
		Heroes:    c.heroes,
		Monsters:  c.monsters,
		Poison:    c.poison,
		Plague:    c.plague,
		Round:     c.round,
		Progress:  &c.progress,
	}
}

// clampIndex resets i to 0 whenever it falls outside [0, n).
func clampIndex(i, n int) int {
	if i < 0 || i >= n {
		return 0
	}
	return i
}

// pace waits d, returning early with ctx's error if ctx is done first.
func pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
