package combat_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
	"github.com/cory-johannsen/finalbattle/internal/game/combat"
	"github.com/cory-johannsen/finalbattle/internal/game/dice"
	"github.com/cory-johannsen/finalbattle/internal/game/party"
)

func always(choice combat.Choice) combat.Selector {
	return combat.SelectorFunc(func(context.Context, combat.TurnView) (combat.Choice, error) {
		return choice, nil
	})
}

var attackFirst = combat.Choice{Action: combat.ActionAttack}

func newController(t *testing.T, heroes, monsters *party.Roster, heroSel, monsterSel combat.Selector, rec *combat.Recorder) *combat.Controller {
	t.Helper()
	c, err := combat.NewController(combat.Options{
		Heroes:          heroes,
		Monsters:        monsters,
		HeroSelector:    heroSel,
		MonsterSelector: monsterSel,
		Poison:          poisonDef,
		Plague:          plagueDef,
		Roller:          rollerOf(),
		Notifier:        rec,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)
	return c
}

func rosters() (*party.Roster, *party.Roster) {
	return party.NewRoster(catalog.SideHero, party.ControllerHuman), party.NewRoster(catalog.SideMonster, party.ControllerBot)
}

func TestNewController_ValidatesOptions(t *testing.T) {
	_, err := combat.NewController(combat.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rosters")
	assert.Contains(t, err.Error(), "selectors")
	assert.Contains(t, err.Error(), "roller")
	assert.Contains(t, err.Error(), "duration")
}

func TestController_RunToVictoryAcrossWaves(t *testing.T) {
	heroes, monsters := rosters()
	join(t, heroes, newDef("hero", 10, punch))
	join(t, monsters, newDef("skeleton", 2, punch))
	rec := &combat.Recorder{}
	c := newController(t, heroes, monsters, always(attackFirst), always(combat.Skip()), rec)
	c.QueueWave(party.Wave{Characters: []*party.Combatant{party.NewCombatant(newDef("skeleton", 2, punch))}})
	assert.Equal(t, 1, c.Budget())

	out, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, catalog.SideHero, out.Winner)
	assert.Equal(t, 4, out.Rounds)
	assert.Equal(t, 0, c.Budget())
	assert.Equal(t, 1, c.WavesReleased())
	assert.Len(t, eventsOf[combat.WaveReleased](rec), 1)
	evs := rec.Events()
	require.NotEmpty(t, evs)
	assert.Equal(t, combat.KindBattleOver, evs[len(evs)-1].Kind())
	assert.Len(t, eventsOf[combat.BattleOver](rec), 1)

	_, err = c.Run(context.Background())
	assert.ErrorIs(t, err, combat.ErrBattleOver)
}

func TestController_MonstersWinWhenHeroesFall(t *testing.T) {
	heroes, monsters := rosters()
	join(t, heroes, newDef("hero", 2, punch))
	join(t, monsters, newDef("uncoded_one", 15, punch))
	rec := &combat.Recorder{}
	c := newController(t, heroes, monsters, always(combat.Skip()), always(attackFirst), rec)

	out, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalog.SideMonster, out.Winner)
	defeated := eventsOf[combat.SideDefeated](rec)
	require.Len(t, defeated, 1)
	assert.Equal(t, catalog.SideHero, defeated[0].Side)
}

func TestController_EmptyMonsterRosterPullsFirstWave(t *testing.T) {
	heroes, monsters := rosters()
	join(t, heroes, newDef("hero", 10, punch))
	rec := &combat.Recorder{}
	c := newController(t, heroes, monsters, always(attackFirst), always(combat.Skip()), rec)
	c.QueueWave(party.Wave{Characters: []*party.Combatant{party.NewCombatant(newDef("skeleton", 1, punch))}})

	out, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalog.SideHero, out.Winner)
	assert.Equal(t, 1, c.WavesReleased())
}

func TestController_RoundCompletesOnlyWhenTurnsMatch(t *testing.T) {
	heroes, monsters := rosters()
	join(t, heroes, newDef("hero", 10, punch))
	join(t, monsters, newDef("skeleton", 5, punch))
	c := newController(t, heroes, monsters, always(combat.Skip()), always(combat.Skip()), &combat.Recorder{})

	for i := 0; i < 3; i++ {
		heroes.AddTurn()
	}
	monsters.AddTurn()
	monsters.AddTurn()
	assert.False(t, c.CompleteRound())
	assert.Equal(t, 1, c.Round())

	monsters.AddTurn()
	assert.True(t, c.CompleteRound())
	assert.Equal(t, 2, c.Round())
}

func TestController_ActiveIndexResetsAfterRosterTurn(t *testing.T) {
	heroes, monsters := rosters()
	join(t, heroes, newDef("hero", 10, punch), newDef("mage", 10, punch), newDef("rogue", 10, punch))
	join(t, monsters, newDef("skeleton", 5, punch))
	c := newController(t, heroes, monsters, always(combat.Skip()), always(combat.Skip()), &combat.Recorder{})

	c.BeginSideTurn()
	require.NoError(t, c.RunRosterTurn(context.Background()))

	assert.Equal(t, catalog.SideHero, c.ActiveSide())
	assert.Equal(t, 0, c.ActiveIndex())
	assert.Equal(t, 1, heroes.TurnsPlayed())
}

func TestController_Property_RoundTicksIffTurnsEqual(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		heroes, monsters := rosters()
		join(t, heroes, newDef("hero", 10, punch))
		join(t, monsters, newDef("skeleton", 5, punch))
		c := newController(t, heroes, monsters, always(combat.Skip()), always(combat.Skip()), &combat.Recorder{})
		h := rapid.IntRange(0, 10).Draw(rt, "hero turns")
		m := rapid.IntRange(0, 10).Draw(rt, "monster turns")
		for i := 0; i < h; i++ {
			heroes.AddTurn()
		}
		for i := 0; i < m; i++ {
			monsters.AddTurn()
		}
		ticked := c.CompleteRound()
		if ticked != (h == m) {
			rt.Fatalf("h=%d m=%d ticked=%v", h, m, ticked)
		}
		want := 1
		if ticked {
			want = 2
		}
		if c.Round() != want {
			rt.Fatalf("round = %d, want %d", c.Round(), want)
		}
	})
}

func TestController_RoundTickAppliesPoisonAndSettlesDeaths(t *testing.T) {
	heroes, monsters := rosters()
	hero := join(t, heroes, newDef("hero", 1, punch))[0]
	join(t, monsters, newDef("octopoid", 15, whip))
	rec := &combat.Recorder{}
	c := newController(t, heroes, monsters, always(combat.Skip()), always(combat.Skip()), rec)
	c.Poison().Afflict(hero, heroes)

	require.True(t, c.CompleteRound())

	assert.True(t, heroes.IsEmpty())
	assert.Len(t, eventsOf[combat.PoisonTicked](rec), 1)
	assert.Len(t, eventsOf[combat.CharacterDied](rec), 1)
	assert.Len(t, eventsOf[combat.SideDefeated](rec), 1)
	assert.Empty(t, eventsOf[combat.RoundStarted](rec), "no new round once a side is gone")
}

func TestController_ForcedSkipBypassesSelector(t *testing.T) {
	heroes, monsters := rosters()
	hero := join(t, heroes, newDef("hero", 10, punch))[0]
	join(t, monsters, newDef("skeleton", 5, punch))
	calls := 0
	sel := combat.SelectorFunc(func(context.Context, combat.TurnView) (combat.Choice, error) {
		calls++
		return attackFirst, nil
	})
	rec := &combat.Recorder{}
	c := newController(t, heroes, monsters, sel, always(combat.Skip()), rec)
	hero.ForceSkip()

	c.BeginSideTurn()
	require.NoError(t, c.RunRosterTurn(context.Background()))
	assert.Equal(t, 0, calls)
	skipped := eventsOf[combat.Skipped](rec)
	require.Len(t, skipped, 1)
	assert.True(t, skipped[0].Forced)

	c.Advance()
	c.Advance()
	c.BeginSideTurn()
	require.NoError(t, c.RunRosterTurn(context.Background()))
	assert.Equal(t, 1, calls, "the forced choice is cleared after one turn")
}

func TestController_TauntShownOnce(t *testing.T) {
	heroes, monsters := rosters()
	join(t, heroes, newDef("hero", 10, punch))
	uncodedDef := newDef("uncoded_one", 15, punch)
	uncodedDef.Taunt = catalog.Some("<<THE UNRAVELLING OF ALL THINGS IS INEVITABLE>>")
	join(t, monsters, uncodedDef)
	rec := &combat.Recorder{}
	c := newController(t, heroes, monsters, always(combat.Skip()), always(combat.Skip()), rec)

	for i := 0; i < 4; i++ {
		c.BeginSideTurn()
		require.NoError(t, c.RunRosterTurn(context.Background()))
		c.Advance()
	}

	taunts := eventsOf[combat.Taunted](rec)
	require.Len(t, taunts, 1)
	assert.Equal(t, "<<THE UNRAVELLING OF ALL THINGS IS INEVITABLE>>", taunts[0].Line)
}

func TestController_TurnViewReflectsState(t *testing.T) {
	heroes, monsters := rosters()
	heroDef := newDef("hero", 10, punch)
	heroDef.Weapon = catalog.Some(sword)
	join(t, heroes, heroDef)
	join(t, monsters, newDef("skeleton", 5, punch), newDef("rat", 3, scratch))
	heroes.AddItems(potion)
	heroes.AddGear(dagger)

	var seen combat.TurnView
	sel := combat.SelectorFunc(func(_ context.Context, v combat.TurnView) (combat.Choice, error) {
		seen = v
		return combat.Skip(), nil
	})
	c := newController(t, heroes, monsters, sel, always(combat.Skip()), &combat.Recorder{})
	c.BeginSideTurn()
	require.NoError(t, c.RunRosterTurn(context.Background()))

	assert.Equal(t, 1, seen.Round)
	assert.True(t, seen.HasWeapon())
	require.Len(t, seen.Attacks, 2)
	assert.Equal(t, catalog.AttackGear, seen.Attacks[1].Kind)
	assert.Len(t, seen.Opponents, 2)
	assert.Equal(t, []combat.ItemView{{ID: "health_potion", Name: "Health Potion", Heal: 10}}, seen.Items)
	require.Len(t, seen.Gear, 1)
	assert.Equal(t, "dagger", seen.Gear[0].ID)
}

func TestController_OutOfRangeChoicesAreClamped(t *testing.T) {
	heroes, monsters := rosters()
	join(t, heroes, newDef("hero", 10, punch))
	skel := join(t, monsters, newDef("skeleton", 5, punch))[0]
	rec := &combat.Recorder{}
	c := newController(t, heroes, monsters, always(combat.Choice{Action: combat.ActionAttack, Attack: 9, Target: 7}), always(combat.Skip()), rec)

	c.BeginSideTurn()
	require.NoError(t, c.RunRosterTurn(context.Background()))

	assert.Equal(t, 4, skel.HP())
	used := eventsOf[combat.AttackUsed](rec)
	require.Len(t, used, 1)
	assert.Equal(t, "Punch", used[0].Attack)
}

func TestController_SelectorErrorStopsTurn(t *testing.T) {
	heroes, monsters := rosters()
	join(t, heroes, newDef("hero", 10, punch))
	join(t, monsters, newDef("skeleton", 5, punch))
	boom := errors.New("boom")
	sel := combat.SelectorFunc(func(context.Context, combat.TurnView) (combat.Choice, error) {
		return combat.Choice{}, boom
	})
	c := newController(t, heroes, monsters, sel, always(combat.Skip()), &combat.Recorder{})

	_, err := c.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestController_BotDelayHonoursContext(t *testing.T) {
	heroes, monsters := rosters()
	join(t, heroes, newDef("hero", 10, punch))
	join(t, monsters, newDef("skeleton", 5, punch))
	c, err := combat.NewController(combat.Options{
		Heroes: heroes, Monsters: monsters,
		HeroSelector: always(combat.Skip()), MonsterSelector: always(combat.Skip()),
		Poison: poisonDef, Plague: plagueDef,
		Roller:   rollerOf(),
		BotDelay: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = c.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestController_Property_NoZombiesAndTermination(t *testing.T) {
	monsterAttacks := []*catalog.Attack{punch, scratch, whip, grapple, unraveling}
	rapid.Check(t, func(rt *rapid.T) {
		heroes, monsters := rosters()
		nHeroes := rapid.IntRange(1, 3).Draw(rt, "heroes")
		for i := 0; i < nHeroes; i++ {
			d := newDef("hero", rapid.IntRange(1, 15).Draw(rt, "heroHP"), punch)
			if rapid.Bool().Draw(rt, "rockets") {
				d.AdditionalAttack = catalog.Some(rockets)
			}
			join(t, heroes, d)
		}
		nMonsters := rapid.IntRange(1, 3).Draw(rt, "monsters")
		for i := 0; i < nMonsters; i++ {
			atk := monsterAttacks[rapid.IntRange(0, len(monsterAttacks)-1).Draw(rt, "monsterAttack")]
			join(t, monsters, newDef("monster", rapid.IntRange(1, 8).Draw(rt, "monsterHP"), atk))
		}

		seed := rapid.Uint64().Draw(rt, "seed")
		rng := rand.New(rand.NewPCG(seed, ^seed))
		pick := combat.SelectorFunc(func(_ context.Context, v combat.TurnView) (combat.Choice, error) {
			return combat.Choice{
				Action: combat.ActionAttack,
				Attack: rng.IntN(len(v.Attacks)),
				Target: rng.IntN(len(v.Opponents)),
			}, nil
		})
		check := combat.NotifierFunc(func(ev combat.Event) {
			if ts, ok := ev.(combat.TurnStarted); ok {
				for _, s := range append(ts.Heroes, ts.Monsters...) {
					if s.HP <= 0 {
						rt.Fatalf("%s still listed with hp %d", s.Name, s.HP)
					}
				}
			}
		})
		c, err := combat.NewController(combat.Options{
			Heroes: heroes, Monsters: monsters,
			HeroSelector: pick, MonsterSelector: pick,
			Poison: poisonDef, Plague: plagueDef,
			Roller:   dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop()),
			Notifier: check,
		})
		if err != nil {
			rt.Fatal(err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		out, err := c.Run(ctx)
		if err != nil {
			rt.Fatal(err)
		}
		if heroes.IsEmpty() == monsters.IsEmpty() {
			rt.Fatalf("exactly one side should be empty: heroes=%d monsters=%d", heroes.Len(), monsters.Len())
		}
		if (out.Winner == catalog.SideHero) != monsters.IsEmpty() {
			rt.Fatalf("winner %s does not match rosters", out.Winner)
		}
	})
}
