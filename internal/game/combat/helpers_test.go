package combat_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
	"github.com/cory-johannsen/finalbattle/internal/game/combat"
	"github.com/cory-johannsen/finalbattle/internal/game/dice"
	"github.com/cory-johannsen/finalbattle/internal/game/party"
	"github.com/cory-johannsen/finalbattle/internal/game/status"
)

// seqSrc replays vals in order, clamped into range, then returns 0 forever.
type seqSrc struct {
	vals []int
	i    int
}

func (s *seqSrc) Intn(n int) int {
	if s.i >= len(s.vals) {
		return 0
	}
	v := s.vals[s.i]
	s.i++
	if v >= n {
		return n - 1
	}
	return v
}

func rollerOf(vals ...int) *dice.Roller {
	return dice.NewLoggedRoller(&seqSrc{vals: vals}, zap.NewNop())
}

var (
	poisonDef = catalog.EffectDef{Kind: catalog.EffectPoison, Duration: 3, Damage: 1}
	plagueDef = catalog.EffectDef{Kind: catalog.EffectRotPlague, Duration: 3}

	punch      = &catalog.Attack{ID: "punch", Name: "Punch", Damage: dice.MustParse("1"), Probability: 1}
	unraveling = &catalog.Attack{ID: "unraveling", Name: "Unraveling", Category: catalog.CategoryDecoding, Damage: dice.MustParse("1d5-1"), Probability: 1}
	scratch    = &catalog.Attack{ID: "scratch", Name: "Scratch", Damage: dice.MustParse("1"), Probability: 1, Effect: catalog.Some(catalog.EffectRotPlague)}
	whip       = &catalog.Attack{ID: "whip", Name: "Whip", Damage: dice.MustParse("1"), Probability: 0.5, Effect: catalog.Some(catalog.EffectPoison)}
	grapple    = &catalog.Attack{ID: "grapple", Name: "Grapple", Damage: dice.MustParse("2"), Probability: 0.5,
		SideEffect: catalog.Some(catalog.SideEffect{Kind: catalog.SideEffectSteal, Chance: 0.99})}
	rockets = &catalog.Attack{ID: "smart_rockets", Name: "Smart Rockets", Kind: catalog.AttackArea, Damage: dice.MustParse("3"), Probability: 0.75}
	slash   = &catalog.Attack{ID: "slash", Name: "Slash", Kind: catalog.AttackGear, Damage: dice.MustParse("2"), Probability: 1}
	cannon  = &catalog.Attack{ID: "cannon_ball", Name: "Cannon Ball", Kind: catalog.AttackGear, Rule: catalog.DamageRoundScaled, Probability: 1}

	sword  = &catalog.Gear{ID: "sword", Name: "Sword", Slot: catalog.SlotWeapon, Attack: catalog.Some(slash)}
	dagger = &catalog.Gear{ID: "dagger", Name: "Dagger", Slot: catalog.SlotWeapon, Attack: catalog.Some(slash)}
	helm   = &catalog.Gear{ID: "binary_helm", Name: "Binary Helm", Slot: catalog.SlotArmor,
		OffensiveModifier: catalog.Some(&catalog.OffensiveModifier{ID: "binary", Name: "Binary", Value: dice.MustParse("1d2-1")})}

	stoneArmor  = &catalog.DefensiveModifier{ID: "stone_armor", Name: "Stone Armor", Value: -1}
	objectSight = &catalog.DefensiveModifier{ID: "object_sight", Name: "Object Sight", Value: -2, Gate: catalog.Some(catalog.CategoryDecoding)}

	potion = &catalog.Consumable{ID: "health_potion", Name: "Health Potion", Heal: 10}
)

func newDef(id string, hp int, atk *catalog.Attack) *catalog.CharacterDef {
	return &catalog.CharacterDef{ID: id, Name: id, MaxHP: hp, StandardAttack: atk}
}

func join(t *testing.T, r *party.Roster, defs ...*catalog.CharacterDef) []*party.Combatant {
	t.Helper()
	out := make([]*party.Combatant, len(defs))
	for i, d := range defs {
		out[i] = party.NewCombatant(d)
	}
	require.NoError(t, r.Add(out...))
	return out
}

// fixture wires a Resolver to fresh rosters with a scripted roller.
type fixture struct {
	heroes   *party.Roster
	monsters *party.Roster
	rec      *combat.Recorder
	resolver *combat.Resolver
	progress *combat.Progress
	poison   *status.Registry
	plague   *status.Registry
}

func newFixture(t *testing.T, vals ...int) *fixture {
	t.Helper()
	poison, err := status.NewRegistry(poisonDef)
	require.NoError(t, err)
	plague, err := status.NewRegistry(plagueDef)
	require.NoError(t, err)
	rec := &combat.Recorder{}
	return &fixture{
		heroes:   party.NewRoster(catalog.SideHero, party.ControllerBot),
		monsters: party.NewRoster(catalog.SideMonster, party.ControllerBot),
		rec:      rec,
		resolver: combat.NewResolver(rollerOf(vals...), rec, zap.NewNop()),
		progress: &combat.Progress{},
		poison:   poison,
		plague:   plague,
	}
}

// field returns the Field for an action taken by side.
func (f *fixture) field(side catalog.Side, round int) *combat.Field {
	own, opp := f.heroes, f.monsters
	if side == catalog.SideMonster {
		own, opp = f.monsters, f.heroes
	}
	return &combat.Field{
		Own: own, Opponents: opp,
		Heroes: f.heroes, Monsters: f.monsters,
		Poison: f.poison, Plague: f.plague,
		Round: round, Progress: f.progress,
	}
}

func eventsOf[T combat.Event](rec *combat.Recorder) []T {
	var out []T
	for _, ev := range rec.Events() {
		if e, ok := ev.(T); ok {
			out = append(out, e)
		}
	}
	return out
}
