package catalog_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
)

const contentDir = "../../../content/catalog"

func TestOptional(t *testing.T) {
	none := catalog.None[int]()
	_, ok := none.Get()
	assert.False(t, ok)
	assert.False(t, none.IsSome())
	assert.Equal(t, 7, none.OrElse(7))

	some := catalog.Some(3)
	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, some.OrElse(7))
}

func TestSide_Opponent(t *testing.T) {
	assert.Equal(t, catalog.SideMonster, catalog.SideHero.Opponent())
	assert.Equal(t, catalog.SideHero, catalog.SideMonster.Opponent())
	assert.Equal(t, "hero", catalog.SideHero.String())
}

func TestRoundScaledDamage(t *testing.T) {
	tests := []struct{ round, want int }{
		{1, 1}, {3, 2}, {5, 2}, {6, 2}, {10, 2}, {15, 5}, {30, 5}, {7, 1},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, catalog.RoundScaledDamage(tc.round), "round=%d", tc.round)
	}
}

func TestRoundScaledDamage_Property_OneOfThree(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := rapid.IntRange(0, 10_000).Draw(rt, "round")
		assert.Contains(rt, []int{1, 2, 5}, catalog.RoundScaledDamage(r))
	})
}

func TestDefensiveModifier_Applies(t *testing.T) {
	plain := &catalog.DefensiveModifier{Name: "Stone Armor", Value: -1, Gate: catalog.None[catalog.Category]()}
	gated := &catalog.DefensiveModifier{Name: "Object Sight", Value: -2, Gate: catalog.Some(catalog.CategoryDecoding)}
	assert.True(t, plain.Applies(catalog.CategoryNormal))
	assert.True(t, plain.Applies(catalog.CategoryDecoding))
	assert.False(t, gated.Applies(catalog.CategoryNormal))
	assert.True(t, gated.Applies(catalog.CategoryDecoding))
}

func TestLoadDirectory_Content(t *testing.T) {
	reg, err := catalog.LoadDirectory(contentDir)
	require.NoError(t, err)

	punch, err := reg.Attack("punch")
	require.NoError(t, err)
	assert.Equal(t, 1, punch.Damage.Modifier)
	assert.Equal(t, 1.0, punch.Probability)

	scratch, err := reg.Attack("scratch")
	require.NoError(t, err)
	eff, ok := scratch.Effect.Get()
	require.True(t, ok)
	assert.Equal(t, catalog.EffectRotPlague, eff)

	grapple, err := reg.Attack("grapple")
	require.NoError(t, err)
	se, ok := grapple.SideEffect.Get()
	require.True(t, ok)
	assert.Equal(t, catalog.SideEffectSteal, se.Kind)

	rockets, err := reg.Attack("smart_rockets")
	require.NoError(t, err)
	assert.True(t, rockets.IsArea())

	helm, err := reg.Gear("binary_helm")
	require.NoError(t, err)
	assert.Equal(t, catalog.SlotArmor, helm.Slot)
	assert.True(t, helm.OffensiveModifier.IsSome())
	assert.False(t, helm.Attack.IsSome())

	tp, err := reg.Character("true_programmer")
	require.NoError(t, err)
	assert.True(t, tp.PlayerNamed)
	def, ok := tp.Defense.Get()
	require.True(t, ok)
	gate, gated := def.Gate.Get()
	assert.True(t, gated)
	assert.Equal(t, catalog.CategoryDecoding, gate)

	poison, err := reg.Effect(catalog.EffectPoison)
	require.NoError(t, err)
	assert.Equal(t, 3, poison.Duration)
	assert.Equal(t, 1, poison.Damage)

	assert.Contains(t, reg.CharacterIDs(), "uncoded_one")
	assert.Greater(t, reg.Counts()["attacks"], 0)
}

func TestContent_EveryWeaponGrantsAGearAttack(t *testing.T) {
	reg, err := catalog.LoadDirectory(contentDir)
	require.NoError(t, err)
	for _, id := range reg.CharacterIDs() {
		c, err := reg.Character(id)
		require.NoError(t, err)
		if w, ok := c.Weapon.Get(); ok {
			a, ok := w.Attack.Get()
			require.True(t, ok, "weapon %q of %q has no attack", w.ID, id)
			assert.Equal(t, catalog.AttackGear, a.Kind)
		}
	}
}

func TestRegistry_UnknownWrapsErrUnknown(t *testing.T) {
	reg, err := catalog.Build()
	require.NoError(t, err)
	_, err = reg.Attack("nope")
	assert.True(t, errors.Is(err, catalog.ErrUnknown))
	_, err = reg.Character("nope")
	assert.True(t, errors.Is(err, catalog.ErrUnknown))
	_, err = reg.Effect(catalog.EffectPoison)
	assert.True(t, errors.Is(err, catalog.ErrUnknown))
}

func decode(t *testing.T, src string) catalog.Document {
	t.Helper()
	doc, err := catalog.DecodeDocument(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestDecodeDocument_RejectsUnknownFields(t *testing.T) {
	_, err := catalog.DecodeDocument(strings.NewReader("attacks:\n  - id: x\n    bogus: 1\n"))
	assert.Error(t, err)
}

func TestBuild_RejectsBadReferences(t *testing.T) {
	cases := map[string]string{
		"unknown effect": `
attacks:
  - {id: a, name: A, damage: "1", probability: 1, effect: poison}
`,
		"probability out of range": `
attacks:
  - {id: a, name: A, damage: "1", probability: 1.5}
`,
		"negative damage": `
attacks:
  - {id: a, name: A, damage: "1d2-3", probability: 1}
`,
		"weapon without attack": `
gear:
  - {id: g, name: G, slot: weapon}
`,
		"armor with attack": `
attacks:
  - {id: a, name: A, kind: gear, damage: "1", probability: 1}
gear:
  - {id: g, name: G, slot: armor, attack: a}
`,
		"weapon with standard attack": `
attacks:
  - {id: a, name: A, damage: "1", probability: 1}
gear:
  - {id: g, name: G, slot: weapon, attack: a}
`,
		"character unknown attack": `
characters:
  - {id: c, name: C, side: hero, max_hp: 3, standard_attack: nope}
`,
		"armor in weapon slot": `
gear:
  - {id: helm, name: Helm, slot: armor}
attacks:
  - {id: a, name: A, damage: "1", probability: 1}
characters:
  - {id: c, name: C, side: hero, max_hp: 3, standard_attack: a, weapon: helm}
`,
		"duplicate attack": `
attacks:
  - {id: a, name: A, damage: "1", probability: 1}
  - {id: a, name: A, damage: "1", probability: 1}
`,
		"gated offensive": `
modifiers:
  - {id: m, name: M, kind: offensive, value: "1", gate: decoding}
`,
		"dice defensive": `
modifiers:
  - {id: m, name: M, kind: defensive, value: "1d2"}
`,
		"zero duration": `
effects:
  - {kind: poison, duration: 0}
`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.Build(decode(t, src))
			assert.Error(t, err)
		})
	}
}

func TestBuild_MergesDocuments(t *testing.T) {
	a := decode(t, `
attacks:
  - {id: punch, name: Punch, damage: "1", probability: 1}
`)
	b := decode(t, `
characters:
  - {id: hero, name: Hero, side: hero, max_hp: 10, standard_attack: punch, taunt: "hi"}
`)
	reg, err := catalog.Build(a, b)
	require.NoError(t, err)
	c, err := reg.Character("hero")
	require.NoError(t, err)
	assert.Equal(t, "Punch", c.StandardAttack.Name)
	assert.Equal(t, "hi", c.Taunt.OrElse(""))
	assert.False(t, c.AdditionalAttack.IsSome())
}
