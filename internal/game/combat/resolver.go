package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
	"github.com/cory-johannsen/finalbattle/internal/game/dice"
	"github.com/cory-johannsen/finalbattle/internal/game/party"
	"github.com/cory-johannsen/finalbattle/internal/game/status"
)

// SoulBonusThreshold is the charge a hero needs for one point of bonus damage.
const SoulBonusThreshold = 3

// Progress tracks wave releases and side defeats across a battle.
type Progress struct {
	// Budget is how many queued waves may still be released.
	Budget int
	// Released counts waves released from the queue so far.
	Released int
	defeated [2]bool
}

// Defeated reports whether side has been announced as defeated.
func (p *Progress) Defeated(side catalog.Side) bool { return p.defeated[side] }

// Field is everything one action may read or mutate.
type Field struct {
	Own       *party.Roster
	Opponents *party.Roster
	Heroes    *party.Roster
	Monsters  *party.Roster
	Poison    *status.Registry
	Plague    *status.Registry
	Round     int
	Progress  *Progress
}

func (f *Field) registry(kind catalog.EffectKind) *status.Registry {
	if kind == catalog.EffectRotPlague {
		return f.Plague
	}
	return f.Poison
}

func (f *Field) opponentOf(r *party.Roster) *party.Roster {
	if r == f.Heroes {
		return f.Monsters
	}
	return f.Heroes
}

// Resolver applies actions to a Field and reports every fact to a Notifier.
type Resolver struct {
	roller   *dice.Roller
	notifier Notifier
	logger   *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: roller, notifier and logger must not be nil.
func NewResolver(roller *dice.Roller, notifier Notifier, logger *zap.Logger) *Resolver {
	return &Resolver{roller: roller, notifier: notifier, logger: logger}
}

// Attack resolves ac.Attack by ac.Actor against the opposing roster. The
// pipeline is: success roll, defensive modifier, offensive modifiers, side
// effect, temporary effect, soul bonus, health, deaths, then wave and side
// checks. A missed attack stops after the success roll.
//
// Precondition: ac.Actor is a living member of f.Own and ac.Attack is non-nil.
// Postcondition: no combatant with zero health remains in either roster.
func (r *Resolver) Attack(f *Field, ac *ActionContext) {
	actor, atk := ac.Actor, ac.Attack
	target := r.target(f, ac)
	if target == nil {
		r.logger.Debug("attack has no target", zap.String("actor", actor.Name), zap.String("attack", atk.Name))
		return
	}
	ac.Damage = r.baseDamage(atk, f.Round)

	r.notifier.Notify(AttackUsed{Actor: refOf(actor), Attack: atk.Name, Target: refOf(target), Area: atk.IsArea()})
	if !r.roller.Chance(atk.Name, atk.Probability) {
		r.notifier.Notify(AttackMissed{Actor: refOf(actor), Attack: atk.Name})
		return
	}

	r.applyDefense(ac, target)
	r.applyOffense(ac)
	r.applySideEffect(f, ac, target)
	r.applyEffect(f, ac, target)
	r.applySoulBonus(ac)
	r.applyHealth(f, ac, target)
	r.Settle(f, actor)
	r.CheckSides(f)
}

// UseItem consumes the item at index from the actor's side inventory and
// heals the actor by its amount. An invalid index is treated as a skip.
//
// Postcondition: the actor's health does not exceed its maximum.
func (r *Resolver) UseItem(f *Field, actor *party.Combatant, index int) {
	item, err := f.Own.TakeItem(index)
	if err != nil {
		r.logger.Debug("item unavailable", zap.String("actor", actor.Name), zap.Error(err))
		r.notifier.Notify(Skipped{Actor: refOf(actor)})
		return
	}
	healed := actor.Heal(item.Heal)
	r.logger.Debug("item consumed",
		zap.String("actor", actor.Name),
		zap.String("item", item.Name),
		zap.Int("healed", healed),
	)
	r.notifier.Notify(ItemConsumed{Actor: refOf(actor), Item: item.Name, Healed: healed, HP: actor.HP()})
}

// EquipGear moves the gear at index from the side inventory onto the actor.
// Whatever the slot held before goes back into the inventory.
func (r *Resolver) EquipGear(f *Field, actor *party.Combatant, index int) {
	g, err := f.Own.TakeGear(index)
	if err != nil {
		r.logger.Debug("gear unavailable", zap.String("actor", actor.Name), zap.Error(err))
		r.notifier.Notify(Skipped{Actor: refOf(actor)})
		return
	}
	ev := GearEquipped{Actor: refOf(actor), Gear: g.Name}
	if prev, ok := actor.Equip(g).Get(); ok {
		f.Own.AddGear(prev)
		ev.Replaced = prev.Name
	}
	r.logger.Debug("gear equipped", zap.String("actor", actor.Name), zap.String("gear", g.Name))
	r.notifier.Notify(ev)
}

// Settle removes every fallen combatant from both rosters. A fallen
// combatant's equipped gear goes to the opposing side's inventory; when
// killer is a living hero it also absorbs the fallen combatant's souls.
//
// Postcondition: every member of both rosters has positive health.
func (r *Resolver) Settle(f *Field, killer *party.Combatant) {
	for _, roster := range []*party.Roster{f.Heroes, f.Monsters} {
		winners := f.opponentOf(roster)
		for _, fallen := range roster.Fallen() {
			roster.Remove(fallen)
			r.logger.Debug("combatant died", zap.String("name", fallen.Name), zap.Stringer("side", roster.Side))
			r.notifier.Notify(CharacterDied{Target: refOf(fallen)})

			for _, slot := range []catalog.GearSlot{catalog.SlotWeapon, catalog.SlotArmor} {
				if g, ok := fallen.Unequip(slot).Get(); ok {
					winners.AddGear(g)
					r.notifier.Notify(GearLooted{From: refOf(fallen), Side: winners.Side, Gear: g.Name})
				}
			}

			if killer == nil || killer.Side != catalog.SideHero || !killer.IsAlive() || fallen.Souls <= 0 {
				continue
			}
			amount := fallen.Souls
			fallen.Souls = 0
			killer.Souls += amount
			r.notifier.Notify(SoulsAbsorbed{Actor: refOf(killer), From: refOf(fallen), Amount: amount, Total: killer.Souls})
		}
	}
}

// CheckSides handles an emptied monster roster, moving its inventories to the
// heroes and releasing the next queued wave while the budget allows, then
// announces each side found empty. Each side is announced at most once.
func (r *Resolver) CheckSides(f *Field) {
	p := f.Progress
	if f.Monsters.IsEmpty() && !p.defeated[catalog.SideMonster] {
		gear, items := f.Monsters.DrainInventories()
		f.Heroes.AddGear(gear...)
		f.Heroes.AddItems(items...)
		r.notifier.Notify(WaveCleared{Gear: gearNames(gear), Items: itemNames(items)})
		r.releaseWave(f)
	}
	for _, roster := range []*party.Roster{f.Heroes, f.Monsters} {
		if roster.IsEmpty() && !p.defeated[roster.Side] {
			p.defeated[roster.Side] = true
			r.logger.Info("side defeated", zap.Stringer("side", roster.Side))
			r.notifier.Notify(SideDefeated{Side: roster.Side})
		}
	}
}

func (r *Resolver) releaseWave(f *Field) {
	p := f.Progress
	if p.Budget <= 0 || f.Monsters.Waves == nil {
		return
	}
	w, ok := f.Monsters.Waves.Pop()
	if !ok {
		return
	}
	p.Budget--
	p.Released++
	if err := f.Monsters.Add(w.Characters...); err != nil {
		r.logger.Error("releasing wave", zap.Int("wave", p.Released), zap.Error(err))
		return
	}
	f.Monsters.AddGear(w.Gear...)
	f.Monsters.AddItems(w.Items...)

	names := make([]string, len(w.Characters))
	for i, c := range w.Characters {
		names[i] = c.Name
	}
	r.logger.Info("wave released",
		zap.Int("wave", p.Released),
		zap.Strings("characters", names),
		zap.Int("remaining", f.Monsters.Waves.Len()),
	)
	r.notifier.Notify(WaveReleased{Number: p.Released, Characters: names, Remaining: f.Monsters.Waves.Len()})
}

// target returns the opposing combatant the attack is aimed at, clamping an
// out-of-range index to the first opponent. Area attacks aim at index 0.
func (r *Resolver) target(f *Field, ac *ActionContext) *party.Combatant {
	if ac.Attack.IsArea() || ac.Target < 0 || ac.Target >= f.Opponents.Len() {
		ac.Target = 0
	}
	t, ok := f.Opponents.At(ac.Target)
	if !ok {
		return nil
	}
	return t
}

func (r *Resolver) baseDamage(atk *catalog.Attack, round int) int {
	if atk.Rule == catalog.DamageRoundScaled {
		return catalog.RoundScaledDamage(round)
	}
	return r.roller.Roll(atk.Damage).Total()
}

func (r *Resolver) applyDefense(ac *ActionContext, target *party.Combatant) {
	def, ok := target.Defense.Get()
	if !ok || !def.Applies(ac.Attack.Category) {
		return
	}
	ac.Damage += def.Value
	if def.Gate.IsSome() && ac.Damage < 0 {
		ac.Damage = 0
	}
	r.logger.Debug("defensive modifier",
		zap.String("target", target.Name),
		zap.String("modifier", def.Name),
		zap.Int("value", def.Value),
		zap.Int("damage", ac.Damage),
	)
	r.notifier.Notify(DefensiveModifierApplied{Target: refOf(target), Modifier: def.Name, Value: def.Value, Damage: ac.Damage})
}

func (r *Resolver) applyOffense(ac *ActionContext) {
	for _, g := range ac.Actor.EquippedGear() {
		mod, ok := g.OffensiveModifier.Get()
		if !ok {
			continue
		}
		v := r.roller.Roll(mod.Value).Total()
		ac.Damage += v
		r.logger.Debug("offensive modifier",
			zap.String("actor", ac.Actor.Name),
			zap.String("gear", g.Name),
			zap.Int("value", v),
			zap.Int("damage", ac.Damage),
		)
		r.notifier.Notify(OffensiveModifierApplied{Actor: refOf(ac.Actor), Gear: g.Name, Modifier: mod.Name, Value: v, Damage: ac.Damage})
	}
}

func (r *Resolver) applySideEffect(f *Field, ac *ActionContext, target *party.Combatant) {
	se, ok := ac.Attack.SideEffect.Get()
	if !ok || se.Kind != catalog.SideEffectSteal {
		return
	}
	weapon, armor := target.Weapon.IsSome(), target.Armor.IsSome()
	if !weapon && !armor {
		return
	}
	if !r.roller.Chance("steal", se.Chance) {
		return
	}
	var slot catalog.GearSlot
	switch {
	case weapon && armor:
		slot = catalog.SlotWeapon
		if r.roller.CoinFlip("steal slot") {
			slot = catalog.SlotArmor
		}
	case armor:
		slot = catalog.SlotArmor
	default:
		slot = catalog.SlotWeapon
	}
	g, ok := target.Unequip(slot).Get()
	if !ok {
		return
	}
	f.Own.AddGear(g)
	r.logger.Debug("gear stolen", zap.String("actor", ac.Actor.Name), zap.String("target", target.Name), zap.String("gear", g.Name))
	r.notifier.Notify(GearStolen{Actor: refOf(ac.Actor), Target: refOf(target), Gear: g.Name})
}

func (r *Resolver) applyEffect(f *Field, ac *ActionContext, target *party.Combatant) {
	kind, ok := ac.Attack.Effect.Get()
	if !ok {
		return
	}
	reg := f.registry(kind)
	switch reg.Afflict(target, f.Opponents) {
	case status.Ignored:
		return
	case status.Refreshed:
		r.notifier.Notify(CharacterPoisoned{Target: refOf(target), Turns: reg.Duration(), Refreshed: true})
	case status.Added:
		if kind == catalog.EffectRotPlague {
			r.notifier.Notify(CharacterPlagueSick{Target: refOf(target), Turns: reg.Duration()})
		} else {
			r.notifier.Notify(CharacterPoisoned{Target: refOf(target), Turns: reg.Duration()})
		}
	}
	r.logger.Debug("temporary effect", zap.String("target", target.Name), zap.Stringer("effect", kind))
}

func (r *Resolver) applySoulBonus(ac *ActionContext) {
	actor := ac.Actor
	if actor.Side != catalog.SideHero || actor.Souls < SoulBonusThreshold {
		return
	}
	actor.Souls = 0
	ac.Damage++
	r.logger.Debug("soul bonus", zap.String("actor", actor.Name), zap.Int("damage", ac.Damage))
	r.notifier.Notify(SoulBonus{Actor: refOf(actor), Damage: ac.Damage})
}

func (r *Resolver) applyHealth(f *Field, ac *ActionContext, target *party.Combatant) {
	if ac.Damage < 0 {
		ac.Damage = 0
	}
	victims := []*party.Combatant{target}
	if ac.Attack.IsArea() {
		victims = f.Opponents.Members()
	}
	for _, v := range victims {
		hp := v.ApplyDamage(ac.Damage)
		r.logger.Debug("damage dealt",
			zap.String("actor", ac.Actor.Name),
			zap.String("target", v.Name),
			zap.Int("damage", ac.Damage),
			zap.Int("hp", hp),
		)
		r.notifier.Notify(DamageDealt{Actor: refOf(ac.Actor), Target: refOf(v), Damage: ac.Damage, HP: hp, MaxHP: v.MaxHP})
	}
}

func gearNames(gs []*catalog.Gear) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.Name
	}
	return out
}

func itemNames(is []*catalog.Consumable) []string {
	out := make([]string, len(is))
	for i, it := range is {
		out[i] = it.Name
	}
	return out
}
