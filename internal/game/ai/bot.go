// Package ai picks actions for computer-controlled rosters.
package ai

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
	"github.com/cory-johannsen/finalbattle/internal/game/combat"
	"github.com/cory-johannsen/finalbattle/internal/game/dice"
	"github.com/cory-johannsen/finalbattle/internal/scripting"
)

// Percent thresholds of the built-in decision table. One d100 draw picks the
// top-level action; a second picks the attack family.
const (
	healThreshold       = 25
	equipThreshold      = 50
	attackThreshold     = 80
	gearAttackPercent   = 80
	randomAttackPercent = 70
)

// PolicyDecider is the scripted-policy hook a Bot consults first.
type PolicyDecider interface {
	Decide(ctx context.Context, key string, info scripting.TurnInfo) (scripting.Decision, bool)
}

// Bot is a combat.Selector for computer-controlled rosters.
type Bot struct {
	roller    *dice.Roller
	logger    *zap.Logger
	policy    PolicyDecider
	policyKey string
}

// Option configures a Bot.
type Option func(*Bot)

// WithPolicy makes the Bot ask the scripted policy loaded under key before
// falling back to the built-in table.
func WithPolicy(p PolicyDecider, key string) Option {
	return func(b *Bot) {
		b.policy = p
		b.policyKey = key
	}
}

// NewBot creates a Bot drawing from roller.
//
// Precondition: roller and logger must not be nil.
func NewBot(roller *dice.Roller, logger *zap.Logger, opts ...Option) *Bot {
	if roller == nil {
		panic("ai.NewBot: roller must not be nil")
	}
	if logger == nil {
		panic("ai.NewBot: logger must not be nil")
	}
	b := &Bot{roller: roller, logger: logger}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Select implements combat.Selector.
//
// Postcondition: any returned attack, target and inventory index is valid
// for view.
func (b *Bot) Select(ctx context.Context, view combat.TurnView) (combat.Choice, error) {
	if err := ctx.Err(); err != nil {
		return combat.Choice{}, err
	}
	if b.policy != nil {
		if d, ok := b.policy.Decide(ctx, b.policyKey, turnInfo(view)); ok {
			if choice, ok := fromDecision(d, view); ok {
				return choice, nil
			}
			b.logger.Debug("policy decision rejected", zap.String("policy", b.policyKey), zap.String("action", d.Action))
		}
	}
	return b.decide(view), nil
}

// decide runs the built-in table: heal when hurt and holding a health item,
// equip when unarmed and gear is available, otherwise mostly attack.
func (b *Bot) decide(view combat.TurnView) combat.Choice {
	roll := b.roller.Intn(100)
	heal := healingItems(view.Items)
	switch {
	case len(heal) > 0 && view.Actor.HP < view.Actor.MaxHP/2 && roll < healThreshold:
		return combat.Choice{Action: combat.ActionUseItem, Inventory: heal[b.roller.Intn(len(heal))]}
	case !view.HasWeapon() && len(view.Gear) > 0 && roll < equipThreshold:
		return combat.Choice{Action: combat.ActionEquipGear, Inventory: b.roller.Intn(len(view.Gear))}
	case roll < attackThreshold && len(view.Opponents) > 0:
		return b.attack(view)
	default:
		return combat.Skip()
	}
}

// attack prefers a gear attack when one is available, otherwise picks a
// random standard attack most of the time and the first one otherwise.
func (b *Bot) attack(view combat.TurnView) combat.Choice {
	var gear, standard []int
	for i, a := range view.Attacks {
		if a.Kind == catalog.AttackGear {
			gear = append(gear, i)
		} else {
			standard = append(standard, i)
		}
	}
	roll := b.roller.Intn(100)
	idx := 0
	switch {
	case len(gear) > 0 && roll < gearAttackPercent:
		idx = gear[b.roller.Intn(len(gear))]
	case len(standard) > 0 && roll < randomAttackPercent:
		idx = standard[b.roller.Intn(len(standard))]
	case len(standard) > 0:
		idx = standard[0]
	}
	choice := combat.Choice{Action: combat.ActionAttack, Attack: idx}
	if len(view.Attacks) > 0 && view.Attacks[idx].Kind != catalog.AttackArea {
		choice.Target = b.roller.Intn(len(view.Opponents))
	}
	return choice
}

func healingItems(items []combat.ItemView) []int {
	var out []int
	for i, it := range items {
		if it.Heal > 0 {
			out = append(out, i)
		}
	}
	return out
}

func turnInfo(v combat.TurnView) scripting.TurnInfo {
	info := scripting.TurnInfo{
		Round:     v.Round,
		Actor:     combatantInfo(v.Actor),
		Allies:    make([]scripting.CombatantInfo, len(v.Allies)),
		Opponents: make([]scripting.CombatantInfo, len(v.Opponents)),
	}
	for i, s := range v.Allies {
		info.Allies[i] = combatantInfo(s)
	}
	for i, s := range v.Opponents {
		info.Opponents[i] = combatantInfo(s)
	}
	for _, a := range v.Attacks {
		info.Attacks = append(info.Attacks, scripting.AttackInfo{Name: a.Name, Kind: a.Kind.String(), Probability: a.Probability})
	}
	for _, it := range v.Items {
		info.Items = append(info.Items, scripting.ItemInfo{Name: it.Name, Heal: it.Heal})
	}
	for _, g := range v.Gear {
		info.Gear = append(info.Gear, g.Name)
	}
	return info
}

func combatantInfo(s combat.Snapshot) scripting.CombatantInfo {
	return scripting.CombatantInfo{Name: s.Name, HP: s.HP, MaxHP: s.MaxHP, Weapon: s.Weapon, Armor: s.Armor}
}

// fromDecision validates a scripted decision against view.
func fromDecision(d scripting.Decision, view combat.TurnView) (combat.Choice, bool) {
	switch d.Action {
	case "skip":
		return combat.Skip(), true
	case "attack":
		if d.Attack >= len(view.Attacks) || d.Target >= len(view.Opponents) {
			return combat.Choice{}, false
		}
		return combat.Choice{Action: combat.ActionAttack, Attack: d.Attack, Target: d.Target}, true
	case "item":
		if d.Inventory >= len(view.Items) {
			return combat.Choice{}, false
		}
		return combat.Choice{Action: combat.ActionUseItem, Inventory: d.Inventory}, true
	case "gear":
		if d.Inventory >= len(view.Gear) {
			return combat.Choice{}, false
		}
		return combat.Choice{Action: combat.ActionEquipGear, Inventory: d.Inventory}, true
	default:
		return combat.Choice{}, false
	}
}
