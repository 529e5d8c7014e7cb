package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
	"github.com/cory-johannsen/finalbattle/internal/game/combat"
)

const ruleWidth = 60

// Renderer writes every battle event to an io.Writer. It is a
// combat.Notifier and is safe for concurrent use.
type Renderer struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewRenderer creates a Renderer writing to out, with ANSI colors when color is true.
func NewRenderer(out io.Writer, color bool) *Renderer {
	return &Renderer{out: out, color: color}
}

// Notify renders ev and writes it.
func (r *Renderer) Notify(ev combat.Event) {
	text := Render(ev)
	if text == "" {
		return
	}
	if !r.color {
		text = StripANSI(text)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, text)
}

// Render formats ev as one or more newline-terminated lines. Events with no
// visible text render as the empty string.
func Render(ev combat.Event) string {
	switch e := ev.(type) {
	case combat.RoundStarted:
		return Colorf(BrightWhite, "%s\n", banner(fmt.Sprintf(" ROUND %d ", e.Round)))
	case combat.TurnStarted:
		return renderTurn(e)
	case combat.Taunted:
		return Colorf(BrightRed, "%s: %s\n", e.Actor.Name, e.Line)
	case combat.Skipped:
		if e.Forced {
			return Colorf(Magenta, "%s is too sick to act and skips the turn.\n", e.Actor.Name)
		}
		return fmt.Sprintf("%s did NOTHING.\n", name(e.Actor))
	case combat.AttackUsed:
		if e.Area {
			return fmt.Sprintf("%s used %s on every enemy.\n", name(e.Actor), Colorize(Bold, e.Attack))
		}
		return fmt.Sprintf("%s used %s on %s.\n", name(e.Actor), Colorize(Bold, e.Attack), name(e.Target))
	case combat.AttackMissed:
		return Colorf(Dim, "%s MISSED!\n", e.Actor.Name)
	case combat.DefensiveModifierApplied:
		return Colorf(Cyan, "%s reduced the attack by %d with %s.\n", e.Target.Name, -e.Value, e.Modifier)
	case combat.OffensiveModifierApplied:
		return Colorf(Yellow, "%s's %s added %d damage with %s.\n", e.Actor.Name, e.Gear, e.Value, e.Modifier)
	case combat.GearStolen:
		return Colorf(BrightYellow, "%s stole %s from %s!\n", e.Actor.Name, e.Gear, e.Target.Name)
	case combat.CharacterPoisoned:
		if e.Refreshed {
			return Colorf(Green, "%s's poison was renewed for %d turns.\n", e.Target.Name, e.Turns)
		}
		return Colorf(Green, "%s was poisoned for %d turns.\n", e.Target.Name, e.Turns)
	case combat.CharacterPlagueSick:
		return Colorf(Magenta, "%s caught the rot-plague and will skip the next %d turns.\n", e.Target.Name, e.Turns)
	case combat.PoisonTicked:
		return Colorf(Green, "Poison dealt %d damage to %s (%d turns left). %s is now at %d HP.\n",
			e.Damage, e.Target.Name, e.Remaining, e.Target.Name, e.HP)
	case combat.PlagueTicked:
		return Colorf(Magenta, "The rot-plague keeps %s down (%d turns left).\n", e.Target.Name, e.Remaining)
	case combat.SoulBonus:
		return Colorf(BrightCyan, "%s unleashed the power of their souls!\n", e.Actor.Name)
	case combat.DamageDealt:
		return fmt.Sprintf("%s dealt %s damage to %s. %s is now at %s.\n",
			name(e.Actor), Colorf(BrightRed, "%d", e.Damage), name(e.Target), name(e.Target), health(e.HP, e.MaxHP))
	case combat.CharacterDied:
		return Colorf(Red, "%s has been defeated!\n", e.Target.Name)
	case combat.GearLooted:
		return Colorf(Yellow, "The %s side looted %s from %s.\n", e.Side, e.Gear, e.From.Name)
	case combat.SoulsAbsorbed:
		return Colorf(BrightCyan, "%s absorbed %d soul(s) from %s and now holds %d.\n", e.Actor.Name, e.Amount, e.From.Name, e.Total)
	case combat.ItemConsumed:
		return Colorf(BrightGreen, "%s used %s and recovered %d HP (now %d).\n", e.Actor.Name, e.Item, e.Healed, e.HP)
	case combat.GearEquipped:
		if e.Replaced != "" {
			return fmt.Sprintf("%s equipped %s, putting away %s.\n", name(e.Actor), e.Gear, e.Replaced)
		}
		return fmt.Sprintf("%s equipped %s.\n", name(e.Actor), e.Gear)
	case combat.WaveCleared:
		var b strings.Builder
		b.WriteString(Colorize(BrightWhite, "The wave has been cleared!\n"))
		if len(e.Gear) > 0 {
			b.WriteString(Colorf(Yellow, "The heroes claim gear: %s\n", strings.Join(e.Gear, ", ")))
		}
		if len(e.Items) > 0 {
			b.WriteString(Colorf(Yellow, "The heroes claim items: %s\n", strings.Join(e.Items, ", ")))
		}
		return b.String()
	case combat.WaveReleased:
		return Colorf(BrightRed, "Wave %d approaches: %s (%d more waiting).\n", e.Number, strings.Join(e.Characters, ", "), e.Remaining)
	case combat.SideDefeated:
		return Colorf(Bold, "The %s side has no one left standing.\n", e.Side)
	case combat.BattleOver:
		if e.Winner == catalog.SideHero {
			return Colorf(BrightGreen, "%s\nThe heroes won after %d rounds! The Uncoded One's plot is foiled.\n", banner(" VICTORY "), e.Rounds)
		}
		return Colorf(BrightRed, "%s\nThe heroes have lost after %d rounds. The Uncoded One's forces have prevailed.\n", banner(" DEFEAT "), e.Rounds)
	default:
		return ""
	}
}

func renderTurn(e combat.TurnStarted) string {
	var b strings.Builder
	b.WriteString(banner(" BATTLE "))
	b.WriteByte('\n')
	for _, s := range e.Heroes {
		b.WriteString(statusLine(s, s.ID == e.Actor.ID))
	}
	b.WriteString(Colorize(Dim, center("VS")))
	b.WriteByte('\n')
	for _, s := range e.Monsters {
		b.WriteString(statusLine(s, s.ID == e.Actor.ID))
	}
	b.WriteString(strings.Repeat("=", ruleWidth))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "It is %s's turn...\n", name(e.Actor))
	return b.String()
}

func statusLine(s combat.Snapshot, active bool) string {
	marker := "  "
	if active {
		marker = Colorize(BrightYellow, "> ")
	}
	line := fmt.Sprintf("%s%-24s %s", marker, name(s.Ref), health(s.HP, s.MaxHP))
	if s.Weapon != "" {
		line += " | " + s.Weapon
	}
	if s.Armor != "" {
		line += " | " + s.Armor
	}
	return line + "\n"
}

func name(r combat.Ref) string {
	if r.Side == catalog.SideHero {
		return Colorize(BrightGreen, r.Name)
	}
	return Colorize(BrightRed, r.Name)
}

func health(hp, maxHP int) string {
	color := Green
	switch {
	case hp*4 <= maxHP:
		color = Red
	case hp*2 <= maxHP:
		color = Yellow
	}
	return Colorf(color, "%d/%d", hp, maxHP)
}

func banner(title string) string {
	pad := ruleWidth - len(title)
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	return strings.Repeat("=", left) + title + strings.Repeat("=", pad-left)
}

func center(s string) string {
	pad := (ruleWidth - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}
