package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
	"github.com/cory-johannsen/finalbattle/internal/game/combat"
)

// ErrNoInput is returned when the input stream ends before a choice is made.
var ErrNoInput = errors.New("console: no more input")

// HumanSelector is a combat.Selector that prompts on out and reads numbered
// menu answers, one per line, from in.
type HumanSelector struct {
	out   io.Writer
	lines <-chan string
	color bool
}

// NewHumanSelector starts reading lines from in in the background.
//
// Precondition: in and out must not be nil.
func NewHumanSelector(in io.Reader, out io.Writer, color bool) *HumanSelector {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return &HumanSelector{out: out, lines: lines, color: color}
}

// Select implements combat.Selector. Invalid answers re-prompt.
func (h *HumanSelector) Select(ctx context.Context, view combat.TurnView) (combat.Choice, error) {
	for {
		action, err := h.menu(ctx, view)
		if err != nil {
			return combat.Choice{}, err
		}
		switch action {
		case combat.ActionSkip:
			return combat.Skip(), nil
		case combat.ActionAttack:
			return h.attack(ctx, view)
		case combat.ActionUseItem:
			if len(view.Items) == 0 {
				h.say(Colorize(Yellow, "You have no items.\n"))
				continue
			}
			names := make([]string, len(view.Items))
			for i, it := range view.Items {
				names[i] = fmt.Sprintf("%s (+%d HP)", it.Name, it.Heal)
			}
			idx, err := h.pick(ctx, "Which item?", names)
			if err != nil {
				return combat.Choice{}, err
			}
			return combat.Choice{Action: combat.ActionUseItem, Inventory: idx}, nil
		case combat.ActionEquipGear:
			if len(view.Gear) == 0 {
				h.say(Colorize(Yellow, "You have no gear to equip.\n"))
				continue
			}
			names := make([]string, len(view.Gear))
			for i, g := range view.Gear {
				names[i] = fmt.Sprintf("%s (%s)", g.Name, g.Slot)
			}
			idx, err := h.pick(ctx, "Which gear?", names)
			if err != nil {
				return combat.Choice{}, err
			}
			return combat.Choice{Action: combat.ActionEquipGear, Inventory: idx}, nil
		}
	}
}

func (h *HumanSelector) menu(ctx context.Context, view combat.TurnView) (combat.ActionKind, error) {
	options := []string{
		"Do nothing",
		"Attack",
		fmt.Sprintf("Use item (%d)", len(view.Items)),
		fmt.Sprintf("Equip gear (%d)", len(view.Gear)),
	}
	prompt := fmt.Sprintf("What do you want %s to do?", view.Actor.Name)
	idx, err := h.pick(ctx, prompt, options)
	if err != nil {
		return 0, err
	}
	return combat.ActionKind(idx), nil
}

func (h *HumanSelector) attack(ctx context.Context, view combat.TurnView) (combat.Choice, error) {
	choice := combat.Choice{Action: combat.ActionAttack}
	if len(view.Attacks) > 1 {
		names := make([]string, len(view.Attacks))
		for i, a := range view.Attacks {
			names[i] = fmt.Sprintf("%s (%.0f%%)", a.Name, a.Probability*100)
		}
		idx, err := h.pick(ctx, "Which attack?", names)
		if err != nil {
			return combat.Choice{}, err
		}
		choice.Attack = idx
	}
	if len(view.Attacks) > 0 && view.Attacks[choice.Attack].Kind == catalog.AttackArea {
		return choice, nil
	}
	if len(view.Opponents) > 1 {
		names := make([]string, len(view.Opponents))
		for i, o := range view.Opponents {
			names[i] = fmt.Sprintf("%s %s", o.Name, health(o.HP, o.MaxHP))
		}
		idx, err := h.pick(ctx, "Which target?", names)
		if err != nil {
			return combat.Choice{}, err
		}
		choice.Target = idx
	}
	return choice, nil
}

// pick shows a numbered list and returns the zero-based index chosen.
func (h *HumanSelector) pick(ctx context.Context, prompt string, options []string) (int, error) {
	for {
		var b strings.Builder
		b.WriteString(Colorize(BrightWhite, prompt))
		b.WriteByte('\n')
		for i, o := range options {
			fmt.Fprintf(&b, "  %d - %s\n", i, o)
		}
		b.WriteString("> ")
		h.say(b.String())

		line, err := h.read(ctx)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && n >= 0 && n < len(options) {
			return n, nil
		}
		h.say(Colorf(Yellow, "Please enter a number between 0 and %d.\n", len(options)-1))
	}
}

func (h *HumanSelector) read(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-h.lines:
		if !ok {
			return "", ErrNoInput
		}
		return line, nil
	}
}

func (h *HumanSelector) say(s string) {
	if !h.color {
		s = StripANSI(s)
	}
	fmt.Fprint(h.out, s)
}
