package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/finalbattle/internal/game/dice"
)

// Document is the YAML shape of one catalog file. A catalog directory may
// split its definitions across any number of documents.
type Document struct {
	Attacks     []AttackSpec     `yaml:"attacks"`
	Gear        []GearSpec       `yaml:"gear"`
	Modifiers   []ModifierSpec   `yaml:"modifiers"`
	Consumables []ConsumableSpec `yaml:"consumables"`
	Effects     []EffectSpec     `yaml:"effects"`
	Characters  []CharacterSpec  `yaml:"characters"`
}

// AttackSpec is the YAML form of an Attack.
type AttackSpec struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Kind        string          `yaml:"kind"`     // standard | area | gear
	Category    string          `yaml:"category"` // normal | decoding
	Damage      string          `yaml:"damage"`   // dice expression, e.g. "1" or "1d5-1"
	DamageRule  string          `yaml:"damage_rule"`
	Probability float64         `yaml:"probability"`
	SideEffect  *SideEffectSpec `yaml:"side_effect"`
	Effect      string          `yaml:"effect"`
}

// SideEffectSpec is the YAML form of a SideEffect.
type SideEffectSpec struct {
	Kind   string  `yaml:"kind"`
	Chance float64 `yaml:"chance"`
}

// GearSpec is the YAML form of a Gear.
type GearSpec struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	Slot              string `yaml:"slot"`
	Attack            string `yaml:"attack"`
	DefensiveValue    int    `yaml:"defensive_value"`
	OffensiveValue    int    `yaml:"offensive_value"`
	OffensiveModifier string `yaml:"offensive_modifier"`
}

// ModifierSpec is the YAML form of a defensive or offensive modifier.
type ModifierSpec struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"` // defensive | offensive
	Value string `yaml:"value"`
	Gate  string `yaml:"gate"` // defensive only; empty = applies to every category
}

// ConsumableSpec is the YAML form of a Consumable.
type ConsumableSpec struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Heal int    `yaml:"heal"`
}

// EffectSpec is the YAML form of an EffectDef.
type EffectSpec struct {
	Kind     string `yaml:"kind"`
	Duration int    `yaml:"duration"`
	Damage   int    `yaml:"damage"`
}

// CharacterSpec is the YAML form of a CharacterDef.
type CharacterSpec struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	Side             string `yaml:"side"`
	MaxHP            int    `yaml:"max_hp"`
	StandardAttack   string `yaml:"standard_attack"`
	AdditionalAttack string `yaml:"additional_attack"`
	Weapon           string `yaml:"weapon"`
	Armor            string `yaml:"armor"`
	Defense          string `yaml:"defensive_modifier"`
	SoulXP           int    `yaml:"soul_xp"`
	Taunt            string `yaml:"taunt"`
	PlayerNamed      bool   `yaml:"player_named"`
}

// DecodeDocument strictly decodes one YAML document; unknown fields are errors.
func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Document{}, err
	}
	return doc, nil
}

// LoadDirectory reads every *.yaml file in dir in lexical order, merges the
// documents and builds a linked, validated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error on the first parse,
// reference or validation failure.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading dir %q: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var docs []Document
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: reading %q: %w", path, err)
		}
		doc, err := DecodeDocument(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("catalog: parsing %q: %w", path, err)
		}
		docs = append(docs, doc)
	}
	return Build(docs...)
}

// Build links documents into a Registry. Definitions are linked in dependency
// order: modifiers and effects, then attacks, gear, consumables, characters.
//
// Postcondition: every cross reference in the returned Registry resolves.
func Build(docs ...Document) (*Registry, error) {
	var merged Document
	for _, d := range docs {
		merged.Attacks = append(merged.Attacks, d.Attacks...)
		merged.Gear = append(merged.Gear, d.Gear...)
		merged.Modifiers = append(merged.Modifiers, d.Modifiers...)
		merged.Consumables = append(merged.Consumables, d.Consumables...)
		merged.Effects = append(merged.Effects, d.Effects...)
		merged.Characters = append(merged.Characters, d.Characters...)
	}

	r := newRegistry()
	steps := []func(Document) error{
		r.buildModifiers,
		r.buildEffects,
		r.buildAttacks,
		r.buildGear,
		r.buildConsumables,
		r.buildCharacters,
	}
	for _, step := range steps {
		if err := step(merged); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func duplicate(kind, id string) error {
	return fmt.Errorf("catalog: %s %q defined more than once", kind, id)
}

func (r *Registry) buildModifiers(doc Document) error {
	for _, s := range doc.Modifiers {
		if s.ID == "" || s.Name == "" {
			return fmt.Errorf("catalog: modifier %q: id and name must not be empty", s.ID)
		}
		switch s.Kind {
		case "defensive":
			if _, ok := r.defensive[s.ID]; ok {
				return duplicate("defensive modifier", s.ID)
			}
			v, err := dice.Parse(s.Value)
			if err != nil {
				return fmt.Errorf("catalog: modifier %q: %w", s.ID, err)
			}
			if !v.IsConstant() {
				return fmt.Errorf("catalog: defensive modifier %q: value must be a constant", s.ID)
			}
			m := &DefensiveModifier{ID: s.ID, Name: s.Name, Value: v.Modifier, Gate: None[Category]()}
			if s.Gate != "" {
				c, err := parseCategory(s.Gate)
				if err != nil {
					return fmt.Errorf("catalog: modifier %q: %w", s.ID, err)
				}
				m.Gate = Some(c)
			}
			r.defensive[s.ID] = m
		case "offensive":
			if _, ok := r.offensive[s.ID]; ok {
				return duplicate("offensive modifier", s.ID)
			}
			if s.Gate != "" {
				return fmt.Errorf("catalog: offensive modifier %q: gate is only valid on defensive modifiers", s.ID)
			}
			v, err := dice.Parse(s.Value)
			if err != nil {
				return fmt.Errorf("catalog: modifier %q: %w", s.ID, err)
			}
			r.offensive[s.ID] = &OffensiveModifier{ID: s.ID, Name: s.Name, Value: v}
		default:
			return fmt.Errorf("catalog: modifier %q: kind must be defensive or offensive, got %q", s.ID, s.Kind)
		}
	}
	return nil
}

func (r *Registry) buildEffects(doc Document) error {
	for _, s := range doc.Effects {
		kind, err := parseEffectKind(s.Kind)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		if _, ok := r.effects[kind]; ok {
			return duplicate("effect", s.Kind)
		}
		if s.Duration < 1 {
			return fmt.Errorf("catalog: effect %q: duration must be >= 1, got %d", s.Kind, s.Duration)
		}
		if s.Damage < 0 {
			return fmt.Errorf("catalog: effect %q: damage must be >= 0, got %d", s.Kind, s.Damage)
		}
		r.effects[kind] = EffectDef{Kind: kind, Duration: s.Duration, Damage: s.Damage}
	}
	return nil
}

func (r *Registry) buildAttacks(doc Document) error {
	for _, s := range doc.Attacks {
		a, err := r.buildAttack(s)
		if err != nil {
			return fmt.Errorf("catalog: attack %q: %w", s.ID, err)
		}
		if _, ok := r.attacks[a.ID]; ok {
			return duplicate("attack", a.ID)
		}
		r.attacks[a.ID] = a
	}
	return nil
}

func (r *Registry) buildAttack(s AttackSpec) (*Attack, error) {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if s.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if s.Probability < 0 || s.Probability > 1 {
		errs = append(errs, fmt.Errorf("probability must be in [0, 1], got %v", s.Probability))
	}
	kind, err := parseAttackKind(s.Kind)
	if err != nil {
		errs = append(errs, err)
	}
	cat, err := parseCategory(s.Category)
	if err != nil {
		errs = append(errs, err)
	}
	rule, err := parseDamageRule(s.DamageRule)
	if err != nil {
		errs = append(errs, err)
	}
	var dmg dice.Expression
	if rule == DamageFixed {
		if dmg, err = dice.Parse(s.Damage); err != nil {
			errs = append(errs, err)
		} else if dmg.Min() < 0 {
			errs = append(errs, fmt.Errorf("damage %q can roll below zero", s.Damage))
		}
	}
	a := &Attack{
		ID:          s.ID,
		Name:        s.Name,
		Kind:        kind,
		Category:    cat,
		Damage:      dmg,
		Rule:        rule,
		Probability: s.Probability,
		SideEffect:  None[SideEffect](),
		Effect:      None[EffectKind](),
	}
	if s.SideEffect != nil {
		k, err := parseSideEffectKind(s.SideEffect.Kind)
		if err != nil {
			errs = append(errs, err)
		}
		if s.SideEffect.Chance <= 0 || s.SideEffect.Chance > 1 {
			errs = append(errs, fmt.Errorf("side effect chance must be in (0, 1], got %v", s.SideEffect.Chance))
		}
		a.SideEffect = Some(SideEffect{Kind: k, Chance: s.SideEffect.Chance})
	}
	if s.Effect != "" {
		k, err := parseEffectKind(s.Effect)
		if err != nil {
			errs = append(errs, err)
		} else if _, ok := r.effects[k]; !ok {
			errs = append(errs, fmt.Errorf("effect %q: %w", s.Effect, ErrUnknown))
		}
		a.Effect = Some(k)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Registry) buildGear(doc Document) error {
	for _, s := range doc.Gear {
		if s.ID == "" || s.Name == "" {
			return fmt.Errorf("catalog: gear %q: id and name must not be empty", s.ID)
		}
		if _, ok := r.gear[s.ID]; ok {
			return duplicate("gear", s.ID)
		}
		slot, err := parseSlot(s.Slot)
		if err != nil {
			return fmt.Errorf("catalog: gear %q: %w", s.ID, err)
		}
		g := &Gear{
			ID:                s.ID,
			Name:              s.Name,
			Slot:              slot,
			Attack:            None[*Attack](),
			DefensiveValue:    s.DefensiveValue,
			OffensiveValue:    s.OffensiveValue,
			OffensiveModifier: None[*OffensiveModifier](),
		}
		switch {
		case slot == SlotWeapon && s.Attack == "":
			return fmt.Errorf("catalog: gear %q: weapons must name an attack", s.ID)
		case slot == SlotArmor && s.Attack != "":
			return fmt.Errorf("catalog: gear %q: armor cannot carry an attack", s.ID)
		case s.Attack != "":
			a, err := r.Attack(s.Attack)
			if err != nil {
				return fmt.Errorf("catalog: gear %q: %w", s.ID, err)
			}
			if a.Kind != AttackGear {
				return fmt.Errorf("catalog: gear %q: attack %q must be of kind gear", s.ID, a.ID)
			}
			g.Attack = Some(a)
		}
		if s.OffensiveModifier != "" {
			m, err := r.OffensiveModifier(s.OffensiveModifier)
			if err != nil {
				return fmt.Errorf("catalog: gear %q: %w", s.ID, err)
			}
			g.OffensiveModifier = Some(m)
		}
		r.gear[s.ID] = g
	}
	return nil
}

func (r *Registry) buildConsumables(doc Document) error {
	for _, s := range doc.Consumables {
		if s.ID == "" || s.Name == "" {
			return fmt.Errorf("catalog: consumable %q: id and name must not be empty", s.ID)
		}
		if _, ok := r.consumables[s.ID]; ok {
			return duplicate("consumable", s.ID)
		}
		if s.Heal < 0 {
			return fmt.Errorf("catalog: consumable %q: heal must be >= 0, got %d", s.ID, s.Heal)
		}
		r.consumables[s.ID] = &Consumable{ID: s.ID, Name: s.Name, Heal: s.Heal}
	}
	return nil
}

func (r *Registry) buildCharacters(doc Document) error {
	for _, s := range doc.Characters {
		c, err := r.buildCharacter(s)
		if err != nil {
			return fmt.Errorf("catalog: character %q: %w", s.ID, err)
		}
		if _, ok := r.characters[c.ID]; ok {
			return duplicate("character", c.ID)
		}
		r.characters[c.ID] = c
	}
	return nil
}

func (r *Registry) buildCharacter(s CharacterSpec) (*CharacterDef, error) {
	if s.ID == "" || s.Name == "" {
		return nil, errors.New("id and name must not be empty")
	}
	if s.MaxHP < 1 {
		return nil, fmt.Errorf("max_hp must be >= 1, got %d", s.MaxHP)
	}
	if s.SoulXP < 0 {
		return nil, fmt.Errorf("soul_xp must be >= 0, got %d", s.SoulXP)
	}
	side, err := parseSide(s.Side)
	if err != nil {
		return nil, err
	}
	std, err := r.Attack(s.StandardAttack)
	if err != nil {
		return nil, err
	}
	c := &CharacterDef{
		ID:               s.ID,
		Name:             s.Name,
		Side:             side,
		MaxHP:            s.MaxHP,
		StandardAttack:   std,
		AdditionalAttack: None[*Attack](),
		Weapon:           None[*Gear](),
		Armor:            None[*Gear](),
		Defense:          None[*DefensiveModifier](),
		SoulXP:           s.SoulXP,
		Taunt:            None[string](),
		PlayerNamed:      s.PlayerNamed,
	}
	if s.AdditionalAttack != "" {
		a, err := r.Attack(s.AdditionalAttack)
		if err != nil {
			return nil, err
		}
		c.AdditionalAttack = Some(a)
	}
	if s.Weapon != "" {
		g, err := r.gearInSlot(s.Weapon, SlotWeapon)
		if err != nil {
			return nil, err
		}
		c.Weapon = Some(g)
	}
	if s.Armor != "" {
		g, err := r.gearInSlot(s.Armor, SlotArmor)
		if err != nil {
			return nil, err
		}
		c.Armor = Some(g)
	}
	if s.Defense != "" {
		m, err := r.DefensiveModifier(s.Defense)
		if err != nil {
			return nil, err
		}
		c.Defense = Some(m)
	}
	if s.Taunt != "" {
		c.Taunt = Some(s.Taunt)
	}
	return c, nil
}

func (r *Registry) gearInSlot(id string, slot GearSlot) (*Gear, error) {
	g, err := r.Gear(id)
	if err != nil {
		return nil, err
	}
	if g.Slot != slot {
		return nil, fmt.Errorf("gear %q occupies the %s slot, not %s", id, g.Slot, slot)
	}
	return g, nil
}
