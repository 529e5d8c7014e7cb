// Package level loads a declarative battle setup: which heroes fight, what
// they start with and the ordered list of monster waves they face.
package level

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
	"github.com/cory-johannsen/finalbattle/internal/game/party"
)

// Bundle is a stack of identical items or gear.
type Bundle struct {
	Type  string `yaml:"type"`
	Count int    `yaml:"count"`
}

// Group is one side's starting lineup: its characters, bonus inventories
// and gear pre-equipped on every character in the group.
type Group struct {
	Characters []string `yaml:"characters"`
	Items      *Bundle  `yaml:"items,omitempty"`
	Gear       *Bundle  `yaml:"gear,omitempty"`
	Equip      string   `yaml:"equip,omitempty"`
}

// Level is a parsed setup file. Waves[0] fights first; the rest are queued.
type Level struct {
	Heroes Group   `yaml:"heroes"`
	Waves  []Group `yaml:"waves"`
}

// Setup is a Level instantiated against a catalog.
type Setup struct {
	Heroes   *party.Roster
	Monsters *party.Roster
	// Queued are the waves after the first, in release order.
	Queued []party.Wave
}

// Load reads and parses the level file at path.
func Load(path string) (*Level, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("level: opening %s: %w", path, err)
	}
	defer f.Close()
	lvl, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("level: %s: %w", path, err)
	}
	return lvl, nil
}

// Parse decodes a level document, rejecting unknown fields.
func Parse(r io.Reader) (*Level, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var lvl Level
	if err := dec.Decode(&lvl); err != nil {
		return nil, fmt.Errorf("decoding level: %w", err)
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}

// Validate checks the level's shape without consulting a catalog.
func (l *Level) Validate() error {
	var errs []error
	if len(l.Heroes.Characters) == 0 {
		errs = append(errs, errors.New("heroes: at least one character is required"))
	}
	if len(l.Waves) == 0 {
		errs = append(errs, errors.New("waves: at least one wave is required"))
	}
	errs = append(errs, l.Heroes.validate("heroes")...)
	for i, w := range l.Waves {
		name := fmt.Sprintf("waves[%d]", i)
		if len(w.Characters) == 0 {
			errs = append(errs, fmt.Errorf("%s: at least one character is required", name))
		}
		errs = append(errs, w.validate(name)...)
	}
	return errors.Join(errs...)
}

func (g Group) validate(name string) []error {
	var errs []error
	for field, b := range map[string]*Bundle{"items": g.Items, "gear": g.Gear} {
		if b == nil {
			continue
		}
		if b.Type == "" {
			errs = append(errs, fmt.Errorf("%s.%s: type is required", name, field))
		}
		if b.Count < 1 {
			errs = append(errs, fmt.Errorf("%s.%s: count must be >= 1, got %d", name, field, b.Count))
		}
	}
	return errs
}

// Build instantiates the level against reg. Characters flagged as
// player-named take heroName when it is non-empty. The first wave becomes
// the monster roster together with its bonus inventories.
//
// Postcondition: on success every catalog reference has resolved and the
// returned rosters share no combatants.
func (l *Level) Build(reg *catalog.Registry, heroName string, heroCtl, monsterCtl party.Controller) (*Setup, error) {
	heroes := party.NewRoster(catalog.SideHero, heroCtl)
	monsters := party.NewRoster(catalog.SideMonster, monsterCtl)

	hw, err := l.Heroes.instantiate(reg, heroName)
	if err != nil {
		return nil, fmt.Errorf("level: heroes: %w", err)
	}
	if err := place(heroes, hw); err != nil {
		return nil, fmt.Errorf("level: heroes: %w", err)
	}

	setup := &Setup{Heroes: heroes, Monsters: monsters}
	for i, g := range l.Waves {
		w, err := g.instantiate(reg, "")
		if err != nil {
			return nil, fmt.Errorf("level: waves[%d]: %w", i, err)
		}
		if i == 0 {
			if err := place(monsters, w); err != nil {
				return nil, fmt.Errorf("level: waves[0]: %w", err)
			}
			continue
		}
		setup.Queued = append(setup.Queued, w)
	}
	return setup, nil
}

func place(r *party.Roster, w party.Wave) error {
	if err := r.Add(w.Characters...); err != nil {
		return err
	}
	r.AddGear(w.Gear...)
	r.AddItems(w.Items...)
	return nil
}

func (g Group) instantiate(reg *catalog.Registry, heroName string) (party.Wave, error) {
	var w party.Wave
	var equip *catalog.Gear
	if g.Equip != "" {
		gear, err := reg.Gear(g.Equip)
		if err != nil {
			return w, err
		}
		equip = gear
	}
	for _, id := range g.Characters {
		def, err := reg.Character(id)
		if err != nil {
			return w, err
		}
		c := party.NewCombatant(def)
		if def.PlayerNamed && heroName != "" {
			c.Name = heroName
		}
		if equip != nil {
			c.Equip(equip)
		}
		w.Characters = append(w.Characters, c)
	}
	if g.Items != nil {
		item, err := reg.Consumable(g.Items.Type)
		if err != nil {
			return w, err
		}
		for i := 0; i < g.Items.Count; i++ {
			w.Items = append(w.Items, item)
		}
	}
	if g.Gear != nil {
		gear, err := reg.Gear(g.Gear.Type)
		if err != nil {
			return w, err
		}
		for i := 0; i < g.Gear.Count; i++ {
			w.Gear = append(w.Gear, gear)
		}
	}
	return w, nil
}
