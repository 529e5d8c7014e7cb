// Package config provides Viper-based configuration loading for the battle CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Game modes: who controls each side.
const (
	ModeComputerVsComputer = "cvc"
	ModePlayerVsComputer   = "pvc"
	ModePlayerVsPlayer     = "pvp"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is where log lines go: "stderr", "stdout" or a file path.
	// The battle itself is printed on stdout, so the default keeps logs off it.
	Output string `mapstructure:"output"`
}

// BattleConfig holds the settings for one battle.
type BattleConfig struct {
	// Mode is one of "cvc", "pvc" or "pvp".
	Mode string `mapstructure:"mode"`
	// HeroName replaces the display name of the player-named hero.
	HeroName string `mapstructure:"hero_name"`
	// BotDelay pauses after every computer-controlled action.
	BotDelay time.Duration `mapstructure:"bot_delay"`
	// CatalogDir holds the catalog YAML files.
	CatalogDir string `mapstructure:"catalog_dir"`
	// LevelFile is the level setup YAML.
	LevelFile string `mapstructure:"level_file"`
	// BotScript is an optional Lua policy consulted by every bot.
	BotScript string `mapstructure:"bot_script"`
	// ScriptInstructionLimit caps Lua opcodes per policy call; 0 uses the default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
	// Color enables ANSI colors in console output.
	Color bool `mapstructure:"color"`
	// Seed makes a battle reproducible; 0 draws from crypto/rand.
	Seed uint64 `mapstructure:"seed"`
}

// HeroesHuman reports whether a person controls the hero side.
func (b BattleConfig) HeroesHuman() bool {
	return b.Mode == ModePlayerVsComputer || b.Mode == ModePlayerVsPlayer
}

// MonstersHuman reports whether a person controls the monster side.
func (b BattleConfig) MonstersHuman() bool {
	return b.Mode == ModePlayerVsPlayer
}

// Config is the top-level application configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Battle  BattleConfig  `mapstructure:"battle"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.Output == "" {
		return errors.New("logging.output must not be empty")
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	validModes := map[string]bool{ModeComputerVsComputer: true, ModePlayerVsComputer: true, ModePlayerVsPlayer: true}
	if !validModes[b.Mode] {
		errs = append(errs, fmt.Sprintf("battle.mode must be one of [cvc, pvc, pvp], got %q", b.Mode))
	}
	if b.BotDelay < 0 {
		errs = append(errs, "battle.bot_delay must not be negative")
	}
	if b.CatalogDir == "" {
		errs = append(errs, "battle.catalog_dir must not be empty")
	}
	if b.LevelFile == "" {
		errs = append(errs, "battle.level_file must not be empty")
	}
	if b.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("battle.script_instruction_limit must be >= 0, got %d", b.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result. An empty path uses defaults
// and the environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with BATTLE_ prefix
	v.SetEnvPrefix("BATTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("battle.mode", ModePlayerVsComputer)
	v.SetDefault("battle.hero_name", "")
	v.SetDefault("battle.bot_delay", "500ms")
	v.SetDefault("battle.catalog_dir", "content/catalog")
	v.SetDefault("battle.level_file", "content/levels/default.yaml")
	v.SetDefault("battle.bot_script", "")
	v.SetDefault("battle.script_instruction_limit", 0)
	v.SetDefault("battle.color", true)
	v.SetDefault("battle.seed", 0)
}
