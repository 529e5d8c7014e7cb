package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Battle: BattleConfig{
			Mode:       ModePlayerVsComputer,
			BotDelay:   500 * time.Millisecond,
			CatalogDir: "content/catalog",
			LevelFile:  "content/levels/default.yaml",
			Color:      true,
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestModeControllers(t *testing.T) {
	tests := []struct {
		mode            string
		heroes, monster bool
	}{
		{ModeComputerVsComputer, false, false},
		{ModePlayerVsComputer, true, false},
		{ModePlayerVsPlayer, true, true},
	}
	for _, tc := range tests {
		b := BattleConfig{Mode: tc.mode}
		assert.Equal(t, tc.heroes, b.HeroesHuman(), tc.mode)
		assert.Equal(t, tc.monster, b.MonstersHuman(), tc.mode)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
logging:
  level: debug
  format: console
  output: battle.log
battle:
  mode: cvc
  hero_name: Ada
  bot_delay: 0s
  catalog_dir: /tmp/catalog
  level_file: /tmp/level.yaml
  bot_script: content/scripts/bot.lua
  script_instruction_limit: 5000
  color: false
  seed: 42
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "battle.log", cfg.Logging.Output)
	assert.Equal(t, ModeComputerVsComputer, cfg.Battle.Mode)
	assert.Equal(t, "Ada", cfg.Battle.HeroName)
	assert.Equal(t, time.Duration(0), cfg.Battle.BotDelay)
	assert.Equal(t, "/tmp/catalog", cfg.Battle.CatalogDir)
	assert.Equal(t, "content/scripts/bot.lua", cfg.Battle.BotScript)
	assert.Equal(t, 5000, cfg.Battle.ScriptInstructionLimit)
	assert.False(t, cfg.Battle.Color)
	assert.Equal(t, uint64(42), cfg.Battle.Seed)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ModePlayerVsComputer, cfg.Battle.Mode)
	assert.Equal(t, 500*time.Millisecond, cfg.Battle.BotDelay)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.True(t, cfg.Battle.Color)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BATTLE_BATTLE_MODE", "pvp")
	t.Setenv("BATTLE_LOGGING_LEVEL", "warn")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ModePlayerVsPlayer, cfg.Battle.Mode)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadFromViper_Invalid(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("battle.mode", "solo")
	_, err := LoadFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "battle.mode")
}

func TestValidation_CollectsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	cfg.Battle.Mode = ""
	cfg.Battle.CatalogDir = ""
	cfg.Battle.BotDelay = -time.Second
	cfg.Battle.ScriptInstructionLimit = -1

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"logging.level", "battle.mode", "battle.catalog_dir", "battle.bot_delay", "battle.script_instruction_limit"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidation_InvalidFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.ErrorContains(t, cfg.Validate(), "logging.format")
}

func TestProperty_InvalidModeAlwaysRejected(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mode := rapid.String().Draw(rt, "mode")
		if mode == ModeComputerVsComputer || mode == ModePlayerVsComputer || mode == ModePlayerVsPlayer {
			return
		}
		cfg := validConfig()
		cfg.Battle.Mode = mode
		if cfg.Validate() == nil {
			rt.Fatalf("mode %q accepted", mode)
		}
	})
}

func TestProperty_NonNegativeDelayAccepted(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := validConfig()
		cfg.Battle.BotDelay = time.Duration(rapid.Int64Range(0, int64(time.Hour)).Draw(rt, "delay"))
		if err := cfg.Validate(); err != nil {
			rt.Fatalf("delay %v rejected: %v", cfg.Battle.BotDelay, err)
		}
	})
}
