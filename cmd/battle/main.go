// Package main provides the battle binary: a console party-vs-party battle
// between the heroes and waves of monsters.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/finalbattle/internal/config"
	"github.com/cory-johannsen/finalbattle/internal/frontend/console"
	"github.com/cory-johannsen/finalbattle/internal/game/ai"
	"github.com/cory-johannsen/finalbattle/internal/game/catalog"
	"github.com/cory-johannsen/finalbattle/internal/game/combat"
	"github.com/cory-johannsen/finalbattle/internal/game/dice"
	"github.com/cory-johannsen/finalbattle/internal/game/level"
	"github.com/cory-johannsen/finalbattle/internal/game/party"
	"github.com/cory-johannsen/finalbattle/internal/observability"
	"github.com/cory-johannsen/finalbattle/internal/scripting"
)

const botPolicyKey = "bot"

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file; empty = defaults and environment only")
	mode := flag.String("mode", "", "override battle.mode: cvc, pvc or pvp")
	levelFile := flag.String("level", "", "override battle.level_file")
	catalogDir := flag.String("catalog", "", "override battle.catalog_dir")
	heroName := flag.String("name", "", "override battle.hero_name")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *mode != "" {
		cfg.Battle.Mode = *mode
	}
	if *levelFile != "" {
		cfg.Battle.LevelFile = *levelFile
	}
	if *catalogDir != "" {
		cfg.Battle.CatalogDir = *catalogDir
	}
	if *heroName != "" {
		cfg.Battle.HeroName = *heroName
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("validating flags: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	src := dice.NewCryptoSource()
	if cfg.Battle.Seed != 0 {
		src = dice.NewSeededSource(cfg.Battle.Seed)
	}
	roller := dice.NewLoggedRoller(src, logger)

	logger.Info("starting battle",
		zap.String("mode", cfg.Battle.Mode),
		zap.String("level", cfg.Battle.LevelFile),
		zap.Uint64("seed", cfg.Battle.Seed),
	)

	// Load catalog
	reg, err := catalog.LoadDirectory(cfg.Battle.CatalogDir)
	if err != nil {
		logger.Fatal("loading catalog", zap.Error(err))
	}
	counts := reg.Counts()
	logger.Info("catalog loaded",
		zap.Int("attacks", counts["attacks"]),
		zap.Int("gear", counts["gear"]),
		zap.Int("characters", counts["characters"]),
	)
	poison, err := reg.Effect(catalog.EffectPoison)
	if err != nil {
		logger.Fatal("loading poison effect", zap.Error(err))
	}
	plague, err := reg.Effect(catalog.EffectRotPlague)
	if err != nil {
		logger.Fatal("loading plague effect", zap.Error(err))
	}

	// Build the level
	lvl, err := level.Load(cfg.Battle.LevelFile)
	if err != nil {
		logger.Fatal("loading level", zap.Error(err))
	}
	heroCtl, monsterCtl := controllers(cfg.Battle)
	setup, err := lvl.Build(reg, cfg.Battle.HeroName, heroCtl, monsterCtl)
	if err != nil {
		logger.Fatal("building level", zap.Error(err))
	}

	// Selectors
	var policy *scripting.Manager
	if cfg.Battle.BotScript != "" {
		policy = scripting.NewManager(roller, logger, cfg.Battle.ScriptInstructionLimit)
		defer policy.Close()
		if err := policy.Load(botPolicyKey, cfg.Battle.BotScript); err != nil {
			logger.Fatal("loading bot script", zap.Error(err))
		}
		logger.Info("bot script loaded", zap.String("path", cfg.Battle.BotScript))
	}
	var human *console.HumanSelector
	if cfg.Battle.HeroesHuman() {
		human = console.NewHumanSelector(os.Stdin, os.Stdout, cfg.Battle.Color)
	}
	heroSel := selector(heroCtl, human, roller, logger, policy)
	monsterSel := selector(monsterCtl, human, roller, logger, policy)

	notifier := combat.Notifiers{
		console.NewRenderer(os.Stdout, cfg.Battle.Color),
		combat.NotifierFunc(func(ev combat.Event) {
			logger.Debug("battle event", zap.Stringer("kind", ev.Kind()))
		}),
	}

	ctrl, err := combat.NewController(combat.Options{
		Heroes:          setup.Heroes,
		Monsters:        setup.Monsters,
		HeroSelector:    heroSel,
		MonsterSelector: monsterSel,
		Poison:          poison,
		Plague:          plague,
		Roller:          roller,
		Notifier:        notifier,
		Logger:          logger,
		BotDelay:        cfg.Battle.BotDelay,
	})
	if err != nil {
		logger.Fatal("creating battle", zap.Error(err))
	}
	for _, w := range setup.Queued {
		ctrl.QueueWave(w)
	}

	logger.Info("battle ready",
		zap.Int("heroes", setup.Heroes.Len()),
		zap.Int("monsters", setup.Monsters.Len()),
		zap.Int("queued_waves", ctrl.Budget()),
		zap.Duration("elapsed", time.Since(start)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := ctrl.Run(ctx)
	if err != nil {
		logger.Error("battle aborted", zap.Error(err), zap.Int("round", ctrl.Round()))
		fmt.Fprintln(os.Stdout, "The battle was abandoned.")
		return
	}
	logger.Info("battle finished",
		zap.Stringer("winner", outcome.Winner),
		zap.Int("rounds", outcome.Rounds),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func controllers(b config.BattleConfig) (heroes, monsters party.Controller) {
	heroes, monsters = party.ControllerBot, party.ControllerBot
	if b.HeroesHuman() {
		heroes = party.ControllerHuman
	}
	if b.MonstersHuman() {
		monsters = party.ControllerHuman
	}
	return heroes, monsters
}

func selector(ctl party.Controller, human *console.HumanSelector, roller *dice.Roller, logger *zap.Logger, policy *scripting.Manager) combat.Selector {
	if ctl == party.ControllerHuman {
		return human
	}
	var opts []ai.Option
	if policy != nil {
		opts = append(opts, ai.WithPolicy(policy, botPolicyKey))
	}
	return ai.NewBot(roller, logger, opts...)
}
