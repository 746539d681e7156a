package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/studyarena/backend/internal/battle"
	"github.com/studyarena/backend/internal/bot"
	"github.com/studyarena/backend/internal/config"
	"github.com/studyarena/backend/internal/game"
	"github.com/studyarena/backend/internal/progression"
	"github.com/studyarena/backend/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	stateDir := flag.String("state-dir", "", "Override player record directory")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("loading config")
		}
		cfg = loaded
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *stateDir != "" {
		cfg.Persistence.Dir = *stateDir
	}

	initLogger(cfg.LogLevel)

	curve := progression.LevelCurve{
		BaseXP:       cfg.Leveling.BaseXP,
		GrowthFactor: cfg.Leveling.GrowthFactor,
		MaxLevel:     cfg.Leveling.MaxLevel,
	}
	rewards := progression.NewRewardEngine(progression.RewardConfig{
		BaseXP:                cfg.Rewards.BaseXP,
		BaseCoins:             cfg.Rewards.BaseCoins,
		DifficultyBase:        cfg.Rewards.DifficultyBase,
		VictoryXPMultiplier:   cfg.Rewards.VictoryXPMultiplier,
		VictoryCoinMultiplier: cfg.Rewards.VictoryCoinMultiplier,
		StreakBonusMultiplier: cfg.Rewards.StreakBonusMultiplier,
		StreakBonusCap:        cfg.Rewards.StreakBonusCap,
		TimeBonusMultiplier:   cfg.Rewards.TimeBonusMultiplier,
		TimeBonusCap:          cfg.Rewards.TimeBonusCap,
		CriticalChance:        cfg.Rewards.CriticalChance,
		CriticalMultiplier:    cfg.Rewards.CriticalMultiplier,
	})
	// Dispatches for different players run concurrently and share this
	// source through the coordinator and the bot simulator.
	rng := progression.NewLockedRng(time.Now().UnixNano())

	coord := progression.NewCoordinator(curve, rewards, rng)
	achieve := progression.NewAchievementEvaluator()
	engine := battle.NewEngine(rewards)
	store := progression.NewStore(cfg.Persistence.Dir)
	sessions := battle.NewStore()
	sim := bot.NewSimulator(rng)

	hub := ws.NewHub(log.Logger)
	svc := game.NewService(coord, achieve, engine, store, sessions, sim, hub, log.Logger, game.Options{
		TickInterval:    cfg.Battle.TickInterval,
		TimePerQuestion: cfg.Battle.TimePerQuestion,
		SaveRetries:     cfg.Persistence.SaveRetries,
		RetryBackoff:    cfg.Persistence.RetryBackoff,
		FlushInterval:   cfg.Persistence.FlushInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	server := ws.NewServer(svc, hub, log.Logger)
	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutting down")
		cancel()
		// Give the service a moment to drain pending saves.
		time.Sleep(time.Second)
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func initLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
