package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"FinSentinel/internal/config"
	"FinSentinel/internal/core"
	"FinSentinel/internal/scheduler"
	"FinSentinel/internal/sqlite"
)

func main() {
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	db, err := sqlite.Open(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	c, err := core.New(cfg, db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init core")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(ctx, c.Resolver, c.PriceCache, cfg.Schedule.WatchSymbols, log)
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.PruneCron); err != nil {
		log.Fatal().Err(err).Msg("register cron jobs")
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, warming watch list now")
		go sched.RunRefreshNow()
	}

	log.Info().Msg("FinSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
}
