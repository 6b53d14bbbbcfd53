package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/gmucodingclub/clubbot/bot"
	"github.com/gmucodingclub/clubbot/config"
	"github.com/gmucodingclub/clubbot/database"
	"github.com/gmucodingclub/clubbot/logger"
	"github.com/gmucodingclub/clubbot/metrics"
	"go.uber.org/zap"
)

func main() {
	configDir := os.Getenv("CLUBBOT_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}

	// Load config; reloads are applied once the bot exists
	var running atomic.Pointer[bot.Bot]
	cfg, err := config.Watch(configDir,
		func(next *config.Config) {
			if b := running.Load(); b != nil {
				b.ApplyConfig(next)
			}
		},
		func(err error) {
			logger.L().Warn("ignoring invalid configuration", zap.Error(err))
		},
	)
	if err != nil {
		logger.New(config.LogConfig{Mode: "release"}).Fatal("failed to load configuration", zap.Error(err))
	}

	// Initialize logger
	log := logger.InitLogger(cfg.Log)
	defer log.Sync()
	log.Info("starting clubbot", zap.String("config_dir", configDir))

	// Open the content catalog
	db, err := database.New(cfg.Catalog.DSN)
	if err != nil {
		log.Fatal("failed to open catalog", zap.String("dsn", cfg.Catalog.DSN), zap.Error(err))
	}
	defer db.Close()

	// Stop on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Serve metrics and health checks
	metrics.Init()
	go func() {
		if err := metrics.Serve(ctx, cfg.Metrics.Addr, log); err != nil {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// Initialize and start the bot
	b, err := bot.New(cfg, db, log)
	if err != nil {
		log.Fatal("failed to initialize bot", zap.Error(err))
	}
	running.Store(b)

	log.Info("bot initialized successfully")
	b.Start(ctx)
	log.Info("clubbot stopped")
}
