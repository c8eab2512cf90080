// Package main provides the game server binary: it loads content and
// configuration, opens the selected storage backend, and runs the command
// service's periodic jobs until terminated.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/command"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/config"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/content"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/game/rng"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/observability"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/scheduler"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/scripting"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/server"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage/jsonfile"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage/postgres"
	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/storage/redis"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	// A .env can override config through the OUTLAW_ prefix; missing is fine.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	reg, err := content.Load(cfg.Game.ContentDir)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("classes", len(reg.Classes())),
		zap.Int("items", len(reg.Items())),
		zap.Int("locations", len(reg.Locations())),
		zap.String("start_location", reg.StartLocation()))

	store, closeStore, err := openStore(ctx, cfg, reg.StartLocation(), logger)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}
	defer closeStore()

	svc := command.NewService(store, reg, rng.NewCryptoSource(), logger, cfg.Game,
		command.WithFlavorHook(scripting.NewRunner(logger, 0)))
	sched := scheduler.New(svc, logger, cfg.Game.BossTickInterval, cfg.Game.SweepInterval)

	lc := server.NewLifecycle(logger)
	stopCh := make(chan struct{})
	lc.Add("scheduler", &server.FuncService{
		StartFn: func() error {
			if err := sched.Start(ctx); err != nil {
				return err
			}
			<-stopCh
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := sched.Stop(shutdownCtx); err != nil {
				logger.Warn("stopping scheduler", zap.Error(err))
			}
			close(stopCh)
		},
	})

	if err := lc.Run(ctx); err != nil {
		logger.Fatal("lifecycle failed", zap.Error(err))
	}
}

// openStore opens the configured storage backend and returns it with its
// shutdown func.
func openStore(ctx context.Context, cfg config.Config, startLocation string, logger *zap.Logger) (storage.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "jsonfile":
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.CharactersFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating data dir: %w", err)
		}
		st, err := jsonfile.Open(cfg.Storage.CharactersFile, cfg.Storage.BossFile, startLocation, logger)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			if err := st.Close(); err != nil {
				logger.Error("closing jsonfile store", zap.Error(err))
			}
		}, nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(pool.DB()), pool.Close, nil

	case "redis":
		st, err := redis.Open(ctx, cfg.Redis, startLocation)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			if err := st.Close(); err != nil {
				logger.Error("closing redis store", zap.Error(err))
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
