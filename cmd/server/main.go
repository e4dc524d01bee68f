package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/match-engine/internal/app"
	"github.com/oggyb/match-engine/internal/cache"
	"github.com/oggyb/match-engine/internal/config"
	"github.com/oggyb/match-engine/internal/db"
	"github.com/oggyb/match-engine/internal/logger"
	"github.com/oggyb/match-engine/internal/repository"
	"github.com/oggyb/match-engine/internal/server"
	"github.com/oggyb/match-engine/internal/service/matching"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanup completes before main exits.
func run() error {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}

	appCtx, err := app.New(cfg, database, redisCache, log)
	if err != nil {
		return fmt.Errorf("build app context: %w", err)
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	grpcServer := server.NewGRPCServer(cfg, log, matching.NewRegistrar(appCtx))
	ops := server.NewOpsRouter(map[string]server.Pinger{
		"db":    repository.NewUserRepository(database),
		"redis": redisCache,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		return server.StartGRPCServer(gctx, cfg, grpcServer)
	})
	g.Go(func() error {
		log.Info("starting ops server", "addr", cfg.HTTP.Addr)
		return server.StartHTTPServer(gctx, cfg.HTTP.Addr, ops)
	})
	err = g.Wait()

	// let in-flight notifications drain before the redis client closes
	appCtx.Notifier.Wait()
	if err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}
