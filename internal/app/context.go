package app

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/match-engine/internal/cache"
	"github.com/oggyb/match-engine/internal/config"
	"github.com/oggyb/match-engine/internal/engine"
	"github.com/oggyb/match-engine/internal/notify"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	Engine     engine.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Notifier   *notify.Dispatcher
	Logger     *slog.Logger
}

// New creates a new AppContext. The notifier publishes through the Redis
// connection.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) (*AppContext, error) {
	engineCfg, err := engine.ConfigFrom(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	return &AppContext{
		Config:     cfg,
		Engine:     engineCfg,
		DB:         db,
		RedisCache: rdb,
		Notifier:   notify.NewDispatcher(rdb, cfg.Engine.NotifyTimeout, logger.With("component", "notify")),
		Logger:     logger,
	}, nil
}
