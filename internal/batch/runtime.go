// Package batch opens the connections shared by the maintenance commands under cmd/.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/cache"
	"github.com/SAP-F-2025/practice-service/internal/config"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/practice-service/pkg"
)

// Runtime holds an initialized database, repository and optional cache
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *gorm.DB

	repoManager *postgres.RepositoryManager
}

// NewRuntime loads configuration and connects like the server does. Commands log as text to stderr
// so stdout carries only their report.
func NewRuntime() (*Runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, cached views will expire on their own", "error", err)
			redisClient = nil
		}
	}

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	return &Runtime{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		repoManager: repoManager,
	}, nil
}

func (r *Runtime) Repository() repositories.Repository {
	return r.repoManager.GetRepository()
}

func (r *Runtime) Cache() *cache.CacheManager {
	return r.repoManager.CacheManager()
}

// Close releases the database and redis connections
func (r *Runtime) Close() {
	if err := r.repoManager.Shutdown(context.Background()); err != nil {
		r.Logger.Error("Failed to close connections", "error", err)
	}
}
