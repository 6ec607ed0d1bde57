package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/rocketshoes/internal/config"
	"github.com/utafrali/rocketshoes/internal/repository"
	filerepo "github.com/utafrali/rocketshoes/internal/repository/file"
	pgrepo "github.com/utafrali/rocketshoes/internal/repository/postgres"
	redisrepo "github.com/utafrali/rocketshoes/internal/repository/redis"
	"github.com/utafrali/rocketshoes/pkg/database"
)

// storage is an opened snapshot backend and the resources to release with it.
type storage struct {
	repo    repository.SnapshotRepository
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger, registerer prometheus.Registerer) (*storage, error) {
	switch cfg.Storage {
	case config.StorageFile:
		logger.Info("using file cart storage", slog.String("path", cfg.StoragePath))
		return &storage{repo: filerepo.NewSnapshotRepository(cfg.StoragePath)}, nil

	case config.StorageRedis:
		rdb, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, err
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		return &storage{
			repo:    redisrepo.NewSnapshotRepository(rdb, cfg.CartTTLDuration()),
			closers: []namedCloser{{name: "redis", close: rdb.Close}},
		}, nil

	case config.StoragePostgres:
		pgCfg := cfg.Postgres()
		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(ctx, pool, pgrepo.Migrations(), logger); err != nil {
			pool.Close()
			return nil, err
		}
		if err := registerer.Register(database.NewPoolStatsCollector(pool, "cart-api")); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}
		tracer := database.QueryTracer{
			SlowThreshold: time.Duration(cfg.SlowQueryMS) * time.Millisecond,
			Logger:        logger,
		}
		return &storage{
			repo: pgrepo.NewSnapshotRepository(pool, tracer),
			closers: []namedCloser{{name: "postgres", close: func() error {
				pool.Close()
				return nil
			}}},
		}, nil
	}
	return nil, fmt.Errorf("unknown cart storage %q", cfg.Storage)
}
