package database

import (
	"context"
	"fmt"

	"github.com/hostelcare/complaint-server/internal/config"
	"github.com/hostelcare/complaint-server/internal/repository"
	"go.uber.org/zap"
)

// OpenStore connects the backend selected by STORE_DRIVER
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := RunMigrations(pool, logger); err != nil {
				pool.Close()
				return nil, err
			}
		}
		logger.Info("Database connected", zap.String("driver", cfg.StoreDriver))
		return repository.NewPostgresStore(pool), nil

	case config.DriverMongo:
		client, err := NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		store := repository.NewMongoStore(client, client.Database(cfg.MongoDatabase))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info("Database connected",
			zap.String("driver", cfg.StoreDriver),
			zap.String("database", cfg.MongoDatabase),
		)
		return store, nil

	case config.DriverMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
