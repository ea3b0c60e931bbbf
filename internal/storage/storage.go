// Package storage selects the persistence backend named by STORAGE_DRIVER.
package storage

import (
	"context"
	"fmt"

	"github.com/mroshb/match_engine/internal/config"
	"github.com/mroshb/match_engine/internal/database"
	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/internal/repositories"
	"github.com/mroshb/match_engine/internal/repositories/memstore"
	"github.com/mroshb/match_engine/internal/services"
	"github.com/mroshb/match_engine/pkg/errors"
	"github.com/mroshb/match_engine/pkg/geo"
	"github.com/mroshb/match_engine/pkg/logger"
	"gorm.io/gorm"
)

// Store is what the engine, the importer and maintenance tooling need from
// a backend. Both backends implement all of it.
type Store interface {
	services.Storage
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
	SaveDealbreakers(ctx context.Context, userID string, d models.Dealbreakers) error
	UpdateLocation(ctx context.Context, userID string, at geo.Coordinates) error
	UpdateState(ctx context.Context, userID, state string) error
	CountSwipes(ctx context.Context, actorID string) (int64, error)
	ListMatchesFor(ctx context.Context, userID string) ([]models.Match, error)
	Unmatch(ctx context.Context, matchID string) error
}

var (
	_ Store = (*repositories.Store)(nil)
	_ Store = (*memstore.Store)(nil)
)

// Backend is an opened store plus its cleanup.
type Backend struct {
	Store
	// DB is nil for the memory driver.
	DB *gorm.DB
}

// Ping checks that the backend is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b.DB == nil {
		return nil
	}
	sqlDB, err := b.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (b *Backend) Close() error {
	if b.DB == nil {
		return nil
	}
	sqlDB, err := b.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Open connects to the configured backend and, for database drivers, runs
// migrations.
func Open(cfg *config.Config) (*Backend, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Info("Using in-memory storage")
		return &Backend{Store: memstore.New()}, nil
	case config.StorageDriverSQLite:
		db, err = database.OpenSQLite(cfg.SQLitePath)
	case config.StorageDriverPostgres:
		db, err = database.Connect(cfg)
	default:
		return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("unknown storage driver %q", cfg.StorageDriver))
	}
	if err != nil {
		return nil, err
	}

	b := &Backend{Store: repositories.NewStore(db), DB: db}
	if err := database.AutoMigrate(db); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}
