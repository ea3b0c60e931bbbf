package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mroshb/match_engine/internal/config"
	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/internal/repositories/memstore"
	"github.com/mroshb/match_engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	b, err := Open(&config.Config{StorageDriver: config.StorageDriverMemory})
	require.NoError(t, err)
	assert.Nil(t, b.DB)
	assert.IsType(t, &memstore.Store{}, b.Store)
	assert.NoError(t, b.Ping(context.Background()))
	assert.NoError(t, b.Close())
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		StorageDriver: config.StorageDriverSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "engine.db"),
	}

	b, err := Open(cfg)
	require.NoError(t, err)
	require.NotNil(t, b.DB)
	require.NoError(t, b.Ping(ctx))

	require.NoError(t, b.SaveProfile(ctx, &models.UserProfile{
		ID:          "alice",
		DisplayName: "Alice",
		Age:         30,
		State:       models.ProfileStateActive,
	}))
	require.NoError(t, b.Close())

	// Data survives reopening the file.
	b, err = Open(cfg)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.DisplayName)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{StorageDriver: "mongo"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	assert.Contains(t, err.Error(), "mongo")
}
