package database

import (
	"testing"

	"github.com/mroshb/match_engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate(t *testing.T) {
	db, err := OpenSQLite("file:migrate_test?mode=memory&cache=shared")
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))
	// Running twice is a no-op.
	require.NoError(t, AutoMigrate(db))

	for _, table := range []interface{}{
		&models.UserProfile{},
		&models.DealbreakersRow{},
		&models.SwipeEvent{},
		&models.Match{},
	} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasIndex(&models.SwipeEvent{}, "idx_swipe_pair"))
}
