package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mroshb/match_engine/internal/database"
	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/pkg/errors"
	"github.com/mroshb/match_engine/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testProfile(id string, at geo.Coordinates) *models.UserProfile {
	return &models.UserProfile{
		ID:          id,
		DisplayName: id,
		Age:         29,
		Latitude:    at.Latitude,
		Longitude:   at.Longitude,
		Smoking:     models.SmokingNever,
		State:       models.ProfileStateActive,
	}
}

var home = geo.Coordinates{Latitude: 48.8566, Longitude: 2.3522}

func TestProfileRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(setupTestDB(t))

	height := 180
	p := testProfile("alice", home)
	p.HeightCm = &height
	require.NoError(t, repo.SaveProfile(ctx, p))

	got, err := repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.DisplayName)
	assert.Equal(t, models.SmokingNever, got.Smoking)
	require.NotNil(t, got.HeightCm)
	assert.Equal(t, 180, *got.HeightCm)
	assert.True(t, got.Dealbreakers.IsEmpty())

	p.DisplayName = "Alice"
	require.NoError(t, repo.SaveProfile(ctx, p))
	got, err = repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.DisplayName)

	_, err = repo.GetProfile(ctx, "nobody")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestProfileRepository_RejectsInvalidProfile(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(setupTestDB(t))

	p := testProfile("alice", geo.Coordinates{Latitude: 91, Longitude: 0})
	err := repo.SaveProfile(ctx, p)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidCoordinate))

	p = testProfile("bob", home)
	p.State = "deleted"
	err = repo.SaveProfile(ctx, p)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestProfileRepository_Dealbreakers(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(setupTestDB(t))
	require.NoError(t, repo.SaveProfile(ctx, testProfile("alice", home)))

	maxAge := 4
	maxDist := 12.5
	d, err := models.NewDealbreakers(models.DealbreakersSpec{
		Acceptable: map[models.Category][]string{
			models.CategorySmoking:    {models.SmokingNever},
			models.CategoryLookingFor: {models.LookingForLongTerm, models.LookingForMarriage},
		},
		MaxAgeDifference: &maxAge,
		MaxDistanceKm:    &maxDist,
	})
	require.NoError(t, err)
	require.NoError(t, repo.SaveDealbreakers(ctx, "alice", d))

	got, err := repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, d.Spec(), got.Dealbreakers.Spec())

	// Replacing keeps a single row.
	require.NoError(t, repo.SaveDealbreakers(ctx, "alice", models.NoDealbreakers()))
	got, err = repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.Dealbreakers.IsEmpty())

	err = repo.SaveDealbreakers(ctx, "ghost", d)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestProfileRepository_CandidatePool(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	profiles := NewProfileRepository(db)
	swipes := NewSwipeRepository(db)

	for _, id := range []string{"alice", "bob", "carol", "dave"} {
		require.NoError(t, profiles.SaveProfile(ctx, testProfile(id, home)))
	}
	require.NoError(t, profiles.UpdateState(ctx, "dave", models.ProfileStatePaused))

	limit := 3
	d, err := models.NewDealbreakers(models.DealbreakersSpec{MaxAgeDifference: &limit})
	require.NoError(t, err)
	require.NoError(t, profiles.SaveDealbreakers(ctx, "carol", d))

	require.NoError(t, swipes.AppendSwipe(ctx, &models.SwipeEvent{
		ID: "s1", ActorID: "alice", TargetID: "bob", Direction: models.DirectionPass, CreatedAt: time.Now(),
	}))

	pool, err := profiles.CandidatePool(ctx, "alice")
	require.NoError(t, err)

	var ids []string
	for _, p := range pool {
		ids = append(ids, p.ID)
		if p.ID == "carol" {
			v, bounded := p.Dealbreakers.MaxAgeDifference()
			assert.True(t, bounded)
			assert.Equal(t, 3, v)
		}
	}
	assert.Equal(t, []string{"alice", "carol"}, ids)

	err = profiles.UpdateState(ctx, "alice", "deleted")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestProfileRepository_UpdateLocation(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(setupTestDB(t))
	require.NoError(t, repo.SaveProfile(ctx, testProfile("alice", home)))

	moved := geo.OffsetNorth(home, 3)
	require.NoError(t, repo.UpdateLocation(ctx, "alice", moved))

	got, err := repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, moved.Latitude, got.Latitude, 1e-9)

	err = repo.UpdateLocation(ctx, "alice", geo.Coordinates{Latitude: 0, Longitude: 181})
	assert.True(t, stderrors.Is(err, errors.ErrInvalidCoordinate))

	err = repo.UpdateLocation(ctx, "ghost", home)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestProfileRepository_PreferencesRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(setupTestDB(t))

	minAge, maxAge := 25, 35
	p := testProfile("dana", geo.Coordinates{})
	p.NoLocation = true
	p.Gender = models.GenderFemale
	p.InterestedIn = []string{models.GenderMale, models.GenderOther}
	p.MinAge = &minAge
	p.MaxAge = &maxAge
	require.NoError(t, repo.SaveProfile(ctx, p))

	got, err := repo.GetProfile(ctx, "dana")
	require.NoError(t, err)
	assert.False(t, got.HasLocation())
	assert.Equal(t, models.GenderFemale, got.Gender)
	assert.Equal(t, []string{models.GenderMale, models.GenderOther}, got.InterestedIn)
	require.NotNil(t, got.MinAge)
	require.NotNil(t, got.MaxAge)
	assert.Equal(t, 25, *got.MinAge)
	assert.Equal(t, 35, *got.MaxAge)

	// Setting a location makes it known again.
	require.NoError(t, repo.UpdateLocation(ctx, "dana", geo.Coordinates{}))
	got, err = repo.GetProfile(ctx, "dana")
	require.NoError(t, err)
	assert.True(t, got.HasLocation())

	pool, err := repo.CandidatePool(ctx, "someone")
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, []string{models.GenderMale, models.GenderOther}, pool[0].InterestedIn)
}

func TestProfileRepository_RejectsInvalidIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(setupTestDB(t))

	for _, id := range []string{strings.Repeat("z", models.MaxUserIDLength+1), "a_b", " alice"} {
		err := repo.SaveProfile(ctx, testProfile(id, home))
		require.Error(t, err, "id %q", id)
		assert.True(t, errors.HasCode(err, errors.ErrCodeValidation), "id %q: %v", id, err)
		assert.False(t, errors.HasCode(err, errors.ErrCodeStorageUnavailable))
	}

	require.NoError(t, repo.SaveProfile(ctx, testProfile(strings.Repeat("z", models.MaxUserIDLength), home)))
}

func TestSwipeRepository_LikeExists(t *testing.T) {
	ctx := context.Background()
	repo := NewSwipeRepository(setupTestDB(t))

	require.NoError(t, repo.AppendSwipe(ctx, &models.SwipeEvent{ID: "s1", ActorID: "alice", TargetID: "bob", Direction: models.DirectionLike}))
	require.NoError(t, repo.AppendSwipe(ctx, &models.SwipeEvent{ID: "s2", ActorID: "carol", TargetID: "bob", Direction: models.DirectionPass}))

	ok, err := repo.LikeExists(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.LikeExists(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.LikeExists(ctx, "carol", "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.CountSwipes(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	err = repo.AppendSwipe(ctx, &models.SwipeEvent{ID: "s1", ActorID: "x", TargetID: "y", Direction: models.DirectionLike})
	assert.True(t, stderrors.Is(err, errors.ErrAlreadyExists))
}

func TestMatchRepository_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepository(setupTestDB(t))

	created := time.Now().UTC().Truncate(time.Microsecond)
	first, err := models.NewMatch("bob", "alice", created)
	require.NoError(t, err)

	stored, inserted, err := repo.UpsertMatch(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "alice_bob", stored.ID)

	second, err := models.NewMatch("alice", "bob", created.Add(time.Minute))
	require.NoError(t, err)

	stored, inserted, err = repo.UpsertMatch(ctx, second)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, "alice_bob", stored.ID)
	assert.True(t, created.Equal(stored.CreatedAt), "the original record is kept")

	matches, err := repo.ListMatchesFor(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMatchRepository_ConcurrentUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepository(setupTestDB(t))

	var g errgroup.Group
	results := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		a, b := "alice", "bob"
		if i%2 == 0 {
			a, b = b, a
		}
		g.Go(func() error {
			m, err := models.NewMatch(a, b, time.Now())
			if err != nil {
				return err
			}
			_, inserted, err := repo.UpsertMatch(ctx, m)
			results <- inserted
			return err
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	inserted := 0
	for ok := range results {
		if ok {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted)

	var count int64
	require.NoError(t, repo.db.Model(&models.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMatchRepository_Unmatch(t *testing.T) {
	ctx := context.Background()
	repo := NewMatchRepository(setupTestDB(t))

	m, err := models.NewMatch("alice", "bob", time.Now())
	require.NoError(t, err)
	_, _, err = repo.UpsertMatch(ctx, m)
	require.NoError(t, err)

	require.NoError(t, repo.Unmatch(ctx, m.ID))

	got, err := repo.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStateUnmatched, got.State)

	matches, err := repo.ListMatchesFor(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, matches)

	assert.True(t, stderrors.Is(repo.Unmatch(ctx, "x_y"), errors.ErrNotFound))
	_, err = repo.GetMatch(ctx, "x_y")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestStore_ClosedDatabaseIsUnavailable(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewStore(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = store.GetProfile(ctx, "alice")
	assert.True(t, stderrors.Is(err, errors.ErrStorageUnavailable))

	_, err = store.LikeExists(ctx, "alice", "bob")
	assert.True(t, stderrors.Is(err, errors.ErrStorageUnavailable))
}
