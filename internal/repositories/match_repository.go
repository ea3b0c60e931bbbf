package repositories

import (
	"context"

	"github.com/mroshb/match_engine/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// UpsertMatch inserts m with ON CONFLICT DO NOTHING. When the id already
// exists the stored match is returned with inserted == false.
func (r *MatchRepository) UpsertMatch(ctx context.Context, m *models.Match) (*models.Match, bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if result.Error != nil {
		return nil, false, wrapDBError(result.Error, "failed to create match")
	}
	if result.RowsAffected == 1 {
		return m, true, nil
	}

	existing, err := r.GetMatch(ctx, m.ID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetMatch retrieves a match by its deterministic id
func (r *MatchRepository) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).Where("id = ?", matchID).First(&match).Error; err != nil {
		return nil, wrapDBError(err, "match not found")
	}
	return &match, nil
}

// ListMatchesFor returns userID's active matches, oldest first.
func (r *MatchRepository) ListMatchesFor(ctx context.Context, userID string) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.WithContext(ctx).
		Where("(user_a = ? OR user_b = ?) AND state = ?", userID, userID, models.MatchStateActive).
		Order("created_at ASC, id ASC").
		Find(&matches).Error
	if err != nil {
		return nil, wrapDBError(err, "failed to list matches")
	}
	return matches, nil
}

// Unmatch marks the match as unmatched. The row is kept so the id stays taken.
func (r *MatchRepository) Unmatch(ctx context.Context, matchID string) error {
	result := r.db.WithContext(ctx).Model(&models.Match{}).Where("id = ?", matchID).Update("state", models.MatchStateUnmatched)
	if result.Error != nil {
		return wrapDBError(result.Error, "failed to unmatch")
	}
	if result.RowsAffected == 0 {
		return wrapDBError(gorm.ErrRecordNotFound, "match not found")
	}
	return nil
}
