package repositories

import (
	"context"

	"github.com/mroshb/match_engine/internal/models"
	"gorm.io/gorm"
)

type SwipeRepository struct {
	db *gorm.DB
}

func NewSwipeRepository(db *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: db}
}

// AppendSwipe stores a swipe event. Events are never updated.
func (r *SwipeRepository) AppendSwipe(ctx context.Context, swipe *models.SwipeEvent) error {
	if err := r.db.WithContext(ctx).Create(swipe).Error; err != nil {
		return wrapDBError(err, "failed to record swipe")
	}
	return nil
}

// LikeExists checks if fromID has liked toID
func (r *SwipeRepository) LikeExists(ctx context.Context, fromID, toID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SwipeEvent{}).
		Where("actor_id = ? AND target_id = ? AND direction = ?", fromID, toID, models.DirectionLike).
		Count(&count).Error
	if err != nil {
		return false, wrapDBError(err, "failed to check like")
	}
	return count > 0, nil
}

// CountSwipes returns how many swipes actorID has made.
func (r *SwipeRepository) CountSwipes(ctx context.Context, actorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SwipeEvent{}).Where("actor_id = ?", actorID).Count(&count).Error
	if err != nil {
		return 0, wrapDBError(err, "failed to count swipes")
	}
	return count, nil
}
