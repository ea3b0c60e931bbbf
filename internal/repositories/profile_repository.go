package repositories

import (
	"context"

	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/pkg/errors"
	"github.com/mroshb/match_engine/pkg/geo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// SaveProfile creates or replaces a profile. Dealbreakers are stored
// separately with SaveDealbreakers.
func (r *ProfileRepository) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	result := r.db.WithContext(ctx).Save(profile)
	if result.Error != nil {
		return wrapDBError(result.Error, "failed to save profile")
	}
	return nil
}

// SaveDealbreakers replaces userID's dealbreakers.
func (r *ProfileRepository) SaveDealbreakers(ctx context.Context, userID string, d models.Dealbreakers) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserProfile{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return wrapDBError(err, "failed to check profile")
	}
	if count == 0 {
		return errors.New(errors.ErrCodeNotFound, "profile not found")
	}

	row := models.DealbreakersRowFrom(userID, d)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(row)
	if result.Error != nil {
		return wrapDBError(result.Error, "failed to save dealbreakers")
	}
	return nil
}

// GetProfile retrieves a profile with its dealbreakers.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	result := r.db.WithContext(ctx).Where("id = ?", userID).First(&profile)
	if result.Error != nil {
		return nil, wrapDBError(result.Error, "profile not found")
	}

	var row models.DealbreakersRow
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&row).Error
	if err != nil {
		return nil, wrapDBError(err, "failed to get dealbreakers")
	}
	if row.UserID != "" {
		d, err := row.ToDomain()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "stored dealbreakers are invalid")
		}
		profile.Dealbreakers = d
	}

	return &profile, nil
}

// CandidatePool returns active profiles userID has not swiped on yet, with
// dealbreakers loaded. userID itself is included; callers filter it.
func (r *ProfileRepository) CandidatePool(ctx context.Context, userID string) ([]models.UserProfile, error) {
	swiped := r.db.WithContext(ctx).Model(&models.SwipeEvent{}).Select("target_id").Where("actor_id = ?", userID)

	var profiles []models.UserProfile
	err := r.db.WithContext(ctx).
		Where("state = ?", models.ProfileStateActive).
		Where("id NOT IN (?)", swiped).
		Order("id").
		Find(&profiles).Error
	if err != nil {
		return nil, wrapDBError(err, "failed to load candidate pool")
	}
	if len(profiles) == 0 {
		return profiles, nil
	}

	ids := make([]string, len(profiles))
	for i := range profiles {
		ids[i] = profiles[i].ID
	}

	var rows []models.DealbreakersRow
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, wrapDBError(err, "failed to load dealbreakers")
	}

	byUser := make(map[string]models.Dealbreakers, len(rows))
	for i := range rows {
		d, err := rows[i].ToDomain()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "stored dealbreakers are invalid")
		}
		byUser[rows[i].UserID] = d
	}
	for i := range profiles {
		profiles[i].Dealbreakers = byUser[profiles[i].ID]
	}

	return profiles, nil
}

// UpdateLocation sets userID's coordinates and marks the location as known.
func (r *ProfileRepository) UpdateLocation(ctx context.Context, userID string, at geo.Coordinates) error {
	if err := geo.Validate(at); err != nil {
		return err
	}
	// Column updates skip BeforeSave, which validates a whole profile.
	result := r.db.WithContext(ctx).Session(&gorm.Session{SkipHooks: true}).
		Model(&models.UserProfile{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"latitude":    at.Latitude,
		"longitude":   at.Longitude,
		"no_location": false,
	})
	if result.Error != nil {
		return wrapDBError(result.Error, "failed to update location")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "profile not found")
	}
	return nil
}

// UpdateState changes userID's profile state.
func (r *ProfileRepository) UpdateState(ctx context.Context, userID, state string) error {
	switch state {
	case models.ProfileStateActive, models.ProfileStatePaused, models.ProfileStateBanned:
	default:
		return errors.New(errors.ErrCodeValidation, "unknown profile state: "+state)
	}
	result := r.db.WithContext(ctx).Session(&gorm.Session{SkipHooks: true}).
		Model(&models.UserProfile{}).Where("id = ?", userID).Update("state", state)
	if result.Error != nil {
		return wrapDBError(result.Error, "failed to update state")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "profile not found")
	}
	return nil
}
