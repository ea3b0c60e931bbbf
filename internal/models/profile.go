package models

import (
	"time"

	"github.com/mroshb/match_engine/pkg/geo"
	"gorm.io/gorm"
)

type UserProfile struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	DisplayName string    `gorm:"type:varchar(255);not null"`
	Age         int       `gorm:"not null;index"`
	Latitude    float64   `gorm:"type:float"`
	Longitude   float64   `gorm:"type:float"`
	HeightCm    *int      `gorm:"default:NULL"`
	Smoking     string    `gorm:"type:varchar(20)"`
	Drinking    string    `gorm:"type:varchar(20)"`
	WantsKids   string    `gorm:"type:varchar(20)"`
	LookingFor  string    `gorm:"type:varchar(20)"`
	Education   string    `gorm:"type:varchar(20)"`
	State       string    `gorm:"type:varchar(20);default:'active';index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	// NoLocation marks a profile that has not shared a location. Latitude and
	// Longitude are ignored, (0, 0) included, and distance filters are skipped.
	NoLocation bool `gorm:"not null;default:false"`

	// Gender preferences. An empty InterestedIn means any gender.
	Gender       string   `gorm:"type:varchar(20)"`
	InterestedIn []string `gorm:"serializer:json;type:text"`

	// Preferred candidate age range; nil bounds are open.
	MinAge *int `gorm:"default:NULL"`
	MaxAge *int `gorm:"default:NULL"`

	// Loaded from the dealbreakers table by the repository.
	Dealbreakers Dealbreakers `gorm:"-"`
}

// Profile state constants
const (
	ProfileStateActive = "active"
	ProfileStatePaused = "paused"
	ProfileStateBanned = "banned"
)

// HasLocation reports whether the profile has a location set.
func (p *UserProfile) HasLocation() bool {
	return !p.NoLocation
}

// Coordinates returns the profile location. Check HasLocation first.
func (p *UserProfile) Coordinates() geo.Coordinates {
	return geo.Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Attribute returns the profile's value for a categorical attribute, or ""
// when the user has not specified it.
func (p *UserProfile) Attribute(c Category) string {
	switch c {
	case CategorySmoking:
		return p.Smoking
	case CategoryDrinking:
		return p.Drinking
	case CategoryWantsKids:
		return p.WantsKids
	case CategoryLookingFor:
		return p.LookingFor
	case CategoryEducation:
		return p.Education
	}
	return ""
}

// SetAttribute assigns a categorical attribute. Unknown categories are ignored.
func (p *UserProfile) SetAttribute(c Category, value string) {
	switch c {
	case CategorySmoking:
		p.Smoking = value
	case CategoryDrinking:
		p.Drinking = value
	case CategoryWantsKids:
		p.WantsKids = value
	case CategoryLookingFor:
		p.LookingFor = value
	case CategoryEducation:
		p.Education = value
	}
}

// IsInterestedIn reports whether a user with this profile wants to see a
// candidate of gender. A user without gender preferences accepts everyone;
// otherwise a candidate who did not state a gender is not shown.
func (p *UserProfile) IsInterestedIn(gender string) bool {
	if len(p.InterestedIn) == 0 {
		return true
	}
	for _, g := range p.InterestedIn {
		if g == gender {
			return true
		}
	}
	return false
}

// AcceptsAge reports whether age lies inside the profile's preferred range.
func (p *UserProfile) AcceptsAge(age int) bool {
	if p.MinAge != nil && age < *p.MinAge {
		return false
	}
	if p.MaxAge != nil && age > *p.MaxAge {
		return false
	}
	return true
}

// IsActive reports whether the profile may appear as a candidate.
func (p *UserProfile) IsActive() bool {
	return p.State == ProfileStateActive
}

// Validate checks the invariants enforced before a profile is persisted.
func (p *UserProfile) Validate() error {
	if err := ValidateUserID(p.ID); err != nil {
		return err
	}

	if p.Age < 0 {
		return gorm.ErrInvalidData
	}

	if p.HasLocation() {
		if err := geo.Validate(p.Coordinates()); err != nil {
			return err
		}
	}

	if p.Gender != "" && !IsKnownGender(p.Gender) {
		return gorm.ErrInvalidData
	}
	for _, g := range p.InterestedIn {
		if !IsKnownGender(g) {
			return gorm.ErrInvalidData
		}
	}
	if (p.MinAge != nil && *p.MinAge < 0) || (p.MaxAge != nil && *p.MaxAge < 0) {
		return gorm.ErrInvalidData
	}
	if p.MinAge != nil && p.MaxAge != nil && *p.MinAge > *p.MaxAge {
		return gorm.ErrInvalidData
	}

	validStates := map[string]bool{
		ProfileStateActive: true,
		ProfileStatePaused: true,
		ProfileStateBanned: true,
	}
	if !validStates[p.State] {
		return gorm.ErrInvalidData
	}

	for _, c := range Categories() {
		v := p.Attribute(c)
		if v != "" && !IsKnownValue(c, v) {
			return gorm.ErrInvalidData
		}
	}

	return nil
}

// BeforeSave hook for validation
func (p *UserProfile) BeforeSave(tx *gorm.DB) error {
	return p.Validate()
}

// TableName specifies the table name
func (UserProfile) TableName() string {
	return "user_profiles"
}
