package repositories

import (
	"gorm.io/gorm"
)

// Store bundles the gorm repositories into one storage backend.
type Store struct {
	*ProfileRepository
	*SwipeRepository
	*MatchRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		ProfileRepository: NewProfileRepository(db),
		SwipeRepository:   NewSwipeRepository(db),
		MatchRepository:   NewMatchRepository(db),
	}
}
