package services

import (
	"context"

	"github.com/mroshb/match_engine/internal/models"
)

// ProfileStore reads profiles. Returned values are copies owned by the caller.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	// CandidatePool returns profiles userID has not swiped on yet, with
	// dealbreakers loaded. It may include userID and inactive profiles.
	CandidatePool(ctx context.Context, userID string) ([]models.UserProfile, error)
}

// SwipeStore appends swipe events and answers like lookups.
type SwipeStore interface {
	AppendSwipe(ctx context.Context, swipe *models.SwipeEvent) error
	LikeExists(ctx context.Context, fromID, toID string) (bool, error)
}

// MatchStore persists matches keyed by their deterministic id.
type MatchStore interface {
	// UpsertMatch inserts m unless a match with the same id exists. It returns
	// the stored match and whether this call inserted it. Implementations may
	// instead report a lost race as an ALREADY_EXISTS error.
	UpsertMatch(ctx context.Context, m *models.Match) (*models.Match, bool, error)
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
}

// Storage is everything the engine needs from persistence.
type Storage interface {
	ProfileStore
	SwipeStore
	MatchStore
}
