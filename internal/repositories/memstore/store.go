// Package memstore is a concurrency-safe in-memory storage backend used by
// tests and by STORAGE_DRIVER=memory.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/pkg/errors"
	"github.com/mroshb/match_engine/pkg/geo"
)

type swipeKey struct {
	actor  string
	target string
}

type Store struct {
	mu       sync.RWMutex
	profiles map[string]models.UserProfile
	swipes   []models.SwipeEvent
	swiped   map[swipeKey]models.Direction
	likes    map[swipeKey]struct{}
	matches  map[string]models.Match
}

func New() *Store {
	return &Store{
		profiles: make(map[string]models.UserProfile),
		swiped:   make(map[swipeKey]models.Direction),
		likes:    make(map[swipeKey]struct{}),
		matches:  make(map[string]models.Match),
	}
}

// SaveProfile validates and stores a copy of p, replacing any previous one.
func (s *Store) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	if err := p.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid profile")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *p
	stored.InterestedIn = slices.Clone(p.InterestedIn)
	s.profiles[p.ID] = stored
	return nil
}

// SaveDealbreakers replaces the dealbreakers of an existing profile.
func (s *Store) SaveDealbreakers(ctx context.Context, userID string, d models.Dealbreakers) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "profile not found")
	}
	p.Dealbreakers = d
	s.profiles[userID] = p
	return nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "profile not found")
	}
	p.InterestedIn = slices.Clone(p.InterestedIn)
	return &p, nil
}

// UpdateLocation sets userID's coordinates and marks the location as known.
func (s *Store) UpdateLocation(ctx context.Context, userID string, at geo.Coordinates) error {
	if err := geo.Validate(at); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "profile not found")
	}
	p.Latitude, p.Longitude, p.NoLocation = at.Latitude, at.Longitude, false
	s.profiles[userID] = p
	return nil
}

// UpdateState changes userID's profile state.
func (s *Store) UpdateState(ctx context.Context, userID, state string) error {
	switch state {
	case models.ProfileStateActive, models.ProfileStatePaused, models.ProfileStateBanned:
	default:
		return errors.New(errors.ErrCodeValidation, "unknown profile state: "+state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "profile not found")
	}
	p.State = state
	s.profiles[userID] = p
	return nil
}

// CandidatePool returns every stored profile userID has not swiped on,
// sorted by id.
func (s *Store) CandidatePool(ctx context.Context, userID string) ([]models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.UserProfile, 0, len(s.profiles))
	for id, p := range s.profiles {
		if _, done := s.swiped[swipeKey{actor: userID, target: id}]; done {
			continue
		}
		p.InterestedIn = slices.Clone(p.InterestedIn)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AppendSwipe(ctx context.Context, swipe *models.SwipeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := swipeKey{actor: swipe.ActorID, target: swipe.TargetID}
	s.swipes = append(s.swipes, *swipe)
	s.swiped[key] = swipe.Direction
	if swipe.Direction == models.DirectionLike {
		s.likes[key] = struct{}{}
	}
	return nil
}

// CountSwipes returns how many swipes actorID has made.
func (s *Store) CountSwipes(ctx context.Context, actorID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for i := range s.swipes {
		if s.swipes[i].ActorID == actorID {
			n++
		}
	}
	return n, nil
}

func (s *Store) LikeExists(ctx context.Context, fromID, toID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.likes[swipeKey{actor: fromID, target: toID}]
	return ok, nil
}

// UpsertMatch inserts m if no match with its id exists.
func (s *Store) UpsertMatch(ctx context.Context, m *models.Match) (*models.Match, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.matches[m.ID]; ok {
		return &existing, false, nil
	}
	s.matches[m.ID] = *m
	stored := *m
	return &stored, true, nil
}

func (s *Store) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[matchID]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "match not found")
	}
	return &m, nil
}

// ListMatchesFor returns userID's active matches, oldest first.
func (s *Store) ListMatchesFor(ctx context.Context, userID string) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Match
	for _, m := range s.matches {
		if m.Involves(userID) && m.State == models.MatchStateActive {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Unmatch marks the match as unmatched. The record is kept so the id stays
// taken.
func (s *Store) Unmatch(ctx context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "match not found")
	}
	m.State = models.MatchStateUnmatched
	s.matches[matchID] = m
	return nil
}

// SwipeCount returns the number of appended swipe events.
func (s *Store) SwipeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.swipes)
}

// MatchCount returns the number of stored matches.
func (s *Store) MatchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}
