package services

import (
	"context"
	"time"

	"github.com/mroshb/match_engine/internal/matching"
	"github.com/mroshb/match_engine/internal/metrics"
	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/internal/ratelimit"
	"github.com/mroshb/match_engine/pkg/errors"
)

// SwipeResult is returned by SwipeCoordinator.Swipe.
type SwipeResult struct {
	Outcome models.MatchOutcome
	// Remaining swipes in the current rate-limit window, -1 when unlimited.
	Remaining int
}

// SwipeCoordinator runs each user's browsing flow under that user's session
// lock: fetching the next candidate, swiping and undoing.
type SwipeCoordinator struct {
	sessions *SessionService
	matching *MatchingService
	finder   *matching.CandidateFinder
	limiter  *ratelimit.RateLimiter

	undoWindow time.Duration
}

func NewSwipeCoordinator(
	sessions *SessionService,
	matchingService *MatchingService,
	finder *matching.CandidateFinder,
	limiter *ratelimit.RateLimiter,
	undoWindow time.Duration,
) *SwipeCoordinator {
	if limiter == nil {
		limiter = ratelimit.NewRateLimiter(0, 0)
	}
	return &SwipeCoordinator{
		sessions:   sessions,
		matching:   matchingService,
		finder:     finder,
		limiter:    limiter,
		undoWindow: undoWindow,
	}
}

// NextCandidate returns the nearest mutually acceptable candidate for userID
// and advances the session cursor, or nil when none are left.
func (c *SwipeCoordinator) NextCandidate(ctx context.Context, userID string) (*models.UserProfile, error) {
	return WithUserLockResult(ctx, c.sessions, userID, func(s *Session) (*models.UserProfile, error) {
		seq, err := c.finder.NextCandidates(ctx, userID)
		if err != nil {
			return nil, err
		}
		for p := range seq {
			s.Cursor++
			s.LastCandidateID = p.ID
			return &p, nil
		}
		return nil, nil
	})
}

// Swipe records actorID's swipe on targetID inside actorID's lock.
func (c *SwipeCoordinator) Swipe(ctx context.Context, actorID, targetID string, direction models.Direction) (SwipeResult, error) {
	// Rejected input does not use up rate-limit quota.
	if err := validateSwipe(actorID, targetID, direction); err != nil {
		return SwipeResult{}, err
	}

	return WithUserLockResult(ctx, c.sessions, actorID, func(s *Session) (SwipeResult, error) {
		if !c.limiter.Allow(actorID) {
			metrics.RecordSwipeRateLimited()
			return SwipeResult{}, errors.New(errors.ErrCodeRateLimitExceeded, "too many swipes, try again later")
		}

		outcome, err := c.matching.RecordSwipe(ctx, actorID, targetID, direction)
		if err != nil {
			return SwipeResult{}, err
		}

		c.sessions.RecordHistory(actorID, HistoryEntry{
			CandidateID: targetID,
			Direction:   direction,
			Outcome:     outcome.Kind,
			At:          s.LastActive,
		})

		s.Swipes++
		if direction == models.DirectionLike {
			s.Likes++
		}
		if outcome.Kind == models.OutcomeNewMatch {
			s.Matches++
		}

		return SwipeResult{Outcome: outcome, Remaining: c.limiter.Remaining(actorID)}, nil
	})
}

// Undo pops userID's newest history entry and moves the cursor back to it.
// Stored swipes and matches are left untouched. An entry older than the undo
// window is discarded and ok is false.
func (c *SwipeCoordinator) Undo(ctx context.Context, userID string) (entry HistoryEntry, ok bool, err error) {
	err = c.sessions.WithUserLock(ctx, userID, func(s *Session) error {
		entry, ok = c.sessions.PopHistory(userID)
		if !ok {
			return nil
		}
		if c.undoWindow > 0 && s.LastActive.Sub(entry.At) > c.undoWindow {
			entry, ok = HistoryEntry{}, false
			return nil
		}
		if s.Cursor > 0 {
			s.Cursor--
		}
		s.LastCandidateID = entry.CandidateID
		return nil
	})
	if err != nil {
		return HistoryEntry{}, false, err
	}
	return entry, ok, nil
}
