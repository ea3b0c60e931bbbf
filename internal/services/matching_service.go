package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/match_engine/internal/events"
	"github.com/mroshb/match_engine/internal/metrics"
	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/pkg/errors"
	"github.com/mroshb/match_engine/pkg/logger"
)

// MatchingService records swipes and turns mutual likes into matches. It
// takes no cross-user lock: concurrent reciprocal likes converge on one
// match through the deterministic id and the idempotent upsert.
type MatchingService struct {
	swipes   SwipeStore
	matches  MatchStore
	notifier events.Notifier
	now      func() time.Time
}

func NewMatchingService(swipes SwipeStore, matches MatchStore, notifier events.Notifier) *MatchingService {
	if notifier == nil {
		notifier = events.NopNotifier{}
	}
	return &MatchingService{
		swipes:   swipes,
		matches:  matches,
		notifier: notifier,
		now:      time.Now,
	}
}

// RecordSwipe appends the swipe and, for a reciprocated like, creates or
// returns the pair's match.
func (s *MatchingService) RecordSwipe(ctx context.Context, actorID, targetID string, direction models.Direction) (models.MatchOutcome, error) {
	if err := validateSwipe(actorID, targetID, direction); err != nil {
		return models.NoMatch(), err
	}

	swipe := &models.SwipeEvent{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		TargetID:  targetID,
		Direction: direction,
		CreatedAt: s.now(),
	}
	if err := s.swipes.AppendSwipe(ctx, swipe); err != nil {
		return models.NoMatch(), err
	}

	outcome, err := s.resolve(ctx, actorID, targetID, direction)
	if err != nil {
		return models.NoMatch(), err
	}

	metrics.RecordSwipe(direction, outcome.Kind)
	if outcome.Kind == models.OutcomeNewMatch {
		s.notify(ctx, outcome.Match, actorID)
	}
	return outcome, nil
}

func validateSwipe(actorID, targetID string, direction models.Direction) error {
	if err := models.ValidateUserID(actorID); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid actor id")
	}
	if err := models.ValidateUserID(targetID); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid target id")
	}
	if actorID == targetID {
		return errors.New(errors.ErrCodeValidation, "cannot swipe on yourself")
	}
	if !direction.IsValid() {
		return errors.New(errors.ErrCodeValidation, "unknown swipe direction: "+string(direction))
	}
	return nil
}

func (s *MatchingService) resolve(ctx context.Context, actorID, targetID string, direction models.Direction) (models.MatchOutcome, error) {
	if direction == models.DirectionPass {
		return models.NoMatch(), nil
	}

	reciprocated, err := s.swipes.LikeExists(ctx, targetID, actorID)
	if err != nil {
		return models.NoMatch(), err
	}
	if !reciprocated {
		return models.NoMatch(), nil
	}

	candidate, err := models.NewMatch(actorID, targetID, s.now())
	if err != nil {
		return models.NoMatch(), err
	}

	stored, inserted, err := s.matches.UpsertMatch(ctx, candidate)
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeAlreadyExists) {
			return models.NoMatch(), err
		}
		// Lost the insert race to the other participant.
		metrics.RecordMatchInsertRace()
		existing, gerr := s.matches.GetMatch(ctx, candidate.ID)
		if gerr != nil {
			return models.NoMatch(), gerr
		}
		return models.AlreadyMatched(existing), nil
	}

	if inserted {
		logger.Info("Match created", "match_id", stored.ID, "actor_id", actorID)
		return models.NewMatchOutcome(stored), nil
	}
	return models.AlreadyMatched(stored), nil
}

func (s *MatchingService) notify(ctx context.Context, m *models.Match, actorID string) {
	err := s.notifier.MatchCreated(ctx, events.NewMatchCreated(m, actorID))
	metrics.RecordMatchEvent(err == nil)
	if err != nil {
		logger.Warn("Failed to publish match event", "match_id", m.ID, "error", err)
	}
}
