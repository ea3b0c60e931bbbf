// Package events publishes match notifications to a message broker.
package events

import (
	"context"
	"time"

	"github.com/mroshb/match_engine/internal/models"
)

// Routing key used for match-created events.
const RoutingKeyMatchCreated = "match.created"

// MatchCreated is the payload published when a new match is stored.
type MatchCreated struct {
	MatchID   string    `json:"match_id"`
	UserA     string    `json:"user_a"`
	UserB     string    `json:"user_b"`
	ActorID   string    `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMatchCreated builds the event for match m triggered by actorID's swipe.
func NewMatchCreated(m *models.Match, actorID string) MatchCreated {
	return MatchCreated{
		MatchID:   m.ID,
		UserA:     m.UserA,
		UserB:     m.UserB,
		ActorID:   actorID,
		CreatedAt: m.CreatedAt,
	}
}

// Notifier is told about every newly created match. Implementations must be
// safe for concurrent use.
type Notifier interface {
	MatchCreated(ctx context.Context, event MatchCreated) error
	Close() error
}

// NopNotifier is used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) MatchCreated(context.Context, MatchCreated) error { return nil }

func (NopNotifier) Close() error { return nil }

// NewNotifier returns an AMQP notifier when url is set and a NopNotifier
// otherwise. The choice is made once here; callers never branch on it.
func NewNotifier(url, exchange string) (Notifier, error) {
	if url == "" {
		return NopNotifier{}, nil
	}
	return DialAMQP(url, exchange)
}
