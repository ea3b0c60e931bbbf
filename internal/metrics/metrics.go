// Package metrics provides Prometheus metrics for the matching engine.
//
// Metrics Categories:
//   - Swipes: recorded swipes by direction, rate-limited swipes
//   - Matches: swipe outcomes, duplicate-insert races resolved
//   - Sessions: active sessions, busy end attempts, idle sweeps
//   - Candidates: profiles evaluated by the candidate finder
//   - Events: match notifications published or failed
package metrics

import (
	"github.com/mroshb/match_engine/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SwipesTotal counts recorded swipes by direction.
	SwipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_engine_swipes_total",
			Help: "Total number of recorded swipes",
		},
		[]string{"direction"},
	)

	// SwipesRateLimitedTotal counts swipes rejected by the per-user cap.
	SwipesRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_engine_swipes_rate_limited_total",
			Help: "Total number of swipes rejected by the per-user rate limit",
		},
	)

	// MatchOutcomesTotal counts swipe outcomes (no_match, new_match, already_matched).
	MatchOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_engine_match_outcomes_total",
			Help: "Total number of swipe outcomes by kind",
		},
		[]string{"outcome"},
	)

	// MatchInsertRacesTotal counts uniqueness violations resolved by re-reading the match.
	MatchInsertRacesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_engine_match_insert_races_total",
			Help: "Total number of match inserts that lost a concurrent race",
		},
	)

	// ActiveSessions is the number of live per-user sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "match_engine_active_sessions",
			Help: "Number of active user sessions",
		},
	)

	// SessionBusyTotal counts EndSession calls rejected because the session was held.
	SessionBusyTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_engine_session_busy_total",
			Help: "Total number of session end attempts rejected as busy",
		},
	)

	// SessionsSweptTotal counts sessions ended by the idle sweeper.
	SessionsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_engine_sessions_swept_total",
			Help: "Total number of idle sessions ended by the sweeper",
		},
	)

	// CandidatesEvaluatedTotal counts mutual evaluations by result.
	CandidatesEvaluatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_engine_candidates_evaluated_total",
			Help: "Total number of candidate profiles evaluated",
		},
		[]string{"result"},
	)

	// MatchEventsTotal counts match notifications by status.
	MatchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_engine_match_events_total",
			Help: "Total number of match notifications by status",
		},
		[]string{"status"},
	)
)

// RecordSwipe records a swipe and its outcome.
func RecordSwipe(direction models.Direction, outcome models.OutcomeKind) {
	SwipesTotal.WithLabelValues(string(direction)).Inc()
	MatchOutcomesTotal.WithLabelValues(outcome.String()).Inc()
}

// RecordSwipeRateLimited records a rejected swipe.
func RecordSwipeRateLimited() {
	SwipesRateLimitedTotal.Inc()
}

// RecordMatchInsertRace records a duplicate match insert resolved as already matched.
func RecordMatchInsertRace() {
	MatchInsertRacesTotal.Inc()
}

// RecordCandidateEvaluated records one mutual evaluation.
func RecordCandidateEvaluated(accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	CandidatesEvaluatedTotal.WithLabelValues(result).Inc()
}

// SessionStarted increments the active session gauge.
func SessionStarted() {
	ActiveSessions.Inc()
}

// SessionEnded decrements the active session gauge.
func SessionEnded(swept bool) {
	ActiveSessions.Dec()
	if swept {
		SessionsSweptTotal.Inc()
	}
}

// RecordSessionBusy records an EndSession call rejected as busy.
func RecordSessionBusy() {
	SessionBusyTotal.Inc()
}

// RecordMatchEvent records a match notification attempt.
func RecordMatchEvent(published bool) {
	status := "failed"
	if published {
		status = "published"
	}
	MatchEventsTotal.WithLabelValues(status).Inc()
}
