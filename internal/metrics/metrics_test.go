package metrics

import (
	"testing"

	"github.com/mroshb/match_engine/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSwipe(t *testing.T) {
	beforeLike := testutil.ToFloat64(SwipesTotal.WithLabelValues("LIKE"))
	beforeNew := testutil.ToFloat64(MatchOutcomesTotal.WithLabelValues("new_match"))

	RecordSwipe(models.DirectionLike, models.OutcomeNewMatch)

	assert.Equal(t, beforeLike+1, testutil.ToFloat64(SwipesTotal.WithLabelValues("LIKE")))
	assert.Equal(t, beforeNew+1, testutil.ToFloat64(MatchOutcomesTotal.WithLabelValues("new_match")))
}

func TestRecordCandidateEvaluated(t *testing.T) {
	beforeAccepted := testutil.ToFloat64(CandidatesEvaluatedTotal.WithLabelValues("accepted"))
	beforeRejected := testutil.ToFloat64(CandidatesEvaluatedTotal.WithLabelValues("rejected"))

	RecordCandidateEvaluated(true)
	RecordCandidateEvaluated(false)
	RecordCandidateEvaluated(false)

	assert.Equal(t, beforeAccepted+1, testutil.ToFloat64(CandidatesEvaluatedTotal.WithLabelValues("accepted")))
	assert.Equal(t, beforeRejected+2, testutil.ToFloat64(CandidatesEvaluatedTotal.WithLabelValues("rejected")))
}

func TestSessionGauge(t *testing.T) {
	before := testutil.ToFloat64(ActiveSessions)
	beforeSwept := testutil.ToFloat64(SessionsSweptTotal)

	SessionStarted()
	SessionStarted()
	assert.Equal(t, before+2, testutil.ToFloat64(ActiveSessions))

	SessionEnded(true)
	SessionEnded(false)
	assert.Equal(t, before, testutil.ToFloat64(ActiveSessions))
	assert.Equal(t, beforeSwept+1, testutil.ToFloat64(SessionsSweptTotal))
}

func TestRecordMatchEvent(t *testing.T) {
	beforeOK := testutil.ToFloat64(MatchEventsTotal.WithLabelValues("published"))
	beforeFail := testutil.ToFloat64(MatchEventsTotal.WithLabelValues("failed"))

	RecordMatchEvent(true)
	RecordMatchEvent(false)

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(MatchEventsTotal.WithLabelValues("published")))
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(MatchEventsTotal.WithLabelValues("failed")))
}
