package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAI(t *testing.T) {
	before := testutil.ToFloat64(AIRequestsTotal.WithLabelValues("test-provider", "chat", OutcomeFailure))

	ObserveAI("test-provider", "chat", time.Now(), errors.New("boom"))
	ObserveAI("test-provider", "chat", time.Now(), nil)

	assert.Equal(t, before+1, testutil.ToFloat64(AIRequestsTotal.WithLabelValues("test-provider", "chat", OutcomeFailure)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(AIRequestsTotal.WithLabelValues("test-provider", "chat", OutcomeSuccess)), 1.0)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Outcome(nil))
	assert.Equal(t, OutcomeFailure, Outcome(errors.New("x")))
}
