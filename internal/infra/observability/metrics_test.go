package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFlowSnapshot(t *testing.T) {
	m := NewMetrics()

	m.IncrTurn("recommend", "recommended")
	m.IncrTurn("recommend", "empty_portfolio")
	m.IncrTurn("general", "general")
	m.IncrTurn("register_card", "card_added")
	m.IncrClassifierFallback()
	m.IncrExternalError("agent")
	m.IncrCacheHit("price")
	m.IncrCacheMiss("price")
	m.RecordNodeDuration("score", time.Millisecond)

	snap := m.FlowSnapshot()

	assert.Equal(t, int64(4), snap.TotalTurns)
	assert.Equal(t, int64(2), snap.TurnsByIntent["recommend"])
	assert.Equal(t, int64(1), snap.TurnsByOutcome["card_added"])
	assert.Equal(t, int64(1), snap.ClassifierFallbacks)
	assert.InDelta(t, 0.25, snap.FallbackRate, 1e-9)
	assert.Equal(t, int64(1), snap.ExternalErrors["agent"])
	assert.InDelta(t, 0.5, snap.CacheHitRate, 1e-9)
}

func TestFlowSnapshot_Empty(t *testing.T) {
	snap := NewMetrics().FlowSnapshot()

	assert.Zero(t, snap.TotalTurns)
	assert.Zero(t, snap.FallbackRate)
	assert.NotNil(t, snap.TurnsByIntent)
}

func TestNewMetrics_Twice(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}
