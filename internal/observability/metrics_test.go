package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/missions", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/missions", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/missions/:id", "PUT", "FORBIDDEN")
	m.Inc("missions_assigned")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/missions|GET|200"])
	assert.InDelta(t, 20.0, snap.AvgLatencyMs["/api/missions|GET|200"], 0.001)
	assert.Equal(t, int64(1), snap.Errors["/api/missions/:id|PUT|FORBIDDEN"])
	assert.Equal(t, int64(1), snap.Domain["missions_assigned"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.Inc("x")
	assert.Empty(t, m.Snapshot().Requests)
}
