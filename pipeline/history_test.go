package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStore(t *testing.T) {
	h := NewHistoryStore(2)
	base := time.Unix(1000, 0)

	h.Save(&Result{RunID: "r1", Pipeline: "a", Success: true, StartedAt: base})
	h.Save(&Result{RunID: "r2", Pipeline: "b", Success: false, StartedAt: base.Add(time.Minute)})
	h.Save(nil)
	assert.Equal(t, 2, h.Len())

	h.Save(&Result{RunID: "r3", Pipeline: "a", Success: false, StartedAt: base.Add(2 * time.Minute)})
	assert.Equal(t, 2, h.Len())
	_, ok := h.Get("r1")
	assert.False(t, ok, "oldest result is evicted")

	r, ok := h.Get("r3")
	require.True(t, ok)
	assert.Equal(t, "a", r.Pipeline)

	failed := h.ListBySuccess(false)
	require.Len(t, failed, 2)
	assert.Equal(t, "r2", failed[0].RunID)
	assert.Equal(t, "r3", failed[1].RunID)

	assert.Len(t, h.ListByPipeline("a"), 1)
	assert.Len(t, h.ListByTimeRange(base.Add(90*time.Second), base.Add(time.Hour)), 1)
}
