package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordsTimings(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpClassify, 10*time.Millisecond)
	c.RecordTiming(OpClassify, 30*time.Millisecond)
	c.RecordTiming(OpCompletion, 100*time.Millisecond)

	snap := c.Snapshot()

	classify, ok := snap.Operations[OpClassify]
	require.True(t, ok)
	assert.Equal(t, int64(2), classify.Count)
	assert.Equal(t, int64(10), classify.MinTimeMs)
	assert.Equal(t, int64(30), classify.MaxTimeMs)
	assert.Equal(t, int64(40), classify.TotalTimeMs)
	assert.Equal(t, 20.0, classify.AvgTimeMs)

	completion := snap.Operations[OpCompletion]
	assert.Equal(t, int64(1), completion.Count)
}

func TestCollectorConcurrentAccess(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordTiming(OpRuleEval, time.Millisecond)
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(1000), snap.Operations[OpRuleEval].Count)
}
