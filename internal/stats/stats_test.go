package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerRecord(t *testing.T) {
	tracker := NewTracker()

	tracker.Record(OutcomeSuccess, 10)
	tracker.Record(OutcomeSuccess, 20)
	tracker.Record(OutcomeFailure, 30)

	snapshot := tracker.Snapshot()
	assert.Equal(t, int64(3), snapshot.TotalProcessed)
	assert.Equal(t, int64(2), snapshot.SuccessfulProcessed)
	assert.Equal(t, int64(1), snapshot.FailedProcessed)
	assert.InDelta(t, 20.0, snapshot.AverageProcessingTimeMs, 1e-9)
	assert.NotZero(t, snapshot.LastProcessedTimestamp)
}

func TestTrackerSnapshotIdempotent(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(OutcomeSuccess, 15)

	first := tracker.Snapshot()
	second := tracker.Snapshot()

	// 读取快照不改变统计
	assert.Equal(t, first, second)
}

func TestTrackerEmptySnapshot(t *testing.T) {
	snapshot := NewTracker().Snapshot()
	assert.Zero(t, snapshot.TotalProcessed)
	assert.Zero(t, snapshot.AverageProcessingTimeMs)
	assert.Zero(t, snapshot.LastProcessedTimestamp)
}

func TestTrackerConcurrentRecord(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tracker.Record(OutcomeSuccess, 5)
			}
		}()
	}
	wg.Wait()

	snapshot := tracker.Snapshot()
	assert.Equal(t, int64(1000), snapshot.TotalProcessed)
	assert.InDelta(t, 5.0, snapshot.AverageProcessingTimeMs, 1e-9)
}
