package stats

import (
	"sync"
	"time"
)

// Outcome 单条消息的处理终态
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

// Tracker 进程内处理统计，随服务生命周期单调累积
type Tracker struct {
	mu sync.RWMutex

	totalProcessed         int64
	successfulProcessed    int64
	failedProcessed        int64
	avgProcessingTimeMs    float64
	lastProcessedTimestamp int64
}

// Snapshot 统计只读快照
type Snapshot struct {
	TotalProcessed          int64   `json:"total_processed"`
	SuccessfulProcessed     int64   `json:"successful_processed"`
	FailedProcessed         int64   `json:"failed_processed"`
	AverageProcessingTimeMs float64 `json:"average_processing_time_ms"`
	LastProcessedTimestamp  int64   `json:"last_processed_timestamp"`
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Record 记录一条消息的终态。成功与失败都计入均值。
func (t *Tracker) Record(outcome Outcome, processingTimeMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalProcessed++
	if outcome == OutcomeSuccess {
		t.successfulProcessed++
	} else {
		t.failedProcessed++
	}

	// 增量均值，避免累计求和溢出
	t.avgProcessingTimeMs += (float64(processingTimeMs) - t.avgProcessingTimeMs) / float64(t.totalProcessed)
	t.lastProcessedTimestamp = time.Now().Unix()
}

// Snapshot 返回当前统计的一致性快照
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Snapshot{
		TotalProcessed:          t.totalProcessed,
		SuccessfulProcessed:     t.successfulProcessed,
		FailedProcessed:         t.failedProcessed,
		AverageProcessingTimeMs: t.avgProcessingTimeMs,
		LastProcessedTimestamp:  t.lastProcessedTimestamp,
	}
}
