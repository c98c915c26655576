package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/defi-reputation/internal/model"
	"github.com/ninja0404/defi-reputation/internal/publisher"
	"github.com/ninja0404/defi-reputation/internal/scorer"
	"github.com/ninja0404/defi-reputation/internal/source"
	"github.com/ninja0404/defi-reputation/internal/stats"
)

// memorySource 测试用内存数据源
type memorySource struct {
	batches  chan *model.RawBatchMessage
	errs     chan error
	stopOnce sync.Once
	running  atomic.Bool
}

func newMemorySource() *memorySource {
	return &memorySource{
		batches: make(chan *model.RawBatchMessage, 16),
		errs:    make(chan error, 4),
	}
}

func (s *memorySource) Start(ctx context.Context) error {
	s.running.Store(true)
	return nil
}

func (s *memorySource) Stop() error {
	s.running.Store(false)
	s.stopOnce.Do(func() {
		close(s.batches)
		close(s.errs)
	})
	return nil
}

func (s *memorySource) Subscribe() <-chan *model.RawBatchMessage { return s.batches }
func (s *memorySource) Errors() <-chan error                     { return s.errs }
func (s *memorySource) String() string                           { return "memory" }
func (s *memorySource) Healthy() bool                            { return s.running.Load() }

func (s *memorySource) emit(payload string) {
	s.batches <- &model.RawBatchMessage{Value: []byte(payload), ReceivedAt: time.Now()}
}

// collectingPublisher 测试用收集发布器
type collectingPublisher struct {
	reports chan *model.Report
}

func (p *collectingPublisher) GetType() string { return "collect" }

func (p *collectingPublisher) Publish(report *model.Report) error {
	p.reports <- report
	return nil
}

func (p *collectingPublisher) Close() error { return nil }

func (p *collectingPublisher) waitReport(t *testing.T) *model.Report {
	t.Helper()
	select {
	case report := <-p.reports:
		return report
	case <-time.After(5 * time.Second):
		t.Fatal("等待报告超时")
		return nil
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	src := newMemorySource()
	factory := func() (*source.Manager, error) {
		manager := source.NewManager()
		manager.AddSource(src)
		return manager, nil
	}

	tracker := stats.NewTracker()
	engine := scorer.NewEngine(2, tracker)
	collector := &collectingPublisher{reports: make(chan *model.Report, 16)}
	publisherManager := publisher.NewManager()
	publisherManager.AddPublisher(collector)

	pl := NewPipeline(factory, engine, publisherManager, tracker)
	require.NoError(t, pl.Start())
	assert.True(t, pl.Healthy())

	src.emit(`{"wallet_address": "wallet-1", "data": []}`)
	src.emit(`{broken json`)

	success, failure := 0, 0
	for i := 0; i < 2; i++ {
		report := collector.waitReport(t)
		if report.IsSuccess() {
			success++
		} else {
			failure++
		}
	}
	assert.Equal(t, 1, success)
	assert.Equal(t, 1, failure)

	snapshot := pl.GetStats()
	assert.Equal(t, int64(2), snapshot.TotalProcessed)

	require.NoError(t, pl.Stop())
	assert.False(t, pl.Healthy())
}

func TestPipelineRestartSources(t *testing.T) {
	var factoryCalls int32
	factory := func() (*source.Manager, error) {
		atomic.AddInt32(&factoryCalls, 1)
		manager := source.NewManager()
		manager.AddSource(newMemorySource())
		return manager, nil
	}

	tracker := stats.NewTracker()
	engine := scorer.NewEngine(1, tracker)
	publisherManager := publisher.NewManager()
	publisherManager.AddPublisher(&publisher.LogPublisher{})

	pl := NewPipeline(factory, engine, publisherManager, tracker)
	require.NoError(t, pl.Start())
	assert.True(t, pl.Healthy())

	require.NoError(t, pl.RestartSources())
	assert.True(t, pl.Healthy())
	assert.Equal(t, int32(2), atomic.LoadInt32(&factoryCalls))

	require.NoError(t, pl.Stop())
}

func TestPipelineRestartRequiresRunning(t *testing.T) {
	pl := NewPipeline(
		func() (*source.Manager, error) { return source.NewManager(), nil },
		scorer.NewEngine(1, stats.NewTracker()),
		publisher.NewManager(),
		stats.NewTracker(),
	)

	assert.Error(t, pl.RestartSources())
}
