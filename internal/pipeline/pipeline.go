package pipeline

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ninja0404/defi-reputation/internal/publisher"
	"github.com/ninja0404/defi-reputation/internal/scorer"
	"github.com/ninja0404/defi-reputation/internal/source"
	"github.com/ninja0404/defi-reputation/internal/stats"
	"github.com/ninja0404/defi-reputation/pkg/logger"
)

// SourceFactory 数据源管理器工厂，管道重启数据源时重新构建
type SourceFactory func() (*source.Manager, error)

// Pipeline 评分处理管道：数据源 -> 评分引擎 -> 报告发布
type Pipeline struct {
	sourceFactory    SourceFactory
	sourceManager    *source.Manager
	scorerEngine     *scorer.Engine
	publisherManager *publisher.Manager
	statsTracker     *stats.Tracker

	mu      sync.Mutex
	running bool

	// 数据源消费协程的退出信号，重启数据源时等待旧协程结束
	consumeDone chan struct{}
	reportDone  chan struct{}
}

// NewPipeline 创建评分处理管道
func NewPipeline(
	sourceFactory SourceFactory,
	scorerEngine *scorer.Engine,
	publisherManager *publisher.Manager,
	statsTracker *stats.Tracker,
) *Pipeline {
	return &Pipeline{
		sourceFactory:    sourceFactory,
		scorerEngine:     scorerEngine,
		publisherManager: publisherManager,
		statsTracker:     statsTracker,
	}
}

// GetStatsTracker 获取统计跟踪器
func (p *Pipeline) GetStatsTracker() *stats.Tracker {
	return p.statsTracker
}

// GetStats 获取处理统计快照
func (p *Pipeline) GetStats() stats.Snapshot {
	return p.statsTracker.Snapshot()
}

// Healthy 管道是否健康：运行中且数据源正常消费
func (p *Pipeline) Healthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && p.sourceManager != nil && p.sourceManager.Healthy()
}

// Start 启动评分处理管道
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("管道已在运行")
	}

	logger.Info("启动评分处理管道")

	// 启动评分引擎
	p.scorerEngine.Start()

	// 启动发布管理器
	if err := p.publisherManager.Start(); err != nil {
		return err
	}

	// 启动报告发布协程，引擎输出通道关闭后退出
	p.reportDone = make(chan struct{})
	go p.processReports()

	// 启动数据源
	if err := p.startSourcesLocked(); err != nil {
		return err
	}

	p.running = true
	logger.Info("评分处理管道已启动")
	return nil
}

// RestartSources 重启数据源。引擎与发布器保持运行，仅重建消费链路。
func (p *Pipeline) RestartSources() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return errors.New("管道未运行")
	}

	logger.Info("🔄 重启数据源")
	p.stopSourcesLocked()

	if err := p.startSourcesLocked(); err != nil {
		return errors.Wrap(err, "重启数据源失败")
	}

	logger.Info("✅ 数据源重启完成")
	return nil
}

// Stop 停止评分处理管道，按数据源->引擎->发布器的顺序排空
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return nil
	}

	logger.Info("停止评分处理管道")

	// 先停数据源，保证不再有新消息进入引擎
	p.stopSourcesLocked()

	// 引擎排空剩余消息后关闭报告通道
	p.scorerEngine.Stop()

	// 等待剩余报告发布完毕
	<-p.reportDone

	if err := p.publisherManager.Stop(); err != nil {
		logger.Error("停止发布管理器失败", logger.FieldErr(err))
	}

	p.running = false
	logger.Info("评分处理管道已停止")
	return nil
}

// startSourcesLocked 构建并启动数据源，调用方需持有锁
func (p *Pipeline) startSourcesLocked() error {
	sourceManager, err := p.sourceFactory()
	if err != nil {
		return err
	}

	if err := sourceManager.Start(); err != nil {
		return err
	}

	p.sourceManager = sourceManager
	p.consumeDone = make(chan struct{})
	go p.consumeBatches(sourceManager, p.consumeDone)

	return nil
}

// stopSourcesLocked 停止数据源并等待消费协程退出，调用方需持有锁
func (p *Pipeline) stopSourcesLocked() {
	if p.sourceManager == nil {
		return
	}

	if err := p.sourceManager.Stop(); err != nil {
		logger.Error("停止数据源管理器失败", logger.FieldErr(err))
	}
	<-p.consumeDone
	p.sourceManager = nil
}

// consumeBatches 消费数据源消息并投递给评分引擎，通道关闭后退出
func (p *Pipeline) consumeBatches(sourceManager *source.Manager, done chan struct{}) {
	defer close(done)

	batchChan := sourceManager.Batches()
	errorChan := sourceManager.Errors()

	for batchChan != nil || errorChan != nil {
		select {
		case batch, ok := <-batchChan:
			if !ok {
				batchChan = nil
				continue
			}
			p.scorerEngine.Submit(batch)
		case err, ok := <-errorChan:
			if !ok {
				errorChan = nil
				continue
			}
			logger.Error("数据源错误", logger.FieldErr(err))
		}
	}
}

// processReports 将引擎产出的终态报告分发给发布器
func (p *Pipeline) processReports() {
	defer close(p.reportDone)

	for report := range p.scorerEngine.Reports() {
		p.publisherManager.PublishReport(report)
	}
}
