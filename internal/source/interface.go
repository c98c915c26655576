package source

import (
	"context"

	"github.com/ninja0404/defi-reputation/internal/model"
)

// BatchSource 钱包批次数据源接口，投递原始消息字节，解析失败留给评分引擎按条处理
type BatchSource interface {
	// Start 启动数据源
	Start(ctx context.Context) error

	// Stop 停止数据源
	Stop() error

	// Subscribe 订阅原始批次消息流
	Subscribe() <-chan *model.RawBatchMessage

	// Errors 错误通道
	Errors() <-chan error

	// String 数据源名称
	String() string

	// Healthy 数据源是否在正常消费
	Healthy() bool
}

// Manager 数据源管理器，将多个数据源汇聚到单一消息流
type Manager struct {
	sources   []BatchSource
	batchChan chan *model.RawBatchMessage
	errorChan chan error
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewManager 创建数据源管理器
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sources:   make([]BatchSource, 0),
		batchChan: make(chan *model.RawBatchMessage, 10_000), // 缓冲通道
		errorChan: make(chan error, 100),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// AddSource 添加数据源
func (m *Manager) AddSource(source BatchSource) {
	m.sources = append(m.sources, source)
}

// Start 启动所有数据源
func (m *Manager) Start() error {
	for _, source := range m.sources {
		if err := source.Start(m.ctx); err != nil {
			return err
		}

		// 启动协程监听每个数据源
		go m.listenSource(source)
	}

	return nil
}

// Stop 停止所有数据源
func (m *Manager) Stop() error {
	// 取消上下文
	m.cancel()

	// 停止所有数据源
	for _, source := range m.sources {
		if err := source.Stop(); err != nil {
			return err
		}
	}

	// 关闭通道
	close(m.batchChan)
	close(m.errorChan)

	return nil
}

// Batches 获取汇聚后的批次消息流
func (m *Manager) Batches() <-chan *model.RawBatchMessage {
	return m.batchChan
}

// Errors 获取错误流
func (m *Manager) Errors() <-chan error {
	return m.errorChan
}

// Healthy 所有数据源均正常时为真
func (m *Manager) Healthy() bool {
	for _, source := range m.sources {
		if !source.Healthy() {
			return false
		}
	}
	return len(m.sources) > 0 // 确保至少有一个数据源
}

// listenSource 监听单个数据源
func (m *Manager) listenSource(source BatchSource) {
	batchChan := source.Subscribe()
	errChan := source.Errors()

	for {
		select {
		case <-m.ctx.Done():
			return
		case batch, ok := <-batchChan:
			if !ok {
				return
			}
			select {
			case m.batchChan <- batch:
			case <-m.ctx.Done():
				return
			}
		case err, ok := <-errChan:
			if !ok {
				return
			}
			select {
			case m.errorChan <- err:
			case <-m.ctx.Done():
				return
			}
		}
	}
}
