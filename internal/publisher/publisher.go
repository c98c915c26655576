package publisher

import (
	"encoding/json"

	"github.com/ninja0404/defi-reputation/internal/model"
	"github.com/ninja0404/defi-reputation/pkg/logger"
	"github.com/ninja0404/defi-reputation/pkg/utils"
)

// Publisher 评分报告发布器接口
type Publisher interface {
	// Publish 发布终态报告
	Publish(report *model.Report) error

	// GetType 获取发布器类型
	GetType() string

	// Close 关闭发布器
	Close() error
}

// Manager 报告发布管理器，将每份终态报告分发给所有发布器
type Manager struct {
	publishers []Publisher
}

// NewManager 创建发布管理器
func NewManager() *Manager {
	return &Manager{
		publishers: make([]Publisher, 0),
	}
}

// AddPublisher 添加发布器
func (m *Manager) AddPublisher(publisher Publisher) {
	m.publishers = append(m.publishers, publisher)
	// 延迟到Start时输出日志
}

// PublishReport 将报告发布到所有发布器。单个发布器失败不影响其他发布器。
func (m *Manager) PublishReport(report *model.Report) {
	for _, publisher := range m.publishers {
		if err := publisher.Publish(report); err != nil {
			logger.Error("发布评分报告失败",
				logger.String("publisher", publisher.GetType()),
				logger.String("wallet", utils.GetDisplayWalletAddress(report.WalletAddress())),
				logger.Bool("success", report.IsSuccess()),
				logger.FieldErr(err))
		}
	}
}

// Start 启动发布管理器
func (m *Manager) Start() error {
	for _, publisher := range m.publishers {
		logger.Info("✅ 已加载报告发布器", logger.String("type", publisher.GetType()))
	}

	logger.Info("📡 报告发布管理器已启动")
	return nil
}

// Stop 停止发布管理器
func (m *Manager) Stop() error {
	for _, publisher := range m.publishers {
		if err := publisher.Close(); err != nil {
			logger.Error("关闭发布器失败",
				logger.String("type", publisher.GetType()),
				logger.FieldErr(err))
		}
	}

	logger.Info("报告发布管理器已停止")
	return nil
}

// LogPublisher 日志发布器 - 将报告摘要输出到日志
type LogPublisher struct{}

func (p *LogPublisher) GetType() string {
	return "log"
}

func (p *LogPublisher) Publish(report *model.Report) error {
	if report.IsSuccess() {
		logger.Info("📊 钱包评分报告",
			logger.String("wallet", utils.GetDisplayWalletAddress(report.Success.WalletAddress)),
			logger.String("zscore", report.Success.ZScore),
			logger.Int64("processing_time_ms", report.Success.ProcessingTimeMs))
		return nil
	}

	logger.Warn("📊 钱包评分失败报告",
		logger.String("wallet", utils.GetDisplayWalletAddress(report.Failure.WalletAddress)),
		logger.String("error", report.Failure.Error),
		logger.Int64("processing_time_ms", report.Failure.ProcessingTimeMs))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// ConsolePublisher 控制台发布器 - 格式化输出完整报告
type ConsolePublisher struct{}

func (p *ConsolePublisher) GetType() string {
	return "console"
}

func (p *ConsolePublisher) Publish(report *model.Report) error {
	var (
		payload []byte
		err     error
	)
	if report.IsSuccess() {
		payload, err = json.MarshalIndent(report.Success, "", "  ")
	} else {
		payload, err = json.MarshalIndent(report.Failure, "", "  ")
	}
	if err != nil {
		return err
	}

	logger.Info("📊 评分报告详情", logger.String("report", string(payload)))
	return nil
}

func (p *ConsolePublisher) Close() error {
	return nil
}
