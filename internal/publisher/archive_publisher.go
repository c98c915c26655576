package publisher

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ninja0404/defi-reputation/internal/model"
	"github.com/ninja0404/defi-reputation/internal/repo"
	"github.com/ninja0404/defi-reputation/pkg/logger"
	"github.com/ninja0404/defi-reputation/pkg/utils"
)

// ArchivePublisher 归档发布器 - 将成功报告落库。
// 归档失败只告警不报错，不能因为归档问题阻断报告下游。
type ArchivePublisher struct {
	scoreRepo repo.ScoreRepo
}

// NewArchivePublisher 创建归档发布器
func NewArchivePublisher(scoreRepo repo.ScoreRepo) *ArchivePublisher {
	return &ArchivePublisher{scoreRepo: scoreRepo}
}

func (p *ArchivePublisher) GetType() string {
	return "archive"
}

func (p *ArchivePublisher) Publish(report *model.Report) error {
	// 失败报告不归档
	if !report.IsSuccess() {
		return nil
	}

	record := p.buildRecord(report.Success)
	if err := p.scoreRepo.SaveScore(record); err != nil {
		logger.Warn("⚠️ 评分记录归档失败",
			logger.String("wallet", utils.GetDisplayWalletAddress(record.WalletAddress)),
			logger.FieldErr(err))
	}
	return nil
}

func (p *ArchivePublisher) buildRecord(report *model.ScoreReport) *model.ScoreRecord {
	record := &model.ScoreRecord{
		WalletAddress:    report.WalletAddress,
		ZScore:           report.ZScore,
		ProcessingTimeMs: report.ProcessingTimeMs,
		ScoredAt:         time.Unix(report.Timestamp, 0),
	}

	for _, cat := range report.Categories {
		record.TxCount += cat.TransactionCount
		switch cat.Category {
		case model.CategoryLiquidityProvision:
			record.LpScore = decimal.NewFromFloat(cat.Score)
		case model.CategoryTrading:
			record.TradingScore = decimal.NewFromFloat(cat.Score)
		}
	}

	return record
}

func (p *ArchivePublisher) Close() error {
	return nil
}
