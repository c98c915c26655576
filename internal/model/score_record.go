package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const TableNameScoreRecord = "wallet_score"

// ScoreRecord 钱包评分归档记录
type ScoreRecord struct {
	ID               int64           `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	WalletAddress    string          `gorm:"column:wallet_address;not null;index:idx_wallet" json:"wallet_address"`
	ZScore           string          `gorm:"column:zscore;not null" json:"zscore"`
	LpScore          decimal.Decimal `gorm:"column:lp_score;not null" json:"lp_score"`
	TradingScore     decimal.Decimal `gorm:"column:trading_score;not null" json:"trading_score"`
	TxCount          int             `gorm:"column:tx_count;not null" json:"tx_count"`
	ProcessingTimeMs int64           `gorm:"column:processing_time_ms;not null" json:"processing_time_ms"`
	ScoredAt         time.Time       `gorm:"column:scored_at;not null" json:"scored_at"`
	CreatedAt        *time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName ScoreRecord's table name
func (*ScoreRecord) TableName() string {
	return TableNameScoreRecord
}
