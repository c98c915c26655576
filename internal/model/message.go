package model

import (
	"encoding/json"
	"errors"
	"time"
)

// Action 链上操作类型
type Action string

const (
	ActionSwap     Action = "swap"
	ActionDeposit  Action = "deposit"
	ActionWithdraw Action = "withdraw"
)

// IsLP 是否属于流动性操作
func (a Action) IsLP() bool {
	return a == ActionDeposit || a == ActionWithdraw
}

// TokenLeg 交易中的单边代币信息
type TokenLeg struct {
	Amount    int64   `json:"amount"`
	AmountUSD float64 `json:"amountUSD"`
	Address   string  `json:"address"`
	Symbol    string  `json:"symbol"`
}

// TransactionRecord 单笔链上DeFi操作记录
type TransactionRecord struct {
	DocumentID string    `json:"document_id"`
	Action     Action    `json:"action"`
	Timestamp  int64     `json:"timestamp"` // Unix秒
	Caller     string    `json:"caller"`
	Protocol   string    `json:"protocol"`
	PoolID     string    `json:"poolId"`
	PoolName   string    `json:"poolName"`
	TokenIn    *TokenLeg `json:"tokenIn,omitempty"`
	TokenOut   *TokenLeg `json:"tokenOut,omitempty"`
}

// TokenInUSD tokenIn腿的USD价值，缺失时为0
func (r *TransactionRecord) TokenInUSD() float64 {
	if r.TokenIn == nil {
		return 0
	}
	return r.TokenIn.AmountUSD
}

// ProtocolData 按协议分组的交易序列
type ProtocolData struct {
	ProtocolType string               `json:"protocolType"`
	Transactions []*TransactionRecord `json:"transactions"`
}

// WalletBatch 一个钱包的待评分交易批次（入站消息）
type WalletBatch struct {
	WalletAddress string          `json:"wallet_address"`
	Data          []*ProtocolData `json:"data"`
}

// Flatten 将所有协议分组内的交易按原始顺序展平
func (b *WalletBatch) Flatten() []*TransactionRecord {
	var records []*TransactionRecord
	for _, group := range b.Data {
		if group == nil {
			continue
		}
		records = append(records, group.Transactions...)
	}
	return records
}

var (
	ErrEmptyPayload   = errors.New("empty message payload")
	ErrMissingWallet  = errors.New("missing required field: wallet_address")
	ErrNilTransaction = errors.New("transaction list contains null entry")
)

// ParseWalletBatch 解析并校验入站消息。未知字段忽略，缺失必填字段报错。
func ParseWalletBatch(payload []byte) (*WalletBatch, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	var batch WalletBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return nil, err
	}

	if batch.WalletAddress == "" {
		return nil, ErrMissingWallet
	}

	for _, group := range batch.Data {
		if group == nil {
			continue
		}
		for _, tx := range group.Transactions {
			if tx == nil {
				return nil, ErrNilTransaction
			}
		}
	}

	return &batch, nil
}

// RawBatchMessage 数据源投递给评分引擎的原始消息
type RawBatchMessage struct {
	Value      []byte
	ReceivedAt time.Time
}
