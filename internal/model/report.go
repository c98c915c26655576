package model

// Category 评分类别
type Category string

const (
	CategoryLiquidityProvision Category = "liquidity_provision"
	CategoryTrading            Category = "trading"
)

// LPFeatures 流动性提供行为特征
type LPFeatures struct {
	TotalDepositUSD    float64 `json:"total_deposit_usd"`
	TotalWithdrawUSD   float64 `json:"total_withdraw_usd"`
	NumDeposits        int     `json:"num_deposits"`
	NumWithdraws       int     `json:"num_withdraws"`
	WithdrawRatio      float64 `json:"withdraw_ratio"` // 提取USD/存入USD，存入为0时为0
	AccountAgeDays     float64 `json:"account_age_days"`
	AvgHoldingTimeDays float64 `json:"avg_holding_time_days"`
	UniquePools        int     `json:"unique_pools"`
	LPFrequencyScore   float64 `json:"lp_frequency_score"` // 已归一化到[0,1]
}

// TradingFeatures 交易行为特征
type TradingFeatures struct {
	TotalSwapVolumeUSD  float64 `json:"total_swap_volume_usd"`
	NumSwaps            int     `json:"num_swaps"`
	UniquePoolsSwapped  int     `json:"unique_pools_swapped"`
	AvgSwapSizeUSD      float64 `json:"avg_swap_size_usd"`
	TokenDiversityScore float64 `json:"token_diversity_score"` // 已归一化到[0,1]
	SwapFrequencyScore  float64 `json:"swap_frequency_score"`  // 已归一化到[0,1]
}

// CategoryResult 单个类别的评分结果
type CategoryResult struct {
	Category         Category    `json:"category"`
	Score            float64     `json:"score"`
	TransactionCount int         `json:"transaction_count"`
	Features         interface{} `json:"features"`
}

// ScoreReport 评分成功报告（出站消息）
type ScoreReport struct {
	WalletAddress    string            `json:"wallet_address"`
	ZScore           string            `json:"zscore"`
	Timestamp        int64             `json:"timestamp"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
	Categories       []*CategoryResult `json:"categories"`
}

// FailureReport 评分失败报告（出站消息），categories恒为空数组
type FailureReport struct {
	WalletAddress    string            `json:"wallet_address"`
	Error            string            `json:"error"`
	Timestamp        int64             `json:"timestamp"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
	Categories       []*CategoryResult `json:"categories"`
}

// NewFailureReport 构造失败报告，保证categories序列化为[]而不是null
func NewFailureReport(wallet string, errMsg string, ts int64, processingMs int64) *FailureReport {
	return &FailureReport{
		WalletAddress:    wallet,
		Error:            errMsg,
		Timestamp:        ts,
		ProcessingTimeMs: processingMs,
		Categories:       []*CategoryResult{},
	}
}

// Report 评分终态，Success与Failure二选一
type Report struct {
	Success *ScoreReport
	Failure *FailureReport
}

func (r *Report) IsSuccess() bool {
	return r.Success != nil
}

// WalletAddress 报告对应的钱包地址
func (r *Report) WalletAddress() string {
	if r.Success != nil {
		return r.Success.WalletAddress
	}
	if r.Failure != nil {
		return r.Failure.WalletAddress
	}
	return ""
}
