package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/defi-reputation/internal/model"
)

func lpTx(action model.Action, ts int64, poolID string, amountUSD float64) *model.TransactionRecord {
	return &model.TransactionRecord{
		Action:    action,
		Timestamp: ts,
		PoolID:    poolID,
		TokenIn:   &model.TokenLeg{AmountUSD: amountUSD, Symbol: "LP"},
	}
}

func swapTx(ts int64, poolID string, amountUSD float64, symbolIn, symbolOut string) *model.TransactionRecord {
	return &model.TransactionRecord{
		Action:    model.ActionSwap,
		Timestamp: ts,
		PoolID:    poolID,
		TokenIn:   &model.TokenLeg{AmountUSD: amountUSD, Symbol: symbolIn},
		TokenOut:  &model.TokenLeg{Symbol: symbolOut},
	}
}

func TestPartition(t *testing.T) {
	records := []*model.TransactionRecord{
		lpTx(model.ActionDeposit, 100, "p1", 500),
		swapTx(200, "p2", 100, "SOL", "USDC"),
		lpTx(model.ActionWithdraw, 300, "p1", 200),
		{Action: "stake", Timestamp: 400},        // 未知action
		lpTx(model.ActionDeposit, -1, "p1", 100), // 非法时间戳
	}

	lp, swaps, skipped := Partition(records)
	assert.Len(t, lp, 2)
	assert.Len(t, swaps, 1)
	assert.Len(t, skipped, 2)
}

func TestExtractLPFeaturesEmpty(t *testing.T) {
	feats := ExtractLPFeatures(nil)
	require.NotNil(t, feats)
	assert.Zero(t, feats.TotalDepositUSD)
	assert.Zero(t, feats.NumDeposits)
	assert.Zero(t, feats.WithdrawRatio)
	assert.Zero(t, feats.AvgHoldingTimeDays)
}

func TestExtractLPFeatures(t *testing.T) {
	day := int64(86400)
	records := []*model.TransactionRecord{
		lpTx(model.ActionDeposit, 0, "pool-a", 1000),
		lpTx(model.ActionDeposit, 1*day, "pool-b", 2000),
		lpTx(model.ActionWithdraw, 10*day, "pool-a", 800),
	}

	feats := ExtractLPFeatures(records)
	assert.Equal(t, 2, feats.NumDeposits)
	assert.Equal(t, 1, feats.NumWithdraws)
	assert.InDelta(t, 3000, feats.TotalDepositUSD, 1e-9)
	assert.InDelta(t, 800, feats.TotalWithdrawUSD, 1e-9)
	assert.InDelta(t, 800.0/3000.0, feats.WithdrawRatio, 1e-9)
	assert.Equal(t, 2, feats.UniquePools)
	assert.InDelta(t, 10, feats.AccountAgeDays, 1e-9)
	// pool-a唯一配对：0 -> 10天
	assert.InDelta(t, 10, feats.AvgHoldingTimeDays, 1e-9)
	// 3笔流动性操作，频率分 3/20
	assert.InDelta(t, 0.15, feats.LPFrequencyScore, 1e-9)
}

func TestExtractLPFeaturesWithdrawOnly(t *testing.T) {
	records := []*model.TransactionRecord{
		lpTx(model.ActionWithdraw, 100, "p1", 500),
	}

	feats := ExtractLPFeatures(records)
	// 存入为0时提取比例为0，而不是除零
	assert.Zero(t, feats.WithdrawRatio)
	assert.InDelta(t, 500, feats.TotalWithdrawUSD, 1e-9)
}

func TestExtractLPFeaturesMissingTokenIn(t *testing.T) {
	records := []*model.TransactionRecord{
		{Action: model.ActionDeposit, Timestamp: 100, PoolID: "p1"},
	}

	feats := ExtractLPFeatures(records)
	// 缺失tokenIn的记录计入次数，但USD贡献为0
	assert.Equal(t, 1, feats.NumDeposits)
	assert.Zero(t, feats.TotalDepositUSD)
}

func TestAvgHoldingDaysFIFO(t *testing.T) {
	day := int64(86400)
	records := []*model.TransactionRecord{
		lpTx(model.ActionDeposit, 0, "p1", 100),
		lpTx(model.ActionDeposit, 2*day, "p1", 100),
		lpTx(model.ActionWithdraw, 4*day, "p1", 100),
		lpTx(model.ActionWithdraw, 6*day, "p1", 100),
	}

	// FIFO配对: (0 -> 4天) + (2 -> 6天)，平均4天
	assert.InDelta(t, 4, avgHoldingDays(records), 1e-9)
}

func TestAvgHoldingDaysWithdrawBeforeDeposit(t *testing.T) {
	day := int64(86400)
	records := []*model.TransactionRecord{
		lpTx(model.ActionWithdraw, 0, "p1", 100), // 早于任何deposit，不配对
		lpTx(model.ActionDeposit, 1*day, "p1", 100),
		lpTx(model.ActionWithdraw, 3*day, "p1", 100),
	}

	assert.InDelta(t, 2, avgHoldingDays(records), 1e-9)
}

func TestAvgHoldingDaysNoPairs(t *testing.T) {
	records := []*model.TransactionRecord{
		lpTx(model.ActionDeposit, 100, "p1", 100),
		lpTx(model.ActionWithdraw, 200, "p2", 100), // 不同池子不配对
	}

	assert.Zero(t, avgHoldingDays(records))
}

func TestExtractTradingFeatures(t *testing.T) {
	records := []*model.TransactionRecord{
		swapTx(100, "p1", 1000, "SOL", "USDC"),
		swapTx(200, "p2", 3000, "USDC", "BONK"),
		swapTx(300, "p1", 2000, "SOL", "BONK"),
	}

	feats := ExtractTradingFeatures(records)
	assert.Equal(t, 3, feats.NumSwaps)
	assert.InDelta(t, 6000, feats.TotalSwapVolumeUSD, 1e-9)
	assert.InDelta(t, 2000, feats.AvgSwapSizeUSD, 1e-9)
	assert.Equal(t, 2, feats.UniquePoolsSwapped)
	assert.InDelta(t, 0.3, feats.TokenDiversityScore, 1e-9) // SOL、USDC、BONK → 3/10
	assert.InDelta(t, 0.15, feats.SwapFrequencyScore, 1e-9) // 3/20
}

func TestExtractTradingFeaturesEmpty(t *testing.T) {
	feats := ExtractTradingFeatures(nil)
	require.NotNil(t, feats)
	assert.Zero(t, feats.NumSwaps)
	assert.Zero(t, feats.AvgSwapSizeUSD)
}
