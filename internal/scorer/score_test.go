package scorer

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/defi-reputation/internal/model"
)

func TestScoreLiquidityProvisionZeroTransactions(t *testing.T) {
	result := ScoreLiquidityProvision(&model.LPFeatures{}, 0)
	assert.Equal(t, model.CategoryLiquidityProvision, result.Category)
	assert.Zero(t, result.Score)
	assert.Zero(t, result.TransactionCount)
}

func TestScoreLiquidityProvisionSaturated(t *testing.T) {
	// 所有维度都达到饱和阈值，应拿满分
	feats := &model.LPFeatures{
		TotalDepositUSD:    50000,
		NumDeposits:        30,
		NumWithdraws:       0,
		WithdrawRatio:      0,
		AvgHoldingTimeDays: 90,
		UniquePools:        8,
		LPFrequencyScore:   1.0,
	}

	result := ScoreLiquidityProvision(feats, 30)
	assert.InDelta(t, 1.0, result.Score, 1e-9)
}

func TestScoreLiquidityProvisionPartial(t *testing.T) {
	// 各维度恰好一半: 5000/10000, 10/20, ratio 0.5, 15/30天, 2.5池无法取半改用已知值
	feats := &model.LPFeatures{
		TotalDepositUSD:    5000,
		NumDeposits:        8,
		NumWithdraws:       2,
		WithdrawRatio:      0.25,
		AvgHoldingTimeDays: 15,
		UniquePools:        1,
		LPFrequencyScore:   0.5,
	}

	result := ScoreLiquidityProvision(feats, 10)
	expected := 0.5*0.30 + 0.5*0.20 + 0.75*0.25 + 0.5*0.15 + 0.2*0.10
	assert.InDelta(t, expected, result.Score, 1e-9)
}

func TestScoreLiquidityProvisionHeavyWithdrawer(t *testing.T) {
	// 提取次数超过存入次数，留存分clamp到0而不是负数
	feats := &model.LPFeatures{
		TotalDepositUSD: 100,
		NumDeposits:     2,
		NumWithdraws:    6,
		WithdrawRatio:   3.0,
	}

	result := ScoreLiquidityProvision(feats, 8)
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 1.0)
}

func TestScoreTradingZeroTransactions(t *testing.T) {
	result := ScoreTrading(&model.TradingFeatures{}, 0)
	assert.Equal(t, model.CategoryTrading, result.Category)
	assert.Zero(t, result.Score)
}

func TestScoreTradingPartial(t *testing.T) {
	feats := &model.TradingFeatures{
		TotalSwapVolumeUSD:  5000,
		NumSwaps:            10,
		UniquePoolsSwapped:  5,
		TokenDiversityScore: 0.5,
		SwapFrequencyScore:  0.5,
	}

	result := ScoreTrading(feats, 10)
	expected := 0.5*0.35 + 0.5*0.25 + 0.5*0.20 + 0.5*0.20
	assert.InDelta(t, expected, result.Score, 1e-9)
}

func TestAggregateScoreWeights(t *testing.T) {
	lp := &model.CategoryResult{Category: model.CategoryLiquidityProvision, Score: 0.8}
	trading := &model.CategoryResult{Category: model.CategoryTrading, Score: 0.5}

	final := AggregateScore("wallet-1", lp, trading)
	assert.InDelta(t, 0.68, final, 1e-9)
}

func TestAggregateScoreNaN(t *testing.T) {
	lp := &model.CategoryResult{Category: model.CategoryLiquidityProvision, Score: math.NaN()}
	trading := &model.CategoryResult{Category: model.CategoryTrading, Score: 0.5}

	final := AggregateScore("wallet-1", lp, trading)
	assert.InDelta(t, 0.2, final, 1e-9)
}

func TestAggregateScoreBounded(t *testing.T) {
	lp := &model.CategoryResult{Category: model.CategoryLiquidityProvision, Score: 1.0}
	trading := &model.CategoryResult{Category: model.CategoryTrading, Score: 1.0}

	final := AggregateScore("wallet-1", lp, trading)
	assert.LessOrEqual(t, final, 1.0)
	assert.InDelta(t, 1.0, final, 1e-9)
}

func TestFormatZScore(t *testing.T) {
	zscore := FormatZScore(0.5)
	assert.Equal(t, "0.500000000000000000", zscore)

	parts := strings.Split(FormatZScore(0.123456), ".")
	require.Len(t, parts, 2)
	assert.Len(t, parts[1], 18)
}

func TestSaturate(t *testing.T) {
	assert.Zero(t, saturate(-5, 10))
	assert.Zero(t, saturate(0, 10))
	assert.InDelta(t, 0.5, saturate(5, 10), 1e-9)
	assert.InDelta(t, 1.0, saturate(10, 10), 1e-9)
	assert.InDelta(t, 1.0, saturate(100, 10), 1e-9)
}
