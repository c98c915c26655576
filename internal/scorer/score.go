package scorer

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/ninja0404/defi-reputation/internal/model"
	"github.com/ninja0404/defi-reputation/pkg/logger"
)

// 各维度饱和阈值：达到阈值即拿满该维度分数
const (
	lpVolumeCapUSD      = 10000.0
	lpFrequencyCap      = 20.0
	lpHoldingCapDays    = 30.0
	lpPoolDiversityCap  = 5.0
	swapVolumeCapUSD    = 10000.0
	swapFrequencyCap    = 20.0
	tokenDiversityCap   = 10.0
	swapPoolDiversity   = 10.0
)

// 类别内部子项权重
const (
	lpVolumeWeight    = 0.30
	lpFrequencyWeight = 0.20
	lpRetentionWeight = 0.25
	lpHoldingWeight   = 0.15
	lpDiversityWeight = 0.10

	swapVolumeWeight        = 0.35
	swapFrequencyWeight     = 0.25
	swapTokenDiversityWgt   = 0.20
	swapPoolDiversityWgt    = 0.20
)

// 类别间聚合权重
const (
	lpCategoryWeight      = 0.6
	tradingCategoryWeight = 0.4
)

// zscore输出的小数位数
const zscorePrecision = 18

// saturate 线性饱和归一：n/cap封顶到[0,1]
func saturate(n, cap float64) float64 {
	if cap <= 0 || n <= 0 {
		return 0
	}
	if n >= cap {
		return 1
	}
	return n / cap
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ScoreLiquidityProvision 计算流动性提供类别得分。无交易时得分为0。
func ScoreLiquidityProvision(feats *model.LPFeatures, txCount int) *model.CategoryResult {
	result := &model.CategoryResult{
		Category:         model.CategoryLiquidityProvision,
		TransactionCount: txCount,
		Features:         feats,
	}
	if txCount == 0 {
		return result
	}

	volumeScore := saturate(feats.TotalDepositUSD, lpVolumeCapUSD)
	frequencyScore := clamp01(feats.LPFrequencyScore)
	retentionScore := clamp01(1 - feats.WithdrawRatio)
	holdingScore := saturate(feats.AvgHoldingTimeDays, lpHoldingCapDays)
	diversityScore := saturate(float64(feats.UniquePools), lpPoolDiversityCap)

	result.Score = volumeScore*lpVolumeWeight +
		frequencyScore*lpFrequencyWeight +
		retentionScore*lpRetentionWeight +
		holdingScore*lpHoldingWeight +
		diversityScore*lpDiversityWeight

	return result
}

// ScoreTrading 计算交易类别得分。无交易时得分为0。
func ScoreTrading(feats *model.TradingFeatures, txCount int) *model.CategoryResult {
	result := &model.CategoryResult{
		Category:         model.CategoryTrading,
		TransactionCount: txCount,
		Features:         feats,
	}
	if txCount == 0 {
		return result
	}

	volumeScore := saturate(feats.TotalSwapVolumeUSD, swapVolumeCapUSD)
	frequencyScore := clamp01(feats.SwapFrequencyScore)
	tokenScore := clamp01(feats.TokenDiversityScore)
	poolScore := saturate(float64(feats.UniquePoolsSwapped), swapPoolDiversity)

	result.Score = volumeScore*swapVolumeWeight +
		frequencyScore*swapFrequencyWeight +
		tokenScore*swapTokenDiversityWgt +
		poolScore*swapPoolDiversityWgt

	return result
}

// AggregateScore 按固定权重聚合类别得分，NaN一律按0处理
func AggregateScore(wallet string, categories ...*model.CategoryResult) float64 {
	final := 0.0
	for _, cat := range categories {
		score := cat.Score
		if math.IsNaN(score) {
			logger.Warn("category score is NaN, treat as zero",
				logger.String("wallet", wallet),
				logger.String("category", string(cat.Category)),
			)
			score = 0
		}
		switch cat.Category {
		case model.CategoryLiquidityProvision:
			final += score * lpCategoryWeight
		case model.CategoryTrading:
			final += score * tradingCategoryWeight
		}
	}
	return clamp01(final)
}

// FormatZScore 最终得分的字符串形式，固定18位小数
func FormatZScore(score float64) string {
	return decimal.NewFromFloat(score).StringFixed(zscorePrecision)
}
