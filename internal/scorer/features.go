package scorer

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ninja0404/defi-reputation/internal/model"
)

const secondsPerDay = 86400.0

// Partition 按操作类型拆分交易。未知action或非法时间戳的记录归入skipped，
// 不参与任何类别的特征计算。
func Partition(records []*model.TransactionRecord) (lp, swaps, skipped []*model.TransactionRecord) {
	for _, tx := range records {
		if tx.Timestamp < 0 {
			skipped = append(skipped, tx)
			continue
		}
		switch tx.Action {
		case model.ActionDeposit, model.ActionWithdraw:
			lp = append(lp, tx)
		case model.ActionSwap:
			swaps = append(swaps, tx)
		default:
			skipped = append(skipped, tx)
		}
	}
	return lp, swaps, skipped
}

// ExtractLPFeatures 从流动性操作记录中提取特征。
// USD金额用decimal累加后再转float，避免逐笔浮点误差放大。
func ExtractLPFeatures(records []*model.TransactionRecord) *model.LPFeatures {
	feats := &model.LPFeatures{}
	if len(records) == 0 {
		return feats
	}

	depositUSD := decimal.Zero
	withdrawUSD := decimal.Zero
	pools := make(map[string]struct{})
	var minTs, maxTs int64 = records[0].Timestamp, records[0].Timestamp

	for _, tx := range records {
		if tx.Timestamp < minTs {
			minTs = tx.Timestamp
		}
		if tx.Timestamp > maxTs {
			maxTs = tx.Timestamp
		}
		if tx.PoolID != "" {
			pools[tx.PoolID] = struct{}{}
		}

		switch tx.Action {
		case model.ActionDeposit:
			feats.NumDeposits++
			depositUSD = depositUSD.Add(decimal.NewFromFloat(tx.TokenInUSD()))
		case model.ActionWithdraw:
			feats.NumWithdraws++
			withdrawUSD = withdrawUSD.Add(decimal.NewFromFloat(tx.TokenInUSD()))
		}
	}

	feats.TotalDepositUSD = depositUSD.InexactFloat64()
	feats.TotalWithdrawUSD = withdrawUSD.InexactFloat64()
	feats.UniquePools = len(pools)
	feats.AccountAgeDays = float64(maxTs-minTs) / secondsPerDay

	if depositUSD.IsPositive() {
		feats.WithdrawRatio = withdrawUSD.Div(depositUSD).InexactFloat64()
	}

	feats.AvgHoldingTimeDays = avgHoldingDays(records)
	feats.LPFrequencyScore = saturate(float64(feats.NumDeposits+feats.NumWithdraws), lpFrequencyCap)

	return feats
}

// avgHoldingDays 按池子做FIFO配对：每笔withdraw匹配该池中最早的未配对deposit，
// 取所有配对的平均持有时长。无任何配对时为0。
func avgHoldingDays(records []*model.TransactionRecord) float64 {
	depositsByPool := make(map[string][]int64)
	withdrawsByPool := make(map[string][]int64)
	for _, tx := range records {
		switch tx.Action {
		case model.ActionDeposit:
			depositsByPool[tx.PoolID] = append(depositsByPool[tx.PoolID], tx.Timestamp)
		case model.ActionWithdraw:
			withdrawsByPool[tx.PoolID] = append(withdrawsByPool[tx.PoolID], tx.Timestamp)
		}
	}

	totalHoldSeconds := decimal.Zero
	pairs := 0
	for poolID, deposits := range depositsByPool {
		withdraws := withdrawsByPool[poolID]
		if len(withdraws) == 0 {
			continue
		}
		sort.Slice(deposits, func(i, j int) bool { return deposits[i] < deposits[j] })
		sort.Slice(withdraws, func(i, j int) bool { return withdraws[i] < withdraws[j] })

		di := 0
		for _, wts := range withdraws {
			if di >= len(deposits) {
				break
			}
			if wts < deposits[di] {
				continue
			}
			totalHoldSeconds = totalHoldSeconds.Add(decimal.NewFromInt(wts - deposits[di]))
			pairs++
			di++
		}
	}

	if pairs == 0 {
		return 0
	}
	return totalHoldSeconds.
		Div(decimal.NewFromInt(int64(pairs))).
		Div(decimal.NewFromFloat(secondsPerDay)).
		InexactFloat64()
}

// ExtractTradingFeatures 从swap记录中提取特征
func ExtractTradingFeatures(records []*model.TransactionRecord) *model.TradingFeatures {
	feats := &model.TradingFeatures{}
	if len(records) == 0 {
		return feats
	}

	volumeUSD := decimal.Zero
	pools := make(map[string]struct{})
	tokens := make(map[string]struct{})

	for _, tx := range records {
		feats.NumSwaps++
		volumeUSD = volumeUSD.Add(decimal.NewFromFloat(tx.TokenInUSD()))
		if tx.PoolID != "" {
			pools[tx.PoolID] = struct{}{}
		}
		if tx.TokenIn != nil && tx.TokenIn.Symbol != "" {
			tokens[tx.TokenIn.Symbol] = struct{}{}
		}
		if tx.TokenOut != nil && tx.TokenOut.Symbol != "" {
			tokens[tx.TokenOut.Symbol] = struct{}{}
		}
	}

	feats.TotalSwapVolumeUSD = volumeUSD.InexactFloat64()
	feats.UniquePoolsSwapped = len(pools)
	feats.TokenDiversityScore = saturate(float64(len(tokens)), tokenDiversityCap)
	feats.SwapFrequencyScore = saturate(float64(feats.NumSwaps), swapFrequencyCap)
	if feats.NumSwaps > 0 {
		feats.AvgSwapSizeUSD = volumeUSD.
			Div(decimal.NewFromInt(int64(feats.NumSwaps))).
			InexactFloat64()
	}

	return feats
}
