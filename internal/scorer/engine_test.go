package scorer

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/defi-reputation/internal/model"
	"github.com/ninja0404/defi-reputation/internal/stats"
)

func newTestEngine() *Engine {
	return NewEngine(1, stats.NewTracker())
}

func rawMsg(payload string) *model.RawBatchMessage {
	return &model.RawBatchMessage{
		Value:      []byte(payload),
		ReceivedAt: time.Now(),
	}
}

func validBatchPayload(wallet string) string {
	return fmt.Sprintf(`{
		"wallet_address": %q,
		"data": [
			{
				"protocolType": "raydium-lp",
				"transactions": [
					{"document_id": "d1", "action": "deposit", "timestamp": 1700000000, "poolId": "p1",
					 "tokenIn": {"amount": 100, "amountUSD": 2000.0, "address": "a1", "symbol": "SOL"}},
					{"document_id": "d2", "action": "withdraw", "timestamp": 1702592000, "poolId": "p1",
					 "tokenIn": {"amount": 50, "amountUSD": 900.0, "address": "a1", "symbol": "SOL"}}
				]
			},
			{
				"protocolType": "raydium-swap",
				"transactions": [
					{"document_id": "d3", "action": "swap", "timestamp": 1701000000, "poolId": "p2",
					 "tokenIn": {"amount": 10, "amountUSD": 500.0, "address": "a2", "symbol": "USDC"},
					 "tokenOut": {"amount": 5, "amountUSD": 498.0, "address": "a3", "symbol": "BONK"}}
				]
			}
		]
	}`, wallet)
}

func TestProcessValidBatch(t *testing.T) {
	engine := newTestEngine()

	report := engine.Process(rawMsg(validBatchPayload("wallet-1")))
	require.True(t, report.IsSuccess())
	require.NotNil(t, report.Success)

	assert.Equal(t, "wallet-1", report.Success.WalletAddress)
	assert.NotZero(t, report.Success.Timestamp)
	assert.GreaterOrEqual(t, report.Success.ProcessingTimeMs, int64(0))
	require.Len(t, report.Success.Categories, 2)

	lp := report.Success.Categories[0]
	trading := report.Success.Categories[1]
	assert.Equal(t, model.CategoryLiquidityProvision, lp.Category)
	assert.Equal(t, 2, lp.TransactionCount)
	assert.Equal(t, model.CategoryTrading, trading.Category)
	assert.Equal(t, 1, trading.TransactionCount)

	// 两个类别得分都在[0,1]内
	assert.GreaterOrEqual(t, lp.Score, 0.0)
	assert.LessOrEqual(t, lp.Score, 1.0)
	assert.GreaterOrEqual(t, trading.Score, 0.0)
	assert.LessOrEqual(t, trading.Score, 1.0)
}

func TestProcessDeterministic(t *testing.T) {
	engine := newTestEngine()

	first := engine.Process(rawMsg(validBatchPayload("wallet-1")))
	second := engine.Process(rawMsg(validBatchPayload("wallet-1")))
	require.True(t, first.IsSuccess())
	require.True(t, second.IsSuccess())

	// 同样的输入必须得到同样的zscore
	assert.Equal(t, first.Success.ZScore, second.Success.ZScore)
}

func TestProcessEmptyBatch(t *testing.T) {
	engine := newTestEngine()

	report := engine.Process(rawMsg(`{"wallet_address": "wallet-empty", "data": []}`))
	require.True(t, report.IsSuccess())
	assert.Equal(t, "0.000000000000000000", report.Success.ZScore)

	for _, cat := range report.Success.Categories {
		assert.Zero(t, cat.Score)
		assert.Zero(t, cat.TransactionCount)
	}
}

func TestProcessMalformedJSON(t *testing.T) {
	engine := newTestEngine()

	report := engine.Process(rawMsg(`{not json`))
	require.False(t, report.IsSuccess())
	require.NotNil(t, report.Failure)

	assert.Equal(t, "unknown", report.Failure.WalletAddress)
	assert.Contains(t, report.Failure.Error, "parse error")
	assert.NotNil(t, report.Failure.Categories)
	assert.Empty(t, report.Failure.Categories)
}

func TestProcessMissingWallet(t *testing.T) {
	engine := newTestEngine()

	report := engine.Process(rawMsg(`{"data": []}`))
	require.False(t, report.IsSuccess())
	assert.Equal(t, "unknown", report.Failure.WalletAddress)
}

func TestProcessRecoversWalletFromBrokenSchema(t *testing.T) {
	engine := newTestEngine()

	// wallet_address合法但data类型错误，失败报告仍要带上钱包地址
	report := engine.Process(rawMsg(`{"wallet_address": "wallet-broken", "data": 42}`))
	require.False(t, report.IsSuccess())
	assert.Equal(t, "wallet-broken", report.Failure.WalletAddress)
}

func TestProcessUnknownActionIgnored(t *testing.T) {
	engine := newTestEngine()

	payload := `{
		"wallet_address": "wallet-stake",
		"data": [{"protocolType": "x", "transactions": [
			{"document_id": "d1", "action": "stake", "timestamp": 1700000000}
		]}]
	}`
	report := engine.Process(rawMsg(payload))
	require.True(t, report.IsSuccess())

	// 未知action不计入任何类别
	for _, cat := range report.Success.Categories {
		assert.Zero(t, cat.TransactionCount)
	}
}

func TestProcessFailureReportSerialization(t *testing.T) {
	engine := newTestEngine()

	report := engine.Process(rawMsg(`not json at all`))
	require.False(t, report.IsSuccess())

	payload, err := json.Marshal(report.Failure)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"categories":[]`)
}

func TestEngineWorkerIsolation(t *testing.T) {
	tracker := stats.NewTracker()
	engine := NewEngine(2, tracker)
	engine.Start()

	engine.Submit(rawMsg(validBatchPayload("wallet-a")))
	engine.Submit(rawMsg(`{broken`))
	engine.Submit(rawMsg(validBatchPayload("wallet-b")))
	engine.Stop()

	success, failure := 0, 0
	for report := range engine.Reports() {
		if report.IsSuccess() {
			success++
		} else {
			failure++
		}
	}

	// 坏消息不影响前后消息的处理
	assert.Equal(t, 2, success)
	assert.Equal(t, 1, failure)

	snapshot := tracker.Snapshot()
	assert.Equal(t, int64(3), snapshot.TotalProcessed)
	assert.Equal(t, int64(2), snapshot.SuccessfulProcessed)
	assert.Equal(t, int64(1), snapshot.FailedProcessed)
}

func TestProcessRecordsStats(t *testing.T) {
	tracker := stats.NewTracker()
	engine := NewEngine(1, tracker)

	engine.Process(rawMsg(validBatchPayload("wallet-1")))
	engine.Process(rawMsg(`{broken`))

	snapshot := tracker.Snapshot()
	assert.Equal(t, int64(2), snapshot.TotalProcessed)
	assert.Equal(t, int64(1), snapshot.SuccessfulProcessed)
	assert.Equal(t, int64(1), snapshot.FailedProcessed)
	assert.NotZero(t, snapshot.LastProcessedTimestamp)
}
