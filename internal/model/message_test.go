package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWalletBatch(t *testing.T) {
	payload := `{
		"wallet_address": "wallet-1",
		"data": [
			{"protocolType": "raydium", "transactions": [
				{"document_id": "d1", "action": "swap", "timestamp": 1700000000, "poolId": "p1",
				 "tokenIn": {"amount": 10, "amountUSD": 100.5, "address": "a1", "symbol": "SOL"}}
			]}
		],
		"some_future_field": true
	}`

	batch, err := ParseWalletBatch([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "wallet-1", batch.WalletAddress)

	records := batch.Flatten()
	require.Len(t, records, 1)
	assert.Equal(t, ActionSwap, records[0].Action)
	assert.InDelta(t, 100.5, records[0].TokenInUSD(), 1e-9)
}

func TestParseWalletBatchMissingWallet(t *testing.T) {
	_, err := ParseWalletBatch([]byte(`{"data": []}`))
	assert.ErrorIs(t, err, ErrMissingWallet)
}

func TestParseWalletBatchEmptyPayload(t *testing.T) {
	_, err := ParseWalletBatch(nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestParseWalletBatchInvalidJSON(t *testing.T) {
	_, err := ParseWalletBatch([]byte(`{broken`))
	assert.Error(t, err)
}

func TestParseWalletBatchNullTransaction(t *testing.T) {
	payload := `{"wallet_address": "w", "data": [{"protocolType": "x", "transactions": [null]}]}`
	_, err := ParseWalletBatch([]byte(payload))
	assert.ErrorIs(t, err, ErrNilTransaction)
}

func TestFlattenPreservesOrder(t *testing.T) {
	batch := &WalletBatch{
		WalletAddress: "w",
		Data: []*ProtocolData{
			{Transactions: []*TransactionRecord{{DocumentID: "d1"}, {DocumentID: "d2"}}},
			nil,
			{Transactions: []*TransactionRecord{{DocumentID: "d3"}}},
		},
	}

	records := batch.Flatten()
	require.Len(t, records, 3)
	assert.Equal(t, "d1", records[0].DocumentID)
	assert.Equal(t, "d3", records[2].DocumentID)
}

func TestTokenInUSDMissingLeg(t *testing.T) {
	tx := &TransactionRecord{Action: ActionDeposit}
	assert.Zero(t, tx.TokenInUSD())
}

func TestActionIsLP(t *testing.T) {
	assert.True(t, ActionDeposit.IsLP())
	assert.True(t, ActionWithdraw.IsLP())
	assert.False(t, ActionSwap.IsLP())
	assert.False(t, Action("stake").IsLP())
}
