package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddr(suffix string) string {
	return "G" + strings.Repeat("A", 55-len(suffix)) + suffix
}

func makeTransfer(from, to string, amount float64, asset string, at time.Time) *Transfer {
	return &Transfer{
		Kind:      OpPayment,
		From:      from,
		To:        to,
		Amount:    decimal.NewFromFloat(amount),
		AssetCode: asset,
		CreatedAt: at,
	}
}

func TestBuildEdges_AggregatesPerOrderedPair(t *testing.T) {
	a, b := testAddr("B2"), testAddr("C3")
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	edges := BuildEdges([]*Transfer{
		makeTransfer(a, b, 10, "XLM", t0),
		makeTransfer(a, b, 5, "XLM", t0.Add(time.Hour)),
		makeTransfer(b, a, 3, "XLM", t0.Add(2*time.Hour)),
	})

	require.Len(t, edges, 2, "opposite directions must stay separate edges")

	ab := edges[0]
	assert.Equal(t, a, ab.From)
	assert.Equal(t, b, ab.To)
	assert.True(t, ab.Weight.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 2, ab.Count)
	assert.Equal(t, t0, ab.FirstSeen)
	assert.Equal(t, t0.Add(time.Hour), ab.LastSeen)

	ba := edges[1]
	assert.Equal(t, b, ba.From)
	assert.Equal(t, a, ba.To)
	assert.True(t, ba.Weight.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, 1, ba.Count)
}

func TestBuildEdges_DropsSelfTransfers(t *testing.T) {
	a, b := testAddr("B2"), testAddr("C3")
	t0 := time.Now().UTC()

	edges := BuildEdges([]*Transfer{
		makeTransfer(a, a, 100, "XLM", t0),
		makeTransfer(a, b, 1, "XLM", t0),
	})

	require.Len(t, edges, 1)
	assert.Equal(t, a, edges[0].From)
	assert.Equal(t, b, edges[0].To)
}

func TestBuildEdges_TracksPerAssetVolume(t *testing.T) {
	a, b := testAddr("B2"), testAddr("C3")
	t0 := time.Now().UTC()

	edges := BuildEdges([]*Transfer{
		makeTransfer(a, b, 10, "XLM", t0),
		makeTransfer(a, b, 7, "USDC", t0),
		makeTransfer(a, b, 3, "USDC", t0),
	})

	require.Len(t, edges, 1)
	assert.True(t, edges[0].Assets["XLM"].Equal(decimal.NewFromInt(10)))
	assert.True(t, edges[0].Assets["USDC"].Equal(decimal.NewFromInt(10)))
	assert.True(t, edges[0].Weight.Equal(decimal.NewFromInt(20)))
}

func TestTransferAsset_DefaultsToNative(t *testing.T) {
	tr := &Transfer{AssetCode: ""}
	assert.Equal(t, NativeAssetCode, tr.Asset())

	tr.AssetCode = "USDC"
	assert.Equal(t, "USDC", tr.Asset())
}

func TestDedupKey_DistinguishesPathPaymentLegs(t *testing.T) {
	a, b, c := testAddr("B2"), testAddr("C3"), testAddr("D4")

	leg1 := &Transfer{TxHash: "abc", From: a, To: b}
	leg2 := &Transfer{TxHash: "abc", From: b, To: c}

	assert.NotEqual(t, leg1.DedupKey(), leg2.DedupKey())
	assert.Equal(t, leg1.DedupKey(), (&Transfer{TxHash: "abc", From: a, To: b}).DedupKey())
}
