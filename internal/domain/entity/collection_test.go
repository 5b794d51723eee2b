package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() *CollectionRequest {
	return &CollectionRequest{
		RootAccount:        testAddr("B2"),
		MaxDepth:           2,
		MaxAccounts:        50,
		Strategy:           StrategyMostActive,
		MinAmount:          AmountUnset,
		MaxAmount:          AmountUnset,
		MaxPagesPerAccount: 10,
	}
}

func TestValidateAccountID(t *testing.T) {
	assert.NoError(t, ValidateAccountID(testAddr("B2")))

	cases := map[string]string{
		"empty":         "",
		"too short":     "GABC",
		"too long":      testAddr("B2") + "A",
		"wrong prefix":  "X" + strings.Repeat("A", 55),
		"bad alphabet":  "G" + strings.Repeat("a", 55),
		"digit one":     "G" + strings.Repeat("1", 55),
		"special chars": "G" + strings.Repeat("A", 54) + "!",
	}
	for name, id := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateAccountID(id)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAccountID)
		})
	}
}

func TestCollectionRequestValidate(t *testing.T) {
	require.NoError(t, validRequest().Validate())

	t.Run("ego graph depth is allowed", func(t *testing.T) {
		req := validRequest()
		req.MaxDepth = 0
		assert.NoError(t, req.Validate())
	})

	t.Run("negative depth rejected", func(t *testing.T) {
		req := validRequest()
		req.MaxDepth = -1
		assert.ErrorIs(t, req.Validate(), ErrInvalidRequest)
	})

	t.Run("zero accounts rejected", func(t *testing.T) {
		req := validRequest()
		req.MaxAccounts = 0
		assert.ErrorIs(t, req.Validate(), ErrInvalidRequest)
	})

	t.Run("zero page cap rejected", func(t *testing.T) {
		req := validRequest()
		req.MaxPagesPerAccount = 0
		assert.ErrorIs(t, req.Validate(), ErrInvalidRequest)
	})

	t.Run("unknown strategy rejected", func(t *testing.T) {
		req := validRequest()
		req.Strategy = "deepest_first"
		assert.ErrorIs(t, req.Validate(), ErrInvalidRequest)
	})

	t.Run("unknown direction rejected", func(t *testing.T) {
		req := validRequest()
		req.DirectionFilter = []Direction{"Sideways"}
		assert.ErrorIs(t, req.Validate(), ErrInvalidRequest)
	})

	t.Run("bad root account rejected", func(t *testing.T) {
		req := validRequest()
		req.RootAccount = "not-an-address"
		assert.ErrorIs(t, req.Validate(), ErrInvalidAccountID)
	})
}

func TestShortID(t *testing.T) {
	addr := testAddr("B2")
	short := ShortID(addr)
	assert.Len(t, short, 17)
	assert.Equal(t, addr[:8], short[:8])
	assert.Equal(t, addr[50:], short[11:])

	assert.Equal(t, "tiny", ShortID("tiny"))
}
