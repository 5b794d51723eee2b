package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationKind is the operation type of a normalized transfer.
type OperationKind string

const (
	OpPayment            OperationKind = "payment"
	OpCreateAccount      OperationKind = "create_account"
	OpPathPaymentSend    OperationKind = "path_payment_strict_send"
	OpPathPaymentReceive OperationKind = "path_payment_strict_receive"
)

// SupportedOperationKind reports whether a raw operation type maps to a
// Transfer. Everything else is dropped during normalization.
func SupportedOperationKind(kind string) bool {
	switch OperationKind(kind) {
	case OpPayment, OpCreateAccount, OpPathPaymentSend, OpPathPaymentReceive:
		return true
	}
	return false
}

// NativeAssetCode is the display code of the network's native asset.
const NativeAssetCode = "XLM"

// Transfer is a normalized, directed value movement between two accounts.
// Built once from a raw ledger operation and immutable thereafter. Amount is
// always non-negative; direction is carried by From/To, never by sign.
type Transfer struct {
	ID          string          `json:"id"`
	Kind        OperationKind   `json:"type"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	AssetCode   string          `json:"asset_code"`
	AssetIssuer string          `json:"asset_issuer,omitempty"`
	TxHash      string          `json:"transaction_hash"`
	CreatedAt   time.Time       `json:"created_at"`
	PagingToken string          `json:"paging_token"`
}

// Asset returns the display asset code, defaulting to the native asset.
func (t *Transfer) Asset() string {
	if t.AssetCode == "" {
		return NativeAssetCode
	}
	return t.AssetCode
}

// DedupKey identifies a transfer across both endpoints' pagination streams.
// Path payments can list multiple legs under one transaction hash, so the key
// is the (hash, from, to) compound, not the hash alone.
func (t *Transfer) DedupKey() string {
	return t.TxHash + "|" + t.From + "|" + t.To
}

// TransferPage is one page of normalized transfers for a single account.
type TransferPage struct {
	// Records holds the supported, normalized operations of the page.
	Records []*Transfer

	// NextCursor resumes pagination after this page. Empty when unknown.
	NextCursor string

	// EndOfData is true when the raw page held fewer records than the page
	// size, i.e. the account's history is exhausted. Computed on the raw
	// record count, before unsupported operations are dropped.
	EndOfData bool
}
