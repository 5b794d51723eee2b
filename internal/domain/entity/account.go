package entity

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// AccountIDLength is the length of a Stellar public account address.
const AccountIDLength = 56

var (
	// ErrNotFound indicates an account that does not exist on the ledger
	// (deleted or merged away). Not a failure for this domain: such
	// accounts still appear in graphs as zero-valued placeholders.
	ErrNotFound = errors.New("account not found")

	// ErrInvalidAccountID indicates a malformed account address. Fatal to
	// the request; rejected before any network call.
	ErrInvalidAccountID = errors.New("invalid account id")
)

// Stellar public keys are strkey-encoded: 'G' prefix plus base32 alphabet.
var accountIDPattern = regexp.MustCompile(`^G[A-Z2-7]{55}$`)

// ValidateAccountID checks that id is a well-formed Stellar account address.
func ValidateAccountID(id string) error {
	if len(id) != AccountIDLength {
		return fmt.Errorf("%w: %q must be %d characters", ErrInvalidAccountID, truncateID(id), AccountIDLength)
	}
	if !accountIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q must start with 'G' and use the base32 alphabet", ErrInvalidAccountID, truncateID(id))
	}
	return nil
}

func truncateID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// ShortID returns the abbreviated display form of an account address.
func ShortID(id string) string {
	if len(id) < 14 {
		return id
	}
	return id[:8] + "..." + id[len(id)-6:]
}

// Account represents a Stellar account as returned by the ledger API.
type Account struct {
	ID                 string          `json:"id"`
	Sequence           string          `json:"sequence"`
	BalanceXLM         decimal.Decimal `json:"balance_xlm"`
	NumSubentries      int             `json:"num_subentries"`
	LastModifiedLedger uint32          `json:"last_modified_ledger"`
	NotFound           bool            `json:"not_found,omitempty"`
}

// PlaceholderAccount builds a zero-valued account record for an address that
// appears in transfers but could not be resolved on the ledger.
func PlaceholderAccount(id string) *Account {
	return &Account{
		ID:         id,
		BalanceXLM: decimal.Zero,
		NotFound:   true,
	}
}
