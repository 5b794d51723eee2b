package horizon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stellar-network-explorer/internal/domain/entity"
	"stellar-network-explorer/internal/domain/service"
	"stellar-network-explorer/internal/infrastructure/config"
	"stellar-network-explorer/internal/infrastructure/logger"
)

// Client talks to a Horizon ledger API server. It normalizes raw payment
// operations into transfers and owns rate limiting and retry for every
// outbound call.
type Client struct {
	baseURL    string
	pageSize   int
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	limiter    *RateLimiter
	logger     *logger.Logger
}

// NewClient creates a Horizon API client.
func NewClient(cfg *config.HorizonConfig, limiter *RateLimiter, log *logger.Logger) service.PageFetcher {
	return &Client{
		baseURL:    cfg.URL,
		pageSize:   cfg.PageSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    limiter,
		logger:     log.WithComponent("horizon-client"),
	}
}

// paymentRecord is the wire shape of one payments-endpoint record. Field
// presence varies by operation type; normalization picks what applies.
type paymentRecord struct {
	ID              string `json:"id"`
	PagingToken     string `json:"paging_token"`
	Type            string `json:"type"`
	TransactionHash string `json:"transaction_hash"`
	CreatedAt       string `json:"created_at"`

	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code"`
	AssetIssuer string `json:"asset_issuer"`

	// create_account operations
	Account         string `json:"account"`
	SourceAccount   string `json:"source_account"`
	Funder          string `json:"funder"`
	StartingBalance string `json:"starting_balance"`

	// path payment operations
	DestinationAmount      string `json:"destination_amount"`
	DestinationAssetCode   string `json:"destination_asset_code"`
	DestinationAssetIssuer string `json:"destination_asset_issuer"`
}

type paymentsPage struct {
	Embedded struct {
		Records []paymentRecord `json:"records"`
	} `json:"_embedded"`
}

type accountRecord struct {
	ID                 string `json:"id"`
	Sequence           string `json:"sequence"`
	SubentryCount      int    `json:"subentry_count"`
	LastModifiedLedger uint32 `json:"last_modified_ledger"`
	Balances           []struct {
		AssetType string `json:"asset_type"`
		Balance   string `json:"balance"`
	} `json:"balances"`
}

// FetchPage retrieves one newest-first page of payment operations for the
// account and normalizes the supported ones into transfers. EndOfData is
// judged on the raw record count, before unsupported types are dropped.
func (c *Client) FetchPage(ctx context.Context, accountID, cursor string) (*entity.TransferPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.pageSize))
	query.Set("order", "desc")
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	endpoint := fmt.Sprintf("%s/accounts/%s/payments?%s", c.baseURL, accountID, query.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payments for %s: %w", entity.ShortID(accountID), err)
	}

	var page paymentsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode payments page: %w", err)
	}

	raw := page.Embedded.Records
	result := &entity.TransferPage{
		EndOfData: len(raw) < c.pageSize,
	}
	if len(raw) > 0 {
		result.NextCursor = raw[len(raw)-1].PagingToken
	}

	for i := range raw {
		transfer, ok := c.normalize(&raw[i])
		if !ok {
			continue
		}
		result.Records = append(result.Records, transfer)
	}
	return result, nil
}

// FetchAccount resolves account details, returning entity.ErrNotFound for
// deleted or merged accounts.
func (c *Client) FetchAccount(ctx context.Context, accountID string) (*entity.Account, error) {
	endpoint := fmt.Sprintf("%s/accounts/%s", c.baseURL, accountID)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", entity.ShortID(accountID), err)
	}

	var record accountRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to decode account: %w", err)
	}

	account := &entity.Account{
		ID:                 record.ID,
		Sequence:           record.Sequence,
		BalanceXLM:         decimal.Zero,
		NumSubentries:      record.SubentryCount,
		LastModifiedLedger: record.LastModifiedLedger,
	}
	for _, balance := range record.Balances {
		if balance.AssetType == "native" {
			if amount, err := decimal.NewFromString(balance.Balance); err == nil {
				account.BalanceXLM = amount
			}
			break
		}
	}
	return account, nil
}

// get performs an HTTP GET under the rate limiter, retrying rate-limit and
// server errors up to the configured attempt budget.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying request",
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, entity.ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
			continue
		default:
			return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
		}
	}
	return nil, fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
}

// normalize maps one raw operation record into a transfer. Unsupported
// operation types report ok=false and are dropped.
func (c *Client) normalize(r *paymentRecord) (*entity.Transfer, bool) {
	if !entity.SupportedOperationKind(r.Type) {
		return nil, false
	}

	transfer := &entity.Transfer{
		ID:          r.ID,
		Kind:        entity.OperationKind(r.Type),
		TxHash:      r.TransactionHash,
		PagingToken: r.PagingToken,
	}

	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		// A zero timestamp would make the record look older than any
		// date window and stop a scan early. Drop it instead.
		c.logger.Warn("Dropping record with unparseable timestamp",
			zap.String("id", r.ID),
			zap.String("created_at", r.CreatedAt))
		return nil, false
	}
	transfer.CreatedAt = createdAt.UTC()

	switch transfer.Kind {
	case entity.OpCreateAccount:
		transfer.From = r.Funder
		if transfer.From == "" {
			transfer.From = r.SourceAccount
		}
		transfer.To = r.Account
		transfer.AssetCode = entity.NativeAssetCode
		transfer.Amount = parseAmount(r.StartingBalance)

	case entity.OpPathPaymentSend, entity.OpPathPaymentReceive:
		transfer.From = r.From
		transfer.To = r.To
		if r.Amount != "" {
			transfer.Amount = parseAmount(r.Amount)
		} else {
			transfer.Amount = parseAmount(r.DestinationAmount)
		}
		switch {
		case r.AssetCode != "":
			transfer.AssetCode = r.AssetCode
			transfer.AssetIssuer = r.AssetIssuer
		case r.DestinationAssetCode != "":
			transfer.AssetCode = r.DestinationAssetCode
			transfer.AssetIssuer = r.DestinationAssetIssuer
		default:
			transfer.AssetCode = entity.NativeAssetCode
		}

	default: // payment
		transfer.From = r.From
		transfer.To = r.To
		transfer.Amount = parseAmount(r.Amount)
		if r.AssetType == "native" || r.AssetCode == "" {
			transfer.AssetCode = entity.NativeAssetCode
		} else {
			transfer.AssetCode = r.AssetCode
			transfer.AssetIssuer = r.AssetIssuer
		}
	}

	if transfer.From == "" || transfer.To == "" {
		return nil, false
	}
	return transfer, true
}

func parseAmount(s string) decimal.Decimal {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
