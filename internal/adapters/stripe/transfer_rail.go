// Package stripe implements the transfer rail on Stripe Connect transfers.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/adapters/resilience"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsgw "github.com/SscSPs/artist_ledger_app/internal/core/ports/gateways"
	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const providerName = "stripe"

// Options configures the Stripe client.
type Options struct {
	SecretKey string
	// BaseURL overrides the Stripe API endpoint, mainly for tests.
	BaseURL    string
	HTTPClient *http.Client
	// MaxNetworkRetries is passed to stripe-go. Retries reuse the idempotency key.
	MaxNetworkRetries int64
}

// TransferRail moves money to connected accounts.
type TransferRail struct {
	api     *client.API
	breaker *resilience.Breaker
}

var _ portsgw.TransferRail = (*TransferRail)(nil)

// NewTransferRail creates a Stripe-backed transfer rail.
func NewTransferRail(opts Options) *TransferRail {
	var backends *stripeapi.Backends
	if opts.BaseURL != "" || opts.HTTPClient != nil || opts.MaxNetworkRetries > 0 {
		cfg := &stripeapi.BackendConfig{
			MaxNetworkRetries: stripeapi.Int64(opts.MaxNetworkRetries),
			LeveledLogger:     &stripeapi.LeveledLogger{Level: stripeapi.LevelError},
		}
		if opts.BaseURL != "" {
			cfg.URL = stripeapi.String(opts.BaseURL)
		}
		if opts.HTTPClient != nil {
			cfg.HTTPClient = opts.HTTPClient
		}
		backend := stripeapi.GetBackendWithConfig(stripeapi.APIBackend, cfg)
		backends = &stripeapi.Backends{API: backend, Connect: backend, Uploads: backend}
	}

	return &TransferRail{
		api: client.New(opts.SecretKey, backends),
		breaker: resilience.NewBreaker(resilience.Settings{
			Name:       "stripe-transfers",
			IsExpected: func(err error) bool { return errors.Is(err, portsgw.ErrTransferRejected) },
		}),
	}
}

// CreateTransfer submits a transfer keyed by req.IdempotencyKey.
func (r *TransferRail) CreateTransfer(ctx context.Context, req portsgw.TransferRequest) (string, error) {
	start := time.Now()
	params := &stripeapi.TransferParams{
		Amount:      stripeapi.Int64(domain.ToMinorUnits(req.Amount, req.Currency)),
		Currency:    stripeapi.String(strings.ToLower(req.Currency)),
		Destination: stripeapi.String(req.DestinationAccountID),
	}
	if req.Description != "" {
		params.Description = stripeapi.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)

	transfer, err := resilience.Execute(r.breaker, func() (*stripeapi.Transfer, error) {
		t, err := r.api.Transfers.New(params)
		if err != nil {
			return nil, classify(err)
		}
		return t, nil
	})
	resilience.ObserveCall(providerName, "create_transfer", start, err)
	if err != nil {
		slog.WarnContext(ctx, "Stripe transfer failed",
			slog.String("idempotency_key", req.IdempotencyKey),
			slog.String("destination", req.DestinationAccountID),
			slog.String("error", err.Error()))
		return "", err
	}
	return transfer.ID, nil
}

// GetAccount returns the payout state of a connected account.
func (r *TransferRail) GetAccount(ctx context.Context, accountID string) (*portsgw.PayoutAccount, error) {
	start := time.Now()
	params := &stripeapi.AccountParams{}
	params.Context = ctx

	acct, err := resilience.Execute(r.breaker, func() (*stripeapi.Account, error) {
		a, err := r.api.Accounts.GetByID(accountID, params)
		if err != nil {
			return nil, classify(err)
		}
		return a, nil
	})
	resilience.ObserveCall(providerName, "get_account", start, err)
	if err != nil {
		return nil, err
	}
	return &portsgw.PayoutAccount{
		AccountID:      acct.ID,
		PayoutsEnabled: acct.PayoutsEnabled,
		Country:        acct.Country,
		Currency:       strings.ToUpper(string(acct.DefaultCurrency)),
	}, nil
}

// classify marks definitive refusals with ErrTransferRejected. Everything else, including
// network errors and 5xx answers, leaves the outcome open. An idempotency error means a
// transfer with the same key may already exist, so it is never a refusal.
func classify(err error) error {
	var stripeErr *stripeapi.Error
	if !errors.As(err, &stripeErr) {
		return err
	}
	switch {
	case stripeErr.Type == stripeapi.ErrorTypeIdempotency,
		stripeErr.HTTPStatusCode == http.StatusTooManyRequests,
		stripeErr.HTTPStatusCode == http.StatusConflict,
		stripeErr.HTTPStatusCode >= 500:
		return err
	case stripeErr.HTTPStatusCode >= 400:
		return fmt.Errorf("%w: %s (%s)", portsgw.ErrTransferRejected, stripeErr.Msg, stripeErr.Code)
	}
	return err
}
