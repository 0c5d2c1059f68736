// Package gateways declares the contracts of external providers the ledger depends on.
package gateways

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ErrQuotesUnavailable is returned by an FXQuoteProvider that cannot issue locked quotes at all,
// as opposed to failing transiently.
var ErrQuotesUnavailable = errors.New("locked fx quotes unavailable")

// ErrTransferRejected is returned by a TransferRail that definitively refused a transfer.
// No money moved.
var ErrTransferRejected = errors.New("transfer rejected")

// PayoutAccount describes a connected payout destination.
type PayoutAccount struct {
	AccountID      string `json:"accountID"`
	PayoutsEnabled bool   `json:"payoutsEnabled"`
	Country        string `json:"country"`
	Currency       string `json:"currency"`
}

// TransferRequest is a single outbound transfer.
type TransferRequest struct {
	DestinationAccountID string
	Amount               decimal.Decimal
	Currency             string
	IdempotencyKey       string
	Description          string
	Metadata             map[string]string
}

// TransferRail moves money to artists.
type TransferRail interface {
	// CreateTransfer submits a transfer and returns the rail's reference for it.
	// Submitting the same IdempotencyKey twice never moves money twice.
	CreateTransfer(ctx context.Context, req TransferRequest) (string, error)

	// GetAccount returns the state of a payout destination.
	GetAccount(ctx context.Context, accountID string) (*PayoutAccount, error)
}

// FXQuoteProvider issues locked exchange rate quotes.
type FXQuoteProvider interface {
	// Quote locks a sourceCurrency to targetCurrency rate for lockDuration.
	Quote(ctx context.Context, sourceCurrency, targetCurrency string, lockDuration time.Duration) (*domain.FXQuote, error)
}

// MarketRateProvider returns unguaranteed reference rates.
type MarketRateProvider interface {
	// ReferenceRate returns target units per one source unit.
	ReferenceRate(ctx context.Context, sourceCurrency, targetCurrency string) (decimal.Decimal, error)
}

// Provider groups the external gateways. Nil members are not configured.
type Provider struct {
	TransferRail TransferRail
	FXQuotes     FXQuoteProvider
	MarketRates  MarketRateProvider
}
