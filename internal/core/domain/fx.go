package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrEstimateNotLocked is returned when a caller asks for a locked quote from an estimate.
var ErrEstimateNotLocked = errors.New("conversion is an estimate, not a locked quote")

// ErrQuoteExpired is returned when a locked quote is used after it expired.
var ErrQuoteExpired = errors.New("fx quote expired")

// FXQuote is a locked exchange rate. Rate is target units per one source unit.
type FXQuote struct {
	QuoteID        string          `json:"quoteID"`
	SourceCurrency string          `json:"sourceCurrency"`
	TargetCurrency string          `json:"targetCurrency"`
	Rate           decimal.Decimal `json:"rate"`
	ExpiresAt      time.Time       `json:"expiresAt"`
}

// Expired reports whether the quote can no longer be used at now.
func (q FXQuote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// ConversionKind tells whether a conversion is backed by a locked quote.
type ConversionKind string

const (
	ConversionQuote    ConversionKind = "quote"
	ConversionEstimate ConversionKind = "estimate"
)

// ConversionResult is the source-currency amount needed to deliver a target amount.
type ConversionResult struct {
	Kind           ConversionKind   `json:"kind"`
	TargetAmount   decimal.Decimal  `json:"targetAmount"`
	TargetCurrency string           `json:"targetCurrency"`
	SourceAmount   decimal.Decimal  `json:"sourceAmount"`
	SourceCurrency string           `json:"sourceCurrency"`
	Rate           decimal.Decimal  `json:"rate"`
	ReferenceRate  *decimal.Decimal `json:"referenceRate,omitempty"`
	Spread         *decimal.Decimal `json:"spread,omitempty"`
	SpreadCost     *decimal.Decimal `json:"spreadCost,omitempty"`
	Quote          *FXQuote         `json:"quote,omitempty"`
	Notes          []string         `json:"notes,omitempty"`
}

// IsEstimate reports whether the conversion is not backed by a locked quote.
func (r ConversionResult) IsEstimate() bool {
	return r.Kind == ConversionEstimate
}

// LockedQuote returns the quote backing the conversion. Estimates and expired quotes are errors.
func (r ConversionResult) LockedQuote(now time.Time) (*FXQuote, error) {
	if r.Kind != ConversionQuote || r.Quote == nil {
		return nil, ErrEstimateNotLocked
	}
	if r.Quote.Expired(now) {
		return nil, ErrQuoteExpired
	}
	return r.Quote, nil
}
