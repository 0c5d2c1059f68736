package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from domain.PaymentStatus
		to   domain.PaymentStatus
		want bool
	}{
		{from: domain.PaymentPending, to: domain.PaymentProcessing, want: true},
		{from: domain.PaymentPending, to: domain.PaymentCompleted, want: false},
		{from: domain.PaymentPending, to: domain.PaymentFailed, want: false},
		{from: domain.PaymentProcessing, to: domain.PaymentCompleted, want: true},
		{from: domain.PaymentProcessing, to: domain.PaymentFailed, want: true},
		{from: domain.PaymentProcessing, to: domain.PaymentPending, want: false},
		{from: domain.PaymentCompleted, to: domain.PaymentFailed, want: false},
		{from: domain.PaymentFailed, to: domain.PaymentProcessing, want: false},
		{from: domain.PaymentManual, to: domain.PaymentCompleted, want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPaymentStatus_Predicates(t *testing.T) {
	assert.True(t, domain.PaymentPending.IsInFlight())
	assert.True(t, domain.PaymentProcessing.IsInFlight())
	assert.False(t, domain.PaymentFailed.IsInFlight())

	assert.True(t, domain.PaymentCompleted.Settled())
	assert.True(t, domain.PaymentManual.Settled())
	assert.False(t, domain.PaymentProcessing.Settled())

	assert.True(t, domain.PaymentCompleted.IsTerminal())
	assert.True(t, domain.PaymentFailed.IsTerminal())
	assert.False(t, domain.PaymentPending.IsTerminal())

	assert.True(t, domain.ValidPaymentStatus("manual"))
	assert.False(t, domain.ValidPaymentStatus("cancelled"))
}

func TestConversionResult_LockedQuote(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	quote := &domain.FXQuote{QuoteID: "fxq_1", SourceCurrency: "USD", TargetCurrency: "AUD", Rate: dec("1.5"), ExpiresAt: now.Add(time.Hour)}

	t.Run("locked and fresh", func(t *testing.T) {
		got, err := domain.ConversionResult{Kind: domain.ConversionQuote, Quote: quote}.LockedQuote(now)
		require.NoError(t, err)
		assert.Equal(t, "fxq_1", got.QuoteID)
	})

	t.Run("expired at the boundary", func(t *testing.T) {
		_, err := domain.ConversionResult{Kind: domain.ConversionQuote, Quote: quote}.LockedQuote(now.Add(time.Hour))
		assert.ErrorIs(t, err, domain.ErrQuoteExpired)
	})

	t.Run("estimate", func(t *testing.T) {
		result := domain.ConversionResult{Kind: domain.ConversionEstimate}
		_, err := result.LockedQuote(now)
		assert.ErrorIs(t, err, domain.ErrEstimateNotLocked)
		assert.True(t, result.IsEstimate())
	})
}
