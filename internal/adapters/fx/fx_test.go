package fx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	portsgw "github.com/SscSPs/artist_ledger_app/internal/core/ports/gateways"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripeQuoteProviderQuote(t *testing.T) {
	expires := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/v1/fx_quotes", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, fxQuotesAPIVersion, r.Header.Get("Stripe-Version"))
		assert.Equal(t, "aud", r.PostForm.Get("to_currency"))
		assert.Equal(t, "usd", r.PostForm.Get("from_currencies[]"))
		assert.Equal(t, "hour", r.PostForm.Get("lock_duration"))
		_, _ = w.Write([]byte(`{"id":"fxq_1","to_currency":"aud","lock_duration":"hour","lock_expires_at":` +
			itoa(expires.Unix()) + `,"rates":{"usd":{"exchange_rate":1.5236}}}`))
	}))
	defer srv.Close()

	p := NewStripeQuoteProvider(StripeQuoteOptions{SecretKey: "sk_test", BaseURL: srv.URL, HTTPClient: srv.Client()})
	q, err := p.Quote(context.Background(), "USD", "AUD", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "fxq_1", q.QuoteID)
	assert.Equal(t, "USD", q.SourceCurrency)
	assert.Equal(t, "AUD", q.TargetCurrency)
	assert.True(t, q.Rate.Equal(decimal.RequireFromString("1.5236")))
	assert.True(t, q.ExpiresAt.Equal(expires))
}

func TestStripeQuoteProviderAccessDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"preview feature"}}`))
	}))
	defer srv.Close()

	p := NewStripeQuoteProvider(StripeQuoteOptions{SecretKey: "sk_test", BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := p.Quote(context.Background(), "USD", "AUD", time.Hour)
	assert.ErrorIs(t, err, portsgw.ErrQuotesUnavailable)
}

func TestStripeQuoteProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewStripeQuoteProvider(StripeQuoteOptions{SecretKey: "sk_test", BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := p.Quote(context.Background(), "USD", "AUD", time.Hour)
	assert.ErrorIs(t, err, apperrors.ErrExternalService)
	assert.NotErrorIs(t, err, portsgw.ErrQuotesUnavailable)
}

func TestMarketRateClientCaches(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/v4/latest/USD", r.URL.Path)
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"AUD":1.54,"THB":35.9}}`))
	}))
	defer srv.Close()

	c := NewMarketRateClient(MarketRateOptions{BaseURL: srv.URL + "/v4/latest/", HTTPClient: srv.Client(), CacheTTL: time.Minute})
	aud, err := c.ReferenceRate(context.Background(), "usd", "aud")
	require.NoError(t, err)
	assert.True(t, aud.Equal(decimal.RequireFromString("1.54")))

	thb, err := c.ReferenceRate(context.Background(), "USD", "THB")
	require.NoError(t, err)
	assert.True(t, thb.Equal(decimal.RequireFromString("35.9")))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	_, err = c.ReferenceRate(context.Background(), "USD", "XYZ")
	assert.ErrorIs(t, err, apperrors.ErrExternalService)
}

func TestLockDurationName(t *testing.T) {
	assert.Equal(t, "none", lockDurationName(0))
	assert.Equal(t, "five_minutes", lockDurationName(5*time.Minute))
	assert.Equal(t, "hour", lockDurationName(time.Hour))
	assert.Equal(t, "day", lockDurationName(24*time.Hour))
}

func itoa(v int64) string {
	return decimal.NewFromInt(v).String()
}
