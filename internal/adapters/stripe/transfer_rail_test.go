package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	portsgw "github.com/SscSPs/artist_ledger_app/internal/core/ports/gateways"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRail(t *testing.T, handler http.HandlerFunc) *TransferRail {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTransferRail(Options{SecretKey: "sk_test_123", BaseURL: srv.URL, HTTPClient: srv.Client()})
}

func TestCreateTransferSendsMinorUnitsAndIdempotencyKey(t *testing.T) {
	var calls int32
	rail := newTestRail(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/v1/transfers", r.URL.Path)
		assert.Equal(t, "pay-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "4021", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "acct_1", r.PostForm.Get("destination"))
		assert.Equal(t, "p1", r.PostForm.Get("metadata[payment_id]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"tr_123","object":"transfer","amount":4021,"currency":"usd"}`))
	})

	ref, err := rail.CreateTransfer(context.Background(), portsgw.TransferRequest{
		DestinationAccountID: "acct_1",
		Amount:               decimal.RequireFromString("40.21"),
		Currency:             "USD",
		IdempotencyKey:       "pay-1",
		Metadata:             map[string]string{"payment_id": "p1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tr_123", ref)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCreateTransferRejection(t *testing.T) {
	rail := newTestRail(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"balance_insufficient","message":"Insufficient funds"}}`))
	})

	_, err := rail.CreateTransfer(context.Background(), portsgw.TransferRequest{
		DestinationAccountID: "acct_1",
		Amount:               decimal.NewFromInt(5),
		Currency:             "USD",
		IdempotencyKey:       "pay-2",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, portsgw.ErrTransferRejected)
}

func TestCreateTransferOpenOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"type":"api_error","message":"boom"}}`},
		{"idempotency key reused with other parameters", http.StatusBadRequest,
			`{"error":{"type":"idempotency_error","message":"Keys for idempotent requests can only be used with the same parameters they were first used with."}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rail := newTestRail(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := rail.CreateTransfer(context.Background(), portsgw.TransferRequest{
				DestinationAccountID: "acct_1",
				Amount:               decimal.NewFromInt(5),
				Currency:             "USD",
				IdempotencyKey:       "pay-3",
			})
			require.Error(t, err)
			assert.NotErrorIs(t, err, portsgw.ErrTransferRejected)
		})
	}
}

func TestGetAccount(t *testing.T) {
	rail := newTestRail(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/acct_9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"acct_9","object":"account","payouts_enabled":true,"country":"AU","default_currency":"aud"}`))
	})

	acct, err := rail.GetAccount(context.Background(), "acct_9")
	require.NoError(t, err)
	assert.Equal(t, "acct_9", acct.AccountID)
	assert.True(t, acct.PayoutsEnabled)
	assert.Equal(t, "AU", acct.Country)
	assert.Equal(t, "AUD", acct.Currency)
}
