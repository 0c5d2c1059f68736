// Package fx implements exchange rate providers: locked quotes from the Stripe FX Quotes
// API and unguaranteed reference rates from a public market-rate feed.
package fx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/adapters/resilience"
	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsgw "github.com/SscSPs/artist_ledger_app/internal/core/ports/gateways"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	defaultStripeURL   = "https://api.stripe.com"
	fxQuotesAPIVersion = "2025-07-30.preview"
)

// StripeQuoteOptions configures StripeQuoteProvider.
type StripeQuoteOptions struct {
	SecretKey         string
	BaseURL           string
	HTTPClient        *http.Client
	RequestsPerSecond float64
}

// StripeQuoteProvider issues locked quotes through the Stripe FX Quotes API.
type StripeQuoteProvider struct {
	secretKey string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *resilience.Breaker
	now       func() time.Time
}

var _ portsgw.FXQuoteProvider = (*StripeQuoteProvider)(nil)

// NewStripeQuoteProvider creates a quote provider.
func NewStripeQuoteProvider(opts StripeQuoteOptions) *StripeQuoteProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultStripeURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &StripeQuoteProvider{
		secretKey: opts.SecretKey,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		http:      opts.HTTPClient,
		limiter:   newLimiter(opts.RequestsPerSecond),
		breaker: resilience.NewBreaker(resilience.Settings{
			Name:       "stripe-fx-quotes",
			IsExpected: func(err error) bool { return errors.Is(err, portsgw.ErrQuotesUnavailable) },
		}),
		now: time.Now,
	}
}

type fxQuoteResponse struct {
	ID            string                 `json:"id"`
	ToCurrency    string                 `json:"to_currency"`
	LockDuration  string                 `json:"lock_duration"`
	LockExpiresAt int64                  `json:"lock_expires_at"`
	Rates         map[string]fxQuoteRate `json:"rates"`
}

type fxQuoteRate struct {
	ExchangeRate json.Number `json:"exchange_rate"`
}

type stripeErrorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Quote locks a rate for converting sourceCurrency into targetCurrency.
// A refusal to grant API access is reported as gateways.ErrQuotesUnavailable.
func (p *StripeQuoteProvider) Quote(ctx context.Context, sourceCurrency, targetCurrency string, lockDuration time.Duration) (*domain.FXQuote, error) {
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fx quote rate limiter: %w", err)
	}

	source := strings.ToLower(sourceCurrency)
	form := url.Values{}
	form.Set("to_currency", strings.ToLower(targetCurrency))
	form.Add("from_currencies[]", source)
	form.Set("lock_duration", lockDurationName(lockDuration))

	resp, err := resilience.Execute(p.breaker, func() (*fxQuoteResponse, error) {
		return p.post(ctx, "/v1/fx_quotes", form)
	})
	resilience.ObserveCall("fx_quotes", "quote", start, err)
	if err != nil {
		return nil, err
	}

	quoted, ok := resp.Rates[source]
	if !ok {
		return nil, fmt.Errorf("%w: fx quote %s has no rate for %s", apperrors.ErrExternalService, resp.ID, sourceCurrency)
	}
	rateValue, err := decimal.NewFromString(quoted.ExchangeRate.String())
	if err != nil || !rateValue.IsPositive() {
		return nil, fmt.Errorf("%w: fx quote %s has invalid rate %q", apperrors.ErrExternalService, resp.ID, quoted.ExchangeRate)
	}

	expiresAt := time.Unix(resp.LockExpiresAt, 0).UTC()
	if resp.LockExpiresAt == 0 {
		expiresAt = p.now().Add(lockDuration).UTC()
	}
	return &domain.FXQuote{
		QuoteID:        resp.ID,
		SourceCurrency: strings.ToUpper(sourceCurrency),
		TargetCurrency: strings.ToUpper(targetCurrency),
		Rate:           rateValue,
		ExpiresAt:      expiresAt,
	}, nil
}

func (p *StripeQuoteProvider) post(ctx context.Context, path string, form url.Values) (*fxQuoteResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build fx quote request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Stripe-Version", fxQuotesAPIVersion)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fx quote request: %v", apperrors.ErrExternalService, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read fx quote response: %v", apperrors.ErrExternalService, err)
	}

	if res.StatusCode != http.StatusOK {
		var envelope stripeErrorEnvelope
		_ = json.Unmarshal(body, &envelope)
		switch res.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return nil, fmt.Errorf("%w: status %d: %s", portsgw.ErrQuotesUnavailable, res.StatusCode, envelope.Error.Message)
		default:
			return nil, fmt.Errorf("%w: fx quote status %d: %s", apperrors.ErrExternalService, res.StatusCode, envelope.Error.Message)
		}
	}

	var out fxQuoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode fx quote: %v", apperrors.ErrExternalService, err)
	}
	return &out, nil
}

// lockDurationName maps a duration onto the lock windows the API offers.
func lockDurationName(d time.Duration) string {
	switch {
	case d <= 0:
		return "none"
	case d <= 5*time.Minute:
		return "five_minutes"
	case d <= time.Hour:
		return "hour"
	default:
		return "day"
	}
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
