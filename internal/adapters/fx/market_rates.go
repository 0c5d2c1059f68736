package fx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/adapters/resilience"
	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	portsgw "github.com/SscSPs/artist_ledger_app/internal/core/ports/gateways"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// MarketRateOptions configures MarketRateClient.
type MarketRateOptions struct {
	// BaseURL is the feed root; the base currency code is appended as the last path segment.
	BaseURL           string
	HTTPClient        *http.Client
	RequestsPerSecond float64
	// CacheTTL keeps a fetched table for this long. Zero disables caching.
	CacheTTL time.Duration
}

// MarketRateClient reads reference rates from an exchangerate-api style feed:
// GET <BaseURL>/<BASE> returning {"base":"USD","rates":{"AUD":1.52,...}}.
type MarketRateClient struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	cacheTTL time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedRates
}

type cachedRates struct {
	rates     map[string]json.Number
	fetchedAt time.Time
}

var _ portsgw.MarketRateProvider = (*MarketRateClient)(nil)

// NewMarketRateClient creates a reference rate client.
func NewMarketRateClient(opts MarketRateOptions) *MarketRateClient {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &MarketRateClient{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     opts.HTTPClient,
		limiter:  newLimiter(opts.RequestsPerSecond),
		breaker:  resilience.NewBreaker(resilience.Settings{Name: "market-rates"}),
		cacheTTL: opts.CacheTTL,
		now:      time.Now,
		cache:    make(map[string]cachedRates),
	}
}

type marketRateResponse struct {
	Base  string                 `json:"base"`
	Rates map[string]json.Number `json:"rates"`
}

// ReferenceRate returns target units per one source unit.
func (c *MarketRateClient) ReferenceRate(ctx context.Context, sourceCurrency, targetCurrency string) (decimal.Decimal, error) {
	base := strings.ToUpper(sourceCurrency)
	target := strings.ToUpper(targetCurrency)

	rates, err := c.table(ctx, base)
	if err != nil {
		return decimal.Zero, err
	}
	raw, ok := rates[target]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no market rate for %s/%s", apperrors.ErrExternalService, base, target)
	}
	value, err := decimal.NewFromString(raw.String())
	if err != nil || !value.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: invalid market rate %q for %s/%s", apperrors.ErrExternalService, raw, base, target)
	}
	return value, nil
}

func (c *MarketRateClient) table(ctx context.Context, base string) (map[string]json.Number, error) {
	if c.cacheTTL > 0 {
		c.mu.Lock()
		cached, ok := c.cache[base]
		c.mu.Unlock()
		if ok && c.now().Sub(cached.fetchedAt) < c.cacheTTL {
			return cached.rates, nil
		}
	}

	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("market rate limiter: %w", err)
	}
	resp, err := resilience.Execute(c.breaker, func() (*marketRateResponse, error) {
		return c.fetch(ctx, base)
	})
	resilience.ObserveCall("market_rates", "latest", start, err)
	if err != nil {
		return nil, err
	}

	if c.cacheTTL > 0 {
		c.mu.Lock()
		c.cache[base] = cachedRates{rates: resp.Rates, fetchedAt: c.now()}
		c.mu.Unlock()
	}
	return resp.Rates, nil
}

func (c *MarketRateClient) fetch(ctx context.Context, base string) (*marketRateResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+base, nil)
	if err != nil {
		return nil, fmt.Errorf("build market rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: market rate request: %v", apperrors.ErrExternalService, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: market rate status %d", apperrors.ErrExternalService, res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read market rates: %v", apperrors.ErrExternalService, err)
	}
	var out marketRateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode market rates: %v", apperrors.ErrExternalService, err)
	}
	return &out, nil
}
