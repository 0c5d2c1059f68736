package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsgw "github.com/SscSPs/artist_ledger_app/internal/core/ports/gateways"
	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/metrics"
	"github.com/shopspring/decimal"
)

// divisionPrecision is the number of decimal places kept when dividing by a rate.
const divisionPrecision = 16

type payoutFXService struct {
	BaseService
	quotes          portsgw.FXQuoteProvider
	marketRates     portsgw.MarketRateProvider
	lockDuration    time.Duration
	estimatedSpread decimal.Decimal
}

// NewPayoutFXService creates the payout FX calculator. quotes may be nil when no locked-quote
// capability is configured; conversions are then estimates from marketRates.
func NewPayoutFXService(
	quotes portsgw.FXQuoteProvider,
	marketRates portsgw.MarketRateProvider,
	lockDuration time.Duration,
	estimatedSpread decimal.Decimal,
	options ...ServiceOption,
) portssvc.PayoutFXSvc {
	if lockDuration <= 0 {
		lockDuration = time.Hour
	}
	svc := &payoutFXService{
		quotes:          quotes,
		marketRates:     marketRates,
		lockDuration:    lockDuration,
		estimatedSpread: estimatedSpread,
	}
	applyBaseOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.PayoutFXSvc = (*payoutFXService)(nil)

func (s *payoutFXService) QuoteAndConvert(ctx context.Context, targetAmount decimal.Decimal, targetCurrency, sourceCurrency string) (*domain.ConversionResult, error) {
	targetCurrency = domain.NormalizeCurrency(targetCurrency)
	sourceCurrency = domain.NormalizeCurrency(sourceCurrency)
	if !domain.ValidCurrency(targetCurrency) || !domain.ValidCurrency(sourceCurrency) {
		return nil, fmt.Errorf("%w: invalid currency pair %q -> %q", apperrors.ErrValidation, sourceCurrency, targetCurrency)
	}
	if !targetAmount.IsPositive() {
		return nil, fmt.Errorf("%w: target amount must be positive", apperrors.ErrValidation)
	}
	if domain.HasSubMinorPrecision(targetAmount, targetCurrency) {
		return nil, fmt.Errorf("%w: target amount %s has more precision than %s allows", apperrors.ErrValidation, targetAmount, targetCurrency)
	}

	pair := sourceCurrency + "/" + targetCurrency
	logger := s.GetLogger(ctx).With(slog.String("pair", pair), slog.String("target_amount", targetAmount.String()))

	if sourceCurrency == targetCurrency {
		now := s.Now()
		return &domain.ConversionResult{
			Kind:           domain.ConversionQuote,
			TargetAmount:   targetAmount,
			TargetCurrency: targetCurrency,
			SourceAmount:   targetAmount,
			SourceCurrency: sourceCurrency,
			Rate:           decimal.NewFromInt(1),
			Quote: &domain.FXQuote{
				SourceCurrency: sourceCurrency,
				TargetCurrency: targetCurrency,
				Rate:           decimal.NewFromInt(1),
				ExpiresAt:      now.Add(s.lockDuration),
			},
		}, nil
	}

	result := &domain.ConversionResult{
		TargetAmount:   targetAmount,
		TargetCurrency: targetCurrency,
		SourceCurrency: sourceCurrency,
	}

	reference, refErr := s.referenceRate(ctx, sourceCurrency, targetCurrency)
	if refErr != nil {
		logger.Warn("Reference market rate unavailable", slog.String("error", refErr.Error()))
	}

	quote, quoteErr := s.quote(ctx, sourceCurrency, targetCurrency)
	switch {
	case quoteErr == nil:
		result.Kind = domain.ConversionQuote
		result.Quote = quote
		result.Rate = quote.Rate
	case errors.Is(quoteErr, portsgw.ErrQuotesUnavailable):
		if refErr != nil {
			return nil, fmt.Errorf("%w: no locked quote and no market rate for %s: %v", apperrors.ErrExternalService, pair, refErr)
		}
		result.Kind = domain.ConversionEstimate
		result.Rate = reference.Mul(decimal.NewFromInt(1).Sub(s.estimatedSpread))
		result.Notes = append(result.Notes, fmt.Sprintf(
			"estimate: no locked quote available, market rate less an assumed %s%% spread; not authoritative for audit",
			s.estimatedSpread.Shift(2).String()))
		logger.Info("Using estimated FX conversion", slog.String("reason", quoteErr.Error()))
	default:
		logger.Error("FX quote request failed", slog.String("error", quoteErr.Error()))
		return nil, fmt.Errorf("%w: fx quote for %s failed, re-quote: %v", apperrors.ErrExternalService, pair, quoteErr)
	}

	if !result.Rate.IsPositive() {
		return nil, fmt.Errorf("%w: non-positive rate %s for %s", apperrors.ErrExternalService, result.Rate, pair)
	}

	result.SourceAmount = SourceAmountFor(targetAmount, result.Rate, sourceCurrency)

	if refErr == nil && reference.IsPositive() {
		ref := reference
		spread := ref.Sub(result.Rate).DivRound(ref, 8)
		cost := domain.RoundToMinor(result.SourceAmount.Sub(targetAmount.DivRound(ref, divisionPrecision)), sourceCurrency)
		result.ReferenceRate = &ref
		result.Spread = &spread
		result.SpreadCost = &cost
		metrics.FXSpread.WithLabelValues(pair).Observe(spread.InexactFloat64())
	} else {
		result.Notes = append(result.Notes, "reference market rate unavailable; spread not computed")
	}

	metrics.FXConversions.WithLabelValues(string(result.Kind), pair).Inc()
	logger.Debug("Converted payout amount",
		slog.String("kind", string(result.Kind)),
		slog.String("rate", result.Rate.String()),
		slog.String("source_amount", result.SourceAmount.String()))
	return result, nil
}

// SourceAmountFor returns the smallest amount of sourceCurrency that converts to at least
// target at rate, where rate is target units per one source unit.
func SourceAmountFor(target, rate decimal.Decimal, sourceCurrency string) decimal.Decimal {
	source := domain.RoundUpToMinor(target.DivRound(rate, divisionPrecision), sourceCurrency)
	minor := domain.MinorUnit(sourceCurrency)
	for source.Mul(rate).LessThan(target) {
		source = source.Add(minor)
	}
	return source
}

func (s *payoutFXService) quote(ctx context.Context, source, target string) (*domain.FXQuote, error) {
	if s.quotes == nil {
		return nil, portsgw.ErrQuotesUnavailable
	}
	q, err := s.quotes.Quote(ctx, source, target, s.lockDuration)
	if err != nil {
		return nil, err
	}
	if q.Expired(s.Now()) {
		return nil, domain.ErrQuoteExpired
	}
	return q, nil
}

func (s *payoutFXService) referenceRate(ctx context.Context, source, target string) (decimal.Decimal, error) {
	if s.marketRates == nil {
		return decimal.Zero, errors.New("no market rate provider configured")
	}
	return s.marketRates.ReferenceRate(ctx, source, target)
}
