package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsgw "github.com/SscSPs/artist_ledger_app/internal/core/ports/gateways"
	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// audPerUSD is the rate at which 1 AUD buys 0.65 USD.
var audPerUSD = decimal.NewFromInt(1).DivRound(dec("0.65"), 16)

type PayoutFXServiceTestSuite struct {
	suite.Suite
	quotes  *MockFXQuoteProvider
	market  *MockMarketRateProvider
	service portssvc.PayoutFXSvc
}

func (suite *PayoutFXServiceTestSuite) SetupTest() {
	suite.quotes = new(MockFXQuoteProvider)
	suite.market = new(MockMarketRateProvider)
	suite.service = services.NewPayoutFXService(suite.quotes, suite.market, time.Hour, dec("0.01"), fixedClock())
}

func (suite *PayoutFXServiceTestSuite) TestQuoteAndConvert_LockedQuote() {
	ctx := context.Background()
	quote := &domain.FXQuote{QuoteID: "fxq_1", SourceCurrency: "USD", TargetCurrency: "AUD", Rate: audPerUSD, ExpiresAt: fixedNow.Add(time.Hour)}
	suite.quotes.On("Quote", ctx, "USD", "AUD", time.Hour).Return(quote, nil).Once()
	suite.market.On("ReferenceRate", ctx, "USD", "AUD").Return(dec("1.55"), nil).Once()

	result, err := suite.service.QuoteAndConvert(ctx, dec("5.00"), "aud", "usd")

	suite.Require().NoError(err)
	suite.Equal(domain.ConversionQuote, result.Kind)
	suite.True(result.SourceAmount.Equal(dec("3.25")), "source %s", result.SourceAmount)
	suite.True(result.SourceAmount.Mul(result.Rate).GreaterThanOrEqual(dec("5.00")))
	suite.Equal("fxq_1", result.Quote.QuoteID)
	suite.Require().NotNil(result.Spread)
	suite.True(result.Spread.IsPositive())
	suite.Require().NotNil(result.SpreadCost)
	suite.quotes.AssertExpectations(suite.T())
	suite.market.AssertExpectations(suite.T())
}

func (suite *PayoutFXServiceTestSuite) TestQuoteAndConvert_EstimateWhenQuotesUnavailable() {
	ctx := context.Background()
	suite.quotes.On("Quote", ctx, "USD", "AUD", time.Hour).Return(nil, portsgw.ErrQuotesUnavailable).Once()
	suite.market.On("ReferenceRate", ctx, "USD", "AUD").Return(dec("1.6"), nil).Once()

	result, err := suite.service.QuoteAndConvert(ctx, dec("100"), "AUD", "USD")

	suite.Require().NoError(err)
	suite.True(result.IsEstimate())
	suite.True(result.Rate.Equal(dec("1.584")), "rate %s", result.Rate)
	suite.True(result.SourceAmount.Equal(dec("63.14")), "source %s", result.SourceAmount)
	suite.NotEmpty(result.Notes)
	_, err = result.LockedQuote(fixedNow)
	suite.ErrorIs(err, domain.ErrEstimateNotLocked)
}

func (suite *PayoutFXServiceTestSuite) TestQuoteAndConvert_NoQuoteAndNoMarketRate() {
	ctx := context.Background()
	suite.quotes.On("Quote", ctx, "USD", "AUD", time.Hour).Return(nil, portsgw.ErrQuotesUnavailable).Once()
	suite.market.On("ReferenceRate", ctx, "USD", "AUD").Return(decimal.Zero, assert.AnError).Once()

	_, err := suite.service.QuoteAndConvert(ctx, dec("100"), "AUD", "USD")

	suite.ErrorIs(err, apperrors.ErrExternalService)
}

func (suite *PayoutFXServiceTestSuite) TestQuoteAndConvert_TransientQuoteFailure() {
	ctx := context.Background()
	suite.quotes.On("Quote", ctx, "USD", "EUR", time.Hour).Return(nil, assert.AnError).Once()
	suite.market.On("ReferenceRate", ctx, "USD", "EUR").Return(dec("0.92"), nil).Once()

	_, err := suite.service.QuoteAndConvert(ctx, dec("100"), "EUR", "USD")

	suite.ErrorIs(err, apperrors.ErrExternalService)
}

func (suite *PayoutFXServiceTestSuite) TestQuoteAndConvert_SameCurrency() {
	result, err := suite.service.QuoteAndConvert(context.Background(), dec("12.34"), "USD", "USD")

	suite.Require().NoError(err)
	suite.True(result.SourceAmount.Equal(dec("12.34")))
	suite.True(result.Rate.Equal(decimal.NewFromInt(1)))
	suite.quotes.AssertNotCalled(suite.T(), "Quote", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PayoutFXServiceTestSuite) TestQuoteAndConvert_Validation() {
	ctx := context.Background()
	for _, tc := range []struct {
		amount string
		target string
		source string
	}{
		{amount: "0", target: "AUD", source: "USD"},
		{amount: "-5", target: "AUD", source: "USD"},
		{amount: "5.001", target: "AUD", source: "USD"},
		{amount: "5", target: "AU", source: "USD"},
		{amount: "5", target: "AUD", source: "US1"},
	} {
		_, err := suite.service.QuoteAndConvert(ctx, dec(tc.amount), tc.target, tc.source)
		suite.ErrorIs(err, apperrors.ErrValidation, "%+v", tc)
	}
}

func TestPayoutFXServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PayoutFXServiceTestSuite))
}

func TestQuoteAndConvert_WithoutQuoteProviderEstimates(t *testing.T) {
	ctx := context.Background()
	market := new(MockMarketRateProvider)
	market.On("ReferenceRate", ctx, "USD", "JPY").Return(dec("150"), nil).Once()
	svc := services.NewPayoutFXService(nil, market, time.Hour, dec("0"), fixedClock())

	result, err := svc.QuoteAndConvert(ctx, dec("1000"), "JPY", "USD")

	assert.NoError(t, err)
	assert.True(t, result.IsEstimate())
	assert.True(t, result.SourceAmount.Equal(dec("6.67")), "source %s", result.SourceAmount)
	market.AssertExpectations(t)
}

func TestSourceAmountFor(t *testing.T) {
	tests := []struct {
		target   string
		rate     string
		currency string
		want     string
	}{
		{target: "5.00", rate: audPerUSD.String(), currency: "USD", want: "3.25"},
		{target: "10.00", rate: "3", currency: "USD", want: "3.34"},
		{target: "1000", rate: "150", currency: "USD", want: "6.67"},
		{target: "100.00", rate: "0.0066667", currency: "JPY", want: "15000"},
		{target: "5", rate: "1", currency: "USD", want: "5"},
		{target: "0.01", rate: "0.9", currency: "USD", want: "0.02"},
		{target: "1.000", rate: "3.27", currency: "KWD", want: "0.306"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s at %s", tt.target, tt.rate), func(t *testing.T) {
			got := services.SourceAmountFor(dec(tt.target), dec(tt.rate), tt.currency)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestSourceAmountFor_SmallestSufficientAmount(t *testing.T) {
	rates := []string{"0.65", "1.5384615384615385", "0.0066667", "1.0001", "7.7777", "149.93", "0.3333333"}
	targets := []string{"0.01", "0.99", "5.00", "19.99", "250.00", "1234.56"}

	for _, r := range rates {
		for _, tg := range targets {
			rate, target := dec(r), dec(tg)
			got := services.SourceAmountFor(target, rate, "USD")
			minor := domain.MinorUnit("USD")

			assert.True(t, got.Mul(rate).GreaterThanOrEqual(target), "%s at %s: %s delivers too little", tg, r, got)
			assert.True(t, got.Sub(minor).Mul(rate).LessThan(target), "%s at %s: %s is not the smallest amount", tg, r, got)
			assert.False(t, domain.HasSubMinorPrecision(got, "USD"))
		}
	}
}
