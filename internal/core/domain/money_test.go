package domain_test

import (
	"testing"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCurrencyExponent(t *testing.T) {
	assert.Equal(t, int32(2), domain.CurrencyExponent("usd"))
	assert.Equal(t, int32(0), domain.CurrencyExponent("JPY"))
	assert.Equal(t, int32(3), domain.CurrencyExponent(" kwd "))
	assert.True(t, domain.MinorUnit("USD").Equal(dec("0.01")))
	assert.True(t, domain.MinorUnit("JPY").Equal(dec("1")))
}

func TestRounding(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		nearest  string
		up       string
	}{
		{name: "half rounds away from zero", amount: "1.005", currency: "USD", nearest: "1.01", up: "1.01"},
		{name: "negative half", amount: "-2.345", currency: "USD", nearest: "-2.35", up: "-2.34"},
		{name: "small remainder", amount: "7.691", currency: "USD", nearest: "7.69", up: "7.70"},
		{name: "exact amount", amount: "3.20", currency: "EUR", nearest: "3.20", up: "3.20"},
		{name: "zero decimal currency", amount: "100.4", currency: "JPY", nearest: "100", up: "101"},
		{name: "three decimal currency", amount: "1.2345", currency: "KWD", nearest: "1.235", up: "1.235"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, domain.RoundToMinor(dec(tt.amount), tt.currency).Equal(dec(tt.nearest)),
				"RoundToMinor(%s) = %s", tt.amount, domain.RoundToMinor(dec(tt.amount), tt.currency))
			assert.True(t, domain.RoundUpToMinor(dec(tt.amount), tt.currency).Equal(dec(tt.up)),
				"RoundUpToMinor(%s) = %s", tt.amount, domain.RoundUpToMinor(dec(tt.amount), tt.currency))
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1234), domain.ToMinorUnits(dec("12.34"), "USD"))
	assert.Equal(t, int64(500), domain.ToMinorUnits(dec("500"), "JPY"))
	assert.Equal(t, int64(1235), domain.ToMinorUnits(dec("1.2345"), "KWD"))
	assert.True(t, domain.FromMinorUnits(1234, "USD").Equal(dec("12.34")))
	assert.True(t, domain.FromMinorUnits(500, "JPY").Equal(dec("500")))
}

func TestHasSubMinorPrecision(t *testing.T) {
	assert.True(t, domain.HasSubMinorPrecision(dec("1.001"), "USD"))
	assert.False(t, domain.HasSubMinorPrecision(dec("1.001"), "KWD"))
	assert.False(t, domain.HasSubMinorPrecision(dec("10.50"), "USD"))
	assert.True(t, domain.HasSubMinorPrecision(dec("10.5"), "JPY"))
}

func TestValidCurrency(t *testing.T) {
	assert.True(t, domain.ValidCurrency("USD"))
	assert.False(t, domain.ValidCurrency("usd"))
	assert.False(t, domain.ValidCurrency("US"))
	assert.Equal(t, "AUD", domain.NormalizeCurrency(" aud "))
}

func TestSaleRecord_Commission(t *testing.T) {
	rate := dec("0.5")
	tests := []struct {
		name string
		sale domain.SaleRecord
		want string
	}{
		{name: "sold", sale: domain.SaleRecord{SalePrice: dec("200"), Currency: "USD", Status: domain.SaleStatusSold}, want: "100"},
		{name: "paid rounds to cents", sale: domain.SaleRecord{SalePrice: dec("100.01"), Currency: "USD", Status: domain.SaleStatusPaid}, want: "50.01"},
		{name: "closed auction earns nothing", sale: domain.SaleRecord{SalePrice: dec("300"), Currency: "USD", Status: domain.SaleStatusClosed}, want: "0"},
		{name: "active auction earns nothing", sale: domain.SaleRecord{SalePrice: dec("300"), Currency: "USD", Status: domain.SaleStatusActive}, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sale.Commission(rate)
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}
