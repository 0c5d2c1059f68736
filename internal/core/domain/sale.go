package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus is the lifecycle state of an artwork sale.
type SaleStatus string

const (
	SaleStatusSold   SaleStatus = "sold"
	SaleStatusPaid   SaleStatus = "paid"
	SaleStatusClosed SaleStatus = "closed"
	SaleStatusActive SaleStatus = "active"
)

// EarnsCommission reports whether the sale credits the artist.
// Closed auctions ended without a buyer and credit nothing.
func (s SaleStatus) EarnsCommission() bool {
	return s == SaleStatusSold || s == SaleStatusPaid
}

// SaleRecord is an artwork sale attributed to an artist profile.
type SaleRecord struct {
	SaleID          string          `json:"saleID"`
	ArtistProfileID string          `json:"artistProfileID"`
	ArtCode         string          `json:"artCode"`
	EventName       string          `json:"eventName"`
	SalePrice       decimal.Decimal `json:"salePrice"`
	Currency        string          `json:"currency"`
	Status          SaleStatus      `json:"status"`
	ClosedAt        time.Time       `json:"closedAt"`
}

// Commission returns the artist's share of the sale, rounded to the currency's minor unit.
func (s SaleRecord) Commission(rate decimal.Decimal) decimal.Decimal {
	if !s.Status.EarnsCommission() {
		return decimal.Zero
	}
	return RoundToMinor(s.SalePrice.Mul(rate), s.Currency)
}
