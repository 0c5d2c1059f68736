package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a row of the sales table.
type Sale struct {
	SaleID          string          `db:"sale_id"`
	ArtistProfileID string          `db:"artist_profile_id"`
	ArtCode         string          `db:"art_code"`
	EventName       string          `db:"event_name"`
	SalePrice       decimal.Decimal `db:"sale_price"`
	Currency        string          `db:"currency"`
	Status          string          `db:"status"`
	ClosedAt        time.Time       `db:"closed_at"`
}
