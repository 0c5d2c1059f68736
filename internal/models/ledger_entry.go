package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a row of the append-only ledger_entries table.
type LedgerEntry struct {
	EntryID         string          `db:"entry_id"`
	ArtistProfileID string          `db:"artist_profile_id"`
	Amount          decimal.Decimal `db:"amount"`
	Currency        string          `db:"currency"`
	Category        string          `db:"category"`
	Description     string          `db:"description"`
	Reference       string          `db:"reference"`
	PaymentMethod   string          `db:"payment_method"`
	PaymentID       *string         `db:"payment_id"`
	CreatedBy       string          `db:"created_by"`
	CreatedAt       time.Time       `db:"created_at"`
}
