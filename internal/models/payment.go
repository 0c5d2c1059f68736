package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a row of the payments table.
type Payment struct {
	PaymentID         string          `db:"payment_id"`
	ArtistProfileID   string          `db:"artist_profile_id"`
	Amount            decimal.Decimal `db:"amount"`
	Currency          string          `db:"currency"`
	Status            string          `db:"status"`
	Description       string          `db:"description"`
	TransferReference *string         `db:"transfer_reference"`
	FailureReason     *string         `db:"failure_reason"`
	LedgerEntryID     *string         `db:"ledger_entry_id"`
	Transfer          []byte          `db:"transfer"` // JSONB, nil until the rail is used
	CompletedAt       *time.Time      `db:"completed_at"`
	FailedAt          *time.Time      `db:"failed_at"`
	AuditFields
}

// PaymentStat is one row of the payment statistics aggregate.
type PaymentStat struct {
	Status   string          `db:"status"`
	Currency string          `db:"currency"`
	Count    int             `db:"count"`
	Total    decimal.Decimal `db:"total"`
}
