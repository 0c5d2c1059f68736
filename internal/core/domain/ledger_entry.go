package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerCategory classifies a ledger entry.
type LedgerCategory string

const (
	CategoryPrize                 LedgerCategory = "prize"
	CategoryPrivateEvent          LedgerCategory = "private_event"
	CategorySuppliesReimbursement LedgerCategory = "supplies_reimbursement"
	CategoryAdjustment            LedgerCategory = "adjustment"
	CategorySaleCommission        LedgerCategory = "sale_commission"
	CategoryPayment               LedgerCategory = "payment"
	CategoryOther                 LedgerCategory = "other"
)

var manualCategories = map[LedgerCategory]bool{
	CategoryPrize:                 true,
	CategoryPrivateEvent:          true,
	CategorySuppliesReimbursement: true,
	CategoryAdjustment:            true,
	CategoryPayment:               true,
	CategoryOther:                 true,
}

// IsManual reports whether an admin may record an entry of this category by hand.
// Sale commissions are derived from sales and never entered manually.
func (c LedgerCategory) IsManual() bool {
	return manualCategories[c]
}

// LedgerEntry is an append-only signed money movement for an artist.
// Positive amounts are owed to the artist, negative amounts were paid out.
type LedgerEntry struct {
	EntryID         string          `json:"entryID"`
	ArtistProfileID string          `json:"artistProfileID"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Category        LedgerCategory  `json:"category"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference,omitempty"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	PaymentID       *string         `json:"paymentID,omitempty"`
	CreatedBy       string          `json:"createdBy"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// IsCredit reports whether the entry increases what the artist is owed.
func (e LedgerEntry) IsCredit() bool {
	return e.Amount.IsPositive()
}

// IsPaymentDebit reports whether the entry records money paid out under a Payment.
func (e LedgerEntry) IsPaymentDebit() bool {
	return e.Amount.IsNegative() && e.PaymentID != nil
}
