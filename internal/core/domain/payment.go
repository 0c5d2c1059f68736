package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of an outbound payment.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentManual     PaymentStatus = "manual"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing},
	PaymentProcessing: {PaymentCompleted, PaymentFailed},
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s PaymentStatus) IsTerminal() bool {
	return len(paymentTransitions[s]) == 0
}

// IsInFlight reports whether the payment is pending or being processed.
func (s PaymentStatus) IsInFlight() bool {
	return s == PaymentPending || s == PaymentProcessing
}

// Settled reports whether the payment moved money to the artist.
func (s PaymentStatus) Settled() bool {
	return s == PaymentCompleted || s == PaymentManual
}

// ValidPaymentStatus reports whether s is a known status.
func ValidPaymentStatus(s string) bool {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentManual:
		return true
	}
	return false
}

// PaymentTransfer records how a payment was executed on the transfer rail.
type PaymentTransfer struct {
	SourceAmount   decimal.Decimal  `json:"sourceAmount"`
	SourceCurrency string           `json:"sourceCurrency"`
	QuoteID        string           `json:"quoteID,omitempty"`
	Rate           *decimal.Decimal `json:"rate,omitempty"`
	Estimated      bool             `json:"estimated"`
	DestinationID  string           `json:"destinationID"`
}

// Payment is an outbound transfer of money to an artist.
type Payment struct {
	PaymentID         string           `json:"paymentID"`
	ArtistProfileID   string           `json:"artistProfileID"`
	Amount            decimal.Decimal  `json:"amount"`
	Currency          string           `json:"currency"`
	Status            PaymentStatus    `json:"status"`
	Description       string           `json:"description,omitempty"`
	TransferReference *string          `json:"transferReference,omitempty"`
	FailureReason     *string          `json:"failureReason,omitempty"`
	LedgerEntryID     *string          `json:"ledgerEntryID,omitempty"`
	Transfer          *PaymentTransfer `json:"transfer,omitempty"`
	CompletedAt       *time.Time       `json:"completedAt,omitempty"`
	FailedAt          *time.Time       `json:"failedAt,omitempty"`
	AuditFields
}

// PaymentAllowance bounds a new payment. The store re-reads ledger entries and in-flight
// payments of ProfileIDs under the artist lock and refuses a payment that would take
// SalesEarned plus entries minus in-flight payments below zero.
type PaymentAllowance struct {
	ProfileIDs  []string
	SalesEarned decimal.Decimal
}

// Available returns what is left to pay out in currency given the entries and payments of
// the allowance's profiles.
func (a PaymentAllowance) Available(currency string, entries []LedgerEntry, payments []Payment) decimal.Decimal {
	available := a.SalesEarned
	for _, e := range entries {
		if NormalizeCurrency(e.Currency) == currency {
			available = available.Add(e.Amount)
		}
	}
	for _, p := range payments {
		if p.Status.IsInFlight() && p.Currency == currency {
			available = available.Sub(p.Amount)
		}
	}
	return available
}

// PaymentFilter narrows a payment listing.
type PaymentFilter struct {
	ArtistProfileID *string
	Status          *PaymentStatus
	Currency        *string
}

// PaymentStatRow aggregates payments of one status in one currency.
type PaymentStatRow struct {
	Status   PaymentStatus   `json:"status"`
	Currency string          `json:"currency"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}
