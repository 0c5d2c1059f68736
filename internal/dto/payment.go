package dto

import (
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest defines the data needed to create a payment.
type CreatePaymentRequest struct {
	ArtistProfileID string          `json:"artistProfileID" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency" binding:"required,len=3"`
	Description     string          `json:"description" binding:"max=500"`
}

// CompletePaymentRequest carries the transfer reference of a finished transfer.
type CompletePaymentRequest struct {
	TransferReference string `json:"transferReference" binding:"required,max=255"`
}

// FailPaymentRequest carries the reason a payment failed.
type FailPaymentRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// ManualAdjustmentRequest records a manual credit or debit against an artist.
type ManualAdjustmentRequest struct {
	ArtistProfileID string          `json:"artistProfileID"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency" binding:"omitempty,len=3"`
	Category        string          `json:"category" binding:"required"`
	Description     string          `json:"description" binding:"required,max=1000"`
	Reference       string          `json:"reference" binding:"max=255"`
	PaymentMethod   string          `json:"paymentMethod" binding:"max=64"`
}

// ManualAdjustmentResult is the outcome of a manual adjustment.
type ManualAdjustmentResult struct {
	Entry          domain.LedgerEntry `json:"entry"`
	Payment        *domain.Payment    `json:"payment,omitempty"`
	CurrentBalance decimal.Decimal    `json:"currentBalance"`
	Currency       string             `json:"currency"`
}

// ExecutePendingRequest selects how many pending payments a batch run picks up.
type ExecutePendingRequest struct {
	Limit  int  `json:"limit" binding:"omitempty,min=1,max=100"`
	DryRun bool `json:"dryRun"`
}

// ExecuteOutcome is what a batch run did with one payment.
type ExecuteOutcome string

const (
	OutcomeCompleted ExecuteOutcome = "completed"
	OutcomeFailed    ExecuteOutcome = "failed"
	OutcomeUnknown   ExecuteOutcome = "unknown_outcome"
	OutcomeBlocked   ExecuteOutcome = "blocked"
	OutcomeReady     ExecuteOutcome = "ready"
	OutcomeError     ExecuteOutcome = "error"
)

// ExecutePendingItem reports one payment of a batch run.
type ExecutePendingItem struct {
	PaymentID         string          `json:"paymentID"`
	ArtistProfileID   string          `json:"artistProfileID"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Outcome           ExecuteOutcome  `json:"outcome"`
	Reason            string          `json:"reason,omitempty"`
	TransferReference *string         `json:"transferReference,omitempty"`
}

// ExecutePendingResult summarizes a batch run over pending payments.
type ExecutePendingResult struct {
	DryRun    bool                 `json:"dryRun"`
	Processed int                  `json:"processed"`
	Completed int                  `json:"completed"`
	Failed    int                  `json:"failed"`
	Blocked   int                  `json:"blocked"`
	Payments  []ExecutePendingItem `json:"payments"`
}

// Add records item and updates the counters.
func (r *ExecutePendingResult) Add(item ExecutePendingItem) {
	r.Processed++
	switch item.Outcome {
	case OutcomeCompleted:
		r.Completed++
	case OutcomeFailed, OutcomeError, OutcomeUnknown:
		r.Failed++
	case OutcomeBlocked:
		r.Blocked++
	}
	r.Payments = append(r.Payments, item)
}

// ListPaymentsParams defines query parameters for listing payments.
type ListPaymentsParams struct {
	ArtistProfileID string  `form:"artistProfileID"`
	Status          string  `form:"status" binding:"omitempty,oneof=pending processing completed failed manual"`
	Currency        string  `form:"currency" binding:"omitempty,len=3"`
	Limit           int     `form:"limit" binding:"omitempty,min=1,max=200"`
	NextToken       *string `form:"nextToken"`
}

// PaymentStatsParams defines query parameters for payment statistics.
type PaymentStatsParams struct {
	ArtistProfileID string `form:"artistProfileID"`
	Currency        string `form:"currency" binding:"omitempty,len=3"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID         string                  `json:"paymentID"`
	ArtistProfileID   string                  `json:"artistProfileID"`
	Amount            decimal.Decimal         `json:"amount"`
	Currency          string                  `json:"currency"`
	Status            string                  `json:"status"`
	Description       string                  `json:"description,omitempty"`
	TransferReference *string                 `json:"transferReference,omitempty"`
	FailureReason     *string                 `json:"failureReason,omitempty"`
	LedgerEntryID     *string                 `json:"ledgerEntryID,omitempty"`
	Transfer          *domain.PaymentTransfer `json:"transfer,omitempty"`
	CreatedAt         time.Time               `json:"createdAt"`
	CreatedBy         string                  `json:"createdBy"`
	LastUpdatedAt     time.Time               `json:"lastUpdatedAt"`
	CompletedAt       *time.Time              `json:"completedAt,omitempty"`
	FailedAt          *time.Time              `json:"failedAt,omitempty"`
}

// ListPaymentsResponse defines a page of payments.
type ListPaymentsResponse struct {
	Payments  []PaymentResponse `json:"payments"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToPaymentResponse converts a domain.Payment to PaymentResponse DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:         p.PaymentID,
		ArtistProfileID:   p.ArtistProfileID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Status:            string(p.Status),
		Description:       p.Description,
		TransferReference: p.TransferReference,
		FailureReason:     p.FailureReason,
		LedgerEntryID:     p.LedgerEntryID,
		Transfer:          p.Transfer,
		CreatedAt:         p.CreatedAt,
		CreatedBy:         p.CreatedBy,
		LastUpdatedAt:     p.LastUpdatedAt,
		CompletedAt:       p.CompletedAt,
		FailedAt:          p.FailedAt,
	}
}

// ToPaymentResponses converts a slice of domain.Payment to []PaymentResponse.
func ToPaymentResponses(payments []domain.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses
}
