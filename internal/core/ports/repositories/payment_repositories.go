package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
)

// PaymentReader defines read operations for payment data
type PaymentReader interface {
	// FindPaymentByID retrieves a specific payment.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// FindPaymentsByProfileIDs retrieves every payment of the given profiles.
	FindPaymentsByProfileIDs(ctx context.Context, profileIDs []string) ([]domain.Payment, error)

	// ListPayments retrieves a page of payments, newest first, using token-based pagination.
	// It returns the payments, a token for the next page, and an error.
	ListPayments(ctx context.Context, filter domain.PaymentFilter, limit int, nextToken *string) ([]domain.Payment, *string, error)

	// PaymentStats aggregates payments by status and currency.
	PaymentStats(ctx context.Context, filter domain.PaymentFilter) ([]domain.PaymentStatRow, error)
}

// PaymentWriter defines write operations for payment data. Every method serializes on the
// per-artist lock, taken on the canonical profile the payment's artist profile resolves to.
type PaymentWriter interface {
	// CreatePayment inserts a pending payment. It fails with apperrors.ErrConflict when an
	// in-flight payment with the same artist, amount and currency was created at or after
	// duplicateSince, and with apperrors.ErrValidation when the payment exceeds what the
	// allowance leaves available once re-read under the lock.
	CreatePayment(ctx context.Context, payment domain.Payment, duplicateSince time.Time, allowance domain.PaymentAllowance) error

	// BeginPayment moves a pending payment to processing. It fails with apperrors.ErrConflict
	// when the payment is no longer pending or another payment is processing for the canonical
	// profile or any profile superseded into it.
	BeginPayment(ctx context.Context, paymentID string, actorID string, at time.Time) (*domain.Payment, error)

	// CompletePayment moves a processing payment to completed and appends its debit entry in
	// one transaction. The returned bool is false when the payment was already completed with
	// the same transfer reference and nothing changed.
	CompletePayment(ctx context.Context, paymentID string, transferReference string, debit domain.LedgerEntry, actorID string, at time.Time) (*domain.Payment, bool, error)

	// FailPayment moves a processing payment to failed. The returned bool is false when the
	// payment had already failed and nothing changed.
	FailPayment(ctx context.Context, paymentID string, reason string, actorID string, at time.Time) (*domain.Payment, bool, error)

	// RecordTransfer stores how a processing payment is being executed on the transfer rail.
	// A plan already stored is kept; the returned plan is the one in effect.
	RecordTransfer(ctx context.Context, paymentID string, transfer domain.PaymentTransfer, actorID string, at time.Time) (*domain.PaymentTransfer, error)
}

// PaymentRepositoryFacade combines all payment-related repository interfaces
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
