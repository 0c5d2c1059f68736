package services

import (
	"context"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/SscSPs/artist_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
)

// BalanceReaderSvc computes what an artist is owed.
type BalanceReaderSvc interface {
	// GetBalance computes the outstanding balance across the artist's merged identity set.
	GetBalance(ctx context.Context, actor domain.Actor, profileID string) (*domain.BalanceResult, error)
}

// StatementSvc produces the chronological account history of an artist.
type StatementSvc interface {
	GetStatement(ctx context.Context, actor domain.Actor, profileID string) (*domain.Statement, error)
}

// BalanceSvcFacade combines balance and statement operations
type BalanceSvcFacade interface {
	BalanceReaderSvc
	StatementSvc
}

// PaymentWriterSvc drives payments through their lifecycle.
type PaymentWriterSvc interface {
	Create(ctx context.Context, actor domain.Actor, req dto.CreatePaymentRequest) (*domain.Payment, error)
	Begin(ctx context.Context, actor domain.Actor, paymentID string) (*domain.Payment, error)
	Complete(ctx context.Context, actor domain.Actor, paymentID string, transferReference string) (*domain.Payment, error)
	Fail(ctx context.Context, actor domain.Actor, paymentID string, reason string) (*domain.Payment, error)
	RecordManual(ctx context.Context, actor domain.Actor, req dto.ManualAdjustmentRequest) (*dto.ManualAdjustmentResult, error)
	Execute(ctx context.Context, actor domain.Actor, paymentID string) (*domain.Payment, error)
	// ExecutePending runs Execute over up to limit pending payments, oldest first. With dryRun
	// nothing moves and each payment is reported as ready or blocked.
	ExecutePending(ctx context.Context, actor domain.Actor, limit int, dryRun bool) (*dto.ExecutePendingResult, error)
}

// PaymentReaderSvc exposes payment history.
type PaymentReaderSvc interface {
	GetPayment(ctx context.Context, actor domain.Actor, paymentID string) (*domain.Payment, error)
	ListPayments(ctx context.Context, actor domain.Actor, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error)
	Stats(ctx context.Context, actor domain.Actor, params dto.PaymentStatsParams) ([]domain.PaymentStatRow, error)
}

// PaymentSvcFacade combines all payment-related service interfaces
type PaymentSvcFacade interface {
	PaymentWriterSvc
	PaymentReaderSvc
}

// PayoutFXSvc converts payout amounts between currencies.
type PayoutFXSvc interface {
	// QuoteAndConvert returns the source amount needed to deliver targetAmount in targetCurrency.
	QuoteAndConvert(ctx context.Context, targetAmount decimal.Decimal, targetCurrency, sourceCurrency string) (*domain.ConversionResult, error)
}
