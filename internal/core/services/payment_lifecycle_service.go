package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsgw "github.com/SscSPs/artist_ledger_app/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/dto"
	"github.com/SscSPs/artist_ledger_app/internal/metrics"
	"github.com/SscSPs/artist_ledger_app/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultPaymentPageSize = 50

// PaymentSettings are the ledger rules applied by the payment lifecycle.
type PaymentSettings struct {
	SettlementCurrency string
	DuplicateWindow    time.Duration
	AllowEstimates     bool
	TransferTimeout    time.Duration
}

type paymentLifecycleService struct {
	BaseService
	profiles portsrepo.ArtistProfileReader
	ledger   portsrepo.LedgerWriter
	payments portsrepo.PaymentRepositoryFacade
	balance  portssvc.BalanceReaderSvc
	fx       portssvc.PayoutFXSvc
	rail     portsgw.TransferRail
	settings PaymentSettings
}

// NewPaymentLifecycleService creates the payment service. rail may be nil, in which case
// Execute is unavailable and payments are completed by hand.
func NewPaymentLifecycleService(
	repos portsrepo.RepositoryProvider,
	balance portssvc.BalanceReaderSvc,
	fx portssvc.PayoutFXSvc,
	rail portsgw.TransferRail,
	settings PaymentSettings,
	options ...ServiceOption,
) portssvc.PaymentSvcFacade {
	settings.SettlementCurrency = domain.NormalizeCurrency(settings.SettlementCurrency)
	if settings.DuplicateWindow <= 0 {
		settings.DuplicateWindow = 10 * time.Minute
	}
	if settings.TransferTimeout <= 0 {
		settings.TransferTimeout = 30 * time.Second
	}
	svc := &paymentLifecycleService{
		profiles: repos.IdentityRepo,
		ledger:   repos.LedgerRepo,
		payments: repos.PaymentRepo,
		balance:  balance,
		fx:       fx,
		rail:     rail,
		settings: settings,
	}
	applyBaseOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.PaymentSvcFacade = (*paymentLifecycleService)(nil)

func (s *paymentLifecycleService) Create(ctx context.Context, actor domain.Actor, req dto.CreatePaymentRequest) (*domain.Payment, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelAdmin); err != nil {
		return nil, err
	}
	currency := domain.NormalizeCurrency(req.Currency)
	if !domain.ValidCurrency(currency) {
		return nil, fmt.Errorf("%w: invalid currency %q", apperrors.ErrValidation, req.Currency)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}
	if domain.HasSubMinorPrecision(req.Amount, currency) {
		return nil, fmt.Errorf("%w: amount %s has more precision than %s allows", apperrors.ErrValidation, req.Amount, currency)
	}

	profile, err := s.canonicalProfile(ctx, req.ArtistProfileID)
	if err != nil {
		return nil, err
	}

	available, allowance, err := s.availableBalance(ctx, actor, profile.ProfileID, currency)
	if err != nil {
		return nil, err
	}
	if req.Amount.GreaterThan(available) {
		return nil, fmt.Errorf("%w: payment of %s %s exceeds the outstanding balance of %s %s",
			apperrors.ErrValidation, req.Amount, currency, available, currency)
	}

	now := s.Now()
	payment := domain.Payment{
		PaymentID:       uuid.NewString(),
		ArtistProfileID: profile.ProfileID,
		Amount:          req.Amount,
		Currency:        currency,
		Status:          domain.PaymentPending,
		Description:     strings.TrimSpace(req.Description),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}
	if err := s.payments.CreatePayment(ctx, payment, now.Add(-s.settings.DuplicateWindow), allowance); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			metrics.PaymentConflicts.WithLabelValues("overdraw").Inc()
			s.LogWarn(ctx, "Payment refused under the artist lock",
				slog.String("artist_profile_id", profile.ProfileID),
				slog.String("error", err.Error()))
			return nil, err
		}
		if errors.Is(err, apperrors.ErrConflict) {
			metrics.PaymentConflicts.WithLabelValues("duplicate").Inc()
			s.LogWarn(ctx, "Duplicate payment refused",
				slog.String("artist_profile_id", profile.ProfileID),
				slog.String("amount", req.Amount.String()),
				slog.String("currency", currency))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to create payment", slog.String("artist_profile_id", profile.ProfileID))
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	metrics.PaymentTransitions.WithLabelValues("new", string(domain.PaymentPending)).Inc()
	s.LogInfo(ctx, "Payment created",
		slog.String("payment_id", payment.PaymentID),
		slog.String("artist_profile_id", profile.ProfileID),
		slog.String("amount", payment.Amount.String()),
		slog.String("currency", currency))
	return &payment, nil
}

// availableBalance is the outstanding balance less payments still in flight. The returned
// allowance lets the store repeat the check under the artist lock.
func (s *paymentLifecycleService) availableBalance(ctx context.Context, actor domain.Actor, profileID, currency string) (decimal.Decimal, domain.PaymentAllowance, error) {
	allowance := domain.PaymentAllowance{SalesEarned: decimal.Zero}
	balance, err := s.balance.GetBalance(ctx, actor, profileID)
	if err != nil {
		return decimal.Zero, allowance, fmt.Errorf("failed to compute balance: %w", err)
	}
	if balance.Partial() {
		return decimal.Zero, allowance, fmt.Errorf("%w: balance of %s could not be fully computed, retry later", apperrors.ErrConflict, profileID)
	}
	available := balance.BalanceIn(currency)
	allowance.ProfileIDs = balance.ProfileIDs()
	for _, c := range balance.Currencies {
		if c.Currency == currency {
			allowance.SalesEarned = c.SalesEarned
		}
	}

	inFlight, err := s.payments.FindPaymentsByProfileIDs(ctx, allowance.ProfileIDs)
	if err != nil {
		return decimal.Zero, allowance, fmt.Errorf("failed to load in-flight payments: %w", err)
	}
	for _, p := range inFlight {
		if p.Status.IsInFlight() && p.Currency == currency {
			available = available.Sub(p.Amount)
		}
	}
	return available, allowance, nil
}

func (s *paymentLifecycleService) Begin(ctx context.Context, actor domain.Actor, paymentID string) (*domain.Payment, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelAdmin); err != nil {
		return nil, err
	}
	return s.begin(ctx, actor, paymentID)
}

func (s *paymentLifecycleService) begin(ctx context.Context, actor domain.Actor, paymentID string) (*domain.Payment, error) {
	p, err := s.payments.BeginPayment(ctx, paymentID, actor.UserID, s.Now())
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			metrics.PaymentConflicts.WithLabelValues("begin").Inc()
			s.LogWarn(ctx, "Payment could not begin", slog.String("payment_id", paymentID), slog.String("error", err.Error()))
		}
		return nil, err
	}
	metrics.PaymentTransitions.WithLabelValues(string(domain.PaymentPending), string(domain.PaymentProcessing)).Inc()
	s.LogInfo(ctx, "Payment processing", slog.String("payment_id", paymentID), slog.String("artist_profile_id", p.ArtistProfileID))
	return p, nil
}

func (s *paymentLifecycleService) Complete(ctx context.Context, actor domain.Actor, paymentID string, transferReference string) (*domain.Payment, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelAdmin); err != nil {
		return nil, err
	}
	return s.complete(ctx, actor, paymentID, transferReference)
}

func (s *paymentLifecycleService) complete(ctx context.Context, actor domain.Actor, paymentID string, transferReference string) (*domain.Payment, error) {
	ref := strings.TrimSpace(transferReference)
	if ref == "" {
		return nil, fmt.Errorf("%w: transfer reference is required", apperrors.ErrValidation)
	}

	existing, err := s.payments.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	switch existing.Status {
	case domain.PaymentCompleted:
		if existing.TransferReference != nil && *existing.TransferReference == ref {
			return existing, nil
		}
		metrics.PaymentConflicts.WithLabelValues("complete").Inc()
		return nil, fmt.Errorf("%w: payment %s was already completed with a different transfer reference", apperrors.ErrConflict, paymentID)
	case domain.PaymentProcessing:
	default:
		metrics.PaymentConflicts.WithLabelValues("complete").Inc()
		return nil, fmt.Errorf("%w: payment %s is %s, not processing", apperrors.ErrConflict, paymentID, existing.Status)
	}

	now := s.Now()
	debit := domain.LedgerEntry{
		EntryID:         uuid.NewString(),
		ArtistProfileID: existing.ArtistProfileID,
		Amount:          existing.Amount.Neg(),
		Currency:        existing.Currency,
		Category:        domain.CategoryPayment,
		Description:     paymentEntryDescription(existing),
		Reference:       ref,
		PaymentMethod:   "transfer",
		PaymentID:       &existing.PaymentID,
		CreatedBy:       actor.UserID,
		CreatedAt:       now,
	}
	p, changed, err := s.payments.CompletePayment(ctx, paymentID, ref, debit, actor.UserID, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			metrics.PaymentConflicts.WithLabelValues("complete").Inc()
		} else {
			s.LogError(ctx, err, "Failed to complete payment", slog.String("payment_id", paymentID))
		}
		return nil, err
	}
	if changed {
		metrics.PaymentTransitions.WithLabelValues(string(domain.PaymentProcessing), string(domain.PaymentCompleted)).Inc()
		s.LogInfo(ctx, "Payment completed",
			slog.String("payment_id", paymentID),
			slog.String("transfer_reference", ref),
			slog.String("ledger_entry_id", debit.EntryID))
	}
	return p, nil
}

func paymentEntryDescription(p *domain.Payment) string {
	if p.Description != "" {
		return "Payment: " + p.Description
	}
	return fmt.Sprintf("Payment of %s %s", p.Amount.StringFixed(domain.CurrencyExponent(p.Currency)), p.Currency)
}

func (s *paymentLifecycleService) Fail(ctx context.Context, actor domain.Actor, paymentID string, reason string) (*domain.Payment, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelAdmin); err != nil {
		return nil, err
	}
	return s.fail(ctx, actor, paymentID, reason)
}

func (s *paymentLifecycleService) fail(ctx context.Context, actor domain.Actor, paymentID string, reason string) (*domain.Payment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: failure reason is required", apperrors.ErrValidation)
	}
	existing, err := s.payments.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	switch existing.Status {
	case domain.PaymentFailed:
		return existing, nil
	case domain.PaymentProcessing:
	default:
		metrics.PaymentConflicts.WithLabelValues("fail").Inc()
		return nil, fmt.Errorf("%w: payment %s is %s, not processing", apperrors.ErrConflict, paymentID, existing.Status)
	}

	p, changed, err := s.payments.FailPayment(ctx, paymentID, reason, actor.UserID, s.Now())
	if err != nil {
		return nil, err
	}
	if changed {
		metrics.PaymentTransitions.WithLabelValues(string(domain.PaymentProcessing), string(domain.PaymentFailed)).Inc()
		s.LogWarn(ctx, "Payment failed", slog.String("payment_id", paymentID), slog.String("reason", reason))
	}
	return p, nil
}

func (s *paymentLifecycleService) RecordManual(ctx context.Context, actor domain.Actor, req dto.ManualAdjustmentRequest) (*dto.ManualAdjustmentResult, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelAdmin); err != nil {
		return nil, err
	}
	category := domain.LedgerCategory(strings.ToLower(strings.TrimSpace(req.Category)))
	if !category.IsManual() {
		return nil, fmt.Errorf("%w: category %q cannot be recorded manually", apperrors.ErrValidation, req.Category)
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	if req.Amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must not be zero", apperrors.ErrValidation)
	}
	currency := s.settings.SettlementCurrency
	if req.Currency != "" {
		currency = domain.NormalizeCurrency(req.Currency)
	}
	if !domain.ValidCurrency(currency) {
		return nil, fmt.Errorf("%w: invalid currency %q", apperrors.ErrValidation, req.Currency)
	}
	if domain.HasSubMinorPrecision(req.Amount, currency) {
		return nil, fmt.Errorf("%w: amount %s has more precision than %s allows", apperrors.ErrValidation, req.Amount, currency)
	}
	if category == domain.CategoryPayment && req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: a payment entry must be a debit (negative amount)", apperrors.ErrValidation)
	}

	profile, err := s.canonicalProfile(ctx, req.ArtistProfileID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	entry := domain.LedgerEntry{
		EntryID:         uuid.NewString(),
		ArtistProfileID: profile.ProfileID,
		Amount:          req.Amount,
		Currency:        currency,
		Category:        category,
		Description:     description,
		Reference:       strings.TrimSpace(req.Reference),
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		CreatedBy:       actor.UserID,
		CreatedAt:       now,
	}

	var payment *domain.Payment
	if category == domain.CategoryPayment {
		paymentID := uuid.NewString()
		entry.PaymentID = &paymentID
		payment = &domain.Payment{
			PaymentID:       paymentID,
			ArtistProfileID: profile.ProfileID,
			Amount:          req.Amount.Abs(),
			Currency:        currency,
			Status:          domain.PaymentManual,
			Description:     description,
			LedgerEntryID:   &entry.EntryID,
			CompletedAt:     &now,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actor.UserID,
				LastUpdatedAt: now,
				LastUpdatedBy: actor.UserID,
			},
		}
		if entry.Reference != "" {
			ref := entry.Reference
			payment.TransferReference = &ref
		}
	}

	if err := s.ledger.RecordManualEntry(ctx, entry, payment); err != nil {
		s.LogError(ctx, err, "Failed to record manual adjustment", slog.String("artist_profile_id", profile.ProfileID))
		return nil, fmt.Errorf("failed to record manual adjustment: %w", err)
	}
	if payment != nil {
		metrics.PaymentTransitions.WithLabelValues("new", string(domain.PaymentManual)).Inc()
	}
	s.LogInfo(ctx, "Manual adjustment recorded",
		slog.String("entry_id", entry.EntryID),
		slog.String("artist_profile_id", profile.ProfileID),
		slog.String("category", string(category)),
		slog.String("amount", entry.Amount.String()),
		slog.String("currency", currency))

	result := &dto.ManualAdjustmentResult{Entry: entry, Payment: payment, Currency: currency, CurrentBalance: decimal.Zero}
	balance, err := s.balance.GetBalance(ctx, actor, profile.ProfileID)
	if err != nil {
		// The entry is stored; only the echo of the new balance is missing.
		s.LogError(ctx, err, "Failed to compute balance after manual adjustment", slog.String("artist_profile_id", profile.ProfileID))
		return result, nil
	}
	result.CurrentBalance = balance.BalanceIn(currency)
	return result, nil
}

// Execute pays out a pending payment on the transfer rail. A payment left processing by an
// earlier call with an unknown outcome is resumed with the same idempotency key and the same
// recorded transfer plan. The plan is recorded before the rail is called.
func (s *paymentLifecycleService) Execute(ctx context.Context, actor domain.Actor, paymentID string) (*domain.Payment, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelAdmin); err != nil {
		return nil, err
	}
	if s.rail == nil {
		return nil, fmt.Errorf("%w: no transfer rail configured", apperrors.ErrExternalService)
	}
	logger := s.GetLogger(ctx).With(slog.String("payment_id", paymentID))

	p, err := s.payments.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case domain.PaymentCompleted:
		return p, nil
	case domain.PaymentPending, domain.PaymentProcessing:
	default:
		return nil, fmt.Errorf("%w: payment %s is %s and cannot be executed", apperrors.ErrConflict, paymentID, p.Status)
	}

	account, err := s.payoutAccount(ctx, p.ArtistProfileID)
	if err != nil {
		return nil, err
	}

	transfer := p.Transfer
	if transfer == nil {
		if transfer, err = s.planTransfer(ctx, p, account.AccountID); err != nil {
			return nil, err
		}
	}

	begun := false
	if p.Status == domain.PaymentPending {
		if p, err = s.begin(ctx, actor, paymentID); err != nil {
			return nil, err
		}
		begun = true
	}
	if p.Transfer == nil {
		// A plan stored by a concurrent call is returned in place of ours.
		stored, err := s.payments.RecordTransfer(ctx, paymentID, *transfer, actor.UserID, s.Now())
		if err != nil {
			logger.Error("Failed to record transfer plan", slog.String("error", err.Error()))
			if begun {
				return s.failBeforeTransfer(ctx, actor, p, fmt.Sprintf("could not record transfer plan: %v", err))
			}
			return nil, fmt.Errorf("failed to record transfer plan for payment %s: %w", paymentID, err)
		}
		p.Transfer = stored
	}
	transfer = p.Transfer

	tctx, cancel := context.WithTimeout(ctx, s.settings.TransferTimeout)
	defer cancel()
	ref, err := s.rail.CreateTransfer(tctx, portsgw.TransferRequest{
		DestinationAccountID: transfer.DestinationID,
		Amount:               transfer.SourceAmount,
		Currency:             transfer.SourceCurrency,
		IdempotencyKey:       p.PaymentID,
		Description:          paymentEntryDescription(p),
		Metadata: map[string]string{
			"payment_id":        p.PaymentID,
			"artist_profile_id": p.ArtistProfileID,
			"payout_amount":     p.Amount.String(),
			"payout_currency":   p.Currency,
		},
	})
	switch {
	case err == nil:
		return s.complete(ctx, actor, paymentID, ref)
	case errors.Is(err, portsgw.ErrTransferRejected):
		logger.Warn("Transfer rejected by rail", slog.String("error", err.Error()))
		return s.fail(ctx, actor, paymentID, fmt.Sprintf("transfer rejected: %v", err))
	case errors.Is(err, context.DeadlineExceeded) || tctx.Err() != nil:
		logger.Error("Transfer timed out; outcome unknown", slog.String("error", err.Error()))
		return p, fmt.Errorf("%w: %w: transfer for payment %s timed out; check the transfer rail before retrying",
			apperrors.ErrExternalService, apperrors.ErrUnknownOutcome, paymentID)
	default:
		logger.Error("Transfer failed; outcome unknown", slog.String("error", err.Error()))
		return p, fmt.Errorf("%w: %w: transfer for payment %s: %v; check the transfer rail before retrying",
			apperrors.ErrExternalService, apperrors.ErrUnknownOutcome, paymentID, err)
	}
}

func (s *paymentLifecycleService) payoutAccount(ctx context.Context, profileID string) (*portsgw.PayoutAccount, error) {
	profile, err := s.profiles.FindProfileByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.PayoutAccountID == nil || *profile.PayoutAccountID == "" {
		return nil, fmt.Errorf("%w: artist profile %s has no payout account", apperrors.ErrValidation, profileID)
	}
	account, err := s.rail.GetAccount(ctx, *profile.PayoutAccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: payout account %s not found on the transfer rail", apperrors.ErrValidation, *profile.PayoutAccountID)
		}
		return nil, fmt.Errorf("%w: payout account lookup: %v", apperrors.ErrExternalService, err)
	}
	if !account.PayoutsEnabled {
		return nil, fmt.Errorf("%w: payouts are not enabled for account %s", apperrors.ErrValidation, account.AccountID)
	}
	return account, nil
}

// planTransfer works out what the rail must send to deliver the payment amount.
func (s *paymentLifecycleService) planTransfer(ctx context.Context, p *domain.Payment, destination string) (*domain.PaymentTransfer, error) {
	settlement := s.settings.SettlementCurrency
	if p.Currency == settlement {
		return &domain.PaymentTransfer{
			SourceAmount:   p.Amount,
			SourceCurrency: settlement,
			DestinationID:  destination,
		}, nil
	}

	conversion, err := s.convert(ctx, p)
	if err != nil {
		return nil, err
	}
	rate := conversion.Rate
	transfer := &domain.PaymentTransfer{
		SourceAmount:   conversion.SourceAmount,
		SourceCurrency: conversion.SourceCurrency,
		Rate:           &rate,
		Estimated:      conversion.IsEstimate(),
		DestinationID:  destination,
	}
	if conversion.Quote != nil {
		transfer.QuoteID = conversion.Quote.QuoteID
	}
	return transfer, nil
}

// convert returns a conversion usable right now, re-quoting once if the first quote expired.
func (s *paymentLifecycleService) convert(ctx context.Context, p *domain.Payment) (*domain.ConversionResult, error) {
	if s.fx == nil {
		return nil, fmt.Errorf("%w: payment %s needs currency conversion but no fx calculator is configured", apperrors.ErrExternalService, p.PaymentID)
	}
	for attempt := 0; attempt < 2; attempt++ {
		conversion, err := s.fx.QuoteAndConvert(ctx, p.Amount, p.Currency, s.settings.SettlementCurrency)
		if err != nil {
			return nil, err
		}
		_, err = conversion.LockedQuote(s.Now())
		switch {
		case err == nil:
			return conversion, nil
		case errors.Is(err, domain.ErrEstimateNotLocked):
			if s.settings.AllowEstimates {
				s.LogWarn(ctx, "Executing payment on an estimated fx rate", slog.String("payment_id", p.PaymentID))
				return conversion, nil
			}
			return nil, fmt.Errorf("%w: only an estimated fx rate is available for %s; estimates are not allowed for payouts", apperrors.ErrExternalService, p.Currency)
		case errors.Is(err, domain.ErrQuoteExpired):
			s.LogWarn(ctx, "FX quote expired before use, re-quoting", slog.String("payment_id", p.PaymentID))
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: fx quote for payment %s expired twice; re-quote", apperrors.ErrExternalService, p.PaymentID)
}

// failBeforeTransfer fails a processing payment for which no transfer was submitted.
func (s *paymentLifecycleService) failBeforeTransfer(ctx context.Context, actor domain.Actor, p *domain.Payment, reason string) (*domain.Payment, error) {
	failed, err := s.fail(ctx, actor, p.PaymentID, reason)
	if err != nil {
		return nil, err
	}
	return failed, fmt.Errorf("%w: %s", apperrors.ErrInternal, reason)
}

// canonicalProfile loads a profile and refuses superseded ones, naming the canonical profile.
func (s *paymentLifecycleService) canonicalProfile(ctx context.Context, profileID string) (*domain.ArtistProfile, error) {
	if strings.TrimSpace(profileID) == "" {
		return nil, fmt.Errorf("%w: artist profile id is required", apperrors.ErrValidation)
	}
	profile, err := s.profiles.FindProfileByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !profile.IsSuperseded() {
		return profile, nil
	}
	canonical, _, err := newCanonicalResolver(s.profiles).resolve(ctx, *profile)
	if err != nil {
		return nil, fmt.Errorf("%w: artist profile %s is superseded", apperrors.ErrValidation, profileID)
	}
	return nil, fmt.Errorf("%w: artist profile %s is superseded by %s; use the canonical profile", apperrors.ErrValidation, profileID, canonical.ProfileID)
}

func (s *paymentLifecycleService) GetPayment(ctx context.Context, actor domain.Actor, paymentID string) (*domain.Payment, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelViewer); err != nil {
		return nil, err
	}
	return s.payments.FindPaymentByID(ctx, paymentID)
}

func (s *paymentLifecycleService) ListPayments(ctx context.Context, actor domain.Actor, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelViewer); err != nil {
		return nil, err
	}
	filter, err := paymentFilter(params.ArtistProfileID, params.Status, params.Currency)
	if err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPaymentPageSize
	}
	if params.NextToken != nil && *params.NextToken != "" {
		if _, _, err := pagination.DecodeToken(*params.NextToken); err != nil {
			return nil, fmt.Errorf("%w: invalid next token: %v", apperrors.ErrValidation, err)
		}
	}

	payments, next, err := s.payments.ListPayments(ctx, filter, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list payments")
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return &dto.ListPaymentsResponse{Payments: dto.ToPaymentResponses(payments), NextToken: next}, nil
}

func (s *paymentLifecycleService) Stats(ctx context.Context, actor domain.Actor, params dto.PaymentStatsParams) ([]domain.PaymentStatRow, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelViewer); err != nil {
		return nil, err
	}
	filter, err := paymentFilter(params.ArtistProfileID, "", params.Currency)
	if err != nil {
		return nil, err
	}
	return s.payments.PaymentStats(ctx, filter)
}

func paymentFilter(profileID, status, currency string) (domain.PaymentFilter, error) {
	var filter domain.PaymentFilter
	if profileID != "" {
		filter.ArtistProfileID = &profileID
	}
	if status != "" {
		if !domain.ValidPaymentStatus(status) {
			return filter, fmt.Errorf("%w: unknown payment status %q", apperrors.ErrValidation, status)
		}
		st := domain.PaymentStatus(status)
		filter.Status = &st
	}
	if currency != "" {
		c := domain.NormalizeCurrency(currency)
		if !domain.ValidCurrency(c) {
			return filter, fmt.Errorf("%w: invalid currency %q", apperrors.ErrValidation, currency)
		}
		filter.Currency = &c
	}
	return filter, nil
}
