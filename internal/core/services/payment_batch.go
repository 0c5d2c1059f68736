package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/SscSPs/artist_ledger_app/internal/dto"
)

const (
	defaultBatchSize = 10
	maxBatchSize     = 100
)

// ExecutePending pays out up to limit pending payments, oldest first. A payment whose artist
// has no usable payout account, or already has a payment processing, is reported as blocked
// and left pending. One payment's outcome never stops the batch.
func (s *paymentLifecycleService) ExecutePending(ctx context.Context, actor domain.Actor, limit int, dryRun bool) (*dto.ExecutePendingResult, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelAdmin); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultBatchSize
	case limit > maxBatchSize:
		return nil, fmt.Errorf("%w: limit must be at most %d", apperrors.ErrValidation, maxBatchSize)
	}
	if s.rail == nil {
		return nil, fmt.Errorf("%w: no transfer rail configured", apperrors.ErrExternalService)
	}

	pending, err := s.pendingOldestFirst(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) > limit {
		pending = pending[:limit]
	}

	result := &dto.ExecutePendingResult{DryRun: dryRun, Payments: []dto.ExecutePendingItem{}}
	for _, p := range pending {
		if ctx.Err() != nil {
			break
		}
		result.Add(s.executeOne(ctx, actor, p, dryRun))
	}

	s.LogInfo(ctx, "Pending payments run finished",
		slog.Bool("dry_run", dryRun),
		slog.Int("processed", result.Processed),
		slog.Int("completed", result.Completed),
		slog.Int("failed", result.Failed),
		slog.Int("blocked", result.Blocked))
	return result, nil
}

func (s *paymentLifecycleService) executeOne(ctx context.Context, actor domain.Actor, p domain.Payment, dryRun bool) dto.ExecutePendingItem {
	item := dto.ExecutePendingItem{
		PaymentID:       p.PaymentID,
		ArtistProfileID: p.ArtistProfileID,
		Amount:          p.Amount,
		Currency:        p.Currency,
	}

	reason, err := s.blockedReason(ctx, p)
	if err != nil {
		item.Outcome, item.Reason = dto.OutcomeError, err.Error()
		return item
	}
	if reason != "" {
		item.Outcome, item.Reason = dto.OutcomeBlocked, reason
		return item
	}
	if dryRun {
		item.Outcome = dto.OutcomeReady
		return item
	}

	done, err := s.Execute(ctx, actor, p.PaymentID)
	switch {
	case err == nil && done.Status == domain.PaymentCompleted:
		item.Outcome, item.TransferReference = dto.OutcomeCompleted, done.TransferReference
	case done != nil && done.Status == domain.PaymentFailed:
		item.Outcome = dto.OutcomeFailed
		if done.FailureReason != nil {
			item.Reason = *done.FailureReason
		}
	case err == nil:
		item.Outcome, item.Reason = dto.OutcomeError, fmt.Sprintf("payment ended %s", done.Status)
	case errors.Is(err, apperrors.ErrUnknownOutcome):
		item.Outcome, item.Reason = dto.OutcomeUnknown, err.Error()
	case errors.Is(err, apperrors.ErrConflict):
		item.Outcome, item.Reason = dto.OutcomeBlocked, err.Error()
	default:
		item.Outcome, item.Reason = dto.OutcomeError, err.Error()
	}
	return item
}

// blockedReason explains why p cannot be executed now, or returns "" when it can.
func (s *paymentLifecycleService) blockedReason(ctx context.Context, p domain.Payment) (string, error) {
	if _, err := s.payoutAccount(ctx, p.ArtistProfileID); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return err.Error(), nil
		}
		return "", err
	}

	scope, err := s.artistScope(ctx, p.ArtistProfileID)
	if err != nil {
		return "", err
	}
	payments, err := s.payments.FindPaymentsByProfileIDs(ctx, scope)
	if err != nil {
		return "", fmt.Errorf("failed to load payments of artist %s: %w", p.ArtistProfileID, err)
	}
	for _, other := range payments {
		if other.Status == domain.PaymentProcessing {
			return fmt.Sprintf("payment %s of the same artist is already processing", other.PaymentID), nil
		}
	}
	return "", nil
}

// artistScope returns the canonical profile profileID resolves to, followed by every profile
// superseded into it.
func (s *paymentLifecycleService) artistScope(ctx context.Context, profileID string) ([]string, error) {
	canonical := profileID
	seen := map[string]bool{}
	for !seen[canonical] {
		seen[canonical] = true
		profile, err := s.profiles.FindProfileByID(ctx, canonical)
		if err != nil {
			return nil, err
		}
		if profile.SupersededBy == nil {
			break
		}
		canonical = *profile.SupersededBy
	}

	scope := []string{canonical}
	inScope := map[string]bool{canonical: true}
	for frontier := []string{canonical}; len(frontier) > 0; {
		children, err := s.profiles.FindProfilesSupersededBy(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = nil
		for _, child := range children {
			if !inScope[child.ProfileID] {
				inScope[child.ProfileID] = true
				scope = append(scope, child.ProfileID)
				frontier = append(frontier, child.ProfileID)
			}
		}
	}
	return scope, nil
}

func (s *paymentLifecycleService) pendingOldestFirst(ctx context.Context) ([]domain.Payment, error) {
	status := domain.PaymentPending
	filter := domain.PaymentFilter{Status: &status}
	var (
		all   []domain.Payment
		token *string
	)
	for {
		page, next, err := s.payments.ListPayments(ctx, filter, defaultPaymentPageSize, token)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending payments: %w", err)
		}
		all = append(all, page...)
		if next == nil {
			break
		}
		token = next
	}
	slices.Reverse(all)
	return all, nil
}
