package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/SscSPs/artist_ledger_app/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

func (s *Store) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, paymentID)
	}
	cp := clonePayment(p)
	return &cp, nil
}

func (s *Store) FindPaymentsByProfileIDs(ctx context.Context, profileIDs []string) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := stringSet(profileIDs)
	return s.paymentsWhere(func(p domain.Payment) bool { return want[p.ArtistProfileID] }), nil
}

// paymentsWhere returns matching payments newest first.
func (s *Store) paymentsWhere(match func(domain.Payment) bool) []domain.Payment {
	var out []domain.Payment
	for _, p := range s.payments {
		if match(p) {
			out = append(out, clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].PaymentID > out[j].PaymentID
	})
	return out
}

func filterMatches(filter domain.PaymentFilter, p domain.Payment) bool {
	if filter.ArtistProfileID != nil && p.ArtistProfileID != *filter.ArtistProfileID {
		return false
	}
	if filter.Status != nil && p.Status != *filter.Status {
		return false
	}
	if filter.Currency != nil && p.Currency != *filter.Currency {
		return false
	}
	return true
}

func (s *Store) ListPayments(ctx context.Context, filter domain.PaymentFilter, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	var (
		cursorAt time.Time
		cursorID string
		err      error
	)
	if nextToken != nil && *nextToken != "" {
		if cursorAt, cursorID, err = pagination.DecodeToken(*nextToken); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.paymentsWhere(func(p domain.Payment) bool {
		if !filterMatches(filter, p) {
			return false
		}
		return cursorID == "" || pagination.After(p.CreatedAt, p.PaymentID, cursorAt, cursorID)
	})

	if len(matched) <= limit {
		return matched, nil, nil
	}
	page := matched[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(last.CreatedAt, last.PaymentID)
	return page, &token, nil
}

func (s *Store) PaymentStats(ctx context.Context, filter domain.PaymentFilter) ([]domain.PaymentStatRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type key struct {
		status   domain.PaymentStatus
		currency string
	}
	rows := make(map[key]*domain.PaymentStatRow)
	for _, p := range s.payments {
		if !filterMatches(filter, p) {
			continue
		}
		k := key{p.Status, p.Currency}
		row, ok := rows[k]
		if !ok {
			row = &domain.PaymentStatRow{Status: p.Status, Currency: p.Currency, Total: decimal.Zero}
			rows[k] = row
		}
		row.Count++
		row.Total = row.Total.Add(p.Amount)
	}
	out := make([]domain.PaymentStatRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].Currency < out[j].Currency
	})
	return out, nil
}

// artistScopeLocked returns the canonical profile id reached from profileID through
// supersession, followed by every profile superseded into it transitively. s.mu must be held.
func (s *Store) artistScopeLocked(profileID string) []string {
	canonical := profileID
	seen := map[string]bool{canonical: true}
	for {
		p, ok := s.profiles[canonical]
		if !ok || p.SupersededBy == nil || seen[*p.SupersededBy] {
			break
		}
		canonical = *p.SupersededBy
		seen[canonical] = true
	}

	scope := []string{canonical}
	in := map[string]bool{canonical: true}
	for frontier := []string{canonical}; len(frontier) > 0; {
		var next []string
		for _, p := range s.profiles {
			if p.SupersededBy == nil || in[p.ProfileID] {
				continue
			}
			for _, parent := range frontier {
				if *p.SupersededBy == parent {
					in[p.ProfileID] = true
					scope = append(scope, p.ProfileID)
					next = append(next, p.ProfileID)
					break
				}
			}
		}
		frontier = next
	}
	return scope
}

func (s *Store) CreatePayment(ctx context.Context, payment domain.Payment, duplicateSince time.Time, allowance domain.PaymentAllowance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[payment.ArtistProfileID]; !ok {
		return fmt.Errorf("%w: artist profile %s", apperrors.ErrNotFound, payment.ArtistProfileID)
	}
	if _, ok := s.payments[payment.PaymentID]; ok {
		return fmt.Errorf("%w: payment %s", apperrors.ErrDuplicate, payment.PaymentID)
	}
	for _, p := range s.payments {
		if p.ArtistProfileID == payment.ArtistProfileID &&
			p.Status.IsInFlight() &&
			p.Currency == payment.Currency &&
			p.Amount.Equal(payment.Amount) &&
			!p.CreatedAt.Before(duplicateSince) {
			return fmt.Errorf("%w: identical payment %s is already in flight", apperrors.ErrConflict, p.PaymentID)
		}
	}

	members := stringSet(allowance.ProfileIDs)
	for _, id := range s.artistScopeLocked(payment.ArtistProfileID) {
		members[id] = true
	}
	var entries []domain.LedgerEntry
	for _, e := range s.entries {
		if members[e.ArtistProfileID] {
			entries = append(entries, e)
		}
	}
	payments := s.paymentsWhere(func(p domain.Payment) bool { return members[p.ArtistProfileID] })
	if available := allowance.Available(payment.Currency, entries, payments); payment.Amount.GreaterThan(available) {
		return fmt.Errorf("%w: payment of %s %s exceeds the %s %s still available",
			apperrors.ErrValidation, payment.Amount, payment.Currency, available, payment.Currency)
	}

	s.payments[payment.PaymentID] = clonePayment(payment)
	return nil
}

func (s *Store) BeginPayment(ctx context.Context, paymentID string, actorID string, at time.Time) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, paymentID)
	}
	if !p.Status.CanTransitionTo(domain.PaymentProcessing) {
		return nil, fmt.Errorf("%w: payment %s is %s, not pending", apperrors.ErrConflict, paymentID, p.Status)
	}
	scope := stringSet(s.artistScopeLocked(p.ArtistProfileID))
	for _, other := range s.payments {
		if scope[other.ArtistProfileID] && other.Status == domain.PaymentProcessing {
			return nil, fmt.Errorf("%w: payment %s of the same artist is already processing", apperrors.ErrConflict, other.PaymentID)
		}
	}
	p.Status = domain.PaymentProcessing
	p.LastUpdatedAt = at
	p.LastUpdatedBy = actorID
	s.payments[paymentID] = p
	cp := clonePayment(p)
	return &cp, nil
}

func (s *Store) CompletePayment(ctx context.Context, paymentID string, transferReference string, debit domain.LedgerEntry, actorID string, at time.Time) (*domain.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, false, fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, paymentID)
	}
	if p.Status == domain.PaymentCompleted {
		if p.TransferReference != nil && *p.TransferReference == transferReference {
			cp := clonePayment(p)
			return &cp, false, nil
		}
		return nil, false, fmt.Errorf("%w: payment %s was completed with a different transfer reference", apperrors.ErrConflict, paymentID)
	}
	if !p.Status.CanTransitionTo(domain.PaymentCompleted) {
		return nil, false, fmt.Errorf("%w: payment %s is %s, not processing", apperrors.ErrConflict, paymentID, p.Status)
	}

	ref := transferReference
	entryID := debit.EntryID
	completedAt := at
	p.Status = domain.PaymentCompleted
	p.TransferReference = &ref
	p.LedgerEntryID = &entryID
	p.CompletedAt = &completedAt
	p.LastUpdatedAt = at
	p.LastUpdatedBy = actorID
	s.payments[paymentID] = p
	debit.PaymentID = cloneString(debit.PaymentID)
	s.entries = append(s.entries, debit)

	cp := clonePayment(p)
	return &cp, true, nil
}

func (s *Store) FailPayment(ctx context.Context, paymentID string, reason string, actorID string, at time.Time) (*domain.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, false, fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, paymentID)
	}
	if p.Status == domain.PaymentFailed {
		cp := clonePayment(p)
		return &cp, false, nil
	}
	if !p.Status.CanTransitionTo(domain.PaymentFailed) {
		return nil, false, fmt.Errorf("%w: payment %s is %s, not processing", apperrors.ErrConflict, paymentID, p.Status)
	}
	failedAt := at
	p.Status = domain.PaymentFailed
	p.FailureReason = &reason
	p.FailedAt = &failedAt
	p.LastUpdatedAt = at
	p.LastUpdatedBy = actorID
	s.payments[paymentID] = p
	cp := clonePayment(p)
	return &cp, true, nil
}

func (s *Store) RecordTransfer(ctx context.Context, paymentID string, transfer domain.PaymentTransfer, actorID string, at time.Time) (*domain.PaymentTransfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, paymentID)
	}
	if p.Status != domain.PaymentProcessing {
		return nil, fmt.Errorf("%w: payment %s is %s, not processing", apperrors.ErrConflict, paymentID, p.Status)
	}
	if p.Transfer == nil {
		t := transfer
		p.Transfer = &t
		p.LastUpdatedAt = at
		p.LastUpdatedBy = actorID
		s.payments[paymentID] = p
	}
	stored := *p.Transfer
	return &stored, nil
}
