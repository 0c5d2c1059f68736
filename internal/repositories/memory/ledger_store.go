package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
)

func (s *Store) FindSalesByProfileIDs(ctx context.Context, profileIDs []string) ([]domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := stringSet(profileIDs)
	var out []domain.SaleRecord
	for _, sale := range s.sales {
		if want[sale.ArtistProfileID] {
			out = append(out, sale)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ClosedAt.Equal(out[j].ClosedAt) {
			return out[i].ClosedAt.Before(out[j].ClosedAt)
		}
		return out[i].SaleID < out[j].SaleID
	})
	return out, nil
}

func (s *Store) FindEntriesByProfileIDs(ctx context.Context, profileIDs []string) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := stringSet(profileIDs)
	var out []domain.LedgerEntry
	for _, e := range s.entries {
		if want[e.ArtistProfileID] {
			e.PaymentID = cloneString(e.PaymentID)
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SaveSale(ctx context.Context, sale domain.SaleRecord) error {
	if sale.SaleID == "" {
		return fmt.Errorf("%w: sale id is required", apperrors.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sales[sale.SaleID]; ok {
		return fmt.Errorf("%w: sale %s", apperrors.ErrDuplicate, sale.SaleID)
	}
	s.sales[sale.SaleID] = sale
	return nil
}

func (s *Store) RecordManualEntry(ctx context.Context, entry domain.LedgerEntry, payment *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[entry.ArtistProfileID]; !ok {
		return fmt.Errorf("%w: artist profile %s", apperrors.ErrNotFound, entry.ArtistProfileID)
	}
	if payment != nil {
		if _, ok := s.payments[payment.PaymentID]; ok {
			return fmt.Errorf("%w: payment %s", apperrors.ErrDuplicate, payment.PaymentID)
		}
		s.payments[payment.PaymentID] = clonePayment(*payment)
	}
	entry.PaymentID = cloneString(entry.PaymentID)
	s.entries = append(s.entries, entry)
	return nil
}
