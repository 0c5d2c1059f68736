package mapping

import (
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/SscSPs/artist_ledger_app/internal/models"
)

// ToModelSale converts a domain SaleRecord to a model Sale
func ToModelSale(d domain.SaleRecord) models.Sale {
	return models.Sale{
		SaleID:          d.SaleID,
		ArtistProfileID: d.ArtistProfileID,
		ArtCode:         d.ArtCode,
		EventName:       d.EventName,
		SalePrice:       d.SalePrice,
		Currency:        d.Currency,
		Status:          string(d.Status),
		ClosedAt:        d.ClosedAt,
	}
}

// ToDomainSale converts a model Sale to a domain SaleRecord
func ToDomainSale(m models.Sale) domain.SaleRecord {
	return domain.SaleRecord{
		SaleID:          m.SaleID,
		ArtistProfileID: m.ArtistProfileID,
		ArtCode:         m.ArtCode,
		EventName:       m.EventName,
		SalePrice:       m.SalePrice,
		Currency:        m.Currency,
		Status:          domain.SaleStatus(m.Status),
		ClosedAt:        m.ClosedAt,
	}
}

// ToDomainSaleSlice converts a slice of model Sales to a slice of domain SaleRecords
func ToDomainSaleSlice(ms []models.Sale) []domain.SaleRecord {
	ds := make([]domain.SaleRecord, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainSale(m)
	}
	return ds
}

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:         d.EntryID,
		ArtistProfileID: d.ArtistProfileID,
		Amount:          d.Amount,
		Currency:        d.Currency,
		Category:        string(d.Category),
		Description:     d.Description,
		Reference:       d.Reference,
		PaymentMethod:   d.PaymentMethod,
		PaymentID:       d.PaymentID,
		CreatedBy:       d.CreatedBy,
		CreatedAt:       d.CreatedAt,
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:         m.EntryID,
		ArtistProfileID: m.ArtistProfileID,
		Amount:          m.Amount,
		Currency:        m.Currency,
		Category:        domain.LedgerCategory(m.Category),
		Description:     m.Description,
		Reference:       m.Reference,
		PaymentMethod:   m.PaymentMethod,
		PaymentID:       m.PaymentID,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// ToDomainLedgerEntrySlice converts a slice of model LedgerEntries to a slice of domain LedgerEntries
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
