package repositories

import (
	"context"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
)

// SaleReader defines read operations for sale records
type SaleReader interface {
	// FindSalesByProfileIDs retrieves every sale attributed to the given profiles.
	FindSalesByProfileIDs(ctx context.Context, profileIDs []string) ([]domain.SaleRecord, error)
}

// LedgerReader defines read operations for ledger entries
type LedgerReader interface {
	// FindEntriesByProfileIDs retrieves every ledger entry of the given profiles, oldest first.
	FindEntriesByProfileIDs(ctx context.Context, profileIDs []string) ([]domain.LedgerEntry, error)
}

// LedgerWriter defines write operations for ledger data
type LedgerWriter interface {
	// SaveSale records an imported sale.
	SaveSale(ctx context.Context, sale domain.SaleRecord) error

	// RecordManualEntry appends a ledger entry and, when payment is not nil, the manual
	// payment that references it, in one transaction.
	RecordManualEntry(ctx context.Context, entry domain.LedgerEntry, payment *domain.Payment) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
type LedgerRepositoryFacade interface {
	SaleReader
	LedgerReader
	LedgerWriter
}
