package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/artist_ledger_app/internal/models"
	"github.com/SscSPs/artist_ledger_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const saleColumns = `sale_id, artist_profile_id, art_code, event_name, sale_price, currency, status, closed_at`

const entryColumns = `entry_id, artist_profile_id, amount, currency, category, description, reference, payment_method,
	payment_id, created_by, created_at`

const insertEntryQuery = `
	INSERT INTO ledger_entries (entry_id, artist_profile_id, amount, currency, category, description, reference,
		payment_method, payment_id, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for sales and ledger entries.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

func (r *PgxLedgerRepository) FindSalesByProfileIDs(ctx context.Context, profileIDs []string) ([]domain.SaleRecord, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+saleColumns+` FROM sales WHERE artist_profile_id = ANY($1) ORDER BY closed_at, sale_id;`, profileIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query sales", err)
	}
	modelSales, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Sale])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan sale rows", err)
	}
	return mapping.ToDomainSaleSlice(modelSales), nil
}

func (r *PgxLedgerRepository) FindEntriesByProfileIDs(ctx context.Context, profileIDs []string) ([]domain.LedgerEntry, error) {
	return queryEntries(ctx, r.Pool, profileIDs)
}

func queryEntries(ctx context.Context, q querier, profileIDs []string) ([]domain.LedgerEntry, error) {
	rows, err := q.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE artist_profile_id = ANY($1) ORDER BY created_at, entry_id;`, profileIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger entries", err)
	}
	modelEntries, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.LedgerEntry])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan ledger entry rows", err)
	}
	return mapping.ToDomainLedgerEntrySlice(modelEntries), nil
}

func (r *PgxLedgerRepository) SaveSale(ctx context.Context, sale domain.SaleRecord) error {
	m := mapping.ToModelSale(sale)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO sales (sale_id, artist_profile_id, art_code, event_name, sale_price, currency, status, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
		m.SaleID, m.ArtistProfileID, m.ArtCode, m.EventName, m.SalePrice, m.Currency, m.Status, m.ClosedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sale %s", apperrors.ErrDuplicate, m.SaleID)
		}
		return translateError(err, "failed to save sale "+m.SaleID)
	}
	return nil
}

// RecordManualEntry writes the entry and its manual payment, if any, in one transaction
// under the lock of the artist's canonical profile.
func (r *PgxLedgerRepository) RecordManualEntry(ctx context.Context, entry domain.LedgerEntry, payment *domain.Payment) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := r.LockArtistScope(ctx, tx, entry.ArtistProfileID); err != nil {
		return err
	}

	if payment != nil {
		if err := insertPayment(ctx, tx, *payment); err != nil {
			return err
		}
	}
	if err := insertEntry(ctx, tx, entry); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func insertEntry(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) error {
	m := mapping.ToModelLedgerEntry(entry)
	_, err := tx.Exec(ctx, insertEntryQuery,
		m.EntryID, m.ArtistProfileID, m.Amount, m.Currency, m.Category, m.Description, m.Reference,
		m.PaymentMethod, m.PaymentID, m.CreatedBy, m.CreatedAt)
	if err != nil {
		return translateError(err, "failed to insert ledger entry "+m.EntryID)
	}
	return nil
}
