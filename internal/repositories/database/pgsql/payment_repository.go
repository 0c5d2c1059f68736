package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/artist_ledger_app/internal/models"
	"github.com/SscSPs/artist_ledger_app/internal/utils/mapping"
	"github.com/SscSPs/artist_ledger_app/internal/utils/pagination"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `payment_id, artist_profile_id, amount, currency, status, description, transfer_reference,
	failure_reason, ledger_entry_id, transfer, completed_at, failed_at,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for payments.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryPayments(ctx context.Context, q querier, query string, args ...any) ([]domain.Payment, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query payments", err)
	}
	modelPayments, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Payment])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan payment rows", err)
	}
	payments, err := mapping.ToDomainPaymentSlice(modelPayments)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode payment", err)
	}
	return payments, nil
}

func findPayment(ctx context.Context, q querier, paymentID string, forUpdate bool) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	payments, err := queryPayments(ctx, q, query+`;`, paymentID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, paymentID)
	}
	return &payments[0], nil
}

func insertPayment(ctx context.Context, tx pgx.Tx, payment domain.Payment) error {
	m, err := mapping.ToModelPayment(payment)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode payment", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO payments (payment_id, artist_profile_id, amount, currency, status, description, transfer_reference,
			failure_reason, ledger_entry_id, transfer, completed_at, failed_at,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);`,
		m.PaymentID, m.ArtistProfileID, m.Amount, m.Currency, m.Status, m.Description, m.TransferReference,
		m.FailureReason, m.LedgerEntryID, m.Transfer, m.CompletedAt, m.FailedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return translateError(err, "failed to insert payment "+m.PaymentID)
	}
	return nil
}

func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return findPayment(ctx, r.Pool, paymentID, false)
}

func (r *PgxPaymentRepository) FindPaymentsByProfileIDs(ctx context.Context, profileIDs []string) ([]domain.Payment, error) {
	return queryPayments(ctx, r.Pool,
		`SELECT `+paymentColumns+` FROM payments WHERE artist_profile_id = ANY($1) ORDER BY created_at DESC, payment_id DESC;`,
		profileIDs)
}

func filterClause(filter domain.PaymentFilter, args []any) (string, []any) {
	var conds []string
	if filter.ArtistProfileID != nil {
		args = append(args, *filter.ArtistProfileID)
		conds = append(conds, "artist_profile_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Currency != nil {
		args = append(args, *filter.Currency)
		conds = append(conds, "currency = $"+strconv.Itoa(len(args)))
	}
	return strings.Join(conds, " AND "), args
}

// ListPayments retrieves a page of payments, newest first, using token-based pagination.
func (r *PgxPaymentRepository) ListPayments(ctx context.Context, filter domain.PaymentFilter, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	if limit <= 0 {
		limit = 50
	}
	// One extra row tells whether another page exists.
	fetchLimit := limit + 1

	where, args := filterClause(filter, nil)
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", fmt.Errorf("%w: %v", apperrors.ErrValidation, decodeErr))
		}
		args = append(args, lastCreatedAt, lastID)
		cursor := "(created_at, payment_id) < ($" + strconv.Itoa(len(args)-1) + ", $" + strconv.Itoa(len(args)) + ")"
		if where == "" {
			where = cursor
		} else {
			where += " AND " + cursor
		}
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if where != "" {
		query += ` WHERE ` + where
	}
	args = append(args, fetchLimit)
	query += ` ORDER BY created_at DESC, payment_id DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	payments, err := queryPayments(ctx, r.Pool, query, args...)
	if err != nil {
		return nil, nil, err
	}
	if len(payments) <= limit {
		return payments, nil, nil
	}
	payments = payments[:limit]
	last := payments[len(payments)-1]
	token := pagination.EncodeToken(last.CreatedAt, last.PaymentID)
	return payments, &token, nil
}

func (r *PgxPaymentRepository) PaymentStats(ctx context.Context, filter domain.PaymentFilter) ([]domain.PaymentStatRow, error) {
	where, args := filterClause(filter, nil)
	query := `SELECT status, currency, count(*) AS count, COALESCE(sum(amount), 0) AS total FROM payments`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` GROUP BY status, currency ORDER BY status, currency;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query payment stats", err)
	}
	stats, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.PaymentStat])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan payment stats", err)
	}
	return mapping.ToDomainPaymentStats(stats), nil
}

// CreatePayment inserts a pending payment after checking for an identical in-flight one and
// re-reading what the allowance leaves available, both under the lock of the artist's
// canonical profile.
func (r *PgxPaymentRepository) CreatePayment(ctx context.Context, payment domain.Payment, duplicateSince time.Time, allowance domain.PaymentAllowance) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	scope, err := r.LockArtistScope(ctx, tx, payment.ArtistProfileID)
	if err != nil {
		return err
	}

	var duplicateID string
	err = tx.QueryRow(ctx, `
		SELECT payment_id FROM payments
		WHERE artist_profile_id = $1 AND currency = $2 AND amount = $3
		  AND status IN ('pending', 'processing') AND created_at >= $4
		LIMIT 1;`,
		payment.ArtistProfileID, payment.Currency, payment.Amount, duplicateSince).Scan(&duplicateID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: identical payment %s is already in flight", apperrors.ErrConflict, duplicateID)
	case !errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewAppError(500, "failed to check for duplicate payments", err)
	}

	members := mergeIDs(allowance.ProfileIDs, scope)
	entries, err := queryEntries(ctx, tx, members)
	if err != nil {
		return err
	}
	inFlight, err := queryPayments(ctx, tx,
		`SELECT `+paymentColumns+` FROM payments WHERE artist_profile_id = ANY($1) AND status IN ('pending', 'processing');`,
		members)
	if err != nil {
		return err
	}
	if available := allowance.Available(payment.Currency, entries, inFlight); payment.Amount.GreaterThan(available) {
		return fmt.Errorf("%w: payment of %s %s exceeds the %s %s still available",
			apperrors.ErrValidation, payment.Amount, payment.Currency, available, payment.Currency)
	}

	if err := insertPayment(ctx, tx, payment); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// mergeIDs returns the union of a and b, keeping first-seen order.
func mergeIDs(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range append(append([]string{}, a...), b...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// lockedPayment starts a transaction, takes the lock of the canonical profile of the payment's
// artist and reads the payment row for update. It also returns that canonical profile's scope.
// The caller must roll back or commit tx.
func (r *PgxPaymentRepository) lockedPayment(ctx context.Context, paymentID string) (pgx.Tx, *domain.Payment, []string, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	var artistID string
	if err := tx.QueryRow(ctx, `SELECT artist_profile_id FROM payments WHERE payment_id = $1;`, paymentID).Scan(&artistID); err != nil {
		_ = r.Rollback(ctx, tx)
		return nil, nil, nil, translateError(err, "payment "+paymentID)
	}
	scope, err := r.LockArtistScope(ctx, tx, artistID)
	if err != nil {
		_ = r.Rollback(ctx, tx)
		return nil, nil, nil, err
	}
	p, err := findPayment(ctx, tx, paymentID, true)
	if err != nil {
		_ = r.Rollback(ctx, tx)
		return nil, nil, nil, err
	}
	return tx, p, scope, nil
}

func (r *PgxPaymentRepository) BeginPayment(ctx context.Context, paymentID string, actorID string, at time.Time) (*domain.Payment, error) {
	tx, p, scope, err := r.lockedPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if !p.Status.CanTransitionTo(domain.PaymentProcessing) {
		return nil, fmt.Errorf("%w: payment %s is %s, not pending", apperrors.ErrConflict, paymentID, p.Status)
	}
	var processingID string
	err = tx.QueryRow(ctx, `SELECT payment_id FROM payments WHERE artist_profile_id = ANY($1) AND status = 'processing' LIMIT 1;`,
		scope).Scan(&processingID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: payment %s of the same artist is already processing", apperrors.ErrConflict, processingID)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, apperrors.NewAppError(500, "failed to check processing payments", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE payments SET status = 'processing', last_updated_at = $2, last_updated_by = $3
		WHERE payment_id = $1;`, paymentID, at, actorID); err != nil {
		return nil, translateError(err, "failed to begin payment "+paymentID)
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	p.Status = domain.PaymentProcessing
	p.LastUpdatedAt = at
	p.LastUpdatedBy = actorID
	return p, nil
}

// CompletePayment moves the payment to completed and appends its debit entry in one transaction.
func (r *PgxPaymentRepository) CompletePayment(ctx context.Context, paymentID string, transferReference string, debit domain.LedgerEntry, actorID string, at time.Time) (*domain.Payment, bool, error) {
	tx, p, _, err := r.lockedPayment(ctx, paymentID)
	if err != nil {
		return nil, false, err
	}
	defer r.Rollback(ctx, tx)

	if p.Status == domain.PaymentCompleted {
		if p.TransferReference != nil && *p.TransferReference == transferReference {
			return p, false, nil
		}
		return nil, false, fmt.Errorf("%w: payment %s was completed with a different transfer reference", apperrors.ErrConflict, paymentID)
	}
	if !p.Status.CanTransitionTo(domain.PaymentCompleted) {
		return nil, false, fmt.Errorf("%w: payment %s is %s, not processing", apperrors.ErrConflict, paymentID, p.Status)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE payments SET status = 'completed', transfer_reference = $2, ledger_entry_id = $3, completed_at = $4,
			last_updated_at = $4, last_updated_by = $5
		WHERE payment_id = $1;`, paymentID, transferReference, debit.EntryID, at, actorID); err != nil {
		return nil, false, translateError(err, "failed to complete payment "+paymentID)
	}
	if err := insertEntry(ctx, tx, debit); err != nil {
		return nil, false, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, false, err
	}

	ref, entryID, completedAt := transferReference, debit.EntryID, at
	p.Status = domain.PaymentCompleted
	p.TransferReference = &ref
	p.LedgerEntryID = &entryID
	p.CompletedAt = &completedAt
	p.LastUpdatedAt = at
	p.LastUpdatedBy = actorID
	return p, true, nil
}

func (r *PgxPaymentRepository) FailPayment(ctx context.Context, paymentID string, reason string, actorID string, at time.Time) (*domain.Payment, bool, error) {
	tx, p, _, err := r.lockedPayment(ctx, paymentID)
	if err != nil {
		return nil, false, err
	}
	defer r.Rollback(ctx, tx)

	if p.Status == domain.PaymentFailed {
		return p, false, nil
	}
	if !p.Status.CanTransitionTo(domain.PaymentFailed) {
		return nil, false, fmt.Errorf("%w: payment %s is %s, not processing", apperrors.ErrConflict, paymentID, p.Status)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE payments SET status = 'failed', failure_reason = $2, failed_at = $3, last_updated_at = $3, last_updated_by = $4
		WHERE payment_id = $1;`, paymentID, reason, at, actorID); err != nil {
		return nil, false, translateError(err, "failed to fail payment "+paymentID)
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, false, err
	}

	failedAt := at
	p.Status = domain.PaymentFailed
	p.FailureReason = &reason
	p.FailedAt = &failedAt
	p.LastUpdatedAt = at
	p.LastUpdatedBy = actorID
	return p, true, nil
}

// RecordTransfer stores the plan of a processing payment unless one is already stored, and
// returns the plan in effect.
func (r *PgxPaymentRepository) RecordTransfer(ctx context.Context, paymentID string, transfer domain.PaymentTransfer, actorID string, at time.Time) (*domain.PaymentTransfer, error) {
	raw, err := json.Marshal(transfer)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to encode transfer", err)
	}
	if _, err := r.Pool.Exec(ctx, `
		UPDATE payments SET transfer = $2, last_updated_at = $3, last_updated_by = $4
		WHERE payment_id = $1 AND status = 'processing' AND transfer IS NULL;`, paymentID, raw, at, actorID); err != nil {
		return nil, translateError(err, "failed to record transfer for payment "+paymentID)
	}
	p, err := r.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PaymentProcessing || p.Transfer == nil {
		return nil, fmt.Errorf("%w: payment %s is %s, not processing", apperrors.ErrConflict, paymentID, p.Status)
	}
	return p.Transfer, nil
}
