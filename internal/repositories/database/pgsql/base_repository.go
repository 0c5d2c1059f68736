package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return translateError(err, "failed to commit transaction")
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) && !errors.Is(err, sql.ErrTxDone) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// LockArtist takes the per-artist advisory lock for the rest of tx, waiting for other holders.
func (r *BaseRepository) LockArtist(ctx context.Context, tx pgx.Tx, profileID string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, profileID); err != nil {
		return apperrors.NewAppError(500, "failed to lock artist "+profileID, err)
	}
	return nil
}

// maxSupersessionDepth bounds supersession walks so a corrupt cycle cannot loop forever.
const maxSupersessionDepth = 32

// LockArtistScope takes the per-artist lock of the canonical profile profileID resolves to and
// returns the canonical id followed by every profile superseded into it. A merge that commits
// while we wait can move the canonical, so resolution repeats until it is stable under the lock.
func (r *BaseRepository) LockArtistScope(ctx context.Context, tx pgx.Tx, profileID string) ([]string, error) {
	locked := ""
	for hop := 0; hop < maxSupersessionDepth; hop++ {
		canonical, err := canonicalProfileID(ctx, tx, profileID)
		if err != nil {
			return nil, err
		}
		if canonical == locked {
			return supersededInto(ctx, tx, canonical)
		}
		if err := r.LockArtist(ctx, tx, canonical); err != nil {
			return nil, err
		}
		locked = canonical
	}
	return nil, fmt.Errorf("%w: canonical profile of %s kept moving", apperrors.ErrConflict, profileID)
}

func canonicalProfileID(ctx context.Context, tx pgx.Tx, profileID string) (string, error) {
	var canonical string
	err := tx.QueryRow(ctx, `
		WITH RECURSIVE up AS (
			SELECT profile_id, superseded_by, 0 AS depth FROM artist_profiles WHERE profile_id = $1
			UNION ALL
			SELECT p.profile_id, p.superseded_by, up.depth + 1
			FROM artist_profiles p JOIN up ON p.profile_id = up.superseded_by
			WHERE up.depth < $2
		)
		SELECT profile_id FROM up ORDER BY depth DESC LIMIT 1;`, profileID, maxSupersessionDepth).Scan(&canonical)
	if err != nil {
		return "", translateError(err, "artist profile "+profileID)
	}
	return canonical, nil
}

// supersededInto returns canonical followed by every profile superseded into it transitively.
func supersededInto(ctx context.Context, tx pgx.Tx, canonical string) ([]string, error) {
	rows, err := tx.Query(ctx, `
		WITH RECURSIVE down AS (
			SELECT profile_id, 0 AS depth FROM artist_profiles WHERE profile_id = $1
			UNION ALL
			SELECT p.profile_id, down.depth + 1
			FROM artist_profiles p JOIN down ON p.superseded_by = down.profile_id
			WHERE down.depth < $2
		)
		SELECT profile_id FROM down GROUP BY profile_id ORDER BY MIN(depth), profile_id;`, canonical, maxSupersessionDepth)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query superseded profiles", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan superseded profiles", err)
	}
	return ids, nil
}

// TryLockArtist takes the per-artist advisory lock for the rest of tx, or fails with
// apperrors.ErrConflict when another transaction holds it.
func (r *BaseRepository) TryLockArtist(ctx context.Context, tx pgx.Tx, profileID string) error {
	var locked bool
	if err := tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock(hashtextextended($1, 0))`, profileID).Scan(&locked); err != nil {
		return apperrors.NewAppError(500, "failed to lock artist "+profileID, err)
	}
	if !locked {
		return fmt.Errorf("%w: another operation for artist %s is in flight", apperrors.ErrConflict, profileID)
	}
	return nil
}

// translateError maps driver errors onto application errors.
func translateError(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, msg)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s (%s)", apperrors.ErrConflict, msg, pgErr.ConstraintName)
	}
	return apperrors.NewAppError(500, msg, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
