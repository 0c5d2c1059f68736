package pgsql

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/artist_ledger_app/internal/models"
	"github.com/SscSPs/artist_ledger_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const personColumns = `person_id, name, phones, phone_keys, external_auth_id, superseded_by,
	created_at, created_by, last_updated_at, last_updated_by`

const profileColumns = `profile_id, person_id, entry_id, name, email, aliases, payout_account_id, superseded_by,
	created_at, created_by, last_updated_at, last_updated_by`

// aliasMatchQuery finds profiles whose alias JSON mentions one of $1 at any depth, as a
// number or as a string, so flat lists and cluster objects are matched alike.
const aliasMatchQuery = `
	SELECT ` + profileColumns + `
	FROM artist_profiles a
	WHERE a.aliases IS NOT NULL
	  AND EXISTS (
		SELECT 1 FROM unnest($1::bigint[]) AS q(id)
		WHERE jsonb_path_exists(
			a.aliases,
			'$.** ? (@ == $id || @ == $sid)',
			jsonb_build_object('id', q.id, 'sid', q.id::text))
	  )
	ORDER BY a.profile_id;`

type PgxIdentityRepository struct {
	BaseRepository
}

// newPgxIdentityRepository creates a new repository for persons and artist profiles.
func newPgxIdentityRepository(pool *pgxpool.Pool) portsrepo.IdentityRepositoryFacade {
	return &PgxIdentityRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.IdentityRepositoryFacade = (*PgxIdentityRepository)(nil)

func (r *PgxIdentityRepository) FindPersonByID(ctx context.Context, personID string) (*domain.Person, error) {
	persons, err := r.queryPersons(ctx, `SELECT `+personColumns+` FROM persons WHERE person_id = $1;`, personID)
	if err != nil {
		return nil, err
	}
	if len(persons) == 0 {
		return nil, fmt.Errorf("%w: person %s", apperrors.ErrNotFound, personID)
	}
	return &persons[0], nil
}

func (r *PgxIdentityRepository) FindPersonsByIDs(ctx context.Context, personIDs []string) ([]domain.Person, error) {
	return r.queryPersons(ctx, `SELECT `+personColumns+` FROM persons WHERE person_id = ANY($1) ORDER BY person_id;`, personIDs)
}

func (r *PgxIdentityRepository) FindPersonsByPhoneKeys(ctx context.Context, phoneKeys []string) ([]domain.Person, error) {
	if len(phoneKeys) == 0 {
		return nil, nil
	}
	return r.queryPersons(ctx, `SELECT `+personColumns+` FROM persons WHERE phone_keys && $1::text[] ORDER BY person_id;`, phoneKeys)
}

func (r *PgxIdentityRepository) queryPersons(ctx context.Context, query string, args ...any) ([]domain.Person, error) {
	return queryPersons(ctx, r.Pool, query, args...)
}

func queryPersons(ctx context.Context, q querier, query string, args ...any) ([]domain.Person, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query persons", err)
	}
	modelPersons, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Person])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan person rows", err)
	}
	return mapping.ToDomainPersonSlice(modelPersons), nil
}

func (r *PgxIdentityRepository) FindProfileByID(ctx context.Context, profileID string) (*domain.ArtistProfile, error) {
	profiles, err := r.queryProfiles(ctx, `SELECT `+profileColumns+` FROM artist_profiles WHERE profile_id = $1;`, profileID)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: artist profile %s", apperrors.ErrNotFound, profileID)
	}
	return &profiles[0], nil
}

func (r *PgxIdentityRepository) FindProfilesByIDs(ctx context.Context, profileIDs []string) ([]domain.ArtistProfile, error) {
	return r.queryProfiles(ctx, `SELECT `+profileColumns+` FROM artist_profiles WHERE profile_id = ANY($1) ORDER BY profile_id;`, profileIDs)
}

func (r *PgxIdentityRepository) FindProfilesByEntryIDs(ctx context.Context, entryIDs []int64) ([]domain.ArtistProfile, error) {
	return r.queryProfiles(ctx, `SELECT `+profileColumns+` FROM artist_profiles WHERE entry_id = ANY($1) ORDER BY profile_id;`, entryIDs)
}

func (r *PgxIdentityRepository) FindProfilesByAliasEntryIDs(ctx context.Context, entryIDs []int64) ([]domain.ArtistProfile, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}
	return r.queryProfiles(ctx, aliasMatchQuery, entryIDs)
}

func (r *PgxIdentityRepository) FindProfilesByPersonIDs(ctx context.Context, personIDs []string) ([]domain.ArtistProfile, error) {
	return r.queryProfiles(ctx, `SELECT `+profileColumns+` FROM artist_profiles WHERE person_id = ANY($1) ORDER BY profile_id;`, personIDs)
}

func (r *PgxIdentityRepository) FindProfilesSupersededBy(ctx context.Context, profileIDs []string) ([]domain.ArtistProfile, error) {
	return r.queryProfiles(ctx, `SELECT `+profileColumns+` FROM artist_profiles WHERE superseded_by = ANY($1) ORDER BY profile_id;`, profileIDs)
}

func (r *PgxIdentityRepository) queryProfiles(ctx context.Context, query string, args ...any) ([]domain.ArtistProfile, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query artist profiles", err)
	}
	modelProfiles, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.ArtistProfile])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan artist profile rows", err)
	}
	profiles, err := mapping.ToDomainArtistProfileSlice(modelProfiles)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode artist profile", err)
	}
	return profiles, nil
}

// SavePerson inserts or replaces a person. Phone keys are recomputed from the phones.
func (r *PgxIdentityRepository) SavePerson(ctx context.Context, person domain.Person) error {
	person.RefreshPhoneKeys()
	m := mapping.ToModelPerson(person)
	query := `
		INSERT INTO persons (person_id, name, phones, phone_keys, external_auth_id, superseded_by,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (person_id) DO UPDATE SET
			name = EXCLUDED.name,
			phones = EXCLUDED.phones,
			phone_keys = EXCLUDED.phone_keys,
			external_auth_id = EXCLUDED.external_auth_id,
			superseded_by = EXCLUDED.superseded_by,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;`
	_, err := r.Pool.Exec(ctx, query,
		m.PersonID, m.Name, m.Phones, m.PhoneKeys, m.ExternalAuthID, m.SupersededBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return translateError(err, "failed to save person "+m.PersonID)
	}
	return nil
}

// SaveProfile inserts or replaces an artist profile.
func (r *PgxIdentityRepository) SaveProfile(ctx context.Context, profile domain.ArtistProfile) error {
	m, err := mapping.ToModelArtistProfile(profile)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	query := `
		INSERT INTO artist_profiles (profile_id, person_id, entry_id, name, email, aliases, payout_account_id, superseded_by,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (profile_id) DO UPDATE SET
			person_id = EXCLUDED.person_id,
			entry_id = EXCLUDED.entry_id,
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			aliases = EXCLUDED.aliases,
			payout_account_id = EXCLUDED.payout_account_id,
			superseded_by = EXCLUDED.superseded_by,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;`
	_, err = r.Pool.Exec(ctx, query,
		m.ProfileID, m.PersonID, m.EntryID, m.Name, m.Email, m.Aliases, m.PayoutAccountID, m.SupersededBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: entry id %d is already used", apperrors.ErrDuplicate, m.EntryID)
		}
		return translateError(err, "failed to save artist profile "+m.ProfileID)
	}
	return nil
}

// mergeStep is one named statement of a merge. It returns the number of rows it changed.
type mergeStep struct {
	name string
	run  func(ctx context.Context, tx pgx.Tx) (int64, error)
}

// ApplyMerge applies every merge step inside one transaction holding the lock of every
// artist profile in the merge set. Locks are taken in id order.
func (r *PgxIdentityRepository) ApplyMerge(ctx context.Context, plan domain.MergePlan) (*domain.AppliedMerge, error) {
	req := plan.Request
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	lockOrder := slices.Clone(req.AllArtistProfileIDs)
	slices.Sort(lockOrder)
	for _, id := range slices.Compact(lockOrder) {
		if err := r.TryLockArtist(ctx, tx, id); err != nil {
			return nil, err
		}
	}

	locked, err := queryPersons(ctx, tx, `SELECT `+personColumns+` FROM persons WHERE person_id = ANY($1) ORDER BY person_id FOR UPDATE;`, req.AllPersonIDs)
	if err != nil {
		return nil, err
	}
	persons := make(map[string]domain.Person, len(locked))
	for _, p := range locked {
		persons[p.PersonID] = p
	}
	canonical, ok := persons[req.CanonicalPersonID]
	if !ok {
		return nil, fmt.Errorf("%w: person %s", apperrors.ErrNotFound, req.CanonicalPersonID)
	}
	auth := domain.ResolveAuthIdentity(canonical, persons, req.OtherPersonIDs())

	others := req.OtherArtistProfileIDs()
	otherPersons := req.OtherPersonIDs()
	if others == nil {
		others = []string{}
	}
	if otherPersons == nil {
		otherPersons = []string{}
	}
	exec := func(query string, args ...any) func(ctx context.Context, tx pgx.Tx) (int64, error) {
		return func(ctx context.Context, tx pgx.Tx) (int64, error) {
			tag, err := tx.Exec(ctx, query, args...)
			if err != nil {
				return 0, err
			}
			return tag.RowsAffected(), nil
		}
	}

	changes := &domain.MergeChanges{}
	steps := []mergeStep{
		{domain.MergeStepRepointCanonicalProfile, exec(`
			UPDATE artist_profiles SET person_id = $2, superseded_by = NULL, last_updated_at = $3, last_updated_by = $4
			WHERE profile_id = $1 AND (person_id <> $2 OR superseded_by IS NOT NULL);`,
			req.CanonicalArtistProfileID, req.CanonicalPersonID, plan.At, plan.ActorID)},
		{domain.MergeStepRepointOtherProfiles, exec(`
			UPDATE artist_profiles SET person_id = $2, last_updated_at = $3, last_updated_by = $4
			WHERE profile_id = ANY($1) AND person_id <> $2;`,
			others, req.CanonicalPersonID, plan.At, plan.ActorID)},
		{domain.MergeStepSupersedeProfiles, exec(`
			UPDATE artist_profiles SET superseded_by = $2, last_updated_at = $3, last_updated_by = $4
			WHERE profile_id = ANY($1) AND superseded_by IS DISTINCT FROM $2;`,
			others, req.CanonicalArtistProfileID, plan.At, plan.ActorID)},
		{domain.MergeStepResolveAuthIdentity, exec(`
			UPDATE persons SET external_auth_id = NULL, last_updated_at = $2, last_updated_by = $3
			WHERE person_id = ANY($1) AND external_auth_id IS NOT NULL;`,
			otherPersons, plan.At, plan.ActorID)},
		{domain.MergeStepAttachAuthIdentity, func(ctx context.Context, tx pgx.Tx) (int64, error) {
			if auth.IdentityID == nil {
				return 0, nil
			}
			return exec(`
				UPDATE persons SET external_auth_id = $2, last_updated_at = $3, last_updated_by = $4
				WHERE person_id = $1 AND external_auth_id IS DISTINCT FROM $2;`,
				req.CanonicalPersonID, *auth.IdentityID, plan.At, plan.ActorID)(ctx, tx)
		}},
		{domain.MergeStepSupersedePersons, func(ctx context.Context, tx pgx.Tx) (int64, error) {
			revived, err := exec(`
				UPDATE persons SET superseded_by = NULL, last_updated_at = $2, last_updated_by = $3
				WHERE person_id = $1 AND superseded_by IS NOT NULL;`,
				req.CanonicalPersonID, plan.At, plan.ActorID)(ctx, tx)
			if err != nil {
				return 0, err
			}
			superseded, err := exec(`
				UPDATE persons SET superseded_by = $2, last_updated_at = $3, last_updated_by = $4
				WHERE person_id = ANY($1) AND superseded_by IS DISTINCT FROM $2;`,
				otherPersons, req.CanonicalPersonID, plan.At, plan.ActorID)(ctx, tx)
			return revived + superseded, err
		}},
	}

	for _, step := range steps {
		n, err := step.run(ctx, tx)
		if err != nil {
			return nil, &apperrors.PartialFailureError{
				Operation: "merge",
				Steps:     domain.MergeStepStatuses(step.name, err.Error()),
				Err:       translateError(err, "merge step "+step.name+" failed"),
			}
		}
		switch step.name {
		case domain.MergeStepRepointCanonicalProfile, domain.MergeStepRepointOtherProfiles:
			changes.ProfilesRepointed += int(n)
		case domain.MergeStepSupersedeProfiles:
			changes.ProfilesSuperseded += int(n)
		case domain.MergeStepResolveAuthIdentity:
			changes.AuthIdentitiesCleared += int(n)
		case domain.MergeStepAttachAuthIdentity:
			changes.AuthIdentityAttached = n > 0
		case domain.MergeStepSupersedePersons:
			changes.PersonsSuperseded += int(n)
		}
	}

	if err := r.Commit(ctx, tx); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		steps := make([]apperrors.StepStatus, 0, len(domain.MergeSteps))
		for _, name := range domain.MergeSteps {
			steps = append(steps, apperrors.StepStatus{Step: name, State: apperrors.StepRolledBack, Reason: "commit failed"})
		}
		return nil, &apperrors.PartialFailureError{Operation: "merge", Steps: steps, Err: err}
	}
	return &domain.AppliedMerge{Changes: *changes, Auth: auth}, nil
}
