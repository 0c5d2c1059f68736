package repositories

import (
	"context"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
)

// PersonReader defines read operations for person data
type PersonReader interface {
	// FindPersonByID retrieves a person, superseded or not.
	FindPersonByID(ctx context.Context, personID string) (*domain.Person, error)

	// FindPersonsByIDs retrieves the persons that exist among personIDs. Missing ids are not an error.
	FindPersonsByIDs(ctx context.Context, personIDs []string) ([]domain.Person, error)

	// FindPersonsByPhoneKeys retrieves persons holding any of the given normalized phone keys.
	FindPersonsByPhoneKeys(ctx context.Context, phoneKeys []string) ([]domain.Person, error)
}

// ArtistProfileReader defines read operations for artist profile data
type ArtistProfileReader interface {
	// FindProfileByID retrieves a profile, superseded or not.
	FindProfileByID(ctx context.Context, profileID string) (*domain.ArtistProfile, error)

	// FindProfilesByIDs retrieves the profiles that exist among profileIDs.
	FindProfilesByIDs(ctx context.Context, profileIDs []string) ([]domain.ArtistProfile, error)

	// FindProfilesByEntryIDs retrieves profiles whose own external number is in entryIDs.
	FindProfilesByEntryIDs(ctx context.Context, entryIDs []int64) ([]domain.ArtistProfile, error)

	// FindProfilesByAliasEntryIDs retrieves profiles whose alias set mentions any of entryIDs,
	// whichever shape the alias set was stored in.
	FindProfilesByAliasEntryIDs(ctx context.Context, entryIDs []int64) ([]domain.ArtistProfile, error)

	// FindProfilesByPersonIDs retrieves every profile owned by the given persons.
	FindProfilesByPersonIDs(ctx context.Context, personIDs []string) ([]domain.ArtistProfile, error)

	// FindProfilesSupersededBy retrieves profiles whose supersession pointer is one of profileIDs.
	FindProfilesSupersededBy(ctx context.Context, profileIDs []string) ([]domain.ArtistProfile, error)
}

// IdentityWriter defines write operations for identity data
type IdentityWriter interface {
	// SavePerson inserts or replaces a person.
	SavePerson(ctx context.Context, person domain.Person) error

	// SaveProfile inserts or replaces an artist profile.
	SaveProfile(ctx context.Context, profile domain.ArtistProfile) error

	// ApplyMerge applies every step of a merge plan atomically while holding the
	// per-artist lock of every profile in the merge set. The auth identity is resolved
	// from the persons as read under that lock. A concurrent merge touching any of the
	// same profiles fails with apperrors.ErrConflict.
	ApplyMerge(ctx context.Context, plan domain.MergePlan) (*domain.AppliedMerge, error)
}

// IdentityRepositoryFacade combines all identity-related repository interfaces
type IdentityRepositoryFacade interface {
	PersonReader
	ArtistProfileReader
	IdentityWriter
}
