package services_test

import (
	"context"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// --- Mock IdentityRepository ---
type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) FindPersonByID(ctx context.Context, personID string) (*domain.Person, error) {
	args := m.Called(ctx, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Person), args.Error(1)
}

func (m *MockIdentityRepository) FindPersonsByIDs(ctx context.Context, personIDs []string) ([]domain.Person, error) {
	args := m.Called(ctx, personIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Person), args.Error(1)
}

func (m *MockIdentityRepository) FindPersonsByPhoneKeys(ctx context.Context, phoneKeys []string) ([]domain.Person, error) {
	args := m.Called(ctx, phoneKeys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Person), args.Error(1)
}

func (m *MockIdentityRepository) FindProfileByID(ctx context.Context, profileID string) (*domain.ArtistProfile, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ArtistProfile), args.Error(1)
}

func (m *MockIdentityRepository) FindProfilesByIDs(ctx context.Context, profileIDs []string) ([]domain.ArtistProfile, error) {
	args := m.Called(ctx, profileIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ArtistProfile), args.Error(1)
}

func (m *MockIdentityRepository) FindProfilesByEntryIDs(ctx context.Context, entryIDs []int64) ([]domain.ArtistProfile, error) {
	args := m.Called(ctx, entryIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ArtistProfile), args.Error(1)
}

func (m *MockIdentityRepository) FindProfilesByAliasEntryIDs(ctx context.Context, entryIDs []int64) ([]domain.ArtistProfile, error) {
	args := m.Called(ctx, entryIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ArtistProfile), args.Error(1)
}

func (m *MockIdentityRepository) FindProfilesByPersonIDs(ctx context.Context, personIDs []string) ([]domain.ArtistProfile, error) {
	args := m.Called(ctx, personIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ArtistProfile), args.Error(1)
}

func (m *MockIdentityRepository) FindProfilesSupersededBy(ctx context.Context, profileIDs []string) ([]domain.ArtistProfile, error) {
	args := m.Called(ctx, profileIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ArtistProfile), args.Error(1)
}

func (m *MockIdentityRepository) SavePerson(ctx context.Context, person domain.Person) error {
	args := m.Called(ctx, person)
	return args.Error(0)
}

func (m *MockIdentityRepository) SaveProfile(ctx context.Context, profile domain.ArtistProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockIdentityRepository) ApplyMerge(ctx context.Context, plan domain.MergePlan) (*domain.AppliedMerge, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AppliedMerge), args.Error(1)
}
