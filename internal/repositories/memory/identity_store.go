package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
)

func (s *Store) FindPersonByID(ctx context.Context, personID string) (*domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.persons[personID]
	if !ok {
		return nil, fmt.Errorf("%w: person %s", apperrors.ErrNotFound, personID)
	}
	cp := clonePerson(p)
	return &cp, nil
}

func (s *Store) FindPersonsByIDs(ctx context.Context, personIDs []string) ([]domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := stringSet(personIDs)
	return s.personsWhere(func(p domain.Person) bool { return want[p.PersonID] }), nil
}

func (s *Store) FindPersonsByPhoneKeys(ctx context.Context, phoneKeys []string) ([]domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := stringSet(phoneKeys)
	return s.personsWhere(func(p domain.Person) bool {
		for _, k := range p.PhoneKeys {
			if want[k] {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) personsWhere(match func(domain.Person) bool) []domain.Person {
	var out []domain.Person
	for _, p := range s.persons {
		if match(p) {
			out = append(out, clonePerson(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out
}

func (s *Store) FindProfileByID(ctx context.Context, profileID string) (*domain.ArtistProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[profileID]
	if !ok {
		return nil, fmt.Errorf("%w: artist profile %s", apperrors.ErrNotFound, profileID)
	}
	cp := cloneProfile(p)
	return &cp, nil
}

func (s *Store) FindProfilesByIDs(ctx context.Context, profileIDs []string) ([]domain.ArtistProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := stringSet(profileIDs)
	return s.profilesWhere(func(p domain.ArtistProfile) bool { return want[p.ProfileID] }), nil
}

func (s *Store) FindProfilesByEntryIDs(ctx context.Context, entryIDs []int64) ([]domain.ArtistProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[int64]bool, len(entryIDs))
	for _, id := range entryIDs {
		want[id] = true
	}
	return s.profilesWhere(func(p domain.ArtistProfile) bool { return want[p.EntryID] }), nil
}

func (s *Store) FindProfilesByAliasEntryIDs(ctx context.Context, entryIDs []int64) ([]domain.ArtistProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profilesWhere(func(p domain.ArtistProfile) bool {
		for _, id := range entryIDs {
			if p.Aliases.Contains(id) {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) FindProfilesByPersonIDs(ctx context.Context, personIDs []string) ([]domain.ArtistProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := stringSet(personIDs)
	return s.profilesWhere(func(p domain.ArtistProfile) bool { return want[p.PersonID] }), nil
}

func (s *Store) FindProfilesSupersededBy(ctx context.Context, profileIDs []string) ([]domain.ArtistProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := stringSet(profileIDs)
	return s.profilesWhere(func(p domain.ArtistProfile) bool {
		return p.SupersededBy != nil && want[*p.SupersededBy]
	}), nil
}

func (s *Store) profilesWhere(match func(domain.ArtistProfile) bool) []domain.ArtistProfile {
	var out []domain.ArtistProfile
	for _, p := range s.profiles {
		if match(p) {
			out = append(out, cloneProfile(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProfileID < out[j].ProfileID })
	return out
}

func (s *Store) SavePerson(ctx context.Context, person domain.Person) error {
	if person.PersonID == "" {
		return fmt.Errorf("%w: person id is required", apperrors.ErrValidation)
	}
	person.RefreshPhoneKeys()
	s.mu.Lock()
	defer s.mu.Unlock()
	if person.HasAuthIdentity() {
		for _, other := range s.persons {
			if other.PersonID != person.PersonID && other.HasAuthIdentity() && *other.ExternalAuthID == *person.ExternalAuthID {
				return fmt.Errorf("%w: auth identity already held by person %s", apperrors.ErrConflict, other.PersonID)
			}
		}
	}
	s.persons[person.PersonID] = clonePerson(person)
	return nil
}

func (s *Store) SaveProfile(ctx context.Context, profile domain.ArtistProfile) error {
	if profile.ProfileID == "" {
		return fmt.Errorf("%w: artist profile id is required", apperrors.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.profiles {
		if other.ProfileID != profile.ProfileID && other.EntryID == profile.EntryID {
			return fmt.Errorf("%w: entry id %d already used by profile %s", apperrors.ErrDuplicate, profile.EntryID, other.ProfileID)
		}
	}
	s.profiles[profile.ProfileID] = cloneProfile(profile)
	return nil
}

// ApplyMerge runs every merge step on copies of the affected records while holding the
// write lock, then stores them together. A failing step leaves the store untouched.
func (s *Store) ApplyMerge(ctx context.Context, plan domain.MergePlan) (*domain.AppliedMerge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := plan.Request
	persons := make(map[string]domain.Person, len(req.AllPersonIDs))
	for _, id := range req.AllPersonIDs {
		p, ok := s.persons[id]
		if !ok {
			return nil, fmt.Errorf("%w: person %s", apperrors.ErrNotFound, id)
		}
		persons[id] = clonePerson(p)
	}
	profiles := make(map[string]domain.ArtistProfile, len(req.AllArtistProfileIDs))
	for _, id := range req.AllArtistProfileIDs {
		p, ok := s.profiles[id]
		if !ok {
			return nil, fmt.Errorf("%w: artist profile %s", apperrors.ErrNotFound, id)
		}
		profiles[id] = cloneProfile(p)
	}
	auth := domain.ResolveAuthIdentity(persons[req.CanonicalPersonID], persons, req.OtherPersonIDs())

	changes := &domain.MergeChanges{}
	touchProfile := func(p *domain.ArtistProfile) {
		p.LastUpdatedAt = plan.At
		p.LastUpdatedBy = plan.ActorID
	}
	touchPerson := func(p *domain.Person) {
		p.LastUpdatedAt = plan.At
		p.LastUpdatedBy = plan.ActorID
	}

	canonicalProfile := profiles[req.CanonicalArtistProfileID]
	if canonicalProfile.PersonID != req.CanonicalPersonID || canonicalProfile.SupersededBy != nil {
		canonicalProfile.PersonID = req.CanonicalPersonID
		canonicalProfile.SupersededBy = nil
		touchProfile(&canonicalProfile)
		changes.ProfilesRepointed++
		profiles[canonicalProfile.ProfileID] = canonicalProfile
	}

	for _, id := range req.OtherArtistProfileIDs() {
		p := profiles[id]
		if p.PersonID != req.CanonicalPersonID {
			p.PersonID = req.CanonicalPersonID
			touchProfile(&p)
			changes.ProfilesRepointed++
			profiles[id] = p
		}
	}

	for _, id := range req.OtherArtistProfileIDs() {
		p := profiles[id]
		if p.SupersededBy == nil || *p.SupersededBy != req.CanonicalArtistProfileID {
			target := req.CanonicalArtistProfileID
			p.SupersededBy = &target
			touchProfile(&p)
			changes.ProfilesSuperseded++
			profiles[id] = p
		}
	}

	for _, id := range req.OtherPersonIDs() {
		p := persons[id]
		if p.ExternalAuthID != nil {
			p.ExternalAuthID = nil
			touchPerson(&p)
			changes.AuthIdentitiesCleared++
			persons[id] = p
		}
	}

	canonicalPerson := persons[req.CanonicalPersonID]
	if auth.IdentityID != nil && (canonicalPerson.ExternalAuthID == nil || *canonicalPerson.ExternalAuthID != *auth.IdentityID) {
		id := *auth.IdentityID
		canonicalPerson.ExternalAuthID = &id
		touchPerson(&canonicalPerson)
		changes.AuthIdentityAttached = true
	}
	if canonicalPerson.SupersededBy != nil {
		canonicalPerson.SupersededBy = nil
		touchPerson(&canonicalPerson)
		changes.PersonsSuperseded++
	}
	persons[canonicalPerson.PersonID] = canonicalPerson

	for _, id := range req.OtherPersonIDs() {
		p := persons[id]
		if p.SupersededBy == nil || *p.SupersededBy != req.CanonicalPersonID {
			target := req.CanonicalPersonID
			p.SupersededBy = &target
			touchPerson(&p)
			changes.PersonsSuperseded++
			persons[id] = p
		}
	}

	for id, p := range persons {
		s.persons[id] = p
	}
	for id, p := range profiles {
		s.profiles[id] = p
	}
	return &domain.AppliedMerge{Changes: *changes, Auth: auth}, nil
}
