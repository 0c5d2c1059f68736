package mapping

import (
	"fmt"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	"github.com/SscSPs/artist_ledger_app/internal/models"
	"github.com/goccy/go-json"
)

// ToModelPerson converts a domain Person to a model Person
func ToModelPerson(d domain.Person) models.Person {
	phones := d.Phones
	if phones == nil {
		phones = []string{}
	}
	keys := d.PhoneKeys
	if keys == nil {
		keys = []string{}
	}
	return models.Person{
		PersonID:       d.PersonID,
		Name:           d.Name,
		Phones:         phones,
		PhoneKeys:      keys,
		ExternalAuthID: d.ExternalAuthID,
		SupersededBy:   d.SupersededBy,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPerson converts a model Person to a domain Person
func ToDomainPerson(m models.Person) domain.Person {
	return domain.Person{
		PersonID:       m.PersonID,
		Name:           m.Name,
		Phones:         m.Phones,
		PhoneKeys:      m.PhoneKeys,
		ExternalAuthID: m.ExternalAuthID,
		SupersededBy:   m.SupersededBy,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPersonSlice converts a slice of model Persons to a slice of domain Persons
func ToDomainPersonSlice(ms []models.Person) []domain.Person {
	ds := make([]domain.Person, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPerson(m)
	}
	return ds
}

// ToModelArtistProfile converts a domain ArtistProfile to a model ArtistProfile.
// The alias set is encoded in the shape it was read in.
func ToModelArtistProfile(d domain.ArtistProfile) (models.ArtistProfile, error) {
	aliases, err := json.Marshal(d.Aliases)
	if err != nil {
		return models.ArtistProfile{}, fmt.Errorf("encode aliases of profile %s: %w", d.ProfileID, err)
	}
	return models.ArtistProfile{
		ProfileID:       d.ProfileID,
		PersonID:        d.PersonID,
		EntryID:         d.EntryID,
		Name:            d.Name,
		Email:           d.Email,
		Aliases:         aliases,
		PayoutAccountID: d.PayoutAccountID,
		SupersededBy:    d.SupersededBy,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainArtistProfile converts a model ArtistProfile to a domain ArtistProfile
func ToDomainArtistProfile(m models.ArtistProfile) (domain.ArtistProfile, error) {
	var aliases domain.AliasSet
	if err := json.Unmarshal(nullJSON(m.Aliases), &aliases); err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("decode aliases of profile %s: %w", m.ProfileID, err)
	}
	return domain.ArtistProfile{
		ProfileID:       m.ProfileID,
		PersonID:        m.PersonID,
		EntryID:         m.EntryID,
		Name:            m.Name,
		Email:           m.Email,
		Aliases:         aliases,
		PayoutAccountID: m.PayoutAccountID,
		SupersededBy:    m.SupersededBy,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}, nil
}

// ToDomainArtistProfileSlice converts model profiles, failing on the first undecodable alias set.
func ToDomainArtistProfileSlice(ms []models.ArtistProfile) ([]domain.ArtistProfile, error) {
	ds := make([]domain.ArtistProfile, len(ms))
	for i, m := range ms {
		d, err := ToDomainArtistProfile(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}

func nullJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
