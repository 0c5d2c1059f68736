// Package memory is an in-process IdentityStore. It backs local development and the
// service tests, and mirrors the transactional guarantees of the Postgres store with one mutex.
package memory

import (
	"sync"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
)

// Store holds every record in maps guarded by a single mutex.
type Store struct {
	mu       sync.RWMutex
	persons  map[string]domain.Person
	profiles map[string]domain.ArtistProfile
	sales    map[string]domain.SaleRecord
	entries  []domain.LedgerEntry
	payments map[string]domain.Payment
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		persons:  make(map[string]domain.Person),
		profiles: make(map[string]domain.ArtistProfile),
		sales:    make(map[string]domain.SaleRecord),
		payments: make(map[string]domain.Payment),
	}
}

// NewRepositoryProvider exposes one Store through every repository port.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		IdentityRepo: store,
		LedgerRepo:   store,
		PaymentRepo:  store,
	}
}

var (
	_ portsrepo.IdentityRepositoryFacade = (*Store)(nil)
	_ portsrepo.LedgerRepositoryFacade   = (*Store)(nil)
	_ portsrepo.PaymentRepositoryFacade  = (*Store)(nil)
)

func stringSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func clonePerson(p domain.Person) domain.Person {
	p.Phones = append([]string(nil), p.Phones...)
	p.PhoneKeys = append([]string(nil), p.PhoneKeys...)
	p.ExternalAuthID = cloneString(p.ExternalAuthID)
	p.SupersededBy = cloneString(p.SupersededBy)
	return p
}

func cloneProfile(p domain.ArtistProfile) domain.ArtistProfile {
	p.Aliases = cloneAliases(p.Aliases)
	p.PayoutAccountID = cloneString(p.PayoutAccountID)
	p.SupersededBy = cloneString(p.SupersededBy)
	return p
}

func cloneAliases(a domain.AliasSet) domain.AliasSet {
	a.Flat = append([]int64(nil), a.Flat...)
	if a.Clusters != nil {
		clusters := make([]domain.AliasCluster, len(a.Clusters))
		for i, c := range a.Clusters {
			clusters[i] = domain.AliasCluster{ClusterEntryIDs: append([]int64(nil), c.ClusterEntryIDs...)}
		}
		a.Clusters = clusters
	}
	return a
}

func clonePayment(p domain.Payment) domain.Payment {
	p.TransferReference = cloneString(p.TransferReference)
	p.FailureReason = cloneString(p.FailureReason)
	p.LedgerEntryID = cloneString(p.LedgerEntryID)
	if p.Transfer != nil {
		t := *p.Transfer
		p.Transfer = &t
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		p.CompletedAt = &t
	}
	if p.FailedAt != nil {
		t := *p.FailedAt
		p.FailedAt = &t
	}
	return p
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
