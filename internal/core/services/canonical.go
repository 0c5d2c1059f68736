package services

import (
	"context"
	"sort"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
)

// canonicalResolver follows supersession chains, caching profiles it has already loaded.
// It is request scoped.
type canonicalResolver struct {
	repo  portsrepo.ArtistProfileReader
	cache map[string]*domain.ArtistProfile
}

func newCanonicalResolver(repo portsrepo.ArtistProfileReader) *canonicalResolver {
	return &canonicalResolver{repo: repo, cache: make(map[string]*domain.ArtistProfile)}
}

func (r *canonicalResolver) remember(p domain.ArtistProfile) {
	cp := p
	r.cache[p.ProfileID] = &cp
}

func (r *canonicalResolver) load(ctx context.Context, profileID string) (*domain.ArtistProfile, error) {
	if p, ok := r.cache[profileID]; ok {
		return p, nil
	}
	p, err := r.repo.FindProfileByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	r.cache[profileID] = p
	return p, nil
}

// resolve returns the live profile at the end of p's supersession chain and the ids passed through.
func (r *canonicalResolver) resolve(ctx context.Context, p domain.ArtistProfile) (*domain.ArtistProfile, []string, error) {
	r.remember(p)
	var chain []string
	canonical, err := domain.ResolveCanonical(p, func(id string) (*domain.ArtistProfile, error) {
		chain = append(chain, id)
		return r.load(ctx, id)
	})
	if err != nil {
		return nil, nil, err
	}
	if len(chain) == 0 {
		return canonical, nil, nil
	}
	// chain holds the ids looked up; report the ids left behind instead, starting at p.
	from := append([]string{p.ProfileID}, chain[:len(chain)-1]...)
	return canonical, from, nil
}

// pickMostRecent chooses the most recently updated profile, breaking ties on the lowest id.
// The ids of the other candidates are returned for reporting.
func pickMostRecent(candidates []domain.ArtistProfile) (domain.ArtistProfile, []string) {
	sorted := make([]domain.ArtistProfile, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.LastUpdatedAt.Equal(b.LastUpdatedAt) {
			return a.LastUpdatedAt.After(b.LastUpdatedAt)
		}
		return a.ProfileID < b.ProfileID
	})
	var others []string
	for _, p := range sorted[1:] {
		others = append(others, p.ProfileID)
	}
	return sorted[0], others
}

func chunkInt64(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = len(ids)
	}
	var out [][]int64
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

func chunkStrings(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}
