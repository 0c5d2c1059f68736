package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/metrics"
)

const defaultAliasBatchSize = 10

type aliasResolverService struct {
	BaseService
	identityRepo portsrepo.IdentityRepositoryFacade
	batchSize    int
}

// NewAliasResolverService creates the artist resolution service. batchSize bounds how many
// identifiers go into one alias query.
func NewAliasResolverService(repo portsrepo.IdentityRepositoryFacade, batchSize int, options ...ServiceOption) portssvc.AliasResolverSvc {
	if batchSize <= 0 {
		batchSize = defaultAliasBatchSize
	}
	svc := &aliasResolverService{identityRepo: repo, batchSize: batchSize}
	applyBaseOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.AliasResolverSvc = (*aliasResolverService)(nil)

// resolveRun carries the state of one Resolve call.
type resolveRun struct {
	result    *domain.ResolutionResult
	canonical *canonicalResolver
	failed    map[string]bool
}

func (r *resolveRun) batchError(identifiers []string, err error) {
	r.result.BatchErrors = append(r.result.BatchErrors, domain.BatchError{Identifiers: identifiers, Error: err.Error()})
	for _, id := range identifiers {
		r.failed[id] = true
	}
	metrics.AliasBatchFailures.Inc()
}

func (s *aliasResolverService) Resolve(ctx context.Context, actor domain.Actor, identifiers []string) (*domain.ResolutionResult, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelViewer); err != nil {
		return nil, err
	}

	unique := dedupeIdentifiers(identifiers)
	if len(unique) == 0 {
		return nil, fmt.Errorf("%w: at least one identifier is required", apperrors.ErrValidation)
	}

	run := &resolveRun{
		result:    &domain.ResolutionResult{Profiles: []domain.ResolvedProfile{}, NotFound: []domain.UnresolvedIdentifier{}},
		canonical: newCanonicalResolver(s.identityRepo),
		failed:    make(map[string]bool),
	}
	run.result.Stats.Requested = len(unique)

	numbers := make(map[int64][]string)
	var numberOrder []int64
	var phones []string
	for _, ident := range unique {
		switch classifyIdentifier(ident) {
		case domain.IdentifierPhone:
			phones = append(phones, ident)
		case domain.IdentifierEntryID:
			n, _ := strconv.ParseInt(ident, 10, 64)
			if _, seen := numbers[n]; !seen {
				numberOrder = append(numberOrder, n)
			}
			numbers[n] = append(numbers[n], ident)
		default:
			run.result.NotFound = append(run.result.NotFound, domain.UnresolvedIdentifier{Identifier: ident, Reason: "unsupported identifier"})
		}
	}

	s.resolveNumbers(ctx, run, numbers, numberOrder)
	s.resolvePhones(ctx, run, phones)

	run.result.Stats.NotFound = len(run.result.NotFound)
	run.result.Stats.FailedBatches = len(run.result.BatchErrors)
	metrics.AliasResolutions.WithLabelValues("not_found").Add(float64(len(run.result.NotFound)))

	s.LogInfo(ctx, "Resolved artist identifiers",
		slog.Int("requested", run.result.Stats.Requested),
		slog.Int("direct", run.result.Stats.FoundDirect),
		slog.Int("alias", run.result.Stats.FoundByAlias),
		slog.Int("phone", run.result.Stats.FoundByPhone),
		slog.Int("not_found", run.result.Stats.NotFound),
		slog.Int("failed_batches", run.result.Stats.FailedBatches))
	return run.result, nil
}

func (s *aliasResolverService) resolveNumbers(ctx context.Context, run *resolveRun, numbers map[int64][]string, order []int64) {
	if len(order) == 0 {
		return
	}

	// Direct lookup by the profile's own external number.
	direct := make(map[int64][]domain.ArtistProfile)
	for _, batch := range chunkInt64(order, s.batchSize) {
		profiles, err := s.identityRepo.FindProfilesByEntryIDs(ctx, batch)
		if err != nil {
			s.LogError(ctx, err, "Direct entry lookup batch failed", slog.Int("batch_size", len(batch)))
			run.batchError(identifiersFor(batch, numbers), fmt.Errorf("direct lookup: %w", err))
			continue
		}
		for _, p := range profiles {
			direct[p.EntryID] = append(direct[p.EntryID], p)
		}
	}

	var needAlias []int64
	supersededDirect := make(map[int64][]domain.ArtistProfile)
	for _, n := range order {
		if run.failed[numbers[n][0]] {
			continue
		}
		var live []domain.ArtistProfile
		for _, p := range direct[n] {
			if p.IsSuperseded() {
				supersededDirect[n] = append(supersededDirect[n], p)
				continue
			}
			live = append(live, p)
		}
		if len(live) == 0 {
			needAlias = append(needAlias, n)
			continue
		}
		best, others := pickMostRecent(live)
		for _, ident := range numbers[n] {
			run.add(domain.ResolvedProfile{
				Identifier:    ident,
				Profile:       best,
				AmbiguousWith: others,
				Kind:          domain.IdentifierEntryID,
			})
			run.result.Stats.FoundDirect++
			metrics.AliasResolutions.WithLabelValues("direct").Inc()
		}
	}

	// Alias search for numbers without a live direct match.
	for _, batch := range chunkInt64(needAlias, s.batchSize) {
		candidates, err := s.identityRepo.FindProfilesByAliasEntryIDs(ctx, batch)
		if err != nil {
			s.LogError(ctx, err, "Alias lookup batch failed", slog.Int("batch_size", len(batch)))
			run.batchError(identifiersFor(batch, numbers), fmt.Errorf("alias lookup: %w", err))
			continue
		}
		for _, n := range batch {
			s.resolveOneAlias(ctx, run, n, numbers[n], candidates, supersededDirect[n])
		}
	}
}

func (s *aliasResolverService) resolveOneAlias(ctx context.Context, run *resolveRun, n int64, idents []string, candidates []domain.ArtistProfile, supersededDirect []domain.ArtistProfile) {
	var matched []domain.ArtistProfile
	for _, c := range candidates {
		if c.EntryID == n {
			continue
		}
		for _, alias := range c.AliasEntryIDs() {
			if alias == n {
				matched = append(matched, c)
				break
			}
		}
	}

	viaAlias := len(matched) > 0
	if !viaAlias {
		matched = supersededDirect
	}
	if len(matched) == 0 {
		for _, ident := range idents {
			run.result.NotFound = append(run.result.NotFound, domain.UnresolvedIdentifier{Identifier: ident, Reason: "no profile or alias matches"})
		}
		return
	}

	live, chains, err := s.canonicalize(ctx, run, matched)
	if err != nil {
		s.LogError(ctx, err, "Failed to follow supersession", slog.Int64("entry_id", n))
		run.batchError(idents, fmt.Errorf("follow supersession: %w", err))
		return
	}

	best, others := pickMostRecent(live)
	for _, ident := range idents {
		resolved := domain.ResolvedProfile{
			Identifier:      ident,
			Profile:         best,
			FoundByAlias:    viaAlias,
			ViaSupersession: len(chains[best.ProfileID]) > 0,
			SupersededFrom:  chains[best.ProfileID],
			AmbiguousWith:   others,
			Kind:            domain.IdentifierEntryID,
		}
		run.add(resolved)
		switch {
		case viaAlias:
			run.result.Stats.FoundByAlias++
			metrics.AliasResolutions.WithLabelValues("alias").Inc()
		default:
			run.result.Stats.FoundDirect++
			metrics.AliasResolutions.WithLabelValues("supersession").Inc()
		}
	}
	if len(others) > 0 {
		s.LogWarn(ctx, "Ambiguous alias match resolved to most recently updated profile",
			slog.Int64("entry_id", n),
			slog.String("chosen_profile_id", best.ProfileID),
			slog.Any("other_profile_ids", others))
	}
}

func (s *aliasResolverService) resolvePhones(ctx context.Context, run *resolveRun, phones []string) {
	if len(phones) == 0 {
		return
	}
	keyed := make(map[string][]string)
	var keys []string
	for _, ident := range phones {
		key := domain.PhoneKey(ident)
		if _, seen := keyed[key]; !seen {
			keys = append(keys, key)
		}
		keyed[key] = append(keyed[key], ident)
	}

	for _, batch := range chunkStrings(keys, s.batchSize) {
		batchIdents := make([]string, 0, len(batch))
		for _, k := range batch {
			batchIdents = append(batchIdents, keyed[k]...)
		}

		persons, err := s.identityRepo.FindPersonsByPhoneKeys(ctx, batch)
		if err != nil {
			s.LogError(ctx, err, "Phone lookup batch failed", slog.Int("batch_size", len(batch)))
			run.batchError(batchIdents, fmt.Errorf("phone lookup: %w", err))
			continue
		}
		personIDs := make([]string, 0, len(persons))
		for _, p := range persons {
			personIDs = append(personIDs, p.PersonID)
		}
		var profiles []domain.ArtistProfile
		if len(personIDs) > 0 {
			profiles, err = s.identityRepo.FindProfilesByPersonIDs(ctx, personIDs)
			if err != nil {
				s.LogError(ctx, err, "Profile lookup for phone batch failed", slog.Int("batch_size", len(batch)))
				run.batchError(batchIdents, fmt.Errorf("phone profile lookup: %w", err))
				continue
			}
		}

		for _, key := range batch {
			owners := make(map[string]bool)
			for _, p := range persons {
				for _, pk := range p.PhoneKeys {
					if pk == key {
						owners[p.PersonID] = true
					}
				}
			}
			var matched []domain.ArtistProfile
			for _, prof := range profiles {
				if owners[prof.PersonID] {
					matched = append(matched, prof)
				}
			}
			if len(matched) == 0 {
				for _, ident := range keyed[key] {
					run.result.NotFound = append(run.result.NotFound, domain.UnresolvedIdentifier{Identifier: ident, Reason: "no person with this phone number"})
				}
				continue
			}
			live, chains, err := s.canonicalize(ctx, run, matched)
			if err != nil {
				run.batchError(keyed[key], fmt.Errorf("follow supersession: %w", err))
				continue
			}
			best, others := pickMostRecent(live)
			for _, ident := range keyed[key] {
				run.add(domain.ResolvedProfile{
					Identifier:      ident,
					Profile:         best,
					FoundByPhone:    true,
					ViaSupersession: len(chains[best.ProfileID]) > 0,
					SupersededFrom:  chains[best.ProfileID],
					AmbiguousWith:   others,
					Kind:            domain.IdentifierPhone,
				})
				run.result.Stats.FoundByPhone++
				metrics.AliasResolutions.WithLabelValues("phone").Inc()
			}
		}
	}
}

// canonicalize maps every matched profile to its live canonical profile, dropping duplicates.
// The returned map holds, per canonical id, the superseded ids that led to it.
func (s *aliasResolverService) canonicalize(ctx context.Context, run *resolveRun, matched []domain.ArtistProfile) ([]domain.ArtistProfile, map[string][]string, error) {
	chains := make(map[string][]string)
	seen := make(map[string]bool)
	var live []domain.ArtistProfile
	for _, m := range matched {
		canonical, from, err := run.canonical.resolve(ctx, m)
		if err != nil {
			return nil, nil, err
		}
		if len(from) > 0 && chains[canonical.ProfileID] == nil {
			chains[canonical.ProfileID] = from
		}
		if seen[canonical.ProfileID] {
			continue
		}
		seen[canonical.ProfileID] = true
		live = append(live, *canonical)
	}
	// A profile reached both directly and through supersession counts as direct.
	for id := range chains {
		for _, m := range matched {
			if m.ProfileID == id {
				delete(chains, id)
				break
			}
		}
	}
	return live, chains, nil
}

func (r *resolveRun) add(p domain.ResolvedProfile) {
	if len(p.AmbiguousWith) > 0 {
		r.result.Stats.Ambiguous++
	}
	r.result.Profiles = append(r.result.Profiles, p)
}

func classifyIdentifier(ident string) domain.IdentifierKind {
	if domain.LooksLikePhone(ident) {
		return domain.IdentifierPhone
	}
	n, err := strconv.ParseInt(ident, 10, 64)
	if err != nil || n <= 0 {
		return domain.IdentifierUnknown
	}
	return domain.IdentifierEntryID
}

func dedupeIdentifiers(identifiers []string) []string {
	seen := make(map[string]bool, len(identifiers))
	out := make([]string, 0, len(identifiers))
	for _, raw := range identifiers {
		ident := strings.TrimSpace(raw)
		if ident == "" || seen[ident] {
			continue
		}
		seen[ident] = true
		out = append(out, ident)
	}
	return out
}

func identifiersFor(batch []int64, numbers map[int64][]string) []string {
	var out []string
	for _, n := range batch {
		out = append(out, numbers[n]...)
	}
	return out
}
