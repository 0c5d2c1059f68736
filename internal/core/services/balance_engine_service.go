package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/metrics"
	"github.com/shopspring/decimal"
)

type balanceEngineService struct {
	BaseService
	identityRepo       portsrepo.IdentityRepositoryFacade
	ledgerRepo         portsrepo.LedgerRepositoryFacade
	paymentRepo        portsrepo.PaymentReader
	commissionRate     decimal.Decimal
	settlementCurrency string
}

// NewBalanceEngineService creates the balance service. commissionRate is the artist's share of a sale.
func NewBalanceEngineService(
	identityRepo portsrepo.IdentityRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	paymentRepo portsrepo.PaymentReader,
	commissionRate decimal.Decimal,
	settlementCurrency string,
	options ...ServiceOption,
) portssvc.BalanceSvcFacade {
	svc := &balanceEngineService{
		identityRepo:       identityRepo,
		ledgerRepo:         ledgerRepo,
		paymentRepo:        paymentRepo,
		commissionRate:     commissionRate,
		settlementCurrency: domain.NormalizeCurrency(settlementCurrency),
	}
	applyBaseOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.BalanceSvcFacade = (*balanceEngineService)(nil)

// balanceInputs is everything read to compute one balance.
type balanceInputs struct {
	result   *domain.BalanceResult
	members  map[string]domain.ArtistProfile
	sales    []domain.SaleRecord
	entries  []domain.LedgerEntry
	payments []domain.Payment
}

func (s *balanceEngineService) GetBalance(ctx context.Context, actor domain.Actor, profileID string) (*domain.BalanceResult, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelViewer); err != nil {
		return nil, err
	}
	in, err := s.compute(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return in.result, nil
}

func (s *balanceEngineService) GetStatement(ctx context.Context, actor domain.Actor, profileID string) (*domain.Statement, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelViewer); err != nil {
		return nil, err
	}
	in, err := s.compute(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return &domain.Statement{Balance: *in.result, Lines: s.statementLines(in)}, nil
}

func (s *balanceEngineService) compute(ctx context.Context, profileID string) (*balanceInputs, error) {
	start, err := s.identityRepo.FindProfileByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load artist profile %s: %w", profileID, err)
	}
	canonical, _, err := newCanonicalResolver(s.identityRepo).resolve(ctx, *start)
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve canonical profile", slog.String("profile_id", profileID))
		return nil, fmt.Errorf("failed to resolve canonical profile of %s: %w", profileID, err)
	}

	in := &balanceInputs{
		result: &domain.BalanceResult{
			CanonicalProfileID: canonical.ProfileID,
			RequestedProfileID: profileID,
			ComputedAt:         s.Now(),
		},
		members: map[string]domain.ArtistProfile{canonical.ProfileID: *canonical},
	}
	membership := map[string]domain.ProfileMembership{canonical.ProfileID: domain.MembershipCanonical}

	roots := []string{canonical.ProfileID}
	for _, p := range s.phoneMatchedProfiles(ctx, in, *canonical) {
		if _, ok := in.members[p.ProfileID]; ok {
			continue
		}
		in.members[p.ProfileID] = p
		membership[p.ProfileID] = domain.MembershipPhoneMatch
		in.result.UnmergedDuplicates = append(in.result.UnmergedDuplicates, p.ProfileID)
		roots = append(roots, p.ProfileID)
	}
	s.collectSuperseded(ctx, in, membership, roots)

	ids := make([]string, 0, len(in.members))
	for id := range in.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := in.members[id]
		in.result.Profiles = append(in.result.Profiles, domain.BalanceProfile{
			ProfileID:  p.ProfileID,
			EntryID:    p.EntryID,
			Name:       p.Name,
			Membership: membership[id],
		})
	}

	if in.sales, err = s.ledgerRepo.FindSalesByProfileIDs(ctx, ids); err != nil {
		s.gap(ctx, in, "", "sales", err)
	}
	entriesLoaded := true
	if in.entries, err = s.ledgerRepo.FindEntriesByProfileIDs(ctx, ids); err != nil {
		entriesLoaded = false
		s.gap(ctx, in, "", "ledger", err)
	}
	if in.payments, err = s.paymentRepo.FindPaymentsByProfileIDs(ctx, ids); err != nil {
		s.gap(ctx, in, "", "payments", err)
	}

	s.sum(in, entriesLoaded)

	s.LogDebug(ctx, "Computed artist balance",
		slog.String("canonical_profile_id", canonical.ProfileID),
		slog.Int("profiles", len(ids)),
		slog.String("balance", in.result.Balance.String()),
		slog.String("currency", in.result.Currency),
		slog.Int("gaps", len(in.result.Gaps)))
	return in, nil
}

// phoneMatchedProfiles returns live profiles owned by the canonical person or by any person
// sharing one of its phone keys.
func (s *balanceEngineService) phoneMatchedProfiles(ctx context.Context, in *balanceInputs, canonical domain.ArtistProfile) []domain.ArtistProfile {
	personIDs := []string{canonical.PersonID}
	person, err := s.identityRepo.FindPersonByID(ctx, canonical.PersonID)
	if err != nil {
		s.gap(ctx, in, canonical.ProfileID, "phone_match", err)
	} else if len(person.PhoneKeys) > 0 {
		matches, err := s.identityRepo.FindPersonsByPhoneKeys(ctx, person.PhoneKeys)
		if err != nil {
			s.gap(ctx, in, canonical.ProfileID, "phone_match", err)
		}
		for _, m := range matches {
			if m.PersonID != canonical.PersonID {
				personIDs = append(personIDs, m.PersonID)
			}
		}
	}

	profiles, err := s.identityRepo.FindProfilesByPersonIDs(ctx, personIDs)
	if err != nil {
		s.gap(ctx, in, canonical.ProfileID, "phone_match", err)
		return nil
	}
	live := make([]domain.ArtistProfile, 0, len(profiles))
	for _, p := range profiles {
		if !p.IsSuperseded() && p.ProfileID != canonical.ProfileID {
			live = append(live, p)
		}
	}
	return live
}

// collectSuperseded walks supersession links backwards from roots, transitively.
func (s *balanceEngineService) collectSuperseded(ctx context.Context, in *balanceInputs, membership map[string]domain.ProfileMembership, roots []string) {
	rootOf := make(map[string]string, len(roots))
	for _, r := range roots {
		rootOf[r] = r
	}
	frontier := roots
	for len(frontier) > 0 {
		children, err := s.identityRepo.FindProfilesSupersededBy(ctx, frontier)
		if err != nil {
			s.gap(ctx, in, "", "superseded", err)
			return
		}
		var next []string
		for _, child := range children {
			if _, seen := in.members[child.ProfileID]; seen {
				continue
			}
			in.members[child.ProfileID] = child
			root := rootOf[*child.SupersededBy]
			rootOf[child.ProfileID] = root
			if membership[root] == domain.MembershipPhoneMatch {
				membership[child.ProfileID] = domain.MembershipPhoneMatch
			} else {
				membership[child.ProfileID] = domain.MembershipSuperseded
			}
			next = append(next, child.ProfileID)
		}
		frontier = next
	}
}

func (s *balanceEngineService) sum(in *balanceInputs, entriesLoaded bool) {
	byCurrency := make(map[string]*domain.CurrencyBalance)
	bucket := func(currency string) *domain.CurrencyBalance {
		c := domain.NormalizeCurrency(currency)
		b, ok := byCurrency[c]
		if !ok {
			b = &domain.CurrencyBalance{
				Currency:      c,
				SaleCredits:   decimal.Zero,
				ManualCredits: decimal.Zero,
				ManualDebits:  decimal.Zero,
				PaymentDebits: decimal.Zero,
				SalesEarned:   decimal.Zero,
			}
			byCurrency[c] = b
		}
		return b
	}

	for _, sale := range in.sales {
		if !sale.Status.EarnsCommission() {
			continue
		}
		b := bucket(sale.Currency)
		commission := sale.Commission(s.commissionRate)
		b.SaleCredits = b.SaleCredits.Add(commission)
		b.SalesEarned = b.SalesEarned.Add(commission)
		b.SalesCount++
	}

	entryIDs := make(map[string]bool, len(in.entries))
	for _, e := range in.entries {
		entryIDs[e.EntryID] = true
		b := bucket(e.Currency)
		b.EntriesCount++
		switch {
		case e.IsPaymentDebit():
			b.PaymentDebits = b.PaymentDebits.Add(e.Amount.Neg())
		case e.Category == domain.CategorySaleCommission && e.Amount.IsPositive():
			b.SaleCredits = b.SaleCredits.Add(e.Amount)
		case e.Amount.IsPositive():
			b.ManualCredits = b.ManualCredits.Add(e.Amount)
		default:
			b.ManualDebits = b.ManualDebits.Add(e.Amount.Neg())
		}
	}

	for _, p := range in.payments {
		switch {
		case p.Status.Settled() && (p.LedgerEntryID == nil || (entriesLoaded && !entryIDs[*p.LedgerEntryID])):
			in.result.Inconsistencies = append(in.result.Inconsistencies,
				fmt.Sprintf("payment %s is %s but has no ledger entry", p.PaymentID, p.Status))
		case !p.Status.Settled() && p.LedgerEntryID != nil:
			in.result.Inconsistencies = append(in.result.Inconsistencies,
				fmt.Sprintf("payment %s is %s but has ledger entry %s", p.PaymentID, p.Status, *p.LedgerEntryID))
		}
	}

	currencies := make([]string, 0, len(byCurrency))
	for c := range byCurrency {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	in.result.Currency = s.settlementCurrency
	in.result.Balance = decimal.Zero
	in.result.Currencies = make([]domain.CurrencyBalance, 0, len(currencies))
	for _, c := range currencies {
		b := byCurrency[c]
		b.Recompute()
		in.result.Currencies = append(in.result.Currencies, *b)
	}

	// Headline currency: largest absolute balance; settlement currency wins ties.
	for i, b := range in.result.Currencies {
		abs, best := b.Balance.Abs(), in.result.Balance.Abs()
		if i == 0 || abs.GreaterThan(best) || (abs.Equal(best) && b.Currency == s.settlementCurrency) {
			in.result.Currency = b.Currency
			in.result.Balance = b.Balance
		}
	}

	if len(currencies) > 1 {
		in.result.HasMixedCurrencies = true
		in.result.Inconsistencies = append(in.result.Inconsistencies,
			fmt.Sprintf("amounts recorded in multiple currencies (%s) are reported separately, not summed", strings.Join(currencies, ", ")))
	}
}

func (s *balanceEngineService) statementLines(in *balanceInputs) []domain.StatementLine {
	var lines []domain.StatementLine
	for _, sale := range in.sales {
		switch {
		case sale.Status.EarnsCommission():
			lines = append(lines, domain.StatementLine{
				Date:        sale.ClosedAt,
				Kind:        domain.LineSaleCredit,
				Description: fmt.Sprintf("Sale of %s at %s (%s %s)", sale.ArtCode, sale.EventName, sale.SalePrice.StringFixed(domain.CurrencyExponent(sale.Currency)), sale.Currency),
				Amount:      sale.Commission(s.commissionRate),
				Currency:    domain.NormalizeCurrency(sale.Currency),
				ProfileID:   sale.ArtistProfileID,
				ArtCode:     sale.ArtCode,
				EventName:   sale.EventName,
			})
		case sale.Status == domain.SaleStatusClosed:
			lines = append(lines, domain.StatementLine{
				Date:        sale.ClosedAt,
				Kind:        domain.LineUnsoldArtwork,
				Description: fmt.Sprintf("Auction for %s at %s closed without a sale", sale.ArtCode, sale.EventName),
				Amount:      decimal.Zero,
				Currency:    domain.NormalizeCurrency(sale.Currency),
				ProfileID:   sale.ArtistProfileID,
				ArtCode:     sale.ArtCode,
				EventName:   sale.EventName,
			})
		}
	}
	for _, e := range in.entries {
		kind := domain.LineCredit
		switch {
		case e.IsPaymentDebit():
			kind = domain.LinePayment
		case !e.IsCredit():
			kind = domain.LineDebit
		}
		lines = append(lines, domain.StatementLine{
			Date:        e.CreatedAt,
			Kind:        kind,
			Description: e.Description,
			Amount:      e.Amount,
			Currency:    domain.NormalizeCurrency(e.Currency),
			ProfileID:   e.ArtistProfileID,
			Reference:   e.Reference,
		})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Date.Before(lines[j].Date)
	})
	running := make(map[string]decimal.Decimal)
	for i := range lines {
		running[lines[i].Currency] = running[lines[i].Currency].Add(lines[i].Amount)
		lines[i].RunningBalance = running[lines[i].Currency]
	}
	if lines == nil {
		lines = []domain.StatementLine{}
	}
	return lines
}

func (s *balanceEngineService) gap(ctx context.Context, in *balanceInputs, profileID, source string, err error) {
	s.LogError(ctx, err, "Balance input unavailable", slog.String("source", source), slog.String("profile_id", profileID))
	metrics.BalanceGaps.WithLabelValues(source).Inc()
	in.result.Gaps = append(in.result.Gaps, domain.BalanceGap{ProfileID: profileID, Source: source, Error: err.Error()})
}
