package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsgw "github.com/SscSPs/artist_ledger_app/internal/core/ports/gateways"
	"github.com/SscSPs/artist_ledger_app/internal/core/services"
	"github.com/SscSPs/artist_ledger_app/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var (
	adminActor  = domain.Actor{UserID: "admin-1", Level: domain.LevelAdmin}
	viewerActor = domain.Actor{UserID: "viewer-1", Level: domain.LevelViewer}
	fixedNow    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func fixedClock() services.ServiceOption {
	return services.WithClock(func() time.Time { return fixedNow })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

func audit(at time.Time) domain.AuditFields {
	return domain.AuditFields{CreatedAt: at, CreatedBy: "seed", LastUpdatedAt: at, LastUpdatedBy: "seed"}
}

// seedAliasScenario stores an artist whose old profile p1 (entry 3990) was superseded by
// p2 (entry 4021), with a $240 sale and a $50 debit already paid by check.
func seedAliasScenario(store *memory.Store) {
	ctx := context.Background()
	seeded := fixedNow.Add(-30 * 24 * time.Hour)
	mustNoErr(store.SavePerson(ctx, domain.Person{PersonID: "person-1", Name: "Ana Ruiz", AuditFields: audit(seeded)}))
	mustNoErr(store.SaveProfile(ctx, domain.ArtistProfile{
		ProfileID:    "p1",
		PersonID:     "person-1",
		EntryID:      3990,
		Name:         "Ana R.",
		SupersededBy: strPtr("p2"),
		AuditFields:  audit(seeded),
	}))
	mustNoErr(store.SaveProfile(ctx, domain.ArtistProfile{
		ProfileID:       "p2",
		PersonID:        "person-1",
		EntryID:         4021,
		Name:            "Ana Ruiz",
		Aliases:         domain.NewClusterAliasSet([]int64{4021, 3990}),
		PayoutAccountID: strPtr("acct_ana"),
		AuditFields:     audit(seeded),
	}))
	mustNoErr(store.SaveSale(ctx, domain.SaleRecord{
		SaleID:          "sale-1",
		ArtistProfileID: "p2",
		ArtCode:         "ART-17",
		EventName:       "Spring Live Paint",
		SalePrice:       dec("240"),
		Currency:        "USD",
		Status:          domain.SaleStatusSold,
		ClosedAt:        seeded.Add(24 * time.Hour),
	}))
	mustNoErr(store.RecordManualEntry(ctx, domain.LedgerEntry{
		EntryID:         "entry-check",
		ArtistProfileID: "p2",
		Amount:          dec("-50"),
		Currency:        "USD",
		Category:        domain.CategoryAdjustment,
		Description:     "Paid by check",
		PaymentMethod:   "check",
		CreatedBy:       "seed",
		CreatedAt:       seeded.Add(48 * time.Hour),
	}, nil))
}

func mustNoErr(err error) {
	if err != nil {
		panic(err)
	}
}

// --- Mock gateways ---

type MockTransferRail struct {
	mock.Mock
}

func (m *MockTransferRail) CreateTransfer(ctx context.Context, req portsgw.TransferRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockTransferRail) GetAccount(ctx context.Context, accountID string) (*portsgw.PayoutAccount, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portsgw.PayoutAccount), args.Error(1)
}

type MockFXQuoteProvider struct {
	mock.Mock
}

func (m *MockFXQuoteProvider) Quote(ctx context.Context, sourceCurrency, targetCurrency string, lockDuration time.Duration) (*domain.FXQuote, error) {
	args := m.Called(ctx, sourceCurrency, targetCurrency, lockDuration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FXQuote), args.Error(1)
}

type MockMarketRateProvider struct {
	mock.Mock
}

func (m *MockMarketRateProvider) ReferenceRate(ctx context.Context, sourceCurrency, targetCurrency string) (decimal.Decimal, error) {
	args := m.Called(ctx, sourceCurrency, targetCurrency)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
