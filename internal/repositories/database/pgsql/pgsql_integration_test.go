//go:build integration

package pgsql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/artist_ledger_app/internal/core/services"
	"github.com/SscSPs/artist_ledger_app/internal/dto"
	"github.com/SscSPs/artist_ledger_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/artist_ledger_app/pkg/database"
	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var admin = domain.Actor{UserID: "admin-1", Level: domain.LevelAdmin}

type PostgresIntegrationSuite struct {
	suite.Suite
	container testcontainers.Container
	pool      *pgxpool.Pool
	repos     portsrepo.RepositoryProvider
}

func (suite *PostgresIntegrationSuite) SetupSuite() {
	ctx := context.Background()
	if err := exec.CommandContext(ctx, "docker", "info").Run(); err != nil {
		suite.T().Skip("Skipping test: Docker not available")
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "ledger",
				"POSTGRES_PASSWORD": "ledger",
				"POSTGRES_DB":       "ledger",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	suite.Require().NoError(err)
	suite.container = container

	host, err := container.Host(ctx)
	suite.Require().NoError(err)
	port, err := container.MappedPort(ctx, "5432")
	suite.Require().NoError(err)
	url := fmt.Sprintf("postgres://ledger:ledger@%s:%s/ledger?sslmode=disable", host, port.Port())

	suite.Require().NoError(migrateUp(url))

	suite.pool, err = database.NewPgxPool(ctx, url, true)
	suite.Require().NoError(err)
	suite.repos = pgsql.NewRepositoryProvider(suite.pool)
}

func (suite *PostgresIntegrationSuite) TearDownSuite() {
	database.ClosePgxPool(suite.pool)
	if suite.container != nil {
		if err := suite.container.Terminate(context.Background()); err != nil {
			suite.T().Logf("Warning: failed to terminate container: %v", err)
		}
	}
}

func (suite *PostgresIntegrationSuite) SetupTest() {
	_, err := suite.pool.Exec(context.Background(),
		`TRUNCATE ledger_entries, payments, sales, artist_profiles, persons CASCADE`)
	suite.Require().NoError(err)
}

func migrateUp(url string) error {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return err
	}
	defer db.Close()
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://../../../../migrations", "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

var roomy = domain.PaymentAllowance{SalesEarned: decimal.NewFromInt(1000)}

func (suite *PostgresIntegrationSuite) seed() {
	ctx := context.Background()
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	audit := domain.AuditFields{CreatedAt: at, CreatedBy: "seed", LastUpdatedAt: at, LastUpdatedBy: "seed"}
	auth := "auth-b"
	account := "acct_ana"
	ids := suite.repos.IdentityRepo

	suite.Require().NoError(ids.SavePerson(ctx, domain.Person{PersonID: "a", Name: "Ana", Phones: []string{"(415) 555-0100"}, AuditFields: audit}))
	suite.Require().NoError(ids.SavePerson(ctx, domain.Person{PersonID: "b", Name: "Ana R", Phones: []string{"+14155550100"}, ExternalAuthID: &auth, AuditFields: audit}))
	suite.Require().NoError(ids.SaveProfile(ctx, domain.ArtistProfile{
		ProfileID: "pa", PersonID: "a", EntryID: 4021, Name: "Ana Ruiz",
		Aliases: domain.NewClusterAliasSet([]int64{4021, 3990}), PayoutAccountID: &account, AuditFields: audit,
	}))
	suite.Require().NoError(ids.SaveProfile(ctx, domain.ArtistProfile{ProfileID: "pb", PersonID: "b", EntryID: 3990, Name: "Ana R.", AuditFields: audit}))
	suite.Require().NoError(suite.repos.LedgerRepo.SaveSale(ctx, domain.SaleRecord{
		SaleID: "sale-1", ArtistProfileID: "pa", ArtCode: "ART-1", SalePrice: decimal.NewFromInt(100), Currency: "USD", Status: domain.SaleStatusSold, ClosedAt: at,
	}))
	suite.Require().NoError(suite.repos.LedgerRepo.SaveSale(ctx, domain.SaleRecord{
		SaleID: "sale-2", ArtistProfileID: "pb", ArtCode: "ART-2", SalePrice: decimal.NewFromInt(40), Currency: "USD", Status: domain.SaleStatusSold, ClosedAt: at,
	}))
}

func (suite *PostgresIntegrationSuite) TestMergeResolveAndPay() {
	ctx := context.Background()
	suite.seed()

	reconciler := services.NewIdentityReconcilerService(suite.repos.IdentityRepo)
	merged, err := reconciler.Merge(ctx, admin, domain.MergeRequest{
		CanonicalPersonID:        "a",
		CanonicalArtistProfileID: "pa",
		AllPersonIDs:             []string{"a", "b"},
		AllArtistProfileIDs:      []string{"pa", "pb"},
	})
	suite.Require().NoError(err)
	suite.Equal(domain.AuthFromPhoneMatch, merged.AuthIdentitySource)

	again, err := reconciler.Merge(ctx, admin, domain.MergeRequest{
		CanonicalPersonID:        "a",
		CanonicalArtistProfileID: "pa",
		AllPersonIDs:             []string{"a", "b"},
		AllArtistProfileIDs:      []string{"pa", "pb"},
	})
	suite.Require().NoError(err)
	suite.True(again.NoOp)

	resolver := services.NewAliasResolverService(suite.repos.IdentityRepo, 10)
	resolved, err := resolver.Resolve(ctx, admin, []string{"3990"})
	suite.Require().NoError(err)
	suite.Require().Len(resolved.Profiles, 1)
	suite.Equal("pa", resolved.Profiles[0].Profile.ProfileID)

	balances := services.NewBalanceEngineService(suite.repos.IdentityRepo, suite.repos.LedgerRepo, suite.repos.PaymentRepo, decimal.RequireFromString("0.5"), "USD")
	balance, err := balances.GetBalance(ctx, admin, "pb")
	suite.Require().NoError(err)
	suite.Equal("pa", balance.CanonicalProfileID)
	suite.True(balance.Balance.Equal(decimal.NewFromInt(70)), "balance %s", balance.Balance)

	payments := services.NewPaymentLifecycleService(suite.repos, balances, nil, nil, services.PaymentSettings{SettlementCurrency: "USD"})
	p, err := payments.Create(ctx, admin, dto.CreatePaymentRequest{ArtistProfileID: "pa", Amount: decimal.NewFromInt(70), Currency: "USD"})
	suite.Require().NoError(err)
	_, err = payments.Begin(ctx, admin, p.PaymentID)
	suite.Require().NoError(err)
	done, err := payments.Complete(ctx, admin, p.PaymentID, "tr_1")
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentCompleted, done.Status)

	_, err = payments.Complete(ctx, admin, p.PaymentID, "tr_2")
	suite.ErrorIs(err, apperrors.ErrConflict)

	after, err := balances.GetBalance(ctx, admin, "pa")
	suite.Require().NoError(err)
	suite.True(after.Balance.IsZero())
	suite.Empty(after.Inconsistencies)
}

func (suite *PostgresIntegrationSuite) TestBeginAllowsOneProcessingPaymentPerArtist() {
	ctx := context.Background()
	suite.seed()
	now := time.Now().UTC()

	var ids []string
	for _, amount := range []int64{10, 20, 30} {
		p := domain.Payment{
			PaymentID: fmt.Sprintf("pay-%d", amount), ArtistProfileID: "pa", Amount: decimal.NewFromInt(amount),
			Currency: "USD", Status: domain.PaymentPending,
			AuditFields: domain.AuditFields{CreatedAt: now, CreatedBy: "t", LastUpdatedAt: now, LastUpdatedBy: "t"},
		}
		suite.Require().NoError(suite.repos.PaymentRepo.CreatePayment(ctx, p, now.Add(-time.Minute), roomy))
		ids = append(ids, p.PaymentID)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = suite.repos.PaymentRepo.BeginPayment(ctx, id, "t", now)
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		suite.ErrorIs(err, apperrors.ErrConflict)
	}
	suite.Equal(1, succeeded)
}

func (suite *PostgresIntegrationSuite) TestBeginCoversProfilesMergedAfterwards() {
	ctx := context.Background()
	suite.seed()
	now := time.Now().UTC()
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: "t", LastUpdatedAt: now, LastUpdatedBy: "t"}
	repo := suite.repos.PaymentRepo

	old := domain.Payment{PaymentID: "pay-old", ArtistProfileID: "pb", Amount: decimal.NewFromInt(10), Currency: "USD", Status: domain.PaymentPending, AuditFields: audit}
	suite.Require().NoError(repo.CreatePayment(ctx, old, now.Add(-time.Minute), roomy))
	_, err := repo.BeginPayment(ctx, old.PaymentID, "t", now)
	suite.Require().NoError(err)

	reconciler := services.NewIdentityReconcilerService(suite.repos.IdentityRepo)
	_, err = reconciler.Merge(ctx, admin, domain.MergeRequest{
		CanonicalPersonID:        "a",
		CanonicalArtistProfileID: "pa",
		AllPersonIDs:             []string{"a", "b"},
		AllArtistProfileIDs:      []string{"pa", "pb"},
	})
	suite.Require().NoError(err)

	fresh := domain.Payment{PaymentID: "pay-new", ArtistProfileID: "pa", Amount: decimal.NewFromInt(20), Currency: "USD", Status: domain.PaymentPending, AuditFields: audit}
	suite.Require().NoError(repo.CreatePayment(ctx, fresh, now.Add(-time.Minute), roomy))
	_, err = repo.BeginPayment(ctx, fresh.PaymentID, "t", now)
	suite.ErrorIs(err, apperrors.ErrConflict)

	first, err := repo.RecordTransfer(ctx, old.PaymentID, domain.PaymentTransfer{SourceAmount: decimal.NewFromInt(10), SourceCurrency: "USD", DestinationID: "acct_ana"}, "t", now)
	suite.Require().NoError(err)
	second, err := repo.RecordTransfer(ctx, old.PaymentID, domain.PaymentTransfer{SourceAmount: decimal.NewFromInt(11), SourceCurrency: "USD", DestinationID: "acct_ana"}, "t", now)
	suite.Require().NoError(err)
	suite.True(first.SourceAmount.Equal(second.SourceAmount))
}

func (suite *PostgresIntegrationSuite) TestCreateRechecksAvailableUnderLock() {
	ctx := context.Background()
	suite.seed()
	now := time.Now().UTC()
	allowance := domain.PaymentAllowance{ProfileIDs: []string{"pa"}, SalesEarned: decimal.NewFromInt(50)}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, amount := range []int64{30, 40} {
		wg.Add(1)
		go func(i int, amount int64) {
			defer wg.Done()
			p := domain.Payment{
				PaymentID: fmt.Sprintf("pay-%d", amount), ArtistProfileID: "pa", Amount: decimal.NewFromInt(amount),
				Currency: "USD", Status: domain.PaymentPending,
				AuditFields: domain.AuditFields{CreatedAt: now, CreatedBy: "t", LastUpdatedAt: now, LastUpdatedBy: "t"},
			}
			errs[i] = suite.repos.PaymentRepo.CreatePayment(ctx, p, now.Add(-time.Minute), allowance)
		}(i, amount)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		suite.ErrorIs(err, apperrors.ErrValidation)
	}
	suite.Equal(1, succeeded)
}

func (suite *PostgresIntegrationSuite) TestMergeLocksEveryProfileInTheSet() {
	ctx := context.Background()
	suite.seed()
	req := domain.MergeRequest{
		CanonicalPersonID:        "a",
		CanonicalArtistProfileID: "pa",
		AllPersonIDs:             []string{"a", "b"},
		AllArtistProfileIDs:      []string{"pb", "pa"},
	}

	tests := []struct {
		name   string
		holder string
	}{
		{name: "canonical profile busy", holder: "pa"},
		{name: "merged profile busy", holder: "pb"},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			tx, err := suite.pool.Begin(ctx)
			suite.Require().NoError(err)
			defer tx.Rollback(ctx)
			_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, tt.holder)
			suite.Require().NoError(err)

			_, err = suite.repos.IdentityRepo.ApplyMerge(ctx, domain.MergePlan{Request: req, ActorID: admin.UserID, At: time.Now().UTC()})
			suite.ErrorIs(err, apperrors.ErrConflict)

			b, err := suite.repos.IdentityRepo.FindPersonByID(ctx, "b")
			suite.Require().NoError(err)
			suite.Nil(b.SupersededBy, "a refused merge changes nothing")
		})
	}

	applied, err := suite.repos.IdentityRepo.ApplyMerge(ctx, domain.MergePlan{Request: req, ActorID: admin.UserID, At: time.Now().UTC()})
	suite.Require().NoError(err)
	suite.Equal(domain.AuthFromPhoneMatch, applied.Auth.Source)
	suite.True(applied.Changes.AuthIdentityAttached)
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}
