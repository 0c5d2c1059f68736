package pgsql

import (
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	identityRepo := newPgxIdentityRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool)
	paymentRepo := newPgxPaymentRepository(dbPool)

	return portsrepo.RepositoryProvider{
		IdentityRepo: identityRepo,
		LedgerRepo:   ledgerRepo,
		PaymentRepo:  paymentRepo,
	}
}
