package services

import (
	portsgw "github.com/SscSPs/artist_ledger_app/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, gateways portsgw.Provider, options ...ServiceOption) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.AliasResolver = NewAliasResolverService(repos.IdentityRepo, cfg.AliasLookupBatchSize, options...)
	container.IdentityReconciler = NewIdentityReconcilerService(repos.IdentityRepo, options...)

	// Balance is read by the payment lifecycle, so it is built first.
	container.Balance = NewBalanceEngineService(
		repos.IdentityRepo,
		repos.LedgerRepo,
		repos.PaymentRepo,
		cfg.CommissionRate,
		cfg.SettlementCurrency,
		options...,
	)

	container.PayoutFX = NewPayoutFXService(
		gateways.FXQuotes,
		gateways.MarketRates,
		cfg.FXQuoteLockDuration,
		cfg.FXEstimatedSpread,
		options...,
	)

	container.Payment = NewPaymentLifecycleService(
		repos,
		container.Balance,
		container.PayoutFX,
		gateways.TransferRail,
		PaymentSettings{
			SettlementCurrency: cfg.SettlementCurrency,
			DuplicateWindow:    cfg.PaymentDuplicateWindow,
			AllowEstimates:     cfg.FXAllowEstimates,
			TransferTimeout:    cfg.TransferTimeout,
		},
		options...,
	)

	return container
}
