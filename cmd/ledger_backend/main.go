package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/SscSPs/artist_ledger_app/cmd/docs"
	"github.com/SscSPs/artist_ledger_app/internal/adapters/fx"
	"github.com/SscSPs/artist_ledger_app/internal/adapters/stripe"
	portsgw "github.com/SscSPs/artist_ledger_app/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/artist_ledger_app/internal/core/services"
	"github.com/SscSPs/artist_ledger_app/internal/handlers"
	"github.com/SscSPs/artist_ledger_app/internal/middleware"
	"github.com/SscSPs/artist_ledger_app/internal/platform/config"
	"github.com/SscSPs/artist_ledger_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/artist_ledger_app/internal/repositories/memory"
	"github.com/SscSPs/artist_ledger_app/internal/utils"
	"github.com/SscSPs/artist_ledger_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Artist Ledger API
// @version 1.0
// @description Artist identity reconciliation, balances and payouts.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	repos, closeStore, err := setupRepositories(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	serviceContainer := services.NewServiceContainer(cfg, repos, setupGateways(cfg, logger))

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), middleware.MetricsMiddleware())
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
		corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID")
		r.Use(cors.New(corsConfig))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, serviceContainer, posthogClient); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage", string(cfg.StorageDriver)))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// setupRepositories builds the configured IdentityStore and returns a function that releases it.
func setupRepositories(cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewRepositoryProvider(memory.NewStore()), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		database.ClosePgxPool(dbPool)
		return portsrepo.RepositoryProvider{}, nil, err
	}
	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

// runMigrations applies every pending migration from ./migrations.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	// A plain sql.DB over the pgx stdlib driver, used only by migrate.
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return upErr
	}
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		return errors.Join(sourceErr, dbErr)
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// setupGateways wires the external providers that are configured. Missing ones stay nil.
func setupGateways(cfg *config.Config, logger *slog.Logger) portsgw.Provider {
	var gateways portsgw.Provider
	httpClient := &http.Client{Timeout: cfg.FXTimeout}

	if cfg.StripeSecretKey != "" {
		gateways.TransferRail = stripe.NewTransferRail(stripe.Options{SecretKey: cfg.StripeSecretKey})
		if cfg.StripeFXQuotesEnabled {
			gateways.FXQuotes = fx.NewStripeQuoteProvider(fx.StripeQuoteOptions{
				SecretKey:         cfg.StripeSecretKey,
				HTTPClient:        httpClient,
				RequestsPerSecond: cfg.FXRequestsPerSecond,
			})
		}
	}
	if cfg.MarketRateURL != "" {
		gateways.MarketRates = fx.NewMarketRateClient(fx.MarketRateOptions{
			BaseURL:           cfg.MarketRateURL,
			HTTPClient:        httpClient,
			RequestsPerSecond: cfg.FXRequestsPerSecond,
			CacheTTL:          time.Minute,
		})
	}

	logger.Info("External gateways configured",
		slog.Bool("transfer_rail", gateways.TransferRail != nil),
		slog.Bool("fx_quotes", gateways.FXQuotes != nil),
		slog.Bool("market_rates", gateways.MarketRates != nil))
	return gateways
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
