package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// StorageDriver selects the IdentityStore implementation.
type StorageDriver string

const (
	StoragePostgres StorageDriver = "postgres"
	StorageMemory   StorageDriver = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string        `validate:"required_if=StorageDriver postgres"`
	Port          string        `validate:"required,numeric"`
	IsProduction  bool
	EnableDBCheck bool
	StorageDriver StorageDriver `validate:"oneof=postgres memory"`
	LogLevel      string        `validate:"oneof=debug info warn error"`

	JWTSecret string `validate:"required,min=16"`
	JWTIssuer string

	// Ledger rules
	SettlementCurrency     string          `validate:"required,len=3,uppercase"`
	CommissionRate         decimal.Decimal `validate:"-"`
	PaymentDuplicateWindow time.Duration   `validate:"gt=0"`
	AliasLookupBatchSize   int             `validate:"min=1,max=100"`

	// FX
	FXQuoteLockDuration time.Duration   `validate:"gt=0"`
	FXEstimatedSpread   decimal.Decimal `validate:"-"`
	FXAllowEstimates    bool
	FXTimeout           time.Duration `validate:"gt=0"`
	FXRequestsPerSecond float64       `validate:"gt=0"`
	MarketRateURL       string        `validate:"omitempty,url"`

	// Transfer rail
	StripeSecretKey       string
	StripeFXQuotesEnabled bool
	TransferTimeout       time.Duration `validate:"gt=0"`

	// HTTP surface
	RateLimit          string
	CORSAllowedOrigins []string
	PosthogAPIKey      string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("STORAGE_DRIVER", string(StoragePostgres))
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "artist-ledger")
	viper.SetDefault("SETTLEMENT_CURRENCY", "USD")
	viper.SetDefault("COMMISSION_RATE", "0.5")
	viper.SetDefault("PAYMENT_DUPLICATE_WINDOW", "10m")
	viper.SetDefault("ALIAS_LOOKUP_BATCH_SIZE", 10)
	viper.SetDefault("FX_QUOTE_LOCK_DURATION", "1h")
	viper.SetDefault("FX_ESTIMATED_SPREAD", "0.01")
	viper.SetDefault("FX_ALLOW_ESTIMATES", false)
	viper.SetDefault("FX_TIMEOUT", "10s")
	viper.SetDefault("FX_REQUESTS_PER_SECOND", 5)
	viper.SetDefault("MARKET_RATE_URL", "https://api.exchangerate-api.com/v4/latest")
	viper.SetDefault("STRIPE_SECRET_KEY", "")
	viper.SetDefault("STRIPE_FX_QUOTES_ENABLED", false)
	viper.SetDefault("TRANSFER_TIMEOUT", "30s")
	viper.SetDefault("RATE_LIMIT", "120-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")
	viper.SetDefault("POSTHOG_API_KEY", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.StorageDriver = StorageDriver(strings.ToLower(viper.GetString("STORAGE_DRIVER")))
	cfg.LogLevel = strings.ToLower(viper.GetString("LOG_LEVEL"))
	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	if cfg.StorageDriver == StoragePostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.SettlementCurrency = strings.ToUpper(viper.GetString("SETTLEMENT_CURRENCY"))

	commission, err := decimal.NewFromString(viper.GetString("COMMISSION_RATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid COMMISSION_RATE: %w", err)
	}
	if commission.IsNegative() || commission.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("COMMISSION_RATE must be between 0 and 1, got %s", commission)
	}
	cfg.CommissionRate = commission

	cfg.PaymentDuplicateWindow = durationOrDefault("PAYMENT_DUPLICATE_WINDOW", 10*time.Minute)
	cfg.AliasLookupBatchSize = viper.GetInt("ALIAS_LOOKUP_BATCH_SIZE")

	cfg.FXQuoteLockDuration = durationOrDefault("FX_QUOTE_LOCK_DURATION", time.Hour)
	spread, err := decimal.NewFromString(viper.GetString("FX_ESTIMATED_SPREAD"))
	if err != nil {
		return nil, fmt.Errorf("invalid FX_ESTIMATED_SPREAD: %w", err)
	}
	if spread.IsNegative() || spread.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("FX_ESTIMATED_SPREAD must be in [0, 1), got %s", spread)
	}
	cfg.FXEstimatedSpread = spread
	cfg.FXAllowEstimates = viper.GetBool("FX_ALLOW_ESTIMATES")
	cfg.FXTimeout = durationOrDefault("FX_TIMEOUT", 10*time.Second)
	cfg.FXRequestsPerSecond = viper.GetFloat64("FX_REQUESTS_PER_SECOND")
	cfg.MarketRateURL = viper.GetString("MARKET_RATE_URL")

	cfg.StripeSecretKey = viper.GetString("STRIPE_SECRET_KEY")
	cfg.StripeFXQuotesEnabled = viper.GetBool("STRIPE_FX_QUOTES_ENABLED")
	cfg.TransferTimeout = durationOrDefault("TRANSFER_TIMEOUT", 30*time.Second)
	if cfg.StripeSecretKey == "" {
		log.Println("Warning: STRIPE_SECRET_KEY not set. Payment execution and locked FX quotes will not function.")
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
