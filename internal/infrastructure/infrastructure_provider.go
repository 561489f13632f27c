package infrastructure

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nevis-server/internal/config"
	"nevis-server/internal/domain/credit"
	"nevis-server/internal/infrastructure/brandresolver"
	"nevis-server/internal/infrastructure/crontab"
	"nevis-server/internal/infrastructure/database"
	"nevis-server/internal/infrastructure/inference"
	"nevis-server/internal/infrastructure/ledger"
	"nevis-server/internal/infrastructure/logger"
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.Load()
}

// ProvideDatabase provides a database connection. Returns nil when no
// DATABASE_URL is configured; the ledger then runs in memory.
func ProvideDatabase(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, credit ledger runs in memory")
		return nil, nil
	}

	db, err := database.NewDB(cfg.DatabaseURL, cfg.DBPostgresqlRead1DSN)
	if err != nil {
		return nil, err
	}

	// Run migrations if AUTO_MIGRATE is enabled
	if cfg.AutoMigrate {
		log.Info().Msg("Running database migrations...")
		if err := database.AutoMigrate(db); err != nil {
			log.Error().Err(err).Msg("Failed to run database migrations")
			return nil, err
		}
		log.Info().Msg("Database migrations completed successfully")
	}

	return db, nil
}

// ProvideLedger selects the credit ledger backend: postgres when a database
// is configured, in-memory otherwise.
func ProvideLedger(cfg *config.Config, db *gorm.DB, log zerolog.Logger) credit.Ledger {
	startingCredits := decimal.NewFromFloat(cfg.StartingCredits)
	if db == nil {
		return ledger.NewMemoryLedger(startingCredits)
	}
	return ledger.NewGormLedger(db, startingCredits, log)
}

// ProvideBrandResolver wires the HTTP-based brand profile resolver.
func ProvideBrandResolver(cfg *config.Config, log zerolog.Logger) brandresolver.Resolver {
	return brandresolver.NewResolver(cfg, log)
}

// Infrastructure holds all infrastructure dependencies
type Infrastructure struct {
	DB      *gorm.DB
	Ledger  credit.Ledger
	Clients inference.ClientSet
	Logger  zerolog.Logger
}

// NewInfrastructure creates a new infrastructure instance
func NewInfrastructure(
	db *gorm.DB,
	creditLedger credit.Ledger,
	clients inference.ClientSet,
	log zerolog.Logger,
) *Infrastructure {
	return &Infrastructure{
		DB:      db,
		Ledger:  creditLedger,
		Clients: clients,
		Logger:  log,
	}
}

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,

	// Database + ledger
	ProvideDatabase,
	ProvideLedger,

	// Provider clients
	inference.NewClientSet,

	// Brand resolver
	ProvideBrandResolver,

	// Logger
	logger.GetLogger,

	// Crontab for the model health sweep
	crontab.NewCrontab,

	// Infrastructure struct
	NewInfrastructure,
)
