// internal/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	router "bank-ledger/internal/api"
	"bank-ledger/internal/api/handler"
	"bank-ledger/internal/config"
	"bank-ledger/internal/events"
	"bank-ledger/internal/metrics"
	"bank-ledger/internal/reference"
	"bank-ledger/internal/repository"
	"bank-ledger/internal/repository/cache"
	"bank-ledger/internal/repository/memory"
	"bank-ledger/internal/repository/postgres"
	"bank-ledger/internal/repository/remote"
	"bank-ledger/internal/service"
	"bank-ledger/internal/util"
	"bank-ledger/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB      // nil with the memory driver
	Redis  *redis.Client // nil when the cache is disabled

	// Repositories
	LocalBalances         repository.BalanceStore // the store this process owns
	MemoryAccounts        *memory.BalanceStore    // set with the memory driver, for seeding
	BalanceStore          repository.BalanceStore // what the engine uses: local or remote
	TransactionRepository repository.TransactionRepository

	// Engine
	Publisher          events.Publisher
	Metrics            *metrics.EngineMetrics
	TransactionService service.TransactionService

	// HTTP API
	HTTPHandler http.Handler

	kafka *events.KafkaPublisher
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		app.Logger = util.GetLogger()
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "storage", cfg.StorageDriver)

	// 3. Storage
	if err := app.initStorage(ctx); err != nil {
		return err
	}

	// 4. Balance store: local, or the remote balance service when configured
	app.BalanceStore = app.LocalBalances
	if cfg.BalanceService.URL != "" {
		app.BalanceStore = remote.NewBalanceClient(remote.Config{
			BaseURL: cfg.BalanceService.URL,
			Timeout: cfg.BalanceService.Timeout,
		}, app.Logger)
		app.Logger.Info("Using remote balance service.", "url", cfg.BalanceService.URL)
	}

	// 5. Transaction cache
	if cfg.Redis.Addr != "" {
		app.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := app.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		app.TransactionRepository = cache.NewTransactionCache(app.TransactionRepository, app.Redis, cfg.Redis.TTL, app.Logger)
		app.Logger.Info("Transaction cache enabled.", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	// 6. Events
	if len(cfg.Kafka.Brokers) > 0 {
		app.kafka = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		app.Publisher = app.kafka
		app.Logger.Info("Publishing transaction events to Kafka.", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	} else {
		app.Publisher = events.NewLogPublisher(app.Logger)
	}

	// 7. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.NewEngineMetrics(registry)

	// 8. Initialize Services
	app.TransactionService = service.NewTransactionService(
		app.BalanceStore,
		app.TransactionRepository,
		reference.NewRandomGenerator(),
		app.Publisher,
		app.Metrics,
		app.Logger,
		cfg.Engine,
	)
	app.Logger.Info("Services initialized.")

	// 9. Initialize HTTP Handlers and Router
	app.HTTPHandler = router.NewRouter(router.RouterDeps{
		TransactionHandler: handler.NewTransactionHandler(app.TransactionService, app.Logger),
		AccountHandler:     handler.NewAccountHandler(app.LocalBalances, app.Logger),
		Metrics:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

func (app *Application) initStorage(ctx context.Context) error {
	if app.Config.StorageDriver == config.StorageMemory {
		app.MemoryAccounts = memory.NewBalanceStore()
		app.LocalBalances = app.MemoryAccounts
		app.TransactionRepository = memory.NewTransactionStore()
		app.Logger.Warn("Using in-memory storage; nothing survives a restart.")
		return nil
	}

	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	if app.Config.AutoMigrate {
		if err := db.EnsureSchema(ctx, app.DB); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		app.Logger.Info("Database schema ensured.")
	}

	app.LocalBalances = postgres.NewAccountStore(app.DB)
	app.TransactionRepository = postgres.NewTransactionRepository(app.DB)
	app.Logger.Info("Repositories initialized.")
	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	var errs []error

	if app.kafka != nil {
		if err := app.kafka.Close(); err != nil {
			app.Logger.Error("Failed to close Kafka writer", "error", err)
			errs = append(errs, fmt.Errorf("failed to close kafka writer: %w", err))
		}
	}
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close redis client", "error", err)
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		} else {
			app.Logger.Info("Database connection closed.")
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
