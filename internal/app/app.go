// Package app wires the configured stores, gateways and services shared by
// the server and cronjob binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"nftrental-backend/internal/cache"
	"nftrental-backend/internal/config"
	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/events"
	"nftrental-backend/internal/ledger"
	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/notify"
	"nftrental-backend/internal/repository"
	"nftrental-backend/internal/repository/postgres"
	"nftrental-backend/internal/service"
)

type App struct {
	DB            *sql.DB
	Store         repository.Store
	Redis         *redis.Client // nil when caching is disabled
	Rental        service.RentalService
	Query         service.QueryService
	Reputation    service.ReputationService
	Notifications service.NotificationService
}

// New connects to Postgres (and Redis when configured) and builds every
// service. Close releases the connections.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	gateway, err := NewGateway(cfg.Ledger)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &App{DB: db, Store: postgres.NewStore(db)}

	// A nil *cache.Cache must not reach the services as a non-nil interface.
	var statsCache service.Cache
	if cfg.Redis.Addr != "" {
		a.Redis = cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, continuing without cache", "addr", cfg.Redis.Addr, "error", err)
		}
		statsCache = cache.New(a.Redis, "nftrental", cfg.Redis.StatsTTL())
		logger.Info("Stats cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.StatsTTL())
	}

	bus := events.NewBus()
	notify.NewNotifier(a.Store.Notifications()).Register(bus)

	policy := ReputationPolicy(cfg.Rental)
	a.Rental = service.NewRentalService(service.RentalServiceDeps{
		Store:     a.Store,
		Submitter: ledger.NewSubmitter(gateway, RetryConfig(cfg.Ledger)),
		Events:    bus,
		Alerts: service.NewAlertService(service.AlertConfig{
			SendGridAPIKey: cfg.Alerts.SendGridAPIKey,
			FromEmail:      cfg.Alerts.FromEmail,
			FromName:       cfg.Alerts.FromName,
			Recipients:     cfg.Alerts.OpsEmail,
		}),
		Cache: statsCache,
		Config: service.RentalConfig{
			FeeBasisPoints:           cfg.Rental.FeeBasisPoints,
			LatePenaltyMultiplierBps: cfg.Rental.LatePenaltyMultiplierBps,
			EscrowMode:               domain.EscrowMode(cfg.Rental.EscrowMode),
			MaxRentalDays:            cfg.Rental.MaxRentalDays,
			AlertAfterAttempts:       cfg.Alerts.StuckSettlementAttempts,
		},
		Reputation: policy,
	})
	a.Query = service.NewQueryService(a.Store, statsCache, nil)
	a.Reputation = service.NewReputationService(a.Store.Reputations(), policy)
	a.Notifications = service.NewNotificationService(a.Store.Notifications())
	return a, nil
}

// Ready pings the database.
func (a *App) Ready(ctx context.Context) error {
	return a.DB.PingContext(ctx)
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn("Failed to close redis client", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}
}

// NewGateway returns the JSON-RPC gateway for type "rpc" and the in-memory
// mock otherwise.
func NewGateway(cfg config.LedgerConfig) (ledger.Gateway, error) {
	switch cfg.Type {
	case "rpc":
		logger.Info("Using JSON-RPC ledger gateway", "url", cfg.RPCURL)
		gw, err := ledger.NewRPCGateway(ledger.RPCConfig{
			URL:               cfg.RPCURL,
			Timeout:           cfg.Timeout(),
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		})
		if err != nil {
			return nil, err
		}
		return gw, nil
	case "", "mock":
		logger.Warn("Using mock ledger gateway; settlements are not sent anywhere")
		return ledger.NewMockGateway(), nil
	default:
		return nil, fmt.Errorf("unsupported ledger type %q", cfg.Type)
	}
}

func RetryConfig(cfg config.LedgerConfig) ledger.RetryConfig {
	rc := ledger.DefaultRetryConfig()
	rc.MaxRetries = cfg.MaxRetries
	if cfg.InitialBackoffMs > 0 {
		rc.InitialBackoff = time.Duration(cfg.InitialBackoffMs) * time.Millisecond
	}
	if cfg.MaxBackoffMs > 0 {
		rc.MaxBackoff = time.Duration(cfg.MaxBackoffMs) * time.Millisecond
	}
	if cfg.BackoffMultiplier > 0 {
		rc.BackoffMultiplier = cfg.BackoffMultiplier
	}
	if t := cfg.Timeout(); t > 0 {
		rc.AttemptTimeout = t
	}
	return rc
}

func ReputationPolicy(cfg config.RentalConfig) service.ReputationPolicy {
	return service.ReputationPolicy{
		OnTimeReward:       cfg.ReputationOnTimeReward,
		LatePenaltyPerDay:  cfg.ReputationLatePenaltyPerDay,
		MaxLatePenalty:     cfg.ReputationMaxLatePenalty,
		ExcellentThreshold: cfg.ReputationExcellentThreshold,
		GoodThreshold:      cfg.ReputationGoodThreshold,
	}
}
