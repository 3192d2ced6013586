package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/starkbank-ledger/internal/api_gateway"
	"github.com/starkbank-ledger/internal/config"
	"github.com/starkbank-ledger/internal/data/file"
	"github.com/starkbank-ledger/internal/data/kv"
	"github.com/starkbank-ledger/internal/data/memory"
	"github.com/starkbank-ledger/internal/data/mongo"
	"github.com/starkbank-ledger/internal/data/postgres"
	"github.com/starkbank-ledger/internal/domain/account"
	"github.com/starkbank-ledger/internal/domain/credential"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/platform/persistence"
)

// storage holds the repositories of the selected backend and whatever must be closed on shutdown
type storage struct {
	accounts     account.Repository
	credentials  credential.Repository
	history      ledger.Repository
	healthChecks map[string]api_gateway.HealthCheck
	closers      []func(ctx context.Context)
}

func (s *storage) close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i](ctx)
	}
}

// openStorage opens the configured backend. registerer may be nil when metrics are off.
func openStorage(ctx context.Context, log *slog.Logger, cfg *config.Config, registerer prometheus.Registerer) (*storage, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendFile:
		if err := file.EnsureDir(cfg.Storage.DataDir); err != nil {
			return nil, err
		}
		log.Info("Using file storage", "data_dir", cfg.Storage.DataDir)
		return &storage{
			accounts:    file.NewAccountRepository(log, cfg.Storage.DataDir),
			credentials: file.NewCredentialRepository(log, cfg.Storage.DataDir),
			history:     file.NewLedgerRepository(log, cfg.Storage.DataDir),
		}, nil

	case config.StorageBackendMemory:
		log.Warn("Using in-memory storage, data is lost on exit")
		return &storage{
			accounts:    memory.NewAccountRepository(),
			credentials: memory.NewCredentialRepository(),
			history:     memory.NewLedgerRepository(),
		}, nil

	case config.StorageBackendBadger:
		return openBadger(log, cfg, registerer)

	case config.StorageBackendDatabase:
		return openDatabases(ctx, log, cfg)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// openBadger keeps every record in one embedded Badger database
func openBadger(log *slog.Logger, cfg *config.Config, registerer prometheus.Registerer) (*storage, error) {
	store, err := kv.Open(log.With("component", "badger"), kv.Options{
		Dir:        cfg.Storage.BadgerDir,
		SyncWrites: cfg.Storage.BadgerSyncWrites,
		GCInterval: cfg.Storage.BadgerGCInterval,
	})
	if err != nil {
		return nil, err
	}

	if registerer != nil {
		if err := store.RegisterMetrics(registerer); err != nil {
			log.Warn("Badger metrics not registered", "error", err)
		}
	}

	return &storage{
		accounts:     kv.NewAccountRepository(log, store),
		credentials:  kv.NewCredentialRepository(log, store),
		history:      kv.NewLedgerRepository(log, store),
		healthChecks: map[string]api_gateway.HealthCheck{"badger": store.Ping},
		closers: []func(context.Context){
			func(context.Context) {
				if err := store.Close(); err != nil {
					log.Error("Error closing Badger store", "error", err)
				}
			},
		},
	}, nil
}

// openDatabases keeps account records and credentials in PostgreSQL and the transaction log in MongoDB
func openDatabases(ctx context.Context, log *slog.Logger, cfg *config.Config) (*storage, error) {
	if err := persistence.RunMigrations(log, cfg.Postgres.URL, cfg.Postgres.MigrationsPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return nil, err
	}

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		postgresDB.Close()
		return nil, err
	}

	history := mongo.NewLedgerRepository(log, mongoDB.Database())
	if err := history.EnsureIndexes(ctx); err != nil {
		postgresDB.Close()
		mongoDB.Close(ctx)
		return nil, err
	}

	return &storage{
		accounts:    postgres.NewAccountRepository(log, postgresDB),
		credentials: postgres.NewCredentialRepository(log, postgresDB),
		history:     history,
		healthChecks: map[string]api_gateway.HealthCheck{
			"postgres": postgresDB.Ping,
			"mongodb":  mongoDB.Ping,
		},
		closers: []func(context.Context){
			func(context.Context) { postgresDB.Close() },
			func(ctx context.Context) {
				if err := mongoDB.Close(ctx); err != nil {
					log.Error("Error closing MongoDB connection", "error", err)
				}
			},
		},
	}, nil
}
