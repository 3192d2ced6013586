// Package config provides configuration structures and validation for the ledger server.
// It handles environment-based configuration for the HTTP surface, the storage backend,
// the ledger engine and the optional Kafka integration.
package config

import (
	"errors"
	"strings"
	"time"
)

// Storage backends
const (
	StorageBackendFile     = "file"     // Human-readable files per account
	StorageBackendMemory   = "memory"   // Process-local, lost on exit
	StorageBackendDatabase = "database" // PostgreSQL accounts and credentials, MongoDB transaction log
	StorageBackendBadger   = "badger"   // Embedded key-value store in a local directory
)

// Transfer failure policies, mirrored from shared.TransferPolicy
const (
	TransferPolicyReport     = "report"
	TransferPolicyCompensate = "compensate"
)

// Config holds the complete application configuration with settings for all components.
// Each field represents a major subsystem's configuration and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Storage     StorageConfig
	Ledger      LedgerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	WorkerPool  WorkerPoolConfig
	Metrics     MetricsConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
	LoginRate       float64       // Login attempts per second allowed per client, 0 disables throttling
	LoginBurst      int
	SessionIdleTTL  time.Duration // Logged-in sessions unused for this long are dropped, 0 keeps them until logout
}

// StorageConfig selects where account records, transaction logs and credentials live
type StorageConfig struct {
	Backend string
	DataDir string // Used by the file backend

	BadgerDir        string
	BadgerSyncWrites bool
	BadgerGCInterval time.Duration // How often the value log is garbage collected
}

// LedgerConfig contains ledger engine settings
type LedgerConfig struct {
	TransferPolicy string        // What to do when a transfer's debit leg fails after its credit leg
	LockTimeout    time.Duration // Upper bound on waiting for per-account locks
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Enabled           bool
	Brokers           string
	TransactionTopic  string // Incoming transaction requests
	EventsTopic       string // Committed ledger entries
	AlertsTopic       string // Partial transfer alerts
	NumPartitions     int    // Number of partitions for topics
	ReplicationFactor int    // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for Dead Letter Queue
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// validate performs validation of all configuration values. Settings for the database
// backend and Kafka are only checked when those integrations are switched on.
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}
	if c.Server.LoginRate < 0 {
		validationErrors = append(validationErrors, "SERVER_LOGIN_RATE cannot be negative")
	}
	if c.Server.SessionIdleTTL < 0 {
		validationErrors = append(validationErrors, "SERVER_SESSION_IDLE_TTL cannot be negative")
	}
	if c.Server.LoginRate > 0 && c.Server.LoginBurst <= 0 {
		validationErrors = append(validationErrors, "SERVER_LOGIN_BURST must be greater than 0 when login throttling is on")
	}

	// Validate Storage config
	switch c.Storage.Backend {
	case StorageBackendFile:
		if c.Storage.DataDir == "" {
			validationErrors = append(validationErrors, "STORAGE_DATA_DIR is required for the file backend")
		}
	case StorageBackendBadger:
		if c.Storage.BadgerDir == "" {
			validationErrors = append(validationErrors, "STORAGE_BADGER_DIR is required for the badger backend")
		}
		if c.Storage.BadgerGCInterval <= 0 {
			validationErrors = append(validationErrors, "STORAGE_BADGER_GC_INTERVAL must be greater than 0")
		}
	case StorageBackendMemory, StorageBackendDatabase:
	default:
		validationErrors = append(validationErrors, "STORAGE_BACKEND must be one of file, memory, database, badger")
	}

	// Validate Ledger config
	if c.Ledger.TransferPolicy != TransferPolicyReport && c.Ledger.TransferPolicy != TransferPolicyCompensate {
		validationErrors = append(validationErrors, "LEDGER_TRANSFER_POLICY must be report or compensate")
	}
	if c.Ledger.LockTimeout <= 0 {
		validationErrors = append(validationErrors, "LEDGER_LOCK_TIMEOUT must be greater than 0")
	}

	// Validate Kafka config
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
		}
		if c.Kafka.TransactionTopic == "" {
			validationErrors = append(validationErrors, "KAFKA_TRANSACTION_TOPIC is required")
		}
		if c.Kafka.EventsTopic == "" {
			validationErrors = append(validationErrors, "KAFKA_EVENTS_TOPIC is required")
		}
		if c.Kafka.AlertsTopic == "" {
			validationErrors = append(validationErrors, "KAFKA_ALERTS_TOPIC is required")
		}
		if c.Kafka.ConsumerGroup == "" {
			validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
		}
		if c.Kafka.MinBytes <= 0 {
			validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
		}
		if c.Kafka.MaxBytes <= 0 {
			validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
		}
		if c.Kafka.MaxWait <= 0 {
			validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
		}
		if c.Kafka.DLQTopic == "" {
			validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
		}
	}

	if c.Storage.Backend == StorageBackendDatabase {
		// Validate PostgreSQL config
		if c.Postgres.URL == "" {
			validationErrors = append(validationErrors, "POSTGRES_URL is required")
		}
		if c.Postgres.MaxConns <= 0 {
			validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
		}
		if c.Postgres.MinConns <= 0 {
			validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
		}
		if c.Postgres.ConnMaxLifetime <= 0 {
			validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
		}
		if c.Postgres.ConnMaxIdleTime <= 0 {
			validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
		}

		// Validate MongoDB config
		if c.MongoDB.URI == "" {
			validationErrors = append(validationErrors, "MONGO_URI is required")
		}
		if c.MongoDB.Database == "" {
			validationErrors = append(validationErrors, "MONGO_DATABASE is required")
		}
		if c.MongoDB.Timeout <= 0 {
			validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
		}
		if c.MongoDB.MaxPoolSize <= 0 {
			validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
		}
		if c.MongoDB.MinPoolSize <= 0 {
			validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
		}
		if c.MongoDB.MaxConnIdleTime <= 0 {
			validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		validationErrors = append(validationErrors, "METRICS_PATH must start with /")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
