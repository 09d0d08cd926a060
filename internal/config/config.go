// Package config provides configuration structures and validation for the economy services.
// All three binaries share one loader; each reads the sections it needs.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds the complete application configuration with settings for all components.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Economy     EconomyConfig
	Storage     StorageConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Discord     DiscordConfig
	Jobs        JobsConfig
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
	APIKey          string        // Shared secret for X-API-Key; empty disables the check
}

// EconomyConfig contains the rules of the currency
type EconomyConfig struct {
	StartingBalance decimal.Decimal
	LinkCodeTTL     time.Duration
	CurrencyName    string
	MarketPageSize  int
}

// StorageConfig selects the account and market store
type StorageConfig struct {
	Driver string // postgres or memory
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	EventsTopic       string
	NumPartitions     int // Number of partitions for topics
	ReplicationFactor int // Replication factor for topics
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

// OutboxConfig contains outbox relay configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // Maximum number of retry attempts for outbox messages
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// DiscordConfig contains the bot credentials and target guild
type DiscordConfig struct {
	BotToken        string
	GuildID         string // Empty registers commands globally
	MarketChannelID string // Empty disables market announcements
}

// JobsConfig contains scheduled housekeeping settings
type JobsConfig struct {
	LinkCodeCleanupSchedule string // Six-field cron expression
	LinkCodeRetention       time.Duration
}

// validate reports every invalid setting at once, joined with commas
func (c *Config) validate() error {
	var errs violations
	errs.require(c.Server.Port > 0, "SERVER_PORT must be greater than 0")
	errs.require(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	errs.require(c.Server.ReadTimeout > 0, "SERVER_READ_TIMEOUT must be greater than 0")
	errs.require(c.Server.WriteTimeout > 0, "SERVER_WRITE_TIMEOUT must be greater than 0")
	errs.require(c.Server.IdleTimeout > 0, "SERVER_IDLE_TIMEOUT must be greater than 0")

	errs.require(!c.Economy.StartingBalance.IsNegative(), "ECONOMY_STARTING_BALANCE must not be negative")
	errs.require(c.Economy.LinkCodeTTL > 0, "ECONOMY_LINK_CODE_TTL must be greater than 0")
	errs.require(c.Economy.MarketPageSize > 0, "ECONOMY_MARKET_PAGE_SIZE must be greater than 0")

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		c.Postgres.validate(&errs)
	case StorageDriverMemory:
	default:
		errs.add("STORAGE_DRIVER must be postgres or memory")
	}

	errs.require(c.Kafka.Brokers != "", "KAFKA_BROKERS is required")
	errs.require(c.Kafka.EventsTopic != "", "KAFKA_EVENTS_TOPIC is required")
	errs.require(c.Kafka.ConsumerGroup != "", "KAFKA_CONSUMER_GROUP is required")
	errs.require(c.Kafka.MinBytes > 0, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	errs.require(c.Kafka.MaxBytes > 0, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	errs.require(c.Kafka.MaxWait > 0, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	errs.require(c.Kafka.DLQTopic != "", "KAFKA_DLQ_TOPIC is required")

	errs.require(c.MongoDB.URI != "", "MONGO_URI is required")
	errs.require(c.MongoDB.Database != "", "MONGO_DATABASE is required")
	errs.require(c.MongoDB.Timeout > 0, "MONGO_TIMEOUT must be greater than 0")
	errs.require(c.MongoDB.MaxPoolSize > 0, "MONGO_MAX_POOL_SIZE must be greater than 0")
	errs.require(c.MongoDB.MinPoolSize > 0, "MONGO_MIN_POOL_SIZE must be greater than 0")
	errs.require(c.MongoDB.MaxConnIdleTime > 0, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")

	errs.require(c.Outbox.PollingInterval > 0, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	errs.require(c.Outbox.BatchSize > 0, "OUTBOX_BATCH_SIZE must be greater than 0")
	errs.require(c.Outbox.MaxRetryAttempts > 0, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")

	errs.require(c.WorkerPool.Size > 0, "WORKER_POOL_SIZE must be greater than 0")

	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).
		Parse(c.Jobs.LinkCodeCleanupSchedule); err != nil {
		errs.add("JOBS_LINK_CODE_CLEANUP_SCHEDULE is not a valid cron expression")
	}
	errs.require(c.Jobs.LinkCodeRetention >= 0, "JOBS_LINK_CODE_RETENTION must not be negative")

	return errs.err()
}

func (p PostgresConfig) validate(errs *violations) {
	errs.require(p.URL != "", "POSTGRES_URL is required")
	errs.require(p.MaxConns > 0, "POSTGRES_MAX_CONNS must be greater than 0")
	errs.require(p.MinConns > 0, "POSTGRES_MIN_CONNS must be greater than 0")
	errs.require(p.ConnMaxLifetime > 0, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	errs.require(p.ConnMaxIdleTime > 0, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
}

// violations collects every failed check so one run reports all of them
type violations []string

func (v *violations) add(msg string) {
	*v = append(*v, msg)
}

func (v *violations) require(ok bool, msg string) {
	if !ok {
		v.add(msg)
	}
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return errors.New(strings.Join(v, ", "))
}
