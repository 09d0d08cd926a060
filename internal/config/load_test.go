package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into an empty directory with a configs/ subfolder
func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "configs"), 0755))

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.Chdir(originalWD)
	})
	require.NoError(t, os.Chdir(tempDir))
	return tempDir
}

func validConfig() *Config {
	return &Config{
		Application: ApplicationConfig{Env: "test", Name: "mc-economy-bridge"},
		Logging:     LoggingConfig{Level: "info"},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: time.Second,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			IdleTimeout:     time.Second,
		},
		Economy: EconomyConfig{
			StartingBalance: decimal.NewFromInt(100),
			LinkCodeTTL:     5 * time.Minute,
			CurrencyName:    "coins",
			MarketPageSize:  25,
		},
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		Kafka: KafkaConfig{
			Brokers:       "localhost:9092",
			EventsTopic:   "economy_events",
			ConsumerGroup: "economy-bot-announcer",
			MinBytes:      1,
			MaxBytes:      1024,
			MaxWait:       time.Second,
			DLQTopic:      "economy_events_dlq",
		},
		Postgres: PostgresConfig{
			URL:             "postgres://localhost/mc_economy",
			MaxConns:        4,
			MinConns:        1,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: time.Minute,
		},
		MongoDB: MongoDBConfig{
			URI:             "mongodb://localhost:27017",
			Database:        "mc_economy",
			Timeout:         time.Second,
			MaxPoolSize:     10,
			MinPoolSize:     1,
			MaxConnIdleTime: time.Minute,
		},
		Outbox:     OutboxConfig{PollingInterval: time.Second, BatchSize: 10, MaxRetryAttempts: 3},
		WorkerPool: WorkerPoolConfig{Size: 4},
		Jobs:       JobsConfig{LinkCodeCleanupSchedule: "0 */10 * * * *", LinkCodeRetention: time.Hour},
	}
}

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir := chdirTemp(t)

	testAppName := "TestApp"
	testPort := 9090
	testLogLevel := "debug"
	testKafkaBrokers := "kafka1:9092,kafka2:9092"

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nKAFKA_BROKERS=%s\nECONOMY_STARTING_BALANCE=250.50\nSTORAGE_DRIVER=Memory\n",
		testAppName, testPort, testLogLevel, testKafkaBrokers,
	)
	err := os.WriteFile(filepath.Join(tempDir, "configs", "test_happy.env"), []byte(envContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, testAppName, cfg.Application.Name)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, testLogLevel, cfg.Logging.Level)
	assert.Equal(t, testKafkaBrokers, cfg.Kafka.Brokers)
	assert.Equal(t, "250.5", cfg.Economy.StartingBalance.String())
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)

	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "economy_events", cfg.Kafka.EventsTopic)
	assert.Equal(t, "economy_events_dlq", cfg.Kafka.DLQTopic)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, 10, cfg.WorkerPool.Size)
	assert.Equal(t, 5*time.Minute, cfg.Economy.LinkCodeTTL)
	assert.Equal(t, "coins", cfg.Economy.CurrencyName)
	assert.Equal(t, 25, cfg.Economy.MarketPageSize)
	assert.Equal(t, time.Hour, cfg.Jobs.LinkCodeRetention)
	assert.Empty(t, cfg.Server.APIKey)

	cfgWithName, err := LoadConfigWithName("configs/test_happy") // Viper will look for configs/test_happy.env
	require.NoError(t, err)
	assert.Equal(t, testAppName, cfgWithName.Application.Name)

	cfgWithNameAndType, err := LoadConfigWithNameAndType("configs/test_happy", "env")
	require.NoError(t, err)
	assert.Equal(t, testAppName, cfgWithNameAndType.Application.Name)
}

func TestLoadConfig_EnvironmentOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("API_KEY", "s3cret")
	t.Setenv("DISCORD_MARKET_CHANNEL_ID", "123456")
	t.Setenv("ECONOMY_LINK_CODE_TTL", "90s")

	cfg, err := LoadConfig("missing")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Server.APIKey)
	assert.Equal(t, "123456", cfg.Discord.MarketChannelID)
	assert.Equal(t, 90*time.Second, cfg.Economy.LinkCodeTTL)
	assert.True(t, cfg.Economy.StartingBalance.Equal(decimal.NewFromInt(100)))
}

func TestLoadConfig_RejectsMalformedStartingBalance(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ECONOMY_STARTING_BALANCE", "lots")

	cfg, err := LoadConfig("missing")
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ECONOMY_STARTING_BALANCE must be a decimal number")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErrPart []string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name: "memory driver ignores postgres settings",
			mutate: func(c *Config) {
				c.Storage.Driver = StorageDriverMemory
				c.Postgres = PostgresConfig{}
			},
		},
		{
			name: "postgres driver requires postgres settings",
			mutate: func(c *Config) {
				c.Postgres = PostgresConfig{}
			},
			wantErrPart: []string{"POSTGRES_URL is required", "POSTGRES_MAX_CONNS must be greater than 0"},
		},
		{
			name:        "unknown driver",
			mutate:      func(c *Config) { c.Storage.Driver = "sqlite" },
			wantErrPart: []string{"STORAGE_DRIVER must be postgres or memory"},
		},
		{
			name:        "negative starting balance",
			mutate:      func(c *Config) { c.Economy.StartingBalance = decimal.NewFromInt(-1) },
			wantErrPart: []string{"ECONOMY_STARTING_BALANCE must not be negative"},
		},
		{
			name:        "five field cron",
			mutate:      func(c *Config) { c.Jobs.LinkCodeCleanupSchedule = "*/10 * * * *" },
			wantErrPart: []string{"JOBS_LINK_CODE_CLEANUP_SCHEDULE is not a valid cron expression"},
		},
		{
			name: "every violation is reported",
			mutate: func(c *Config) {
				c.Server.Port = 0
				c.Kafka.EventsTopic = ""
				c.WorkerPool.Size = 0
			},
			wantErrPart: []string{
				"SERVER_PORT must be greater than 0",
				"KAFKA_EVENTS_TOPIC is required",
				"WORKER_POOL_SIZE must be greater than 0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if len(tt.wantErrPart) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, part := range tt.wantErrPart {
				assert.Contains(t, err.Error(), part)
			}
		})
	}
}
