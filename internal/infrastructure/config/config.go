// Package config loads service configuration from environment variables and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig                `mapstructure:"server"`
	Storage       StorageConfig               `mapstructure:"storage"`
	Database      DatabaseConfig              `mapstructure:"database"`
	Redis         RedisConfig                 `mapstructure:"redis"`
	Payment       PaymentConfig               `mapstructure:"payment"`
	Worker        WorkerConfig                `mapstructure:"worker"`
	Providers     map[string]ProviderSettings `mapstructure:"providers"`
	Simulation    SimulationConfig            `mapstructure:"simulation"`
	Observability ObservabilityConfig         `mapstructure:"observability"`
	InstanceID    string                      `mapstructure:"instance_id"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// StorageConfig selects which payment store backs the service.
type StorageConfig struct {
	// Driver is one of memory, sqlite, postgres.
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SSLMode         string        `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	DB                int           `mapstructure:"db"`
	Password          string        `mapstructure:"password"`
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
}

type PaymentConfig struct {
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	LockTTL             time.Duration `mapstructure:"lock_ttl"`
	BreakerMaxRequests  uint32        `mapstructure:"breaker_max_requests"`
	BreakerInterval     time.Duration `mapstructure:"breaker_interval"`
	BreakerTimeout      time.Duration `mapstructure:"breaker_timeout"`
	BreakerMinRequests  uint32        `mapstructure:"breaker_min_requests"`
	BreakerFailureRatio float64       `mapstructure:"breaker_failure_ratio"`
}

type WorkerConfig struct {
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	SweepBatchSize  int           `mapstructure:"sweep_batch_size"`
	BatchSize       int64         `mapstructure:"batch_size"`
	BlockDuration   time.Duration `mapstructure:"block_duration"`
	ConsumerGroup   string        `mapstructure:"consumer_group"`
	WebhookTimeout  time.Duration `mapstructure:"webhook_timeout"`
	WebhookAttempts uint          `mapstructure:"webhook_attempts"`
}

// ProviderSettings carries per-provider credentials, keyed by the provider
// name in the providers map.
type ProviderSettings struct {
	MerchantID  string            `mapstructure:"merchant_id"`
	APIKey      string            `mapstructure:"api_key"`
	APISecret   string            `mapstructure:"api_secret"`
	Environment string            `mapstructure:"environment"`
	CallbackURL string            `mapstructure:"callback_url"`
	WebhookURL  string            `mapstructure:"webhook_url"`
	Extra       map[string]string `mapstructure:"extra"`
}

// SimulationConfig tunes the simulated provider adapters.
type SimulationConfig struct {
	Latency     time.Duration `mapstructure:"latency"`
	FailureRate float64       `mapstructure:"failure_rate"`
	TimeoutRate float64       `mapstructure:"timeout_rate"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("MOMO")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/momo")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}

	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("storage.sqlite_path required for the sqlite driver"))
		}
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, fmt.Errorf("database.host is required for the postgres driver"))
		}
		if c.Database.Port <= 0 {
			errs = append(errs, fmt.Errorf("database.port must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be memory, sqlite, or postgres, got %q", c.Storage.Driver))
	}

	if c.Redis.Enabled && c.Redis.Port <= 0 {
		errs = append(errs, fmt.Errorf("redis.port must be positive"))
	}
	if c.Payment.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("payment.poll_interval must be positive"))
	}
	if c.Payment.LockTTL <= 0 {
		errs = append(errs, fmt.Errorf("payment.lock_ttl must be positive"))
	}
	if c.Worker.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("worker.sweep_interval must be positive"))
	}
	if c.Simulation.FailureRate < 0 || c.Simulation.FailureRate > 1 {
		errs = append(errs, fmt.Errorf("simulation.failure_rate must be within [0, 1]"))
	}

	env := os.Getenv("ENV")
	if env == "production" || env == "prod" {
		if c.Storage.Driver == "postgres" && c.Database.Password == "" {
			errs = append(errs, fmt.Errorf("database.password required in production"))
		}
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allow_credentials", false)

	// Storage defaults
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.sqlite_path", "momo.db")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "momo")
	v.SetDefault("database.database", "momo")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.ssl_mode", "disable")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.connect_retries", 5)
	v.SetDefault("redis.connect_retry_delay", "1s")

	// Payment defaults
	v.SetDefault("payment.poll_interval", "5s")
	v.SetDefault("payment.lock_ttl", "30s")
	v.SetDefault("payment.breaker_max_requests", 10)
	v.SetDefault("payment.breaker_interval", "60s")
	v.SetDefault("payment.breaker_timeout", "30s")
	v.SetDefault("payment.breaker_min_requests", 10)
	v.SetDefault("payment.breaker_failure_ratio", 0.6)

	// Worker defaults
	v.SetDefault("worker.sweep_interval", "30s")
	v.SetDefault("worker.sweep_batch_size", 100)
	v.SetDefault("worker.batch_size", 10)
	v.SetDefault("worker.block_duration", "1s")
	v.SetDefault("worker.consumer_group", "callback-dispatchers")
	v.SetDefault("worker.webhook_timeout", "10s")
	v.SetDefault("worker.webhook_attempts", 5)

	// Simulation defaults
	v.SetDefault("simulation.latency", "0s")
	v.SetDefault("simulation.failure_rate", 0.05)
	v.SetDefault("simulation.timeout_rate", 0.02)

	// Observability defaults
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", true)

	v.SetDefault("instance_id", "momo-1")
}

func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
