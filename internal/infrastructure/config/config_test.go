package config_test

import (
	"testing"
	"time"

	"github.com/sahelpay/momo/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Payment.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Worker.SweepInterval)
	assert.Equal(t, "callback-dispatchers", cfg.Worker.ConsumerGroup)
	assert.Equal(t, "momo-1", cfg.InstanceID)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MOMO_INSTANCE_ID", "momo-7")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "momo-7", cfg.InstanceID)
}

func validConfig() *config.Config {
	cfg, _ := config.Load()
	return cfg
}

func TestValidate_UnknownStorageDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "cassandra"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
}

func TestValidate_SQLiteRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.SQLitePath = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite_path")
}

func TestValidate_PostgresRequiresHost(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "postgres"
	cfg.Database.Host = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host")
}

func TestValidate_BadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidate_FailureRateRange(t *testing.T) {
	cfg := validConfig()
	cfg.Simulation.FailureRate = 1.5
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failure_rate")
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Payment.PollInterval = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestDatabaseDSN(t *testing.T) {
	db := config.DatabaseConfig{
		Host: "db.internal", Port: 5432, User: "momo",
		Password: "secret", Database: "payments", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db.internal port=5432 user=momo password=secret dbname=payments sslmode=require",
		db.DatabaseDSN())
}

func TestRedisAddr(t *testing.T) {
	r := config.RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.RedisAddr())
}
