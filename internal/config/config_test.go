package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Test Biz")
	cfg.Database.URL = "postgres://localhost/fineasy"
	cfg.Events.Brokers = []string{"kafka-1:9092"}

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Business.Name, got.Business.Name)
	assert.Equal(t, cfg.Database.URL, got.Database.URL)
	assert.Equal(t, cfg.Monitor.KeyAccounts, got.Monitor.KeyAccounts)
	assert.Equal(t, cfg.Monitor.AnomalyWindowDays, got.Monitor.AnomalyWindowDays)
	assert.Equal(t, cfg.Monitor.Tolerance, got.Monitor.Tolerance)
	assert.InDelta(t, cfg.Monitor.ZScoreThreshold, got.Monitor.ZScoreThreshold, 0.001)
	assert.Equal(t, cfg.Adjustments, got.Adjustments)
	assert.Equal(t, cfg.Intake, got.Intake)
	assert.Equal(t, []string{"kafka-1:9092"}, got.Events.Brokers)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, []string{"1000", "1100", "2000", "1200", "4000", "5100"}, cfg.Monitor.KeyAccounts)
	assert.Equal(t, 30, cfg.Monitor.AnomalyWindowDays)
	assert.InDelta(t, 2.0, cfg.Monitor.ZScoreThreshold, 0.001)
	assert.Equal(t, "3100", cfg.Adjustments.RetainedEarnings)
	assert.Equal(t, "1000", cfg.Adjustments.Cash)
	assert.Equal(t, "5100", cfg.Intake.DefaultAccount)
	assert.Empty(t, cfg.Events.Brokers)

	tol, err := cfg.Monitor.ToleranceDecimal()
	require.NoError(t, err)
	assert.Equal(t, "0.01", tol.String())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("database:\n  url: ledger.db\nmonitor:\n  anomaly_window_days: 7\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ledger.db", cfg.Database.URL)
	assert.Equal(t, 7, cfg.Monitor.AnomalyWindowDays)
	assert.Equal(t, "0.01", cfg.Monitor.Tolerance)
	assert.Equal(t, "3100", cfg.Adjustments.RetainedEarnings)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test Biz")
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "anomaly_window_days: 30")
	assert.Contains(t, contents, `tolerance: "0.01"`)
	assert.Contains(t, contents, "retained_earnings: \"3100\"")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvDatabaseURLFallback, "postgres://db/fineasy")
	t.Setenv(EnvKafkaBrokers, "a:9092, b:9092,")

	cfg := Default("x")
	require.NoError(t, cfg.ApplyEnv(""))
	assert.Equal(t, "postgres://db/fineasy", cfg.Database.URL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Events.Brokers)

	t.Setenv(EnvDatabaseURL, "sqlite://primary.db")
	require.NoError(t, cfg.ApplyEnv(""))
	assert.Equal(t, "sqlite://primary.db", cfg.Database.URL)
}

func TestApplyEnv_File(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	require.NoError(t, os.Unsetenv(EnvLogLevel))

	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(EnvLogLevel+"=debug\n"), 0o644))

	cfg := Default("x")
	require.NoError(t, cfg.ApplyEnv(envPath))
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.Error(t, cfg.ApplyEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestValidate(t *testing.T) {
	cfg := Default("x")
	cfg.Database.URL = ""
	cfg.Monitor.Tolerance = "abc"
	cfg.Monitor.Concurrency = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
	assert.Contains(t, err.Error(), "tolerance")
	assert.Contains(t, err.Error(), "concurrency")
}
