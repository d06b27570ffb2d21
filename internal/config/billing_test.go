package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBillingConfigDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	holder, err := NewBillingConfigHolder(zaptest.NewLogger(t))
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 7, cfg.DueSoonDays)
	assert.Equal(t, 5, cfg.Dashboard.RecentLimit)
	assert.Equal(t, time.Duration(0), cfg.Dashboard.CacheTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.DueSoonWindow())
	assert.Equal(t, "INV-{SEQ6}", cfg.InvoiceNumberFormat)
}

func TestBillingConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	body := []byte("billing:\n  due_soon_days: 3\n  invoice_number_format: \"ISP-{YYYY}-{SEQ4}\"\n  dashboard:\n    recent_limit: 8\n    cache_ttl: 30s\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billing.yml"), body, 0o600))
	t.Chdir(dir)

	holder, err := NewBillingConfigHolder(zaptest.NewLogger(t))
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 3, cfg.DueSoonDays)
	assert.Equal(t, "ISP-{YYYY}-{SEQ4}", cfg.InvoiceNumberFormat)
	assert.Equal(t, 8, cfg.Dashboard.RecentLimit)
	assert.Equal(t, 30*time.Second, cfg.Dashboard.CacheTTL)
	assert.Equal(t, 10, cfg.Pagination.DefaultPageSize)
}

func TestBillingConfigRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	body := []byte("billing:\n  dashboard:\n    recent_limit: 0\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billing.yml"), body, 0o600))
	t.Chdir(dir)

	_, err := NewBillingConfigHolder(zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SCHEDULER_INTERVAL", "15m")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
	assert.Equal(t, 0.5, cfg.Observability.SamplingRatio)
}

func TestBillingConfigRejectsUnknownNumberToken(t *testing.T) {
	dir := t.TempDir()
	body := []byte("billing:\n  invoice_number_format: \"INV-{WEEK}-{SEQ}\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billing.yml"), body, 0o600))
	t.Chdir(dir)

	_, err := NewBillingConfigHolder(zaptest.NewLogger(t))
	assert.Error(t, err)
}
