package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/domain"
)

func TestGetYamlAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
symbols:
  - BTCUSDT
  - ETHUSDT
database_dsn: postgres://localhost/tradedesk
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := getYaml(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Symbols)
	assert.Equal(t, "linear", cfg.Category)
	assert.Equal(t, defaultDashboardAddr, cfg.DashboardAddr)
	assert.Equal(t, defaultFlushInterval, cfg.FlushInterval)
	assert.Equal(t, defaultExportDir, cfg.ExportDir)
}

func TestGetYamlRejectsBadCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
symbols: [BTCUSDT]
category: options
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	_, err := getYaml(path)
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestValidateRequiresSymbols(t *testing.T) {
	cfg := Config{Category: "linear", FlushInterval: time.Second}
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, cfg.validate(), &cfgErr)
}

func TestSplitSymbols(t *testing.T) {
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, splitSymbols(" btcusdt , ETHUSDT ,"))
	assert.Empty(t, splitSymbols(""))
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("BYBIT_API_KEY", "key")
	t.Setenv("BYBIT_API_SECRET", "secret")
	t.Setenv("BYBIT_TESTNET", "TRUE")

	creds, err := CredentialsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "key", creds.APIKey)
	assert.True(t, creds.Testnet)

	t.Setenv("BYBIT_API_SECRET", "")
	_, err = CredentialsFromEnv()
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
