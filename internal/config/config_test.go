package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"KRW-BTC", "KRW-ETH", "KRW-SOL", "KRW-DOGE", "KRW-BORA"}, cfg.Trade.Markets)
	assert.Equal(t, 5, cfg.Trade.CandleUnit)
	assert.Equal(t, 120, cfg.Trade.CandleCount)
	assert.Equal(t, "KRW", cfg.Trade.QuoteCurrency)
	assert.Equal(t, "0 */5 * * * *", cfg.Trade.TickCron)
	assert.Equal(t, 10, cfg.Trade.TimeoutSeconds)
	assert.Equal(t, 5000.0, cfg.Sizing.MinNotional)
	assert.Equal(t, 0.9995, cfg.Sizing.FeeBuffer)
	assert.Equal(t, "data/positions.json", cfg.Position.SnapshotFile)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
upbit:
  access_key: ak
  secret_key: sk
trade:
  markets: [KRW-BTC, KRW-ETH]
  candle_unit: 10
  tick_cron: "0 */10 * * * *"
strategy:
  buy_signal: rsi_simple_threshold
  rsi_buy_threshold: 25
sizing:
  policy: equal_split_krw
  min_notional: 6000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ak", cfg.Upbit.AccessKey)
	assert.Equal(t, []string{"KRW-BTC", "KRW-ETH"}, cfg.Trade.Markets)
	assert.Equal(t, 10, cfg.Trade.CandleUnit)
	assert.Equal(t, "rsi_simple_threshold", cfg.Strategy.BuySignal)
	assert.Equal(t, 25.0, cfg.Strategy.RSIBuyThreshold)
	assert.Equal(t, "equal_split_krw", cfg.Sizing.Policy)
	assert.Equal(t, 6000.0, cfg.Sizing.MinNotional)
	// defaults still fill the gaps
	assert.Equal(t, 120, cfg.Trade.CandleCount)
}

func TestLoad_CronDefaultFollowsCandleUnit(t *testing.T) {
	path := writeConfig(t, `
trade:
  candle_unit: 15
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0 */15 * * * *", cfg.Trade.TickCron)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
upbit:
  access_key: file-key
trade:
  markets: [KRW-BTC]
`)
	t.Setenv("UPBIT_ACCESS_KEY", "env-key")
	t.Setenv("MARKETS", "KRW-SOL, KRW-DOGE")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("MIN_NOTIONAL", "7500")
	t.Setenv("SNAPSHOT_FILE", "/tmp/pos.json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Upbit.AccessKey)
	assert.Equal(t, []string{"KRW-SOL", "KRW-DOGE"}, cfg.Trade.Markets)
	assert.True(t, cfg.Trade.DryRun)
	assert.Equal(t, 7500.0, cfg.Sizing.MinNotional)
	assert.Equal(t, "/tmp/pos.json", cfg.Position.SnapshotFile)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "trade: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func validConfig() *Config {
	cfg := &Config{}
	cfg.Upbit.AccessKey = "ak"
	cfg.Upbit.SecretKey = "sk"
	cfg.Trade.Markets = []string{"KRW-BTC"}
	cfg.Trade.CandleUnit = 5
	cfg.Trade.CandleCount = 120
	cfg.Sizing.MinNotional = 5000
	cfg.Sizing.FeeBuffer = 0.9995
	return cfg
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing access key", func(c *Config) { c.Upbit.AccessKey = "" }},
		{"missing secret key", func(c *Config) { c.Upbit.SecretKey = "" }},
		{"no markets", func(c *Config) { c.Trade.Markets = nil }},
		{"malformed market", func(c *Config) { c.Trade.Markets = []string{"BTCKRW"} }},
		{"unsupported candle unit", func(c *Config) { c.Trade.CandleUnit = 7 }},
		{"candle count too small", func(c *Config) { c.Trade.CandleCount = 14 }},
		{"zero min notional", func(c *Config) { c.Sizing.MinNotional = -1 }},
		{"fee buffer above one", func(c *Config) { c.Sizing.FeeBuffer = 1.1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_DryRunNeedsNoKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Upbit.AccessKey = ""
	cfg.Upbit.SecretKey = ""
	cfg.Trade.DryRun = true
	assert.NoError(t, cfg.Validate())
}
