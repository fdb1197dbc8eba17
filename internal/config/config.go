package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Upbit struct {
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"upbit"`
	Trade struct {
		Markets        []string `yaml:"markets"`
		CandleUnit     int      `yaml:"candle_unit"` // minutes: 5 or 10
		CandleCount    int      `yaml:"candle_count"`
		QuoteCurrency  string   `yaml:"quote_currency"`
		TickCron       string   `yaml:"tick_cron"`
		RunOnStart     bool     `yaml:"run_on_start"`
		DryRun         bool     `yaml:"dry_run"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
	} `yaml:"trade"`
	Strategy struct {
		BuySignal        string  `yaml:"buy_signal"`
		SellSignal       string  `yaml:"sell_signal"`
		ProfitReference  string  `yaml:"profit_reference"`
		RSIBuyThreshold  float64 `yaml:"rsi_buy_threshold"`
		RSISellThreshold float64 `yaml:"rsi_sell_threshold"`
		TakeProfit       float64 `yaml:"take_profit"`
		StopLoss         float64 `yaml:"stop_loss"`
	} `yaml:"strategy"`
	Sizing struct {
		Policy      string  `yaml:"policy"`
		MinNotional float64 `yaml:"min_notional"`
		FeeBuffer   float64 `yaml:"fee_buffer"`
	} `yaml:"sizing"`
	Position struct {
		SnapshotFile string `yaml:"snapshot_file"`
	} `yaml:"position"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// Load reads config from a YAML file, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("UPBIT_ACCESS_KEY"); v != "" {
		cfg.Upbit.AccessKey = v
	}
	if v := os.Getenv("UPBIT_SECRET_KEY"); v != "" {
		cfg.Upbit.SecretKey = v
	}
	if v := os.Getenv("UPBIT_BASE_URL"); v != "" {
		cfg.Upbit.BaseURL = v
	}
	if v := os.Getenv("MARKETS"); v != "" {
		cfg.Trade.Markets = splitList(v)
	}
	if v := os.Getenv("TICK_CRON"); v != "" {
		cfg.Trade.TickCron = v
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		cfg.Trade.DryRun = v == "true" || v == "1"
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SNAPSHOT_FILE"); v != "" {
		cfg.Position.SnapshotFile = v
	}
	if v := os.Getenv("MIN_NOTIONAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Sizing.MinNotional = f
		}
	}

	// Defaults
	if len(cfg.Trade.Markets) == 0 {
		cfg.Trade.Markets = []string{"KRW-BTC", "KRW-ETH", "KRW-SOL", "KRW-DOGE", "KRW-BORA"}
	}
	if cfg.Trade.CandleUnit == 0 {
		cfg.Trade.CandleUnit = 5
	}
	if cfg.Trade.CandleCount == 0 {
		cfg.Trade.CandleCount = 120
	}
	if cfg.Trade.QuoteCurrency == "" {
		cfg.Trade.QuoteCurrency = "KRW"
	}
	if cfg.Trade.TickCron == "" {
		cfg.Trade.TickCron = fmt.Sprintf("0 */%d * * * *", cfg.Trade.CandleUnit)
	}
	if cfg.Trade.TimeoutSeconds == 0 {
		cfg.Trade.TimeoutSeconds = 10
	}
	if cfg.Sizing.MinNotional == 0 {
		cfg.Sizing.MinNotional = 5000
	}
	if cfg.Sizing.FeeBuffer == 0 {
		cfg.Sizing.FeeBuffer = 0.9995
	}
	if cfg.Position.SnapshotFile == "" {
		cfg.Position.SnapshotFile = "data/positions.json"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if !c.Trade.DryRun {
		if c.Upbit.AccessKey == "" {
			return fmt.Errorf("upbit.access_key is required")
		}
		if c.Upbit.SecretKey == "" {
			return fmt.Errorf("upbit.secret_key is required")
		}
	}
	if len(c.Trade.Markets) == 0 {
		return fmt.Errorf("trade.markets must not be empty")
	}
	for _, m := range c.Trade.Markets {
		if !strings.Contains(m, "-") {
			return fmt.Errorf("trade.markets entry %q must look like KRW-BTC", m)
		}
	}
	switch c.Trade.CandleUnit {
	case 1, 3, 5, 10, 15, 30, 60:
	default:
		return fmt.Errorf("trade.candle_unit %d is not a supported minute interval", c.Trade.CandleUnit)
	}
	if c.Trade.CandleCount < 15 {
		return fmt.Errorf("trade.candle_count %d is too small for RSI(14)", c.Trade.CandleCount)
	}
	if c.Sizing.MinNotional <= 0 {
		return fmt.Errorf("sizing.min_notional must be positive")
	}
	if c.Sizing.FeeBuffer <= 0 || c.Sizing.FeeBuffer > 1 {
		return fmt.Errorf("sizing.fee_buffer must be in (0, 1]")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
