package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"coinsentry/internal/config"
	"coinsentry/internal/exchange"
	"coinsentry/internal/notifier"
	"coinsentry/internal/position"
	"coinsentry/internal/recorder"
	"coinsentry/internal/scheduler"
	"coinsentry/internal/sizing"
	"coinsentry/internal/strategy"
	"coinsentry/internal/trader"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()
	log.Infow("coinsentry starting")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalw("load config", "err", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalw("config validation", "err", err)
	}

	// Init exchange
	var ex exchange.Exchange
	if cfg.Trade.DryRun {
		log.Warnw("dry-run mode, orders go to a paper exchange")
		ex = exchange.NewMockExchange(cfg.Trade.QuoteCurrency, 1_000_000)
	} else {
		ex = exchange.NewUpbitExchange(cfg.Upbit.AccessKey, cfg.Upbit.SecretKey, cfg.Upbit.BaseURL,
			time.Duration(cfg.Trade.TimeoutSeconds)*time.Second)
	}
	log.Infow("exchange ready", "name", ex.Name(), "markets", cfg.Trade.Markets)

	// Init position store
	store, err := position.NewStore(cfg.Position.SnapshotFile)
	if err != nil {
		log.Fatalw("init position store", "err", err)
	}

	// Init strategy engine
	engine := strategy.NewEngine(strategy.Config{
		Buy:              strategy.BuySignal(cfg.Strategy.BuySignal),
		Sell:             strategy.SellSignal(cfg.Strategy.SellSignal),
		ProfitRef:        strategy.ProfitReference(cfg.Strategy.ProfitReference),
		RSIBuyThreshold:  cfg.Strategy.RSIBuyThreshold,
		RSISellThreshold: cfg.Strategy.RSISellThreshold,
		TakeProfit:       cfg.Strategy.TakeProfit,
		StopLoss:         cfg.Strategy.StopLoss,
	})

	// Init sizing policy
	policy := sizing.NewPolicy(sizing.PolicyName(cfg.Sizing.Policy),
		cfg.Sizing.MinNotional, cfg.Sizing.FeeBuffer, len(cfg.Trade.Markets))

	// Init trader
	bot := trader.New(ex, store, engine, policy, trader.Options{
		Markets:       cfg.Trade.Markets,
		CandleUnit:    cfg.Trade.CandleUnit,
		CandleCount:   cfg.Trade.CandleCount,
		QuoteCurrency: cfg.Trade.QuoteCurrency,
		CallTimeout:   time.Duration(cfg.Trade.TimeoutSeconds) * time.Second,
	}, log)

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warnw("init sqlite recorder failed, using noop", "err", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, bot, tn, rec, log)
	if err := sched.Register(cfg.Trade.TickCron); err != nil {
		log.Fatalw("register tick task", "err", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)

	// Optional: run immediately on start
	if cfg.Trade.RunOnStart || os.Getenv("RUN_ON_START") == "true" {
		log.Infow("run-on-start enabled, executing tick now")
		go sched.RunNow()
	}

	log.Infow("coinsentry is running", "tick", cfg.Trade.TickCron)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Infow("shutdown signal received, stopping")
	cancel()
	log.Infow("coinsentry stopped")
}
