package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coinsentry/internal/exchange"
	"coinsentry/internal/model"
	"coinsentry/internal/notifier"
	"coinsentry/internal/position"
	"coinsentry/internal/recorder"
	"coinsentry/internal/sizing"
	"coinsentry/internal/strategy"
	"coinsentry/internal/trader"
)

type captureRecorder struct {
	ticks  []*model.TickOutcome
	trades []*recorder.Trade
}

func (c *captureRecorder) RecordTick(o *model.TickOutcome) error {
	c.ticks = append(c.ticks, o)
	return nil
}

func (c *captureRecorder) RecordTrade(t *recorder.Trade) error {
	c.trades = append(c.trades, t)
	return nil
}

func (c *captureRecorder) Close() error { return nil }

func buySignalSeries(market string) *model.Series {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 - float64(i)*0.5
	}
	closes[29] = closes[28] + 0.2

	candles := make([]model.Candle, len(closes))
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, c := range closes {
		candles[i] = model.Candle{
			Time: base.Add(time.Duration(i) * 5 * time.Minute),
			Open: c, High: c, Low: c, Close: c, Volume: 10,
		}
	}
	return &model.Series{Market: market, Candles: candles, FetchedAt: time.Now()}
}

func newTestScheduler(t *testing.T) (*Scheduler, *captureRecorder, *exchange.MockExchange) {
	t.Helper()

	ex := exchange.NewMockExchange("KRW", 100_000)
	ex.SeriesByMarket["KRW-BTC"] = buySignalSeries("KRW-BTC")

	store, err := position.NewStore(filepath.Join(t.TempDir(), "positions.json"))
	require.NoError(t, err)

	log := zap.NewNop().Sugar()
	bot := trader.New(ex, store, strategy.NewEngine(strategy.Config{}),
		sizing.NewPolicy(sizing.HalfBalance, 5000, 0.9995, 1),
		trader.Options{Markets: []string{"KRW-BTC"}, QuoteCurrency: "KRW"},
		log)

	rec := &captureRecorder{}
	s := NewScheduler(context.Background(), bot,
		notifier.NewTelegramNotifier("", "", log), rec, log)
	return s, rec, ex
}

func TestRunNow_RecordsOutcomeAndTrade(t *testing.T) {
	s, rec, ex := newTestScheduler(t)
	s.RunNow()

	require.Len(t, rec.ticks, 1)
	assert.Equal(t, model.ActionBuy, rec.ticks[0].Action)

	require.Len(t, rec.trades, 1)
	tr := rec.trades[0]
	assert.Equal(t, "KRW-BTC", tr.Market)
	assert.Equal(t, "BUY", tr.Side)
	assert.Equal(t, ex.Orders[0].UUID, tr.OrderUUID)
	assert.Zero(t, tr.Profit, "profit is only recorded for sells")
}

func TestTick_SkipsWhileRunning(t *testing.T) {
	s, rec, _ := newTestScheduler(t)
	s.running.Store(true)
	s.tick()
	assert.Empty(t, rec.ticks, "an in-flight tick suppresses the next one")

	s.running.Store(false)
	s.tick()
	assert.Len(t, rec.ticks, 1)
}

func TestTick_NoopAfterShutdown(t *testing.T) {
	s, rec, _ := newTestScheduler(t)
	ctx, cancel := context.WithCancel(context.Background())
	s.Ctx = ctx
	cancel()

	s.tick()
	assert.Empty(t, rec.ticks)
}

func TestRegister(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	assert.NoError(t, s.Register("0 */5 * * * *"))
	assert.Error(t, s.Register("not a cron spec"))
}

func TestHandleCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	s.RunNow() // opens the KRW-BTC position

	status := s.HandleCommand("/status")
	assert.Contains(t, status, "KRW-BTC")

	help := s.HandleCommand("/bogus")
	assert.Contains(t, help, "/status")
	assert.Contains(t, help, "/tick")
}
