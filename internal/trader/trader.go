package trader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"coinsentry/internal/calculator"
	"coinsentry/internal/exchange"
	"coinsentry/internal/model"
	"coinsentry/internal/position"
	"coinsentry/internal/sizing"
	"coinsentry/internal/strategy"
)

// Options configures the per-tick trading cycle.
type Options struct {
	Markets       []string
	CandleUnit    int // candle interval in minutes
	CandleCount   int
	QuoteCurrency string
	CallTimeout   time.Duration
}

// Trader runs the full decision-and-mutate cycle for every tracked
// market once per tick. Markets are processed sequentially, so the
// position store sees no concurrent mutation within a tick.
type Trader struct {
	exchange exchange.Exchange
	store    *position.Store
	engine   *strategy.Engine
	sizing   sizing.Policy
	opts     Options
	log      *zap.SugaredLogger
}

// New creates a Trader.
func New(ex exchange.Exchange, store *position.Store, engine *strategy.Engine, policy sizing.Policy, opts Options, log *zap.SugaredLogger) *Trader {
	if opts.CandleUnit == 0 {
		opts.CandleUnit = 5
	}
	if opts.CandleCount == 0 {
		opts.CandleCount = 120
	}
	if opts.QuoteCurrency == "" {
		opts.QuoteCurrency = "KRW"
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	return &Trader{
		exchange: ex,
		store:    store,
		engine:   engine,
		sizing:   policy,
		opts:     opts,
		log:      log,
	}
}

// RunTick performs one full cycle over all tracked markets and returns
// a per-market outcome log. Per-market failures are isolated: one
// market's error never prevents the others from being evaluated. A
// cancelled context stops the loop between markets, never between a
// decision and its store mutation.
func (t *Trader) RunTick(ctx context.Context) []*model.TickOutcome {
	if err := t.SyncPositions(ctx); err != nil {
		t.log.Warnw("account sync failed, continuing from snapshot state", "err", err)
	}

	outcomes := make([]*model.TickOutcome, 0, len(t.opts.Markets))
	for _, market := range t.opts.Markets {
		select {
		case <-ctx.Done():
			t.log.Infow("tick cancelled, remaining markets skipped", "next", market)
			return outcomes
		default:
		}

		o := t.evaluateMarket(ctx, market)
		outcomes = append(outcomes, o)

		if o.Err != nil {
			t.log.Errorw("market evaluation failed", "market", market, "err", o.Err)
		} else {
			t.log.Infow("market evaluated",
				"market", market, "action", o.Action, "reason", o.Reason,
				"price", o.Price, "rsi", o.RSI,
				"profit", o.Profit, "peak", o.HighestProfit,
				"order", o.OrderUUID, "skipped", o.Skipped)
		}
	}
	return outcomes
}

// evaluateMarket runs fetch -> indicators -> ratchet -> decide ->
// size/submit -> mutate for one market.
func (t *Trader) evaluateMarket(ctx context.Context, market string) *model.TickOutcome {
	o := &model.TickOutcome{Market: market, Action: model.ActionHold}

	series, err := t.fetchSeries(ctx, market)
	if err != nil {
		o.Reason = "data fetch failed, holding"
		o.Err = err
		return o
	}

	ind := calculator.Compute(series)
	o.Price = ind.Price
	o.RSI = ind.RSI

	pos := t.store.Get(market)

	// The profit peak ratchets every tick a position is held, whatever
	// the decision turns out to be.
	if pos.Holding() {
		profit, ok := pos.ProfitRatio(ind.Price)
		if ok {
			o.Profit = profit
			peak, err := t.store.Ratchet(market, profit)
			if err != nil {
				o.Reason = "position snapshot write failed"
				o.Err = fmt.Errorf("persist profit peak for %s: %w", market, err)
				return o
			}
			o.HighestProfit = peak
			pos = t.store.Get(market)
		}
	}

	dec := t.engine.Decide(ind, pos)
	o.Action = dec.Action
	o.Reason = dec.Reason

	switch dec.Action {
	case model.ActionBuy:
		t.executeBuy(ctx, market, ind, o)
	case model.ActionSell:
		t.executeSell(ctx, market, o)
	}
	return o
}

func (t *Trader) fetchSeries(ctx context.Context, market string) (*model.Series, error) {
	cctx, cancel := context.WithTimeout(ctx, t.opts.CallTimeout)
	defer cancel()
	series, err := t.exchange.FetchCandles(cctx, market, t.opts.CandleUnit, t.opts.CandleCount)
	if err != nil {
		return nil, fmt.Errorf("fetch series %s: %w", market, err)
	}
	return series, nil
}

// executeBuy sizes and submits a market buy, then records the entry.
// An order that cannot be confirmed leaves the position record
// untouched; the buy condition is simply re-evaluated next tick.
func (t *Trader) executeBuy(ctx context.Context, market string, ind *model.IndicatorSet, o *model.TickOutcome) {
	cctx, cancel := context.WithTimeout(ctx, t.opts.CallTimeout)
	defer cancel()

	available, err := t.exchange.Balance(cctx, t.opts.QuoteCurrency)
	if err != nil {
		o.Err = fmt.Errorf("fetch %s balance: %w", t.opts.QuoteCurrency, err)
		return
	}

	notional, err := t.sizing.BuyNotional(available, t.flatMarketCount())
	if errors.Is(err, sizing.ErrBelowMinNotional) {
		o.Skipped = "insufficient balance for minimum order"
		return
	}
	if err != nil {
		o.Err = fmt.Errorf("size buy %s: %w", market, err)
		return
	}

	res, err := t.exchange.BuyMarket(cctx, market, notional)
	if err != nil {
		o.Err = fmt.Errorf("submit buy %s: %w", market, err)
		return
	}

	if err := t.store.Open(market, ind.Price); err != nil {
		// The order went through but the record could not be persisted.
		// The next tick's account sync restores the entry price from
		// the exchange-reported average.
		o.OrderUUID = res.UUID
		o.Err = fmt.Errorf("record entry for %s after buy: %w", market, err)
		return
	}
	o.OrderUUID = res.UUID
	o.HighestProfit = 0
}

// executeSell liquidates the full held balance, then clears the record.
func (t *Trader) executeSell(ctx context.Context, market string, o *model.TickOutcome) {
	cctx, cancel := context.WithTimeout(ctx, t.opts.CallTimeout)
	defer cancel()

	_, base := exchange.SplitMarket(market)
	held, err := t.exchange.Balance(cctx, base)
	if err != nil {
		o.Err = fmt.Errorf("fetch %s balance: %w", base, err)
		return
	}

	volume, err := t.sizing.SellVolume(held)
	if err != nil {
		o.Skipped = "no held balance to sell"
		return
	}

	res, err := t.exchange.SellMarket(cctx, market, volume)
	if err != nil {
		o.Err = fmt.Errorf("submit sell %s: %w", market, err)
		return
	}

	if err := t.store.Close(market); err != nil {
		o.OrderUUID = res.UUID
		o.Err = fmt.Errorf("clear position for %s after sell: %w", market, err)
		return
	}
	o.OrderUUID = res.UUID
}

// flatMarketCount counts tracked markets without an open position.
func (t *Trader) flatMarketCount() int {
	count := 0
	for _, market := range t.opts.Markets {
		if !t.store.Get(market).Holding() {
			count++
		}
	}
	return count
}

// Positions exposes a copy of the current position records, for status
// reporting.
func (t *Trader) Positions() map[string]model.Position {
	return t.store.All()
}

// Markets returns the tracked market list.
func (t *Trader) Markets() []string {
	return t.opts.Markets
}
