package strategy

import (
	"fmt"

	"coinsentry/internal/model"
)

// BuySignal selects the rule that moves a flat market to a buy.
type BuySignal string

// SellSignal selects the rule that closes an open position.
type SellSignal string

// ProfitReference selects the price the profit ratio is measured
// against while holding.
type ProfitReference string

const (
	// BuyRSICrossUp buys when RSI is rising at or just above the
	// oversold threshold. A bare "rsi below threshold" test is noisier
	// and is available separately as BuyRSISimple.
	BuyRSICrossUp BuySignal = "rsi_cross_up"
	BuyRSISimple  BuySignal = "rsi_simple_threshold"

	// SellProfitRatchet exits on a drawdown from the peak profit since
	// entry: a 1-point drop while the peak stayed at or under 3%, or a
	// fall to 70% of a peak that exceeded 3%.
	SellProfitRatchet SellSignal = "profit_ratchet"
	SellRSISimple     SellSignal = "rsi_simple_threshold"
	SellFixedBand     SellSignal = "fixed_band"

	RefEntryPrice  ProfitReference = "entry_price"
	RefRollingHigh ProfitReference = "rolling_high"
)

// Config selects among the named rule variants and their thresholds.
type Config struct {
	Buy       BuySignal
	Sell      SellSignal
	ProfitRef ProfitReference

	RSIBuyThreshold  float64 // oversold level, default 30
	RSISellThreshold float64 // overbought level, default 70

	// SellFixedBand parameters.
	TakeProfit float64 // default 0.05
	StopLoss   float64 // default 0.02
}

// DefaultConfig returns the rule set the bot runs with out of the box.
func DefaultConfig() Config {
	return Config{
		Buy:              BuyRSICrossUp,
		Sell:             SellProfitRatchet,
		ProfitRef:        RefEntryPrice,
		RSIBuyThreshold:  30,
		RSISellThreshold: 70,
		TakeProfit:       0.05,
		StopLoss:         0.02,
	}
}

// Engine turns an indicator snapshot and a position record into a
// trade decision. Decide is pure: it never mutates the position, the
// trader applies consequences through the store.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine, filling unset config fields with the
// defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Buy == "" {
		cfg.Buy = def.Buy
	}
	if cfg.Sell == "" {
		cfg.Sell = def.Sell
	}
	if cfg.ProfitRef == "" {
		cfg.ProfitRef = def.ProfitRef
	}
	if cfg.RSIBuyThreshold == 0 {
		cfg.RSIBuyThreshold = def.RSIBuyThreshold
	}
	if cfg.RSISellThreshold == 0 {
		cfg.RSISellThreshold = def.RSISellThreshold
	}
	if cfg.TakeProfit == 0 {
		cfg.TakeProfit = def.TakeProfit
	}
	if cfg.StopLoss == 0 {
		cfg.StopLoss = def.StopLoss
	}
	return &Engine{cfg: cfg}
}

// Decide evaluates one market for one tick. A holding market is only
// ever sold or held, a flat market only ever bought or held.
func (e *Engine) Decide(ind *model.IndicatorSet, pos model.Position) model.Decision {
	if pos.Holding() {
		return e.decideSell(ind, pos)
	}
	return e.decideBuy(ind)
}

func (e *Engine) decideBuy(ind *model.IndicatorSet) model.Decision {
	if !ind.RSIOK {
		return model.Decision{Action: model.ActionHold, Reason: "insufficient data for RSI, holding"}
	}

	switch e.cfg.Buy {
	case BuyRSISimple:
		if buyRSISimple(ind, e.cfg.RSIBuyThreshold) {
			return model.Decision{
				Action: model.ActionBuy,
				Reason: fmt.Sprintf("RSI %.1f at or below %.0f, buying", ind.RSI, e.cfg.RSIBuyThreshold),
			}
		}
	default: // BuyRSICrossUp
		if buyRSICrossUp(ind, e.cfg.RSIBuyThreshold) {
			return model.Decision{
				Action: model.ActionBuy,
				Reason: fmt.Sprintf("RSI rising out of oversold (%.1f -> %.1f), buying", ind.RSIPrev, ind.RSI),
			}
		}
	}
	return model.Decision{Action: model.ActionHold, Reason: fmt.Sprintf("buy condition not met (RSI %.1f)", ind.RSI)}
}

func (e *Engine) decideSell(ind *model.IndicatorSet, pos model.Position) model.Decision {
	profit, ok := e.profitRatio(ind, pos)
	if !ok {
		// Entry price absent or zero: profit branches are skipped entirely.
		return model.Decision{Action: model.ActionHold, Reason: "no position entry price, holding"}
	}
	peak := pos.HighestProfit

	switch e.cfg.Sell {
	case SellRSISimple:
		if !ind.RSIOK {
			return model.Decision{Action: model.ActionHold, Reason: "insufficient data for RSI, holding"}
		}
		if ind.RSI >= e.cfg.RSISellThreshold {
			return model.Decision{
				Action: model.ActionSell,
				Reason: fmt.Sprintf("RSI %.1f at or above %.0f, selling", ind.RSI, e.cfg.RSISellThreshold),
			}
		}
	case SellFixedBand:
		if hit, reason := sellFixedBand(profit, e.cfg.TakeProfit, e.cfg.StopLoss); hit {
			return model.Decision{Action: model.ActionSell, Reason: reason}
		}
	default: // SellProfitRatchet
		if hit, reason := sellProfitRatchet(profit, peak); hit {
			return model.Decision{Action: model.ActionSell, Reason: reason}
		}
	}

	return model.Decision{
		Action: model.ActionHold,
		Reason: fmt.Sprintf("sell condition not met (profit %.2f%%, peak %.2f%%)", profit*100, peak*100),
	}
}

// profitRatio measures the current profit against the configured
// reference price.
func (e *Engine) profitRatio(ind *model.IndicatorSet, pos model.Position) (float64, bool) {
	if e.cfg.ProfitRef == RefRollingHigh && ind.RollingHigh10OK && ind.RollingHigh10 > 0 {
		return (ind.Price - ind.RollingHigh10) / ind.RollingHigh10, true
	}
	return pos.ProfitRatio(ind.Price)
}
