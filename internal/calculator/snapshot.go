package calculator

import (
	"coinsentry/internal/model"
)

// Standard windows for the indicator snapshot.
const (
	RSIPeriod         = 14
	SMAShortPeriod    = 20
	SMAMidPeriod      = 60
	SMALongPeriod     = 120
	VolumeMAPeriod    = 20
	RollingHighWindow = 10
)

// Compute derives the full indicator snapshot from a candle series.
// Indicators whose window exceeds the series length are left at zero
// with their OK flag false; the caller decides which rules that
// disqualifies. Pure over its input, no side effects.
func Compute(series *model.Series) *model.IndicatorSet {
	ind := &model.IndicatorSet{
		Market: series.Market,
		Price:  series.LastClose(),
	}

	candles := series.Candles

	if rsi, err := CalculateRSI(candles, RSIPeriod); err == nil {
		if prev, err := CalculatePrevRSI(candles, RSIPeriod); err == nil {
			ind.RSI = rsi
			ind.RSIPrev = prev
			ind.RSIOK = true
		}
	}

	if sma, err := CalculateCloseSMA(candles, SMAShortPeriod); err == nil {
		ind.SMA20 = sma
		ind.SMA20OK = true
	}
	if sma, err := CalculateCloseSMA(candles, SMAMidPeriod); err == nil {
		ind.SMA60 = sma
		ind.SMA60OK = true
	}
	if sma, err := CalculateCloseSMA(candles, SMALongPeriod); err == nil {
		ind.SMA120 = sma
		ind.SMA120OK = true
	}

	if ma, err := CalculateVolumeMA(candles, VolumeMAPeriod); err == nil {
		ind.VolumeMA20 = ma
		ind.VolumeMA20OK = true
	}

	if high, err := CalculateRollingHigh(candles, RollingHighWindow); err == nil {
		ind.RollingHigh10 = high
		ind.RollingHigh10OK = true
	}

	return ind
}
