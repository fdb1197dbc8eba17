package calculator

import (
	"errors"

	"coinsentry/internal/model"
)

// ErrInsufficientData is returned when a series is shorter than the
// window an indicator needs. Callers treat the indicator as undefined
// rather than aborting the tick.
var ErrInsufficientData = errors.New("not enough candles for indicator window")

// CalculateRSI computes the Wilder-smoothed RSI over the given period.
// Requires at least period+1 candles.
func CalculateRSI(candles []model.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(candles) < period+1 {
		return 0, ErrInsufficientData
	}

	closes := extractCloses(candles)

	// Initial average gain/loss over the first `period` changes
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change // make positive
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing for remaining candles
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0, nil
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	return rsi, nil
}

// CalculatePrevRSI computes the RSI as of the candle before the most
// recent one, used to detect crossing events between two ticks.
func CalculatePrevRSI(candles []model.Candle, period int) (float64, error) {
	if len(candles) < period+2 {
		return 0, ErrInsufficientData
	}
	return CalculateRSI(candles[:len(candles)-1], period)
}
