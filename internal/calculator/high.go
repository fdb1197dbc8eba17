package calculator

import (
	"coinsentry/internal/model"
)

// CalculateRollingHigh returns the maximum close over the trailing
// window. Used as a recent-high reference distinct from the highest
// price since entry; recomputed from the series every tick.
func CalculateRollingHigh(candles []model.Candle, window int) (float64, error) {
	if window <= 0 || len(candles) < window {
		return 0, ErrInsufficientData
	}
	high := candles[len(candles)-window].Close
	for i := len(candles) - window + 1; i < len(candles); i++ {
		if candles[i].Close > high {
			high = candles[i].Close
		}
	}
	return high, nil
}
