package calculator

import (
	"errors"

	"coinsentry/internal/model"
)

// CalculateSMA computes the simple moving average of the given values
// over the specified period.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// CalculateCloseSMA returns the simple moving average of closing prices.
func CalculateCloseSMA(candles []model.Candle, period int) (float64, error) {
	return CalculateSMA(extractCloses(candles), period)
}

// CalculateVolumeMA returns the simple moving average of traded volumes.
func CalculateVolumeMA(candles []model.Candle, period int) (float64, error) {
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		volumes[i] = c.Volume
	}
	return CalculateSMA(volumes, period)
}

func extractCloses(candles []model.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
