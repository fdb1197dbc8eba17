package model

import "time"

// Candle represents a single OHLCV bar.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series holds the candle history for one market, ordered
// chronologically ascending. A fresh series is fetched every tick and
// never mutated afterwards.
type Series struct {
	Market    string
	Candles   []Candle
	FetchedAt time.Time
}

// Len returns the number of candles in the series.
func (s *Series) Len() int { return len(s.Candles) }

// Closes returns the closing prices in chronological order.
func (s *Series) Closes() []float64 {
	closes := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		closes[i] = c.Close
	}
	return closes
}

// Volumes returns the traded volumes in chronological order.
func (s *Series) Volumes() []float64 {
	volumes := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		volumes[i] = c.Volume
	}
	return volumes
}

// LastClose returns the most recent closing price, or 0 for an empty series.
func (s *Series) LastClose() float64 {
	if len(s.Candles) == 0 {
		return 0
	}
	return s.Candles[len(s.Candles)-1].Close
}
