package model

// IndicatorSet is the derived, read-only view of a series' final
// candle. It is recomputed from scratch every tick and never persisted.
// Each OK flag reports whether the series was long enough for the
// corresponding window; rules that depend on an indicator with a false
// flag must fall through to hold.
type IndicatorSet struct {
	Market string
	Price  float64 // most recent close

	RSI     float64
	RSIPrev float64 // RSI over the series shifted back one candle
	RSIOK   bool

	SMA20    float64
	SMA20OK  bool
	SMA60    float64
	SMA60OK  bool
	SMA120   float64
	SMA120OK bool

	VolumeMA20   float64
	VolumeMA20OK bool

	RollingHigh10   float64
	RollingHigh10OK bool
}
