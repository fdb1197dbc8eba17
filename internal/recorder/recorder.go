package recorder

import "coinsentry/internal/model"

// Trade records one executed market order.
type Trade struct {
	Market    string
	Side      string // "BUY" or "SELL"
	Price     float64
	Notional  float64 // quote spent, buys only
	Volume    float64 // base quantity, sells only
	Profit    float64 // realized profit ratio, sells only
	Reason    string
	OrderUUID string
}

// Recorder persists tick outcomes and executed trades for later
// analysis. Recording failures are logged and never abort a tick.
type Recorder interface {
	RecordTick(o *model.TickOutcome) error
	RecordTrade(t *Trade) error
	Close() error
}
