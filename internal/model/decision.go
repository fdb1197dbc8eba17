package model

// Action is the trade action emitted for one market on one tick.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Decision is the strategy engine output: an action plus a free-text
// reason kept for audit logging. Nothing downstream parses the reason.
type Decision struct {
	Action Action
	Reason string
}

// TickOutcome summarizes what happened to one market during one tick.
type TickOutcome struct {
	Market        string
	Action        Action
	Reason        string
	Price         float64
	RSI           float64
	Profit        float64 // current profit ratio, 0 while flat
	HighestProfit float64
	OrderUUID     string // set when an order was submitted and confirmed
	Skipped       string // non-empty when the decision stood but no order was placed
	Err           error  // per-market failure, isolated from other markets
}

// Executed reports whether an order was actually placed this tick.
func (o *TickOutcome) Executed() bool { return o.OrderUUID != "" }
