package model

// Position is the per-market trading state. A zero EntryPrice means
// the market is flat; a positive EntryPrice means a position is open.
// HighestProfit is the best profit ratio observed since entry and is
// only meaningful while the position is open.
type Position struct {
	EntryPrice    float64 `json:"entry_price"`
	HighestProfit float64 `json:"highest_profit"`
}

// Holding reports whether a position is currently open.
func (p Position) Holding() bool { return p.EntryPrice > 0 }

// ProfitRatio returns (price − entry) / entry. The second return value
// is false when no position is open, so the ratio never divides by zero.
func (p Position) ProfitRatio(price float64) (float64, bool) {
	if !p.Holding() {
		return 0, false
	}
	return (price - p.EntryPrice) / p.EntryPrice, true
}
