package trader

import (
	"context"
	"fmt"
)

// SyncPositions reconciles the position store with the exchange
// account: for every tracked market the exchange reports a balance in,
// the entry price becomes the exchange's average buy price; tracked
// markets the account no longer holds are closed. The exchange is
// authoritative for what is actually held, the store keeps the
// ratcheted profit peak for positions that survive.
func (t *Trader) SyncPositions(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, t.opts.CallTimeout)
	defer cancel()

	accounts, err := t.exchange.Accounts(cctx)
	if err != nil {
		return fmt.Errorf("fetch accounts: %w", err)
	}

	entryPrices := make(map[string]float64)
	for _, a := range accounts {
		if a.Currency == t.opts.QuoteCurrency {
			continue
		}
		market := t.opts.QuoteCurrency + "-" + a.Currency
		if !t.tracked(market) {
			continue
		}
		if !a.Balance.IsPositive() || !a.AvgBuyPrice.IsPositive() {
			continue
		}
		// Ignore dust the exchange would refuse to sell anyway.
		if a.Balance.Mul(a.AvgBuyPrice).LessThan(t.sizing.MinNotional) {
			continue
		}
		entryPrices[market], _ = a.AvgBuyPrice.Float64()
	}

	if err := t.store.Reconcile(t.opts.Markets, entryPrices); err != nil {
		return fmt.Errorf("reconcile positions: %w", err)
	}
	return nil
}

func (t *Trader) tracked(market string) bool {
	for _, m := range t.opts.Markets {
		if m == market {
			return true
		}
	}
	return false
}
