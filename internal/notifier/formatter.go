package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"coinsentry/internal/model"
)

// FormatTrade formats an executed buy or sell into a Telegram message.
func FormatTrade(o *model.TickOutcome) string {
	var b strings.Builder

	switch o.Action {
	case model.ActionBuy:
		b.WriteString(fmt.Sprintf("🟢 <b>BUY %s</b> | %s\n\n", o.Market, time.Now().Format("2006-01-02 15:04")))
	case model.ActionSell:
		b.WriteString(fmt.Sprintf("🔴 <b>SELL %s</b> | %s\n\n", o.Market, time.Now().Format("2006-01-02 15:04")))
	}
	b.WriteString(fmt.Sprintf("Price: %.2f\n", o.Price))
	b.WriteString(fmt.Sprintf("RSI: %.1f\n", o.RSI))
	if o.Action == model.ActionSell {
		b.WriteString(fmt.Sprintf("Profit: %+.2f%% (peak %+.2f%%)\n", o.Profit*100, o.HighestProfit*100))
	}
	b.WriteString(fmt.Sprintf("Order: %s\n", o.OrderUUID))
	b.WriteString(fmt.Sprintf("\n%s", o.Reason))
	return b.String()
}

// FormatTickErrors summarizes per-market failures of one tick.
func FormatTickErrors(outcomes []*model.TickOutcome) string {
	var failed []*model.TickOutcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	if len(failed) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚠️ <b>Tick errors</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	for _, o := range failed {
		b.WriteString(fmt.Sprintf("• %s: %v\n", o.Market, o.Err))
	}
	return b.String()
}

// FormatPositions formats the current position records for display.
func FormatPositions(positions map[string]model.Position) string {
	var b strings.Builder
	b.WriteString("📦 <b>Open positions</b>\n\n")

	markets := make([]string, 0, len(positions))
	for m := range positions {
		markets = append(markets, m)
	}
	sort.Strings(markets)

	open := 0
	for _, m := range markets {
		pos := positions[m]
		if !pos.Holding() {
			continue
		}
		open++
		b.WriteString(fmt.Sprintf("%s: entry %.2f, peak %+.2f%%\n", m, pos.EntryPrice, pos.HighestProfit*100))
	}
	if open == 0 {
		b.WriteString("none, all markets flat\n")
	}
	return b.String()
}
