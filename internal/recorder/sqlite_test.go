package recorder

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinsentry/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordTick(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.RecordTick(&model.TickOutcome{
		Market: "KRW-BTC",
		Action: model.ActionHold,
		Reason: "RSI in neutral band",
		Price:  50_000_000,
		RSI:    45.2,
	}))
	require.NoError(t, r.RecordTick(&model.TickOutcome{
		Market: "KRW-ETH",
		Err:    errors.New("fetch timed out"),
	}))

	var count int
	require.NoError(t, r.db.QueryRow("SELECT COUNT(*) FROM tick_outcomes").Scan(&count))
	assert.Equal(t, 2, count)

	var errText string
	require.NoError(t, r.db.QueryRow(
		"SELECT error FROM tick_outcomes WHERE market = ?", "KRW-ETH").Scan(&errText))
	assert.Equal(t, "fetch timed out", errText)
}

func TestRecordTrade(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.RecordTrade(&Trade{
		Market:    "KRW-BTC",
		Side:      "SELL",
		Price:     53_000_000,
		Volume:    0.001,
		Profit:    0.06,
		Reason:    "profit fell below 70% of peak",
		OrderUUID: "order-2",
	}))

	var side string
	var profit float64
	require.NoError(t, r.db.QueryRow(
		"SELECT side, profit FROM trades WHERE order_uuid = ?", "order-2").Scan(&side, &profit))
	assert.Equal(t, "SELL", side)
	assert.Equal(t, 0.06, profit)
}

func TestReopenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.db")

	r1, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r1.RecordTrade(&Trade{Market: "KRW-BTC", Side: "BUY", OrderUUID: "order-1"}))
	require.NoError(t, r1.Close())

	// Migrations are idempotent and earlier rows survive.
	r2, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r2.Close()

	var count int
	require.NoError(t, r2.db.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count))
	assert.Equal(t, 1, count)
}
