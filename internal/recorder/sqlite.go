package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"coinsentry/internal/model"
)

// SQLiteRecorder persists tick outcomes and trades to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tick_outcomes (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			market         TEXT NOT NULL,
			action         TEXT,
			reason         TEXT,
			price          REAL,
			rsi            REAL,
			profit         REAL,
			highest_profit REAL,
			order_uuid     TEXT,
			skipped        TEXT,
			error          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tick_ts ON tick_outcomes(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_tick_market ON tick_outcomes(market)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			market     TEXT NOT NULL,
			side       TEXT,
			price      REAL,
			notional   REAL,
			volume     REAL,
			profit     REAL,
			reason     TEXT,
			order_uuid TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_market ON trades(market)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTick(o *model.TickOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	errText := ""
	if o.Err != nil {
		errText = o.Err.Error()
	}
	_, err := r.db.Exec(`INSERT INTO tick_outcomes
		(timestamp, market, action, reason, price, rsi, profit, highest_profit, order_uuid, skipped, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), o.Market, string(o.Action), o.Reason,
		o.Price, o.RSI, o.Profit, o.HighestProfit,
		o.OrderUUID, o.Skipped, errText,
	)
	return err
}

func (r *SQLiteRecorder) RecordTrade(t *Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, market, side, price, notional, volume, profit, reason, order_uuid)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), t.Market, t.Side,
		t.Price, t.Notional, t.Volume, t.Profit,
		t.Reason, t.OrderUUID,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
