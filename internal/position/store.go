package position

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"coinsentry/internal/model"
)

// ErrNoPosition is returned when a mutation requires an open position
// and none exists for the market.
var ErrNoPosition = errors.New("no open position for market")

// Store is the single owner of all per-market position records. It is
// rehydrated from a JSON snapshot on start and rewrites the snapshot
// synchronously on every mutation; a mutation whose snapshot write
// fails is rolled back so memory and disk never diverge.
type Store struct {
	mu        sync.Mutex
	filePath  string
	positions map[string]model.Position
}

// NewStore creates a Store backed by the given snapshot file, loading
// any existing snapshot.
func NewStore(filePath string) (*Store, error) {
	positions, err := loadSnapshot(filePath)
	if err != nil {
		return nil, fmt.Errorf("load position snapshot: %w", err)
	}
	return &Store{filePath: filePath, positions: positions}, nil
}

// Get returns the position record for a market. The zero Position
// (flat) is returned when no record exists.
func (s *Store) Get(market string) model.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions[market]
}

// All returns a copy of every position record.
func (s *Store) All() map[string]model.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.Position, len(s.positions))
	for k, v := range s.positions {
		out[k] = v
	}
	return out
}

// Open records a confirmed buy: entry price set, highest profit reset.
func (s *Store) Open(market string, entryPrice float64) error {
	if entryPrice <= 0 || math.IsNaN(entryPrice) || math.IsInf(entryPrice, 0) {
		return fmt.Errorf("invalid entry price %v for %s", entryPrice, market)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.positions[market]
	s.positions[market] = model.Position{EntryPrice: entryPrice, HighestProfit: 0}
	if err := s.save(); err != nil {
		s.restore(market, prev, existed)
		return err
	}
	return nil
}

// Close removes the record after a confirmed sell.
func (s *Store) Close(market string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.positions[market]
	if !existed {
		return ErrNoPosition
	}
	delete(s.positions, market)
	if err := s.save(); err != nil {
		s.restore(market, prev, existed)
		return err
	}
	return nil
}

// Ratchet raises the highest observed profit to profit if it exceeds
// the recorded peak, persisting the change. Returns the (possibly
// updated) peak. The peak only ever moves up.
func (s *Store) Ratchet(market string, profit float64) (float64, error) {
	if math.IsNaN(profit) || math.IsInf(profit, 0) {
		return 0, fmt.Errorf("invalid profit ratio %v for %s", profit, market)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[market]
	if !ok || !pos.Holding() {
		return 0, ErrNoPosition
	}
	if profit <= pos.HighestProfit {
		return pos.HighestProfit, nil
	}

	prev := pos
	pos.HighestProfit = profit
	s.positions[market] = pos
	if err := s.save(); err != nil {
		s.restore(market, prev, true)
		return prev.HighestProfit, err
	}
	return profit, nil
}

// Reconcile replaces the entry prices of the given markets with the
// exchange-reported averages, keeping the ratcheted peak for markets
// that stay open. Tracked markets absent from the map are closed; the
// exchange account is authoritative for what is actually held.
func (s *Store) Reconcile(tracked []string, entryPrices map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := make(map[string]model.Position, len(s.positions))
	for k, v := range s.positions {
		before[k] = v
	}

	for _, market := range tracked {
		price, held := entryPrices[market]
		if !held || price <= 0 {
			delete(s.positions, market)
			continue
		}
		pos := s.positions[market]
		pos.EntryPrice = price
		s.positions[market] = pos
	}

	if err := s.save(); err != nil {
		s.positions = before
		return err
	}
	return nil
}

// save writes the snapshot; callers hold the lock.
func (s *Store) save() error {
	return saveSnapshot(s.filePath, s.positions)
}

// restore undoes a single-market mutation after a failed save; callers
// hold the lock.
func (s *Store) restore(market string, prev model.Position, existed bool) {
	if existed {
		s.positions[market] = prev
	} else {
		delete(s.positions, market)
	}
}
