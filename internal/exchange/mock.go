package exchange

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coinsentry/internal/model"
)

// MockExchange returns controllable fixed data for development, tests,
// and dry-run mode. Orders are recorded, never sent anywhere, and
// balances are adjusted as if they filled instantly at the last close.
type MockExchange struct {
	SeriesByMarket map[string]*model.Series
	PriceByMarket  map[string]float64
	Balances       map[string]decimal.Decimal
	AvgBuyPrices   map[string]decimal.Decimal

	// Errors to inject per call site.
	FetchErr, AccountsErr, BuyErr, SellErr error
	FetchErrByMarket                       map[string]error

	Orders []OrderResult
}

// NewMockExchange creates a mock with a starting quote balance.
func NewMockExchange(quoteCurrency string, quoteBalance float64) *MockExchange {
	return &MockExchange{
		SeriesByMarket: map[string]*model.Series{},
		PriceByMarket:  map[string]float64{},
		Balances:       map[string]decimal.Decimal{quoteCurrency: decimal.NewFromFloat(quoteBalance)},
		AvgBuyPrices:   map[string]decimal.Decimal{},
	}
}

func (m *MockExchange) Name() string { return "mock" }

func (m *MockExchange) FetchCandles(_ context.Context, market string, _, count int) (*model.Series, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	if err, ok := m.FetchErrByMarket[market]; ok {
		return nil, err
	}
	if s, ok := m.SeriesByMarket[market]; ok {
		return s, nil
	}
	price := m.PriceByMarket[market]
	if price == 0 {
		price = 100
	}
	return GenerateSeries(market, price, count), nil
}

func (m *MockExchange) CurrentPrice(_ context.Context, market string) (float64, error) {
	if p, ok := m.PriceByMarket[market]; ok {
		return p, nil
	}
	if s, ok := m.SeriesByMarket[market]; ok {
		return s.LastClose(), nil
	}
	return 0, fmt.Errorf("mock: no price for %s", market)
}

func (m *MockExchange) Accounts(_ context.Context) ([]Account, error) {
	if m.AccountsErr != nil {
		return nil, m.AccountsErr
	}
	accounts := make([]Account, 0, len(m.Balances))
	for currency, balance := range m.Balances {
		accounts = append(accounts, Account{
			Currency:    currency,
			Balance:     balance,
			AvgBuyPrice: m.AvgBuyPrices[currency],
		})
	}
	return accounts, nil
}

func (m *MockExchange) Balance(_ context.Context, currency string) (decimal.Decimal, error) {
	if m.AccountsErr != nil {
		return decimal.Zero, m.AccountsErr
	}
	return m.Balances[currency], nil
}

func (m *MockExchange) BuyMarket(_ context.Context, market string, notional decimal.Decimal) (*OrderResult, error) {
	if m.BuyErr != nil {
		return nil, m.BuyErr
	}
	quote, base := SplitMarket(market)
	m.Balances[quote] = m.Balances[quote].Sub(notional)

	price, _ := m.CurrentPrice(context.Background(), market)
	if price > 0 {
		volume := notional.Div(decimal.NewFromFloat(price))
		m.Balances[base] = m.Balances[base].Add(volume)
		m.AvgBuyPrices[base] = decimal.NewFromFloat(price)
	}

	order := OrderResult{
		UUID:      uuid.NewString(),
		Market:    market,
		Side:      "bid",
		Price:     notional,
		CreatedAt: time.Now(),
	}
	m.Orders = append(m.Orders, order)
	return &order, nil
}

func (m *MockExchange) SellMarket(_ context.Context, market string, volume decimal.Decimal) (*OrderResult, error) {
	if m.SellErr != nil {
		return nil, m.SellErr
	}
	quote, base := SplitMarket(market)
	m.Balances[base] = m.Balances[base].Sub(volume)
	delete(m.AvgBuyPrices, base)

	price, _ := m.CurrentPrice(context.Background(), market)
	if price > 0 {
		m.Balances[quote] = m.Balances[quote].Add(volume.Mul(decimal.NewFromFloat(price)))
	}

	order := OrderResult{
		UUID:      uuid.NewString(),
		Market:    market,
		Side:      "ask",
		Volume:    volume,
		CreatedAt: time.Now(),
	}
	m.Orders = append(m.Orders, order)
	return &order, nil
}

// SplitMarket breaks a market code like "KRW-BTC" into its quote and
// base currencies.
func SplitMarket(market string) (quote, base string) {
	parts := strings.SplitN(market, "-", 2)
	if len(parts) != 2 {
		return market, market
	}
	return parts[0], parts[1]
}

// GenerateSeries builds a gently drifting series around a base price.
func GenerateSeries(market string, basePrice float64, count int) *model.Series {
	candles := make([]model.Candle, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		candles[i] = model.Candle{
			Time:   time.Now().Add(-time.Duration(count-i) * 5 * time.Minute),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000,
		}
	}
	return &model.Series{Market: market, Candles: candles, FetchedAt: time.Now()}
}
