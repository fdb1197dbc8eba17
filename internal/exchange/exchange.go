package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"coinsentry/internal/model"
)

// Account is one currency balance held on the exchange.
type Account struct {
	Currency    string
	Balance     decimal.Decimal
	AvgBuyPrice decimal.Decimal
}

// OrderResult is the confirmation returned for a submitted market order.
type OrderResult struct {
	UUID      string
	Market    string
	Side      string // "bid" or "ask"
	Price     decimal.Decimal // notional for buys
	Volume    decimal.Decimal // base quantity for sells
	CreatedAt time.Time
}

// Exchange is the broker boundary the trader depends on. All calls are
// bounded by the supplied context; implementations return an error
// rather than a partial result on failure.
type Exchange interface {
	// FetchCandles returns at least count minute candles for the market
	// in chronological ascending order when available.
	FetchCandles(ctx context.Context, market string, unit, count int) (*model.Series, error)
	// CurrentPrice returns the latest trade price for the market.
	CurrentPrice(ctx context.Context, market string) (float64, error)
	// Accounts returns all currency balances for the authenticated user.
	Accounts(ctx context.Context) ([]Account, error)
	// Balance returns the available balance of a single currency.
	Balance(ctx context.Context, currency string) (decimal.Decimal, error)
	// BuyMarket submits a market buy spending the given quote notional.
	BuyMarket(ctx context.Context, market string, notional decimal.Decimal) (*OrderResult, error)
	// SellMarket submits a market sell of the given base quantity.
	SellMarket(ctx context.Context, market string, volume decimal.Decimal) (*OrderResult, error)
	Name() string
}
