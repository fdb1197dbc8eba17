package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUpbit(t *testing.T, handler http.HandlerFunc) *UpbitExchange {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewUpbitExchange("test-access", "test-secret", srv.URL, 5*time.Second)
}

func TestFetchCandles_ReordersOldestFirst(t *testing.T) {
	ex := newTestUpbit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/candles/minutes/5", r.URL.Path)
		assert.Equal(t, "KRW-BTC", r.URL.Query().Get("market"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		// The API returns newest first.
		w.Write([]byte(`[
			{"market":"KRW-BTC","timestamp":3000,"trade_price":103,"opening_price":102,"high_price":104,"low_price":101,"candle_acc_trade_volume":30},
			{"market":"KRW-BTC","timestamp":2000,"trade_price":102,"opening_price":101,"high_price":103,"low_price":100,"candle_acc_trade_volume":20},
			{"market":"KRW-BTC","timestamp":1000,"trade_price":101,"opening_price":100,"high_price":102,"low_price":99,"candle_acc_trade_volume":10}
		]`))
	})

	series, err := ex.FetchCandles(context.Background(), "KRW-BTC", 5, 3)
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, 101.0, series.Candles[0].Close)
	assert.Equal(t, 103.0, series.LastClose())
	assert.True(t, series.Candles[0].Time.Before(series.Candles[2].Time))
}

func TestFetchCandles_EmptyResponse(t *testing.T) {
	ex := newTestUpbit(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	_, err := ex.FetchCandles(context.Background(), "KRW-BTC", 5, 120)
	assert.Error(t, err)
}

func TestFetchCandles_HTTPError(t *testing.T) {
	ex := newTestUpbit(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"name":"too_many_requests"}}`, http.StatusTooManyRequests)
	})
	_, err := ex.FetchCandles(context.Background(), "KRW-BTC", 5, 120)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCurrentPrice(t *testing.T) {
	ex := newTestUpbit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ticker", r.URL.Path)
		assert.Equal(t, "KRW-ETH", r.URL.Query().Get("markets"))
		w.Write([]byte(`[{"market":"KRW-ETH","trade_price":4500000}]`))
	})

	price, err := ex.CurrentPrice(context.Background(), "KRW-ETH")
	require.NoError(t, err)
	assert.Equal(t, 4_500_000.0, price)
}

func TestAccounts_ParsesAndSignsRequest(t *testing.T) {
	var authHeader string
	ex := newTestUpbit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		w.Write([]byte(`[
			{"currency":"KRW","balance":"123456.789","locked":"0","avg_buy_price":"0"},
			{"currency":"BTC","balance":"0.5","locked":"0","avg_buy_price":"50000000"}
		]`))
	})

	accounts, err := ex.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.True(t, accounts[0].Balance.Equal(decimal.RequireFromString("123456.789")))
	assert.True(t, accounts[1].AvgBuyPrice.Equal(decimal.NewFromInt(50_000_000)))

	require.True(t, len(authHeader) > len("Bearer "), "accounts call must be authenticated")
	raw := authHeader[len("Bearer "):]
	token, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "test-access", claims["access_key"])
	assert.NotEmpty(t, claims["nonce"])
	_, hasHash := claims["query_hash"]
	assert.False(t, hasHash, "no query, no query hash")
}

func TestBalance_MissingCurrencyIsZero(t *testing.T) {
	ex := newTestUpbit(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"currency":"KRW","balance":"1000","locked":"0","avg_buy_price":"0"}]`))
	})
	balance, err := ex.Balance(context.Background(), "BTC")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestBuyMarket_FormParams(t *testing.T) {
	ex := newTestUpbit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "KRW-BTC", r.PostForm.Get("market"))
		assert.Equal(t, "bid", r.PostForm.Get("side"))
		assert.Equal(t, "price", r.PostForm.Get("ord_type"))
		assert.Equal(t, "49975", r.PostForm.Get("price"))
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"uuid":"order-1","market":"KRW-BTC","side":"bid","price":"49975","created_at":"2024-03-01T09:00:00+09:00"}`))
	})

	res, err := ex.BuyMarket(context.Background(), "KRW-BTC", decimal.NewFromInt(49_975))
	require.NoError(t, err)
	assert.Equal(t, "order-1", res.UUID)
	assert.Equal(t, "bid", res.Side)
	assert.True(t, res.Price.Equal(decimal.NewFromInt(49_975)))
	assert.False(t, res.CreatedAt.IsZero())
}

func TestSellMarket_FormParams(t *testing.T) {
	ex := newTestUpbit(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ask", r.PostForm.Get("side"))
		assert.Equal(t, "market", r.PostForm.Get("ord_type"))
		assert.Equal(t, "0.5", r.PostForm.Get("volume"))
		assert.Empty(t, r.PostForm.Get("price"))
		w.Write([]byte(`{"uuid":"order-2","market":"KRW-BTC","side":"ask","volume":"0.5","created_at":"2024-03-01T09:05:00+09:00"}`))
	})

	res, err := ex.SellMarket(context.Background(), "KRW-BTC", decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	assert.Equal(t, "order-2", res.UUID)
	assert.True(t, res.Volume.Equal(decimal.RequireFromString("0.5")))
}

func TestOrderResponseMissingUUID(t *testing.T) {
	ex := newTestUpbit(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	_, err := ex.BuyMarket(context.Background(), "KRW-BTC", decimal.NewFromInt(10_000))
	assert.Error(t, err)
}

func TestSplitMarket(t *testing.T) {
	quote, base := SplitMarket("KRW-BTC")
	assert.Equal(t, "KRW", quote)
	assert.Equal(t, "BTC", base)
}
