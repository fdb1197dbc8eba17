package exchange

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coinsentry/internal/model"
)

const defaultUpbitBaseURL = "https://api.upbit.com"

// UpbitExchange implements Exchange using the Upbit REST API.
type UpbitExchange struct {
	BaseURL   string
	AccessKey string
	SecretKey string
	Client    *http.Client
}

// NewUpbitExchange creates an Upbit client. An empty baseURL selects
// the production endpoint.
func NewUpbitExchange(accessKey, secretKey, baseURL string, timeout time.Duration) *UpbitExchange {
	if baseURL == "" {
		baseURL = defaultUpbitBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &UpbitExchange{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		AccessKey: accessKey,
		SecretKey: secretKey,
		Client:    &http.Client{Timeout: timeout},
	}
}

func (u *UpbitExchange) Name() string { return "upbit" }

// authToken builds the JWT bearer token Upbit requires. When the
// request carries parameters their url-encoded form is hashed into the
// token, per the Upbit auth scheme.
func (u *UpbitExchange) authToken(query string) (string, error) {
	claims := jwt.MapClaims{
		"access_key": u.AccessKey,
		"nonce":      uuid.NewString(),
	}
	if query != "" {
		hash := sha512.Sum512([]byte(query))
		claims["query_hash"] = hex.EncodeToString(hash[:])
		claims["query_hash_alg"] = "SHA512"
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.SecretKey))
}

func (u *UpbitExchange) do(req *http.Request) ([]byte, error) {
	resp, err := u.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upbit request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upbit read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upbit: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (u *UpbitExchange) get(ctx context.Context, path, query string, auth bool) ([]byte, error) {
	endpoint := u.BaseURL + path
	if query != "" {
		endpoint += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		token, err := u.authToken(query)
		if err != nil {
			return nil, fmt.Errorf("upbit sign request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return u.do(req)
}

func (u *UpbitExchange) postOrder(ctx context.Context, params url.Values) ([]byte, error) {
	query := params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.BaseURL+"/v1/orders", strings.NewReader(query))
	if err != nil {
		return nil, err
	}
	token, err := u.authToken(query)
	if err != nil {
		return nil, fmt.Errorf("upbit sign order: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return u.do(req)
}

// upbitCandle is one element of the minute-candle response.
type upbitCandle struct {
	Market       string  `json:"market"`
	TimestampUTC string  `json:"candle_date_time_utc"`
	Opening      float64 `json:"opening_price"`
	High         float64 `json:"high_price"`
	Low          float64 `json:"low_price"`
	Trade        float64 `json:"trade_price"`
	Timestamp    int64   `json:"timestamp"`
	AccVolume    float64 `json:"candle_acc_trade_volume"`
}

// FetchCandles returns count minute candles of the given unit,
// reordered oldest-first (the API returns newest-first).
func (u *UpbitExchange) FetchCandles(ctx context.Context, market string, unit, count int) (*model.Series, error) {
	query := url.Values{}
	query.Set("market", market)
	query.Set("count", fmt.Sprintf("%d", count))

	body, err := u.get(ctx, fmt.Sprintf("/v1/candles/minutes/%d", unit), query.Encode(), false)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", market, err)
	}

	var raw []upbitCandle
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode candles %s: %w", market, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("upbit: no candles returned for %s", market)
	}

	candles := make([]model.Candle, 0, len(raw))
	for _, c := range raw {
		candles = append(candles, model.Candle{
			Time:   time.UnixMilli(c.Timestamp),
			Open:   c.Opening,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Trade,
			Volume: c.AccVolume,
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })

	return &model.Series{Market: market, Candles: candles, FetchedAt: time.Now()}, nil
}

// CurrentPrice returns the latest trade price for the market.
func (u *UpbitExchange) CurrentPrice(ctx context.Context, market string) (float64, error) {
	query := url.Values{}
	query.Set("markets", market)

	body, err := u.get(ctx, "/v1/ticker", query.Encode(), false)
	if err != nil {
		return 0, fmt.Errorf("fetch ticker %s: %w", market, err)
	}

	var tickers []struct {
		TradePrice float64 `json:"trade_price"`
	}
	if err := json.Unmarshal(body, &tickers); err != nil {
		return 0, fmt.Errorf("decode ticker %s: %w", market, err)
	}
	if len(tickers) == 0 {
		return 0, fmt.Errorf("upbit: no ticker data for %s", market)
	}
	return tickers[0].TradePrice, nil
}

// upbitAccount is one element of the accounts response. Balances come
// back as strings and are parsed into decimals.
type upbitAccount struct {
	Currency    string `json:"currency"`
	Balance     string `json:"balance"`
	Locked      string `json:"locked"`
	AvgBuyPrice string `json:"avg_buy_price"`
}

// Accounts returns all currency balances of the authenticated user.
func (u *UpbitExchange) Accounts(ctx context.Context) ([]Account, error) {
	body, err := u.get(ctx, "/v1/accounts", "", true)
	if err != nil {
		return nil, fmt.Errorf("fetch accounts: %w", err)
	}

	var raw []upbitAccount
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}

	accounts := make([]Account, 0, len(raw))
	for _, a := range raw {
		balance, err := decimal.NewFromString(a.Balance)
		if err != nil {
			return nil, fmt.Errorf("parse balance for %s: %w", a.Currency, err)
		}
		avg, err := decimal.NewFromString(a.AvgBuyPrice)
		if err != nil {
			return nil, fmt.Errorf("parse avg buy price for %s: %w", a.Currency, err)
		}
		accounts = append(accounts, Account{Currency: a.Currency, Balance: balance, AvgBuyPrice: avg})
	}
	return accounts, nil
}

// Balance returns the available balance of one currency, zero when the
// account holds none of it.
func (u *UpbitExchange) Balance(ctx context.Context, currency string) (decimal.Decimal, error) {
	accounts, err := u.Accounts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	for _, a := range accounts {
		if a.Currency == currency {
			return a.Balance, nil
		}
	}
	return decimal.Zero, nil
}

// upbitOrder is the order confirmation response.
type upbitOrder struct {
	UUID      string `json:"uuid"`
	Market    string `json:"market"`
	Side      string `json:"side"`
	Price     string `json:"price"`
	Volume    string `json:"volume"`
	CreatedAt string `json:"created_at"`
}

func orderResult(body []byte) (*OrderResult, error) {
	var o upbitOrder
	if err := json.Unmarshal(body, &o); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	if o.UUID == "" {
		return nil, fmt.Errorf("upbit: order response missing uuid: %s", string(body))
	}
	res := &OrderResult{UUID: o.UUID, Market: o.Market, Side: o.Side}
	if o.Price != "" {
		if p, err := decimal.NewFromString(o.Price); err == nil {
			res.Price = p
		}
	}
	if o.Volume != "" {
		if v, err := decimal.NewFromString(o.Volume); err == nil {
			res.Volume = v
		}
	}
	if t, err := time.Parse(time.RFC3339, o.CreatedAt); err == nil {
		res.CreatedAt = t
	}
	return res, nil
}

// BuyMarket submits a market buy spending the given KRW notional.
func (u *UpbitExchange) BuyMarket(ctx context.Context, market string, notional decimal.Decimal) (*OrderResult, error) {
	params := url.Values{}
	params.Set("market", market)
	params.Set("side", "bid")
	params.Set("ord_type", "price")
	params.Set("price", notional.String())

	body, err := u.postOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("market buy %s: %w", market, err)
	}
	return orderResult(body)
}

// SellMarket submits a market sell of the given base-asset quantity.
func (u *UpbitExchange) SellMarket(ctx context.Context, market string, volume decimal.Decimal) (*OrderResult, error) {
	params := url.Values{}
	params.Set("market", market)
	params.Set("side", "ask")
	params.Set("ord_type", "market")
	params.Set("volume", volume.String())

	body, err := u.postOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("market sell %s: %w", market, err)
	}
	return orderResult(body)
}
