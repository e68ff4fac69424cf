// Package bybit implements a signed REST client for the Bybit V5 API.
//
// Every authenticated request carries the X-BAPI-* headers with an
// HMAC-SHA256 signature over timestamp + apiKey + recvWindow + payload.
// Responses arrive in a common envelope whose retCode distinguishes
// success (0) from exchange-reported failures.
package bybit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"tradedesk/internal/domain"
)

const (
	mainnetURL = "https://api.bybit.com"
	testnetURL = "https://api-testnet.bybit.com"

	// signatureType identifies the HMAC-SHA256 scheme (as opposed to RSA).
	signatureType = "2"

	defaultRecvWindow = "5000"
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// Client issues signed requests against the production or testnet base URL.
// It is safe for concurrent use; the only shared state is the read-only
// credential pair inside the signer.
type Client struct {
	signer     *Signer
	baseURL    string
	httpClient *http.Client
	recvWindow string
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL overrides the base URL, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRetry overrides the retry bound and the fixed delay between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = attempts
		c.retryDelay = delay
	}
}

// WithClock replaces the timestamp source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds a client for the given credentials. An empty key or
// secret fails here, before any network call.
func NewClient(apiKey, apiSecret string, testnet bool, opts ...Option) (*Client, error) {
	signer, err := NewSigner(apiKey, apiSecret)
	if err != nil {
		return nil, err
	}

	base := mainnetURL
	if testnet {
		base = testnetURL
	}

	c := &Client{
		signer:     signer,
		baseURL:    base,
		httpClient: &http.Client{Timeout: defaultTimeout},
		recvWindow: defaultRecvWindow,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WalletBalance fetches the unified account balance. An empty exchange
// response yields an empty slice, not an error.
func (c *Client) WalletBalance(ctx context.Context) ([]domain.Balance, error) {
	params := map[string]string{"accountType": "UNIFIED"}

	var result walletBalanceResult
	if err := c.get(ctx, "/v5/account/wallet-balance", params, true, &result); err != nil {
		return nil, err
	}

	balances := make([]domain.Balance, 0)
	for _, account := range result.List {
		for _, coin := range account.Coin {
			balances = append(balances, coin.toDomain())
		}
	}
	return balances, nil
}

// Positions lists open positions for the category, optionally narrowed to
// one symbol. settleCoin is required by the exchange when symbol is empty.
func (c *Client) Positions(ctx context.Context, category, symbol string) ([]domain.Position, error) {
	params := map[string]string{"category": category}
	if symbol != "" {
		params["symbol"] = symbol
	} else {
		params["settleCoin"] = "USDT"
	}

	var result positionListResult
	if err := c.get(ctx, "/v5/position/list", params, true, &result); err != nil {
		return nil, err
	}

	positions := make([]domain.Position, 0, len(result.List))
	for _, row := range result.List {
		positions = append(positions, row.toDomain())
	}
	return positions, nil
}

// Ticker fetches the market snapshot for one symbol.
func (c *Client) Ticker(ctx context.Context, category, symbol string) (domain.Ticker, error) {
	params := map[string]string{"category": category, "symbol": symbol}

	var result tickersResult
	if err := c.get(ctx, "/v5/market/tickers", params, false, &result); err != nil {
		return domain.Ticker{}, err
	}
	if len(result.List) == 0 {
		return domain.Ticker{}, errors.Errorf("no ticker data for %s", symbol)
	}
	return result.List[0].toDomain(c.now()), nil
}

// Klines fetches up to limit candles for the symbol, oldest first.
func (c *Client) Klines(ctx context.Context, category, symbol, interval string, limit int) ([]domain.Kline, error) {
	params := map[string]string{
		"category": category,
		"symbol":   symbol,
		"interval": interval,
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var result klineResult
	if err := c.get(ctx, "/v5/market/kline", params, false, &result); err != nil {
		return nil, err
	}

	// the exchange returns rows newest first
	klines := make([]domain.Kline, 0, len(result.List))
	for i := len(result.List) - 1; i >= 0; i-- {
		klines = append(klines, klineFromRow(result.List[i]))
	}
	return klines, nil
}

// OrderHistory fetches recent orders for the symbol, newest first.
func (c *Client) OrderHistory(ctx context.Context, category, symbol string, limit int) ([]domain.OrderRecord, error) {
	params := map[string]string{"category": category}
	if symbol != "" {
		params["symbol"] = symbol
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var result orderHistoryResult
	if err := c.get(ctx, "/v5/order/history", params, true, &result); err != nil {
		return nil, err
	}

	records := make([]domain.OrderRecord, 0, len(result.List))
	for _, row := range result.List {
		records = append(records, row.toDomain())
	}
	return records, nil
}

// OrderRequest describes an order submission.
type OrderRequest struct {
	Category    string
	Symbol      string
	Side        domain.Side
	Type        domain.OrderType
	Qty         decimal.Decimal
	Price       decimal.Decimal
	TimeInForce string
	ReduceOnly  bool
	// OrderLinkID is the client-side idempotency key. Generated when empty;
	// a retried submission reuses it, so a network failure cannot
	// double-fill.
	OrderLinkID string
}

func (r *OrderRequest) validate() error {
	if r.Symbol == "" {
		return &domain.ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if r.Qty.LessThanOrEqual(decimal.Zero) {
		return &domain.ValidationError{Field: "qty", Reason: "must be greater than zero"}
	}
	if r.Type == domain.OrderTypeLimit && r.Price.LessThanOrEqual(decimal.Zero) {
		return &domain.ValidationError{Field: "price", Reason: "required for limit orders"}
	}
	return nil
}

// field order fixes the JSON byte layout the signature is computed over
type createOrderBody struct {
	Category    string `json:"category"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	OrderType   string `json:"orderType"`
	Qty         string `json:"qty"`
	Price       string `json:"price,omitempty"`
	TimeInForce string `json:"timeInForce,omitempty"`
	ReduceOnly  bool   `json:"reduceOnly,omitempty"`
	OrderLinkID string `json:"orderLinkId"`
}

// PlaceOrder submits an order. Validation failures surface locally and
// never reach the signer. The returned ack carries the exchange order ID
// and the link ID the submission was keyed by.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (OrderAck, error) {
	if err := req.validate(); err != nil {
		return OrderAck{}, err
	}

	if req.Category == "" {
		req.Category = "linear"
	}
	if req.OrderLinkID == "" {
		req.OrderLinkID = uuid.NewString()
	}
	tif := req.TimeInForce
	if tif == "" && req.Type == domain.OrderTypeLimit {
		tif = "GTC"
	}

	body := createOrderBody{
		Category:    req.Category,
		Symbol:      req.Symbol,
		Side:        req.Side.String(),
		OrderType:   req.Type.String(),
		Qty:         req.Qty.String(),
		TimeInForce: tif,
		ReduceOnly:  req.ReduceOnly,
		OrderLinkID: req.OrderLinkID,
	}
	if req.Type == domain.OrderTypeLimit {
		body.Price = req.Price.String()
	}

	var result orderAckResult
	if err := c.post(ctx, "/v5/order/create", body, &result); err != nil {
		return OrderAck{}, err
	}
	return OrderAck{OrderID: result.OrderID, OrderLinkID: result.OrderLinkID}, nil
}

type cancelOrderBody struct {
	Category string `json:"category"`
	Symbol   string `json:"symbol"`
	OrderID  string `json:"orderId"`
}

// CancelOrder cancels an open order by exchange order ID.
func (c *Client) CancelOrder(ctx context.Context, category, symbol, orderID string) (OrderAck, error) {
	if symbol == "" {
		return OrderAck{}, &domain.ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if orderID == "" {
		return OrderAck{}, &domain.ValidationError{Field: "orderId", Reason: "must not be empty"}
	}
	if category == "" {
		category = "linear"
	}

	var result orderAckResult
	err := c.post(ctx, "/v5/order/cancel", cancelOrderBody{
		Category: category,
		Symbol:   symbol,
		OrderID:  orderID,
	}, &result)
	if err != nil {
		return OrderAck{}, err
	}
	return OrderAck{OrderID: result.OrderID, OrderLinkID: result.OrderLinkID}, nil
}

// ClosePosition reduces a position with a reduce-only market order on the
// opposite side. side is the side of the position being closed.
func (c *Client) ClosePosition(ctx context.Context, category, symbol string, side domain.Side, qty decimal.Decimal) (OrderAck, error) {
	return c.PlaceOrder(ctx, OrderRequest{
		Category:   category,
		Symbol:     symbol,
		Side:       side.Opposite(),
		Type:       domain.OrderTypeMarket,
		Qty:        qty,
		ReduceOnly: true,
	})
}

// canonicalQuery builds the query string with keys in lexicographic order.
// The exchange validates the signature against the exact ordering sent.
func canonicalQuery(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(params[k]))
	}
	return buf.String()
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, auth bool, out interface{}) error {
	query := canonicalQuery(params)
	target := c.baseURL + path
	if query != "" {
		target += "?" + query
	}
	return c.do(ctx, http.MethodGet, target, query, nil, auth, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request body")
	}
	return c.do(ctx, http.MethodPost, c.baseURL+path, string(payload), payload, true, out)
}

// do sends the request, retrying transport failures and 5xx responses with
// a bounded fixed delay. Exchange-reported errors are never retried: the
// request already reached the server.
func (c *Client) do(ctx context.Context, method, target, signPayload string, body []byte, auth bool, out interface{}) error {
	delay := &backoff.Backoff{Min: c.retryDelay, Max: c.retryDelay, Factor: 1}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay.Duration()):
			}
		}

		retry, err := c.send(ctx, method, target, signPayload, body, auth, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return errors.Wrapf(lastErr, "giving up after %d attempts", c.maxRetries)
}

func (c *Client) send(ctx context.Context, method, target, signPayload string, body []byte, auth bool, out interface{}) (retriable bool, _ error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return false, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	if auth {
		timestamp := c.now().UnixMilli()
		req.Header.Set("X-BAPI-API-KEY", c.signer.APIKey())
		req.Header.Set("X-BAPI-SIGNATURE", c.signer.Sign(timestamp, c.recvWindow, signPayload))
		req.Header.Set("X-BAPI-SIGNATURE-TYPE", signatureType)
		req.Header.Set("X-BAPI-TIMESTAMP", strconv.FormatInt(timestamp, 10))
		req.Header.Set("X-BAPI-RECV-WINDOW", c.recvWindow)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, &domain.NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, &domain.NetworkError{Cause: err}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return true, &domain.NetworkError{Cause: errors.Errorf("status %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, errors.Wrapf(err, "decode envelope (status %d)", resp.StatusCode)
	}
	if env.RetCode != 0 {
		return false, &domain.ExchangeError{Code: env.RetCode, Message: env.RetMsg}
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return false, errors.Wrap(err, "decode result")
		}
	}
	return false, nil
}
