// Package dashboard serves the desk's HTTP API: account snapshots, the
// trade journal, order placement and a live ticker stream over SSE.
package dashboard

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"tradedesk/internal/desk"
	"tradedesk/internal/domain"
	"tradedesk/internal/exchange/bybit"
	"tradedesk/internal/export"
	"tradedesk/internal/market"
)

const (
	defaultUserID    = "local"
	heartbeatPeriod  = 20 * time.Second
	shutdownDeadline = 5 * time.Second
)

// Trader is the desk surface the HTTP layer drives.
type Trader interface {
	SubmitOrder(ctx context.Context, sub desk.OrderSubmission) (bybit.OrderAck, error)
	CancelOrder(ctx context.Context, symbol, orderID string) (bybit.OrderAck, error)
	ClosePosition(ctx context.Context, userID, symbol string, side domain.Side, qty decimal.Decimal) (bybit.OrderAck, error)
	Orders(ctx context.Context, symbol string, limit int) ([]domain.OrderRecord, error)
	Refresh(ctx context.Context) (desk.Overview, error)
	TickerSnapshot(ctx context.Context, symbol string) (domain.Ticker, error)
	Indicators(ctx context.Context, symbol, interval string, period int) (market.Summary, error)
}

// Journal is the store surface the HTTP layer reads and edits.
type Journal interface {
	SaveTrade(ctx context.Context, trade *domain.Trade) error
	Trades(ctx context.Context, userID string, filter domain.TradeFilter) ([]domain.Trade, error)
	UpdateTrade(ctx context.Context, trade *domain.Trade) error
	DeleteTrade(ctx context.Context, userID, id string) error
}

// Server exposes the JSON API, the static UI and the ticker SSE stream.
type Server struct {
	Addr string

	trader    Trader
	journal   Journal
	hub       *tickerHub
	exportDir string
	logger    *zap.Logger
}

// NewServer wires the desk and journal behind the HTTP API. Feed the hub
// by calling PublishTickers with the market stream's channel. Saved
// exports land in exportDir.
func NewServer(addr string, trader Trader, journal Journal, exportDir string, logger *zap.Logger) *Server {
	return &Server{
		Addr:      addr,
		trader:    trader,
		journal:   journal,
		hub:       newTickerHub(),
		exportDir: exportDir,
		logger:    logger,
	}
}

// PublishTickers consumes the stream channel into the SSE hub. Blocks until
// the channel closes.
func (s *Server) PublishTickers(tickers <-chan domain.Ticker) {
	for t := range tickers {
		s.hub.publish(t)
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", s.staticHandler())
	mux.HandleFunc("/api/balance", s.handleBalance)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/positions/close", s.handleClosePosition)
	mux.HandleFunc("/api/orders", s.handleOrders)
	mux.HandleFunc("/api/orders/cancel", s.handleCancelOrder)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/ticker", s.handleTicker)
	mux.HandleFunc("/api/indicators", s.handleIndicators)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/ticker/stream", s.handleTickerStream)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic certificates via
// ACME, plus a port-80 listener for the HTTP-01 challenge.
func (s *Server) StartWithAutoTLS(ctx context.Context, host, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if host == "" {
		return errors.New("no domain provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(host),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("acme server shutdown", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("https server shutdown", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("acme server", zap.Error(err))
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	overview, err := s.trader.Refresh(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, overview.Balances)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	overview, err := s.trader.Refresh(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, overview.Positions)
}

type closeRequest struct {
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	Qty    string `json:"qty"`
}

func (s *Server) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed json"})
		return
	}
	side, ok := domain.ParseSide(req.Side)
	if !ok {
		s.writeError(w, &domain.ValidationError{Field: "side", Reason: "must be Buy or Sell"})
		return
	}
	qty, err := decimal.NewFromString(req.Qty)
	if err != nil {
		s.writeError(w, &domain.ValidationError{Field: "qty", Reason: "must be a number"})
		return
	}

	ack, err := s.trader.ClosePosition(r.Context(), userID(r), req.Symbol, side, qty)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, ack)
}

type orderRequest struct {
	Symbol string   `json:"symbol"`
	Side   string   `json:"side"`
	Type   string   `json:"type"`
	Qty    string   `json:"qty"`
	Price  string   `json:"price,omitempty"`
	Notes  string   `json:"notes,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, _ = strconv.Atoi(v)
		}
		orders, err := s.trader.Orders(r.Context(), r.URL.Query().Get("symbol"), limit)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, orders)

	case http.MethodPost:
		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed json"})
			return
		}
		sub, err := submissionFromRequest(userID(r), req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		ack, err := s.trader.SubmitOrder(r.Context(), sub)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, ack)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func submissionFromRequest(user string, req orderRequest) (desk.OrderSubmission, error) {
	side, ok := domain.ParseSide(req.Side)
	if !ok {
		return desk.OrderSubmission{}, &domain.ValidationError{Field: "side", Reason: "must be Buy or Sell"}
	}
	typ, ok := domain.ParseOrderType(req.Type)
	if !ok {
		return desk.OrderSubmission{}, &domain.ValidationError{Field: "type", Reason: "must be Market or Limit"}
	}
	qty, err := decimal.NewFromString(req.Qty)
	if err != nil {
		return desk.OrderSubmission{}, &domain.ValidationError{Field: "qty", Reason: "must be a number"}
	}

	price := decimal.Zero
	if req.Price != "" {
		if price, err = decimal.NewFromString(req.Price); err != nil {
			return desk.OrderSubmission{}, &domain.ValidationError{Field: "price", Reason: "must be a number"}
		}
	}

	return desk.OrderSubmission{
		UserID: user,
		Symbol: req.Symbol,
		Side:   side,
		Type:   typ,
		Qty:    qty,
		Price:  price,
		Notes:  req.Notes,
		Tags:   req.Tags,
	}, nil
}

type cancelRequest struct {
	Symbol  string `json:"symbol"`
	OrderID string `json:"orderId"`
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed json"})
		return
	}
	if req.OrderID == "" {
		s.writeError(w, &domain.ValidationError{Field: "orderId", Reason: "must not be empty"})
		return
	}
	ack, err := s.trader.CancelOrder(r.Context(), req.Symbol, req.OrderID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, ack)
}

// tradePayload is the wire shape of a journal entry. Like orderRequest it
// keeps exchange-style strings on the HTTP contract and converts to the
// internal types in one place.
type tradePayload struct {
	ID            string   `json:"id,omitempty"`
	Symbol        string   `json:"symbol"`
	Side          string   `json:"side"`
	Type          string   `json:"type"`
	Qty           string   `json:"qty"`
	Price         string   `json:"price,omitempty"`
	ExecutedPrice string   `json:"executedPrice,omitempty"`
	TotalAmount   string   `json:"totalAmount,omitempty"`
	Fee           string   `json:"fee,omitempty"`
	Status        string   `json:"status,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	ExecutedAt    string   `json:"executedAt,omitempty"`
}

func tradeFromPayload(user string, p tradePayload) (domain.Trade, error) {
	side, ok := domain.ParseSide(p.Side)
	if !ok {
		return domain.Trade{}, &domain.ValidationError{Field: "side", Reason: "must be Buy or Sell"}
	}
	typ, ok := domain.ParseOrderType(p.Type)
	if !ok {
		return domain.Trade{}, &domain.ValidationError{Field: "type", Reason: "must be Market or Limit"}
	}

	trade := domain.Trade{
		ID:        p.ID,
		UserID:    user,
		Symbol:    p.Symbol,
		Side:      side,
		OrderType: typ,
		Status:    domain.ParseOrderStatus(p.Status),
		Notes:     p.Notes,
		Tags:      p.Tags,
	}

	var err error
	if trade.Quantity, err = decimal.NewFromString(p.Qty); err != nil {
		return domain.Trade{}, &domain.ValidationError{Field: "qty", Reason: "must be a number"}
	}
	for _, field := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"price", p.Price, &trade.Price},
		{"executedPrice", p.ExecutedPrice, &trade.ExecutedPrice},
		{"totalAmount", p.TotalAmount, &trade.TotalAmount},
		{"fee", p.Fee, &trade.Fee},
	} {
		if field.raw == "" {
			continue
		}
		if *field.dst, err = decimal.NewFromString(field.raw); err != nil {
			return domain.Trade{}, &domain.ValidationError{Field: field.name, Reason: "must be a number"}
		}
	}

	if p.ExecutedAt != "" {
		at, err := time.Parse(time.RFC3339, p.ExecutedAt)
		if err != nil {
			return domain.Trade{}, &domain.ValidationError{Field: "executedAt", Reason: "must be RFC 3339"}
		}
		trade.ExecutedAt = &at
	}
	return trade, nil
}

func payloadFromTrade(t domain.Trade) tradePayload {
	p := tradePayload{
		ID:     t.ID,
		Symbol: t.Symbol,
		Side:   t.Side.String(),
		Type:   t.OrderType.String(),
		Qty:    t.Quantity.String(),
		Price:  t.Price.String(),
		Fee:    t.Fee.String(),
		Status: t.Status.String(),
		Notes:  t.Notes,
		Tags:   t.Tags,
	}
	if !t.ExecutedPrice.IsZero() {
		p.ExecutedPrice = t.ExecutedPrice.String()
	}
	if !t.TotalAmount.IsZero() {
		p.TotalAmount = t.TotalAmount.String()
	}
	if !t.CreatedAt.IsZero() {
		p.CreatedAt = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	if t.ExecutedAt != nil {
		p.ExecutedAt = t.ExecutedAt.UTC().Format(time.RFC3339)
	}
	return p
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter := domain.TradeFilter{
			Symbol: r.URL.Query().Get("symbol"),
			Tag:    r.URL.Query().Get("tag"),
		}
		if v := r.URL.Query().Get("status"); v != "" {
			status := domain.ParseOrderStatus(v)
			filter.Status = &status
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			filter.Limit, _ = strconv.Atoi(v)
		}
		trades, err := s.journal.Trades(r.Context(), userID(r), filter)
		if err != nil {
			s.writeError(w, err)
			return
		}
		payloads := make([]tradePayload, 0, len(trades))
		for _, trade := range trades {
			payloads = append(payloads, payloadFromTrade(trade))
		}
		s.writeJSON(w, payloads)

	case http.MethodPost, http.MethodPut:
		var payload tradePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			s.writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed json"})
			return
		}
		trade, err := tradeFromPayload(userID(r), payload)
		if err != nil {
			s.writeError(w, err)
			return
		}

		if r.Method == http.MethodPost {
			err = s.journal.SaveTrade(r.Context(), &trade)
		} else {
			err = s.journal.UpdateTrade(r.Context(), &trade)
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, payloadFromTrade(trade))

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			s.writeError(w, &domain.ValidationError{Field: "id", Reason: "must not be empty"})
			return
		}
		if err := s.journal.DeleteTrade(r.Context(), userID(r), id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.writeError(w, &domain.ValidationError{Field: "symbol", Reason: "must not be empty"})
		return
	}
	tick, err := s.trader.TickerSnapshot(r.Context(), symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, tick)
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.writeError(w, &domain.ValidationError{Field: "symbol", Reason: "must not be empty"})
		return
	}

	period := 0
	if v := r.URL.Query().Get("period"); v != "" {
		var err error
		if period, err = strconv.Atoi(v); err != nil || period < 0 {
			s.writeError(w, &domain.ValidationError{Field: "period", Reason: "must be a non-negative integer"})
			return
		}
	}

	summary, err := s.trader.Indicators(r.Context(), symbol, r.URL.Query().Get("interval"), period)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, summary)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := export.Format(r.URL.Query().Get("format"))
	switch format {
	case "":
		format = export.FormatCSV
	case export.FormatCSV, export.FormatJSON, export.FormatHTML:
	default:
		s.writeError(w, &domain.ValidationError{Field: "format", Reason: "must be csv, json or html"})
		return
	}

	trades, err := s.journal.Trades(r.Context(), userID(r), domain.TradeFilter{Limit: -1})
	if err != nil {
		s.writeError(w, err)
		return
	}

	// save=true writes the export server-side instead of streaming it
	if r.URL.Query().Get("save") == "true" {
		name := "trades-" + time.Now().UTC().Format("20060102-150405")
		path, err := export.WriteFile(trades, s.exportDir, name, format)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.logger.Info("journal exported", zap.String("path", path))
		s.writeJSON(w, map[string]string{"path": path})
		return
	}

	content, err := export.Render(trades, format)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "trades."+string(format)))
	fmt.Fprint(w, content)
}

// handleTickerStream pushes live ticker updates to the browser over SSE.
// On connect the latest known ticker per symbol is replayed so the UI has
// data before the next market update arrives.
func (s *Server) handleTickerStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub, replay, unsubscribe := s.hub.subscribe()
	defer unsubscribe()

	heartbeat := time.NewTicker(heartbeatPeriod)
	defer heartbeat.Stop()

	send := func(t domain.Ticker) {
		payload, err := json.Marshal(t)
		if err != nil {
			s.logger.Warn("encode ticker", zap.Error(err))
			return
		}
		fmt.Fprintf(w, "event: ticker\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	for _, t := range replay {
		send(t)
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case t, open := <-sub:
			if !open {
				return
			}
			send(t)
		}
	}
}

func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return defaultUserID
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

// writeError maps the error taxonomy onto HTTP statuses: bad input is the
// caller's fault, exchange rejections are upstream failures, transport
// errors are gateway timeouts.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var (
		validationErr *domain.ValidationError
		configErr     *domain.ConfigurationError
		exchangeErr   *domain.ExchangeError
		networkErr    *domain.NetworkError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &configErr):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &exchangeErr):
		status = http.StatusBadGateway
	case errors.As(err, &networkErr):
		status = http.StatusGatewayTimeout
	}

	if status >= 500 {
		s.logger.Error("request failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// staticHandler serves the bundled UI, gzipping text assets when the
// client accepts it.
func (s *Server) staticHandler() http.Handler {
	fileServer := http.StripPrefix("/", http.FileServer(http.Dir("dashboard/static")))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || !compressible(r.URL.Path) {
			fileServer.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Vary", "Accept-Encoding")
		w.Header().Del("Content-Length")

		gz := gzip.NewWriter(w)
		defer gz.Close()
		fileServer.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, writer: gz}, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	writer *gzip.Writer
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.writer.Write(b)
}

func compressible(p string) bool {
	switch {
	case p == "" || p == "/" || !strings.Contains(p, "."):
		return true
	case strings.HasSuffix(p, ".html"), strings.HasSuffix(p, ".css"),
		strings.HasSuffix(p, ".js"), strings.HasSuffix(p, ".json"),
		strings.HasSuffix(p, ".svg"):
		return true
	}
	return false
}
