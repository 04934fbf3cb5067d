// Package main provides the ledger service:
// - Token API (HTTP): transfers, allowances, liquidity provisioning, views
// - Event stream (WebSocket): transfer and liquidity events as they commit
// - Analytics (scheduled): daily volume rollups flushed to ClickHouse
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"meme-token-ledger/internal/analytics"
	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/ledger"
	"meme-token-ledger/internal/liquidity"
	"meme-token-ledger/internal/observability"
	"meme-token-ledger/internal/pool"
	"meme-token-ledger/internal/pool/stub"
	"meme-token-ledger/internal/ratelimit"
	"meme-token-ledger/internal/storage"
	chstore "meme-token-ledger/internal/storage/clickhouse"
	"meme-token-ledger/internal/storage/memory"
	"meme-token-ledger/internal/storage/migrations"
	pgstore "meme-token-ledger/internal/storage/postgres"
	"meme-token-ledger/internal/stream"
	"meme-token-ledger/internal/token"
)

// Server holds all components of the ledger service.
type Server struct {
	token       *token.Token
	broadcaster *stream.Broadcaster
	recorder    *analytics.Recorder
	stores      *allStores
	logger      *log.Logger
	startedAt   time.Time

	statusMu  sync.Mutex
	lastFlush time.Time
	flushRuns int
}

// allStores holds all storage implementations.
type allStores struct {
	accounts        storage.AccountStore
	pairs           storage.PairLiquidityStore
	transferEvents  storage.TransferEventStore
	liquidityEvents storage.LiquidityEventStore
	volumes         storage.TransferVolumeStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	flushInterval := flag.Duration("flush-interval", 1*time.Minute, "Analytics flush interval")

	tokenName := flag.String("token-name", envOr("TOKEN_NAME", "Meme Token"), "Token name")
	tokenSymbol := flag.String("token-symbol", envOr("TOKEN_SYMBOL", "MEME"), "Token symbol")
	taxRate := flag.Uint64("tax-rate", envUint("TAX_RATE", 5), "Transfer tax rate, integer percent 0..100")
	taxWallet := flag.String("tax-wallet", os.Getenv("TAX_WALLET"), "Tax collector address (base58)")
	maxTxAmount := flag.Uint64("max-tx-amount", envUint("MAX_TX_AMOUNT", 1000), "Maximum single-transfer amount")
	dailyTxLimit := flag.Uint64("daily-tx-limit", envUint("DAILY_TX_LIMIT", 10000), "Per-address daily cumulative limit")
	initialSupply := flag.Uint64("initial-supply", envUint("INITIAL_SUPPLY", 1_000_000_000), "Initial supply minted to the owner")
	owner := flag.String("owner", os.Getenv("TOKEN_OWNER"), "Owner address receiving the initial supply (base58)")
	counterAsset := flag.String("counter-asset", os.Getenv("COUNTER_ASSET"), "Pool counter-asset address (base58)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	cfg, err := buildTokenConfig(*tokenName, *tokenSymbol, *taxRate, *taxWallet,
		*maxTxAmount, *dailyTxLimit, *initialSupply, *owner, *useMemory)
	if err != nil {
		logger.Fatalf("Invalid token configuration: %v", err)
	}

	counter, err := resolveCounterAsset(*counterAsset, *useMemory)
	if err != nil {
		logger.Fatalf("Invalid counter asset: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	broadcaster := stream.NewBroadcaster(log.New(os.Stdout, "[stream] ", log.LstdFlags))

	tok, err := token.New(ctx, cfg, token.Options{
		Accounts:        stores.accounts,
		Pairs:           stores.pairs,
		TransferEvents:  stores.transferEvents,
		LiquidityEvents: stores.liquidityEvents,
		Pool:            stub.New(counter),
		Sink:            broadcaster,
	})
	if err != nil {
		logger.Fatalf("Failed to create token: %v", err)
	}
	logger.Printf("Token %s (%s): tax %d%%, max tx %d, daily limit %d, supply %d, owner %s",
		cfg.Name, cfg.Symbol, cfg.TaxRate, cfg.MaxTxAmount, cfg.DailyTxLimit, cfg.InitialSupply, cfg.Owner)

	recorder := analytics.NewRecorder(stores.transferEvents, stores.volumes,
		log.New(os.Stdout, "[analytics] ", log.LstdFlags))

	server := &Server{
		token:       tok,
		broadcaster: broadcaster,
		recorder:    recorder,
		stores:      stores,
		logger:      logger,
		startedAt:   time.Now(),
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start flush scheduler
	go server.runFlushScheduler(ctx, *flushInterval)

	// Run the HTTP server until cancelled
	err = server.serveHTTP(ctx, *listenAddr)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// buildTokenConfig assembles and validates the token configuration.
// In memory mode missing addresses fall back to deterministic dev wallets.
func buildTokenConfig(name, symbol string, taxRate uint64, taxWallet string,
	maxTx, daily, supply uint64, owner string, useMemory bool) (domain.TokenConfig, error) {

	cfg := domain.TokenConfig{
		Name:          name,
		Symbol:        symbol,
		TaxRate:       taxRate,
		MaxTxAmount:   maxTx,
		DailyTxLimit:  daily,
		InitialSupply: supply,
		TokenAddress:  domain.NewWalletAddress("token:" + symbol),
	}

	var err error
	cfg.TaxWallet, err = resolveAddress(taxWallet, "dev-tax-wallet", useMemory)
	if err != nil {
		return cfg, fmt.Errorf("tax wallet: %w", err)
	}
	cfg.Owner, err = resolveAddress(owner, "dev-owner", useMemory)
	if err != nil {
		return cfg, fmt.Errorf("owner: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func resolveCounterAsset(value string, useMemory bool) (domain.Address, error) {
	return resolveAddress(value, "dev-counter-asset", useMemory)
}

// resolveAddress parses a configured address, or derives a deterministic
// dev wallet in memory mode when none is configured.
func resolveAddress(value, devSeed string, useMemory bool) (domain.Address, error) {
	if value == "" {
		if !useMemory {
			return "", fmt.Errorf("address is required")
		}
		return domain.NewWalletAddress(devSeed), nil
	}
	return domain.ParseAddress(value)
}

// createStores creates all required stores and applies migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			accounts:        memory.NewAccountStore(),
			pairs:           memory.NewPairLiquidityStore(),
			transferEvents:  memory.NewTransferEventStore(),
			liquidityEvents: memory.NewLiquidityEventStore(),
			volumes:         memory.NewTransferVolumeStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	// ClickHouse (migrations create the database and return a connection)
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	stores := &allStores{
		accounts:        pgstore.NewAccountStore(pool),
		pairs:           pgstore.NewPairLiquidityStore(pool),
		transferEvents:  pgstore.NewTransferEventStore(pool),
		liquidityEvents: pgstore.NewLiquidityEventStore(pool),
		volumes:         chstore.NewTransferVolumeStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// runFlushScheduler drives the analytics recorder on a fixed interval.
func (s *Server) runFlushScheduler(ctx context.Context, interval time.Duration) {
	s.logger.Printf("Starting analytics flush scheduler (interval: %v)...", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final flush so committed events reach the volume store.
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if _, err := s.recorder.Flush(flushCtx); err != nil {
				s.logger.Printf("Final analytics flush failed: %v", err)
			}
			cancel()
			return
		case <-ticker.C:
			if _, err := s.recorder.Flush(ctx); err != nil {
				s.logger.Printf("Analytics flush failed: %v", err)
				continue
			}
			observability.RecordFlush(time.Now().Unix())
			s.statusMu.Lock()
			s.lastFlush = time.Now()
			s.flushRuns++
			s.statusMu.Unlock()
		}
	}
}

// serveHTTP runs the HTTP server until the context is cancelled.
func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	mux := http.NewServeMux()

	// Mutations
	mux.HandleFunc("/api/transfer", s.handleTransfer)
	mux.HandleFunc("/api/approve", s.handleApprove)
	mux.HandleFunc("/api/transfer-from", s.handleTransferFrom)
	mux.HandleFunc("/api/liquidity", s.handleAddLiquidity)

	// Views
	mux.HandleFunc("/api/balance", s.handleBalance)
	mux.HandleFunc("/api/allowance", s.handleAllowance)
	mux.HandleFunc("/api/pair-liquidity", s.handlePairLiquidity)
	mux.HandleFunc("/api/events/transfers", s.handleTransferEvents)
	mux.HandleFunc("/api/events/liquidity", s.handleLiquidityEvents)
	mux.HandleFunc("/api/volume", s.handleVolume)

	// Operational
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/ws/events", s.broadcaster.Handler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return ctx.Err()
	}
}

type transferRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Spender string `json:"spender,omitempty"`
	Amount  uint64 `json:"amount"`
}

type approveRequest struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

type liquidityRequest struct {
	Provider    string `json:"provider"`
	TokenAmount uint64 `json:"token_amount"`
	BaseAmount  uint64 `json:"base_amount"`
	MinTokenOut uint64 `json:"min_token_out"`
	MinBaseOut  uint64 `json:"min_base_out"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodePost(w, r, &req) {
		return
	}

	from, err := domain.ParseAddress(req.From)
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		writeError(w, err)
		return
	}

	event, err := s.token.Transfer(r.Context(), from, to, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodePost(w, r, &req) {
		return
	}

	spender, err := domain.ParseAddress(req.Spender)
	if err != nil {
		writeError(w, err)
		return
	}
	from, err := domain.ParseAddress(req.From)
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		writeError(w, err)
		return
	}

	event, err := s.token.TransferFrom(r.Context(), spender, from, to, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if !decodePost(w, r, &req) {
		return
	}

	owner, err := domain.ParseAddress(req.Owner)
	if err != nil {
		writeError(w, err)
		return
	}
	spender, err := domain.ParseAddress(req.Spender)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.token.Approve(r.Context(), owner, spender, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner":   string(owner),
		"spender": string(spender),
		"amount":  req.Amount,
	})
}

func (s *Server) handleAddLiquidity(w http.ResponseWriter, r *http.Request) {
	var req liquidityRequest
	if !decodePost(w, r, &req) {
		return
	}

	provider, err := domain.ParseAddress(req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}

	event, err := s.token.AddLiquidityForBaseAsset(r.Context(), provider,
		req.TokenAmount, req.MinTokenOut, req.MinBaseOut, req.BaseAmount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(r.URL.Query().Get("address"))
	if err != nil {
		writeError(w, err)
		return
	}

	balance, err := s.token.BalanceOf(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address": string(addr),
		"balance": balance,
	})
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	owner, err := domain.ParseAddress(r.URL.Query().Get("owner"))
	if err != nil {
		writeError(w, err)
		return
	}
	spender, err := domain.ParseAddress(r.URL.Query().Get("spender"))
	if err != nil {
		writeError(w, err)
		return
	}

	allowance, err := s.token.Allowance(r.Context(), owner, spender)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner":     string(owner),
		"spender":   string(spender),
		"allowance": allowance,
	})
}

func (s *Server) handlePairLiquidity(w http.ResponseWriter, r *http.Request) {
	tokenAddr := s.token.Config().TokenAddress
	if v := r.URL.Query().Get("token"); v != "" {
		var err error
		tokenAddr, err = domain.ParseAddress(v)
		if err != nil {
			writeError(w, err)
			return
		}
	}
	counter, err := domain.ParseAddress(r.URL.Query().Get("counter"))
	if err != nil {
		writeError(w, err)
		return
	}

	units, err := s.token.PairLiquidity(r.Context(), tokenAddr, counter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":   string(tokenAddr),
		"counter": string(counter),
		"units":   units,
	})
}

func (s *Server) handleTransferEvents(w http.ResponseWriter, r *http.Request) {
	if account := r.URL.Query().Get("account"); account != "" {
		addr, err := domain.ParseAddress(account)
		if err != nil {
			writeError(w, err)
			return
		}
		events, err := s.stores.transferEvents.GetByAccount(r.Context(), addr)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
		return
	}

	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	events, err := s.stores.transferEvents.GetByTimeRange(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleLiquidityEvents(w http.ResponseWriter, r *http.Request) {
	if provider := r.URL.Query().Get("provider"); provider != "" {
		addr, err := domain.ParseAddress(provider)
		if err != nil {
			writeError(w, err)
			return
		}
		events, err := s.stores.liquidityEvents.GetByProvider(r.Context(), addr)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
		return
	}

	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	events, err := s.stores.liquidityEvents.GetByTimeRange(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	points, err := s.stores.volumes.GetByTimeRange(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	TokenName   string    `json:"token_name"`
	TokenSymbol string    `json:"token_symbol"`
	TotalSupply uint64    `json:"total_supply"`
	LastFlush   time.Time `json:"last_flush,omitempty"`
	FlushRuns   int       `json:"flush_runs"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.statusMu.Lock()
	lastFlush, flushRuns := s.lastFlush, s.flushRuns
	s.statusMu.Unlock()

	cfg := s.token.Config()
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.startedAt).String(),
		TokenName:   cfg.Name,
		TokenSymbol: cfg.Symbol,
		TotalSupply: s.token.TotalSupply(),
		LastFlush:   lastFlush,
		FlushRuns:   flushRuns,
	})
}

func decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func parseTimeRange(r *http.Request) (int64, int64, error) {
	start, err := parseInt64(r.URL.Query().Get("start"), 0)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start: %w", err)
	}
	end, err := parseInt64(r.URL.Query().Get("end"), time.Now().UnixMilli())
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end: %w", err)
	}
	return start, end, nil
}

func parseInt64(value string, fallback int64) (int64, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var depositErr *liquidity.DepositError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, storage.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrAllowanceExceeded),
		errors.Is(err, ledger.ErrBalanceOverflow),
		errors.Is(err, ratelimit.ErrMaxTxAmount),
		errors.Is(err, ratelimit.ErrDailyLimit):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &depositErr), errors.Is(err, pool.ErrSlippage), errors.Is(err, pool.ErrRejected):
		status = http.StatusBadGateway
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
