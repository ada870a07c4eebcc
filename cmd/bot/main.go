package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"solana-dexpaid-bot/internal/dedup"
	"solana-dexpaid-bot/internal/dexscreener"
	"solana-dexpaid-bot/internal/observability"
	"solana-dexpaid-bot/internal/sampler"
	"solana-dexpaid-bot/internal/storage"
	chstore "solana-dexpaid-bot/internal/storage/clickhouse"
	"solana-dexpaid-bot/internal/storage/memory"
	"solana-dexpaid-bot/internal/storage/migrations"
	pgstore "solana-dexpaid-bot/internal/storage/postgres"
	"solana-dexpaid-bot/internal/watcher"
)

func main() {
	// Parse flags
	chain := flag.String("chain", watcher.DefaultChainID, "Chain ID to watch")
	pollInterval := flag.Duration("poll-interval", watcher.DefaultPollInterval, "Discovery feed poll interval")
	maxMarketCap := flag.Float64("max-market-cap", watcher.DefaultMaxMarketCap, "Market cap ceiling in USD for recorded tokens")
	enrichDelay := flag.Duration("enrich-delay", watcher.DefaultEnrichDelay, "Wait between payment detection and the pair fetch (negative to disable)")
	dedupTTL := flag.Duration("dedup-ttl", dedup.DefaultTTL, "How long a processed address stays deduplicated")
	dedupMaxEntries := flag.Int("dedup-max-entries", dedup.DefaultMaxEntries, "Maximum addresses held by the in-process dedup cache")
	samplerDuration := flag.Duration("sampler-duration", sampler.DefaultDuration, "How long each detected token is price-sampled")
	samplerInterval := flag.Duration("sampler-interval", sampler.DefaultInterval, "Delay between price samples")
	maxSamplers := flag.Int("max-samplers", sampler.DefaultMaxConcurrent, "Maximum concurrent price sampling jobs")
	apiBaseURL := flag.String("api-base-url", dexscreener.DefaultBaseURL, "DexScreener API base URL")
	apiRetries := flag.Int("api-retries", dexscreener.DefaultMaxRetries, "Fetch attempts per API call")
	apiRetryDelay := flag.Duration("api-retry-delay", dexscreener.DefaultRetryDelay, "Delay between failed API attempts")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN for price samples (empty keeps prices in PostgreSQL)")
	redisAddr := flag.String("redis-addr", "", "Redis address for restart-surviving dedup (empty uses in-process cache)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lshortfile)

	metrics := observability.NewMetrics("")

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

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

	err := run(ctx, logger, metrics, options{
		chain:           *chain,
		pollInterval:    *pollInterval,
		maxMarketCap:    *maxMarketCap,
		enrichDelay:     *enrichDelay,
		dedupTTL:        *dedupTTL,
		dedupMaxEntries: *dedupMaxEntries,
		samplerDuration: *samplerDuration,
		samplerInterval: *samplerInterval,
		maxSamplers:     *maxSamplers,
		apiBaseURL:      *apiBaseURL,
		apiRetries:      *apiRetries,
		apiRetryDelay:   *apiRetryDelay,
		postgresDSN:     *postgresDSN,
		clickhouseDSN:   *clickhouseDSN,
		redisAddr:       *redisAddr,
		useMemory:       *useMemory,
	})

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

type options struct {
	chain           string
	pollInterval    time.Duration
	maxMarketCap    float64
	enrichDelay     time.Duration
	dedupTTL        time.Duration
	dedupMaxEntries int
	samplerDuration time.Duration
	samplerInterval time.Duration
	maxSamplers     int
	apiBaseURL      string
	apiRetries      int
	apiRetryDelay   time.Duration
	postgresDSN     string
	clickhouseDSN   string
	redisAddr       string
	useMemory       bool
}

// run wires the stores, API client, sampler registry and watcher, then blocks
// until ctx is cancelled.
func run(ctx context.Context, logger *log.Logger, metrics *observability.Metrics, opts options) error {
	// Require --postgres-dsn unless --use-memory is explicitly set
	if !opts.useMemory && opts.postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// Create stores (use interfaces)
	var tokenStore storage.TokenStore = memory.NewTokenStore()
	var priceStore storage.PriceStore = memory.NewPriceStore()

	if !opts.useMemory {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}

		tokenStore = pgstore.NewTokenStore(pool)
		priceStore = pgstore.NewPriceStore(pool)

		// Price samples optionally go to ClickHouse instead; token records
		// always stay in PostgreSQL.
		if opts.clickhouseDSN != "" {
			conn, err := chstore.NewConn(ctx, opts.clickhouseDSN)
			if err != nil {
				return fmt.Errorf("connect to clickhouse: %w", err)
			}
			defer conn.Close()

			if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
				return fmt.Errorf("run clickhouse migrations: %w", err)
			}
			priceStore = chstore.NewPriceStore(conn)
		}
	}

	// Dedup cache: in-process LRU by default, Redis when configured
	var cache dedup.Cache = dedup.NewSeenCache(opts.dedupMaxEntries, opts.dedupTTL)
	if opts.redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		cache = dedup.NewRedisCache(rdb, opts.dedupTTL, logger)
	}

	// API client shared by the watcher and all sampling jobs
	api := dexscreener.NewClient(opts.apiBaseURL,
		dexscreener.WithMaxRetries(opts.apiRetries),
		dexscreener.WithRetryDelay(opts.apiRetryDelay),
	)

	registry := sampler.NewRegistry(opts.maxSamplers, metrics)
	samplerLogger := log.New(os.Stdout, "[sampler] ", log.LstdFlags)
	priceSampler := sampler.New(api, priceStore, opts.chain,
		opts.samplerDuration, opts.samplerInterval, samplerLogger, metrics)

	watcherLogger := log.New(os.Stdout, "[watcher] ", log.LstdFlags)

	w := watcher.New(watcher.Options{
		Feed:     api,
		Verifier: api,
		Enricher: api,
		Cache:    cache,
		Tokens:   tokenStore,
		Sampler:  priceSampler,
		Registry: registry,
		Config: watcher.Config{
			ChainID:      opts.chain,
			PollInterval: opts.pollInterval,
			MaxMarketCap: opts.maxMarketCap,
			EnrichDelay:  opts.enrichDelay,
		},
		Logger:  watcherLogger,
		Metrics: metrics,
	})

	logger.Println("Starting dex-paid watcher...")
	err := w.Run(ctx)

	// Let in-flight sampling jobs notice the cancellation before exiting.
	logger.Printf("Waiting for %d sampling jobs to stop...", registry.ActiveCount())
	registry.Wait()

	return err
}
