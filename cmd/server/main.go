// Package main runs the full token-radar service: feed ingestion,
// prediction, risk-gated paper execution and the HTTP surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"token-radar/internal/config"
	"token-radar/internal/enrichment"
	"token-radar/internal/ingestion"
	"token-radar/internal/logging"
	"token-radar/internal/observability"
	"token-radar/internal/pipeline"
	"token-radar/internal/risk"
	"token-radar/internal/storage"
	chstore "token-radar/internal/storage/clickhouse"
	"token-radar/internal/storage/migrations"
	pgstore "token-radar/internal/storage/postgres"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config (optional)")
	listenAddr := flag.String("listen-addr", "", "HTTP listen address (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Force in-memory storage")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *useMemory {
		cfg.Storage.UseMemory = true
	}

	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trades, snapshots, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	feeds, closeFeeds, err := createFeeds(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to start feeds: %v", err)
	}
	defer closeFeeds()
	if len(feeds) == 0 {
		log.Fatal("No feed endpoints configured; set ingestion endpoints in the config")
	}

	opts := pipeline.Options{
		Feeds:     feeds,
		Trades:    trades,
		Snapshots: snapshots,
	}
	if cfg.Enrichment.SocialBaseURL != "" {
		opts.Social = enrichment.NewHTTPSocialSource(cfg.Enrichment.SocialBaseURL, cfg.Enrichment.RequestTimeout.Duration)
	}
	if cfg.Enrichment.WhaleBaseURL != "" {
		opts.Whale = enrichment.NewHTTPWhaleSource(cfg.Enrichment.WhaleBaseURL, cfg.Enrichment.RequestTimeout.Duration)
	}
	if cfg.Risk.SafetyBaseURL != "" {
		opts.Safety = risk.NewHTTPSafetyChecker(cfg.Risk.SafetyBaseURL, cfg.Risk.SafetyTimeout.Duration)
	}

	p := pipeline.New(cfg, opts, log)

	// Handle shutdown signals
	done := make(chan error, 1)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Infof("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			log.Infof("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Info("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	go startHTTPServer(cfg.Server.ListenAddr, p, log)

	log.Infof("token-radar starting with %d feeds, listen %s", len(feeds), cfg.Server.ListenAddr)
	err = p.Run(ctx)
	done <- err

	if err != nil && err != context.Canceled {
		log.Fatalf("Pipeline error: %v", err)
	}
	log.Info("Shutdown complete")
}

// createStores connects the durable stores, or returns nils for the
// in-memory setup. The cleanup closes whatever was opened.
func createStores(ctx context.Context, cfg *config.Config) (storage.TradeStore, storage.SnapshotStore, func(), error) {
	if cfg.Storage.UseMemory {
		return nil, nil, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		pool.Close()
		chConn.Close()
	}
	return pgstore.NewTradeStore(pool), chstore.NewSnapshotStore(chConn), cleanup, nil
}

// createFeeds dials every configured websocket feed.
func createFeeds(ctx context.Context, cfg *config.Config, log *logrus.Logger) ([]ingestion.Feed, func(), error) {
	type spec struct {
		name     string
		kind     ingestion.FeedKind
		endpoint string
		interval time.Duration
	}
	specs := []spec{
		{"dex", ingestion.FeedDexPairs, cfg.Ingestion.DexEndpoint, cfg.Ingestion.DexInterval.Duration},
		{"tools", ingestion.FeedToolsPairs, cfg.Ingestion.ToolsEndpoint, cfg.Ingestion.ToolsInterval.Duration},
		{"trending", ingestion.FeedTrendingPools, cfg.Ingestion.TrendingEndpoint, cfg.Ingestion.TrendingInterval.Duration},
	}

	var feeds []ingestion.Feed
	var sources []*ingestion.WSPairSource
	closeAll := func() {
		for _, s := range sources {
			s.Close()
		}
	}

	for _, sp := range specs {
		if sp.endpoint == "" {
			continue
		}
		src, err := ingestion.NewWSPairSource(ctx, sp.name, sp.endpoint,
			ingestion.DefaultWSFeedConfig(), logging.Component(log, "feed_"+sp.name))
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("dial %s feed: %w", sp.name, err)
		}
		sources = append(sources, src)
		feeds = append(feeds, ingestion.Feed{
			Name:     sp.name,
			Kind:     sp.kind,
			Interval: sp.interval,
			Source:   src,
		})
	}
	return feeds, closeAll, nil
}

// startHTTPServer serves health, metrics and the read-only API.
func startHTTPServer(addr string, p *pipeline.Pipeline, log *logrus.Logger) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, p.Stats(r.Context()), nil)
	})

	mux.HandleFunc("/signals/buy", func(w http.ResponseWriter, r *http.Request) {
		signals, err := p.TopBuySignals(r.Context(), 10)
		writeJSON(w, signals, err)
	})

	mux.HandleFunc("/positions", func(w http.ResponseWriter, r *http.Request) {
		positions, err := p.OpenPositions(r.Context())
		writeJSON(w, positions, err)
	})

	mux.HandleFunc("/performance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, p.PerformanceSnapshot(), nil)
	})

	mux.HandleFunc("/trades", func(w http.ResponseWriter, r *http.Request) {
		trades, err := p.TradeHistory(r.Context())
		writeJSON(w, trades, err)
	})

	log.Infof("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Errorf("HTTP server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}, err error) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
