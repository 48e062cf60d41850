// Package main runs the pipeline against synthetic feeds with
// compressed intervals, then prints the account summary. Useful for
// exercising the full entry/exit path without any external services.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"token-radar/internal/config"
	"token-radar/internal/enrichment"
	"token-radar/internal/ingestion"
	"token-radar/internal/ingestion/stub"
	"token-radar/internal/logging"
	"token-radar/internal/pipeline"
	"token-radar/internal/position"
)

func main() {
	duration := flag.Duration("duration", 2*time.Minute, "How long to run the simulation")
	tokens := flag.Int("tokens", 8, "Synthetic tokens per feed batch")
	seed := flag.Uint64("seed", 42, "Synthetic feed seed")
	balance := flag.Float64("balance", 10.0, "Starting balance")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	cfg := config.Default()
	cfg.Logging.Level = *logLevel
	cfg.Ledger.InitialBalance = *balance

	// Compress every cadence so a short run covers full lifecycles.
	cfg.Ingestion.DexInterval = config.Duration{Duration: 2 * time.Second}
	cfg.Prediction.Interval = config.Duration{Duration: time.Second}
	cfg.Risk.ExecutionInterval = config.Duration{Duration: time.Second}
	cfg.Position.MonitorInterval = config.Duration{Duration: time.Second}
	cfg.Position.MaxHoldingTime = config.Duration{Duration: 30 * time.Second}
	cfg.Storage.SweepInterval = config.Duration{Duration: 10 * time.Second}
	cfg.Position.SettleDelay = config.Duration{Duration: 10 * time.Millisecond}

	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: "text"})

	source := stub.NewSyntheticSource("synthetic", *seed, *tokens)

	// Pin strong enrichment signals for every synthetic mint so the
	// composite score is driven by the price walk alone.
	social := map[string]*enrichment.SocialSignal{}
	whale := map[string]*enrichment.WhaleSignal{}
	for i := 0; i < *tokens; i++ {
		addr := stub.MintAddress(*seed + uint64(i))
		social[addr] = &enrichment.SocialSignal{Overall: 0.85}
		whale[addr] = &enrichment.WhaleSignal{SuccessRate: 0.85}
	}

	p := pipeline.New(cfg, pipeline.Options{
		Feeds: []ingestion.Feed{{
			Name:     "synthetic",
			Kind:     ingestion.FeedDexPairs,
			Interval: cfg.Ingestion.DexInterval.Duration,
			Source:   source,
		}},
		Social: &enrichment.StaticSocialSource{Signals: social},
		Whale:  &enrichment.StaticWhaleSource{Signals: whale},
		Settle: position.NewPaperSettlement(cfg.Position.SettleDelay.Duration),
	}, log)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("Interrupted, stopping simulation")
		cancel()
	}()

	log.Infof("Simulating %d tokens for %s", *tokens, *duration)
	if err := p.Run(ctx); err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		log.Fatalf("Simulation error: %v", err)
	}

	printSummary(p)
}

func printSummary(p *pipeline.Pipeline) {
	perf := p.PerformanceSnapshot()

	fmt.Println()
	fmt.Println("=== Simulation summary ===")
	fmt.Printf("Balance:        %.4f\n", perf.Balance)
	fmt.Printf("Total PnL:      %+.4f\n", perf.TotalPnL)
	fmt.Printf("Closed trades:  %d (wins %d, win rate %.1f%%)\n",
		perf.TotalTrades, perf.WinningTrades, perf.WinRate)
	fmt.Printf("Best trade:     %+.4f\n", perf.BestTrade)
	fmt.Printf("Worst trade:    %+.4f\n", perf.WorstTrade)
	fmt.Printf("Open positions: %d\n", perf.OpenPositions)

	trades, err := p.TradeHistory(context.Background())
	if err == nil {
		fmt.Printf("Trade log:      %d entries\n", len(trades))
	}
}
