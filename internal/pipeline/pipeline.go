// Package pipeline wires the full scanning pipeline together: feeds →
// opportunity store → prediction engine → risk gate → position manager
// → ledger, driven by the scheduler.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"token-radar/internal/config"
	"token-radar/internal/domain"
	"token-radar/internal/enrichment"
	"token-radar/internal/ingestion"
	"token-radar/internal/ledger"
	"token-radar/internal/logging"
	"token-radar/internal/observability"
	"token-radar/internal/position"
	"token-radar/internal/prediction"
	"token-radar/internal/risk"
	"token-radar/internal/scheduler"
	"token-radar/internal/storage"
	"token-radar/internal/storage/memory"
)

// Pipeline owns every component and the scheduler driving them.
type Pipeline struct {
	cfg *config.Config
	log *logrus.Logger

	opps      *memory.OpportunityStore
	preds     *memory.PredictionStore
	positions storage.PositionStore
	trades    storage.TradeStore
	snapshots storage.SnapshotStore // nil when running memory-only

	feeds    []ingestion.Feed
	norm     *ingestion.Normalizer
	enrich   *enrichment.Service
	engine   *prediction.Engine
	gate     *risk.Gate
	manager  *position.Manager
	ledger   *ledger.Ledger
	metrics  *observability.Metrics
	schedule *scheduler.Scheduler

	startedAt         time.Time
	pairsScanned      atomic.Int64
	opportunitiesSeen atomic.Int64
}

// Options carries the external collaborators main selects based on
// configuration: feeds, durable stores and remote checkers. Nil
// optional fields fall back to neutral/in-memory behavior.
type Options struct {
	Feeds     []ingestion.Feed
	Trades    storage.TradeStore    // nil: in-memory trade log
	Snapshots storage.SnapshotStore // nil: no analytics snapshots
	Social    enrichment.SocialSource
	Whale     enrichment.WhaleSource
	Safety    risk.SafetyChecker // nil: everything passes
	Settle    position.Settlement
	Metrics   *observability.Metrics
}

// New assembles the pipeline from configuration and collaborators.
func New(cfg *config.Config, opts Options, log *logrus.Logger) *Pipeline {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}

	opps := memory.NewOpportunityStore(cfg.Storage.OpportunityTTL.Duration)
	preds := memory.NewPredictionStore(cfg.Storage.PredictionTTL.Duration)
	positions := memory.NewPositionStore()

	trades := opts.Trades
	if trades == nil {
		trades = memory.NewTradeStore()
	}

	safety := opts.Safety
	if safety == nil {
		safety = risk.NewStaticSafetyChecker()
	}

	settle := opts.Settle
	if settle == nil {
		settle = position.NewPaperSettlement(cfg.Position.SettleDelay.Duration)
	}

	norm := ingestion.NewNormalizer(opps, metrics, logging.Component(log, "normalizer"))

	enrich := enrichment.NewService(opts.Social, opts.Whale,
		cfg.Enrichment.SocialTTL.Duration, cfg.Enrichment.WhaleTTL.Duration,
		logging.Component(log, "enrichment"))

	engine := prediction.NewEngine(opps, preds, enrich, metrics,
		logging.Component(log, "prediction"))

	ldg := ledger.New(cfg.Ledger.InitialBalance)

	manager := position.NewManager(position.Config{
		StopLossPct:       cfg.Position.StopLossPct,
		TakeProfitPct:     cfg.Position.TakeProfitPct,
		MaxHoldingTime:    cfg.Position.MaxHoldingTime.Duration,
		MaxSettleAttempts: cfg.Position.MaxSettleAttempts,
		SettleTimeout:     cfg.Position.SettleTimeout.Duration,
		EntryRetryWindow:  cfg.Storage.PredictionTTL.Duration,
	}, positions, opps, trades, ldg, settle, metrics,
		logging.Component(log, "position"))

	gate := risk.NewGate(risk.GateConfig{
		MaxPositions:      cfg.Risk.MaxPositions,
		MinConfidence:     cfg.Risk.MinConfidence,
		MinExpectedReturn: cfg.Risk.MinExpectedReturn,
		MaxRiskScore:      cfg.Risk.MaxRiskScore,
		MinNotional:       cfg.Risk.MinNotional,
	}, risk.NewSizer(cfg.Risk.MaxPositionFraction), manager, ldg.Balance, safety,
		metrics, logging.Component(log, "risk"))

	return &Pipeline{
		cfg:       cfg,
		log:       log,
		opps:      opps,
		preds:     preds,
		positions: positions,
		trades:    trades,
		snapshots: opts.Snapshots,
		feeds:     opts.Feeds,
		norm:      norm,
		enrich:    enrich,
		engine:    engine,
		gate:      gate,
		manager:   manager,
		ledger:    ldg,
		metrics:   metrics,
		startedAt: time.Now(),
	}
}

// Run starts every scheduled task and blocks until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	tasks := p.buildTasks()
	p.schedule = scheduler.New(tasks, p.metrics, logging.Component(p.log, "scheduler"))
	p.schedule.Start(ctx)

	<-ctx.Done()
	p.schedule.Wait()
	return ctx.Err()
}

func (p *Pipeline) buildTasks() []scheduler.Task {
	var tasks []scheduler.Task

	for _, feed := range p.feeds {
		feed := feed
		tasks = append(tasks, scheduler.Task{
			Name:     "ingest_" + feed.Name,
			Interval: feed.Interval,
			Run: func(ctx context.Context) error {
				pairs, err := feed.Source.Fetch(ctx)
				if err != nil {
					return fmt.Errorf("fetch %s: %w", feed.Name, err)
				}
				found, err := p.norm.Ingest(ctx, feed.Kind, feed.Source.Name(), pairs)
				if err != nil {
					return err
				}
				p.pairsScanned.Add(int64(len(pairs)))
				p.opportunitiesSeen.Add(int64(found))
				return nil
			},
		})
	}

	tasks = append(tasks,
		scheduler.Task{
			Name:     "enrichment_refresh",
			Interval: p.cfg.Enrichment.RefreshInterval.Duration,
			Run:      p.refreshEnrichment,
		},
		scheduler.Task{
			Name:     "prediction",
			Interval: p.cfg.Prediction.Interval.Duration,
			Run: func(ctx context.Context) error {
				_, err := p.engine.RunOnce(ctx)
				return err
			},
		},
		scheduler.Task{
			Name:     "execution",
			Interval: p.cfg.Risk.ExecutionInterval.Duration,
			Run:      p.executeOnce,
		},
		scheduler.Task{
			Name:     "position_monitor",
			Interval: p.cfg.Position.MonitorInterval.Duration,
			Run: func(ctx context.Context) error {
				_, err := p.manager.MonitorOnce(ctx)
				return err
			},
		},
		scheduler.Task{
			Name:     "store_sweep",
			Interval: p.cfg.Storage.SweepInterval.Duration,
			Run:      p.sweepOnce,
		},
	)

	if p.snapshots != nil {
		tasks = append(tasks, scheduler.Task{
			Name:     "snapshot_flush",
			Interval: p.cfg.Storage.SnapshotInterval.Duration,
			Run:      p.flushSnapshots,
		})
	}

	return tasks
}

// refreshEnrichment pulls social/whale signals for every live token.
func (p *Pipeline) refreshEnrichment(ctx context.Context) error {
	opps, err := p.opps.All(ctx)
	if err != nil {
		return err
	}
	addresses := make([]string, 0, len(opps))
	for _, o := range opps {
		addresses = append(addresses, o.Address)
	}
	p.enrich.Refresh(ctx, addresses)
	p.enrich.Sweep()
	return nil
}

// executeOnce walks BUY predictions by rank and opens every one the
// gate admits. Rejections are normal control flow.
func (p *Pipeline) executeOnce(ctx context.Context) error {
	preds, err := p.preds.TopBuy(ctx, p.cfg.Risk.MaxPositions)
	if err != nil {
		return err
	}
	for _, pred := range preds {
		v := p.gate.Evaluate(ctx, pred)
		if !v.Admit {
			continue
		}
		if err := p.manager.Open(ctx, pred, v.Size); err != nil {
			p.log.WithError(err).WithField("address", pred.TokenAddress).
				Warn("entry failed, will retry next cycle")
		}
	}
	p.updateGauges()
	return nil
}

// sweepOnce expires stale records from the TTL stores.
func (p *Pipeline) sweepOnce(ctx context.Context) error {
	if _, err := p.opps.Sweep(ctx); err != nil {
		return err
	}
	if _, err := p.preds.Sweep(ctx); err != nil {
		return err
	}
	p.updateGauges()
	return nil
}

// flushSnapshots writes the current opportunity set to the analytics
// store for offline inspection.
func (p *Pipeline) flushSnapshots(ctx context.Context) error {
	opps, err := p.opps.All(ctx)
	if err != nil {
		return err
	}
	if len(opps) == 0 {
		return nil
	}
	return p.snapshots.InsertOpportunities(ctx, opps, time.Now().UnixMilli())
}

func (p *Pipeline) updateGauges() {
	ctx := context.Background()
	liveOpps, _ := p.opps.Len(ctx)
	livePreds, _ := p.preds.Len(ctx)
	p.metrics.UpdateStateGauges(liveOpps, livePreds, p.manager.OpenCount(), p.ledger.Balance())
}

// TopBuySignals returns the current best BUY predictions by rank.
func (p *Pipeline) TopBuySignals(ctx context.Context, n int) ([]*domain.Prediction, error) {
	return p.preds.TopBuy(ctx, n)
}

// OpenPositions returns the live position set ordered by entry time.
func (p *Pipeline) OpenPositions(ctx context.Context) ([]*domain.Position, error) {
	return p.positions.All(ctx)
}

// PerformanceSnapshot returns the account aggregate.
func (p *Pipeline) PerformanceSnapshot() domain.Performance {
	return p.ledger.Snapshot(p.manager.OpenCount())
}

// TradeHistory returns the append-only trade log in time order.
func (p *Pipeline) TradeHistory(ctx context.Context) ([]*domain.Trade, error) {
	return p.trades.All(ctx)
}

// Stats is a point-in-time snapshot of pipeline activity since start.
type Stats struct {
	Status              string  `json:"status"`
	UptimeSeconds       float64 `json:"uptime_seconds"`
	PairsScanned        int64   `json:"pairs_scanned"`
	OpportunitiesFound  int64   `json:"opportunities_found"`
	ScanRate            float64 `json:"scan_rate"` // pairs per second since start
	ActiveOpportunities int     `json:"active_opportunities"`
	ActivePredictions   int     `json:"active_predictions"`
	OpenPositions       int     `json:"open_positions"`
	Balance             float64 `json:"balance"`
}

// Stats reports cumulative scan counters and the current live state.
func (p *Pipeline) Stats(ctx context.Context) Stats {
	uptime := time.Since(p.startedAt).Seconds()
	scanned := p.pairsScanned.Load()

	var rate float64
	if uptime > 0 {
		rate = float64(scanned) / uptime
	}

	liveOpps, _ := p.opps.Len(ctx)
	livePreds, _ := p.preds.Len(ctx)

	return Stats{
		Status:              "running",
		UptimeSeconds:       uptime,
		PairsScanned:        scanned,
		OpportunitiesFound:  p.opportunitiesSeen.Load(),
		ScanRate:            rate,
		ActiveOpportunities: liveOpps,
		ActivePredictions:   livePreds,
		OpenPositions:       p.manager.OpenCount(),
		Balance:             p.ledger.Balance(),
	}
}
