package position

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"token-radar/internal/domain"
	"token-radar/internal/idhash"
	"token-radar/internal/ledger"
	"token-radar/internal/observability"
	"token-radar/internal/storage"
)

// Config holds the lifecycle parameters.
type Config struct {
	StopLossPct       float64       // fraction below entry, default 0.25
	TakeProfitPct     float64       // fraction above entry, default 2.0
	MaxHoldingTime    time.Duration // TIME_LIMIT backstop, default 30m
	MaxSettleAttempts int           // retry budget per transition, default 5
	SettleTimeout     time.Duration // per settlement call, default 10s
	// EntryRetryWindow bounds how long a spent entry retry budget
	// blocks an address. Matches the prediction TTL so the block dies
	// with the prediction that triggered it.
	EntryRetryWindow time.Duration
}

// DefaultConfig returns the standard lifecycle parameters.
func DefaultConfig() Config {
	return Config{
		StopLossPct:       0.25,
		TakeProfitPct:     2.0,
		MaxHoldingTime:    30 * time.Minute,
		MaxSettleAttempts: 5,
		SettleTimeout:     10 * time.Second,
		EntryRetryWindow:  10 * time.Minute,
	}
}

// Manager owns all open positions. Open and MonitorOnce are safe to
// call concurrently; the settlement-attempt counters are the only
// state shared between them.
type Manager struct {
	cfg       Config
	positions storage.PositionStore
	opps      storage.OpportunityStore
	trades    storage.TradeStore
	ledger    *ledger.Ledger
	settle    Settlement
	metrics   *observability.Metrics
	log       *logrus.Entry
	now       func() int64 // overridable in tests

	mu           sync.Mutex
	openFailures map[string]*entryFailures // per-address buy attempts that failed
	closeFails   map[string]int            // per-address sell attempts that failed
}

type entryFailures struct {
	count  int
	lastMs int64
}

// NewManager creates a position lifecycle manager.
func NewManager(cfg Config, positions storage.PositionStore, opps storage.OpportunityStore, trades storage.TradeStore, ldg *ledger.Ledger, settle Settlement, metrics *observability.Metrics, log *logrus.Entry) *Manager {
	return &Manager{
		cfg:          cfg,
		positions:    positions,
		opps:         opps,
		trades:       trades,
		ledger:       ldg,
		settle:       settle,
		metrics:      metrics,
		log:          log,
		now:          func() int64 { return time.Now().UnixMilli() },
		openFailures: make(map[string]*entryFailures),
		closeFails:   make(map[string]int),
	}
}

// HasOpen reports whether an open position exists for the address.
func (m *Manager) HasOpen(address string) bool {
	_, err := m.positions.Get(context.Background(), address)
	return err == nil
}

// OpenCount returns the number of open positions.
func (m *Manager) OpenCount() int {
	n, _ := m.positions.Len(context.Background())
	return n
}

// Open enters a position of the given size for an admitted prediction.
// A duplicate open is a no-op. A settlement failure leaves all state
// unchanged and counts against the entry retry budget; once the budget
// is spent further attempts for that address are dropped until a
// position for it eventually opens or the prediction expires.
func (m *Manager) Open(ctx context.Context, pred *domain.Prediction, size float64) error {
	addr := pred.TokenAddress
	if m.HasOpen(addr) {
		return nil
	}
	if m.entryBudgetSpent(addr) {
		return nil
	}

	settleCtx, cancel := context.WithTimeout(ctx, m.cfg.SettleTimeout)
	settlementID, err := m.settle.Buy(settleCtx, addr, size, pred.EntryPrice)
	cancel()
	if err != nil {
		m.recordEntryFailure(addr)
		m.metrics.RecordSettlementFailure("buy")
		return fmt.Errorf("buy settlement %s: %w", addr, err)
	}
	m.clearEntryFailures(addr)

	nowMs := m.now()
	symbol := pred.TokenAddress
	if o, err := m.opps.Get(ctx, addr); err == nil {
		symbol = o.Symbol
	}

	pos := &domain.Position{
		TokenAddress: addr,
		Symbol:       symbol,
		EntryPrice:   pred.EntryPrice,
		CurrentPrice: pred.EntryPrice,
		Amount:       size,
		EntryTime:    nowMs,
		StopLoss:     pred.EntryPrice * (1 - m.cfg.StopLossPct),
		TakeProfit:   pred.EntryPrice * (1 + m.cfg.TakeProfitPct),
		Status:       domain.PositionOpen,
	}
	if err := m.positions.Put(ctx, pos); err != nil {
		return fmt.Errorf("store position %s: %w", addr, err)
	}

	m.ledger.Debit(size)

	trade := &domain.Trade{
		TradeID:      idhash.ComputeTradeID(addr, string(domain.TradeBuy), nowMs),
		TokenAddress: addr,
		Action:       domain.TradeBuy,
		Amount:       size,
		Price:        pred.EntryPrice,
		Timestamp:    nowMs,
		SettlementID: settlementID,
		Status:       domain.TradeExecuted,
	}
	if err := m.trades.Append(ctx, trade); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		m.log.WithError(err).WithField("address", addr).Warn("failed to append buy trade")
	}

	m.metrics.RecordPositionOpened()
	m.log.WithFields(logrus.Fields{
		"address": addr,
		"size":    size,
		"entry":   pred.EntryPrice,
	}).Info("position opened")
	return nil
}

// MonitorOnce refreshes prices and evaluates exits for every open
// position. Exit decisions are made on a copy taken at the start of
// the pass, so a concurrent re-ingestion cannot produce a decision
// based on a half-updated record. Returns how many positions closed.
func (m *Manager) MonitorOnce(ctx context.Context) (int, error) {
	open, err := m.positions.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load positions: %w", err)
	}

	nowMs := m.now()
	closed := 0
	for _, pos := range open {
		if o, err := m.opps.Get(ctx, pos.TokenAddress); err == nil && o.Price > 0 {
			pos.CurrentPrice = o.Price
		}
		pos.MarkToMarket(pos.CurrentPrice)
		if err := m.positions.Put(ctx, pos); err != nil {
			m.log.WithError(err).WithField("address", pos.TokenAddress).
				Warn("failed to refresh position")
			continue
		}

		reason := pos.EvaluateExit(nowMs, m.cfg.MaxHoldingTime.Milliseconds())
		if reason == domain.ExitHolding {
			continue
		}
		if err := m.close(ctx, pos, reason); err != nil {
			m.log.WithError(err).WithFields(logrus.Fields{
				"address": pos.TokenAddress,
				"reason":  reason,
			}).Warn("close failed, will retry")
			continue
		}
		closed++
	}
	return closed, nil
}

// close settles the exit and folds the result into the ledger. After
// the sell retry budget is exhausted the position is force-closed at
// the last known price with a FAILED trade so the ledger stays
// consistent rather than carrying an unreachable position forever.
func (m *Manager) close(ctx context.Context, pos *domain.Position, reason domain.ExitReason) error {
	addr := pos.TokenAddress

	settleCtx, cancel := context.WithTimeout(ctx, m.cfg.SettleTimeout)
	settlementID, err := m.settle.Sell(settleCtx, addr, pos.Amount, pos.CurrentPrice)
	cancel()

	status := domain.TradeExecuted
	if err != nil {
		m.metrics.RecordSettlementFailure("sell")
		if !m.sellBudgetSpent(addr) {
			return fmt.Errorf("sell settlement %s: %w", addr, err)
		}
		// Budget spent: force-close at last known price.
		settlementID = ""
		status = domain.TradeFailed
		m.log.WithField("address", addr).Warn("sell retry budget exhausted, force-closing")
	}

	nowMs := m.now()
	pnl := pos.PnL
	m.ledger.Credit(pos.Amount + pnl)
	m.ledger.RecordClose(pnl)

	trade := &domain.Trade{
		TradeID:      idhash.ComputeTradeID(addr, string(domain.TradeSell), nowMs),
		TokenAddress: addr,
		Action:       domain.TradeSell,
		Amount:       pos.Amount,
		Price:        pos.CurrentPrice,
		Timestamp:    nowMs,
		SettlementID: settlementID,
		ExitReason:   reason,
		PnL:          pnl,
		Status:       status,
	}
	if err := m.trades.Append(ctx, trade); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		m.log.WithError(err).WithField("address", addr).Warn("failed to append sell trade")
	}

	if err := m.positions.Remove(ctx, addr); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("remove position %s: %w", addr, err)
	}
	m.clearSellFailures(addr)

	m.metrics.RecordPositionClosed(string(reason))
	m.log.WithFields(logrus.Fields{
		"address": addr,
		"reason":  reason,
		"pnl":     pnl,
		"pnl_pct": pos.PnLPercent,
	}).Info("position closed")
	return nil
}

// entryBudgetSpent reports whether the address's buy retry budget is
// exhausted. A stale record, older than the retry window, no longer
// blocks: the prediction that caused it has expired by then.
func (m *Manager) entryBudgetSpent(address string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.openFailures[address]
	if !ok {
		return false
	}
	if m.now()-f.lastMs > m.cfg.EntryRetryWindow.Milliseconds() {
		delete(m.openFailures, address)
		return false
	}
	return f.count >= m.cfg.MaxSettleAttempts
}

func (m *Manager) recordEntryFailure(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.openFailures[address]
	if !ok {
		f = &entryFailures{}
		m.openFailures[address] = f
	}
	f.count++
	f.lastMs = m.now()
}

func (m *Manager) clearEntryFailures(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.openFailures, address)
}

// sellBudgetSpent counts the current failure and reports whether the
// budget is now exhausted.
func (m *Manager) sellBudgetSpent(address string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeFails[address]++
	return m.closeFails[address] >= m.cfg.MaxSettleAttempts
}

func (m *Manager) clearSellFailures(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.closeFails, address)
}
