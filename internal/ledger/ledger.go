// Package ledger tracks the account balance and aggregate trade stats.
package ledger

import (
	"sync"

	"token-radar/internal/domain"
)

// Ledger is a paper-money account. Debits are allowed to push the
// balance negative; position sizing upstream is expected to keep that
// rare, and a negative balance simply blocks further entries.
type Ledger struct {
	mu sync.Mutex

	balance       float64
	totalPnL      float64
	totalTrades   int
	winningTrades int
	bestTrade     float64
	worstTrade    float64
}

// New creates a ledger with the given starting balance.
func New(initialBalance float64) *Ledger {
	return &Ledger{balance: initialBalance}
}

// Debit removes funds from the balance, e.g. on position entry.
func (l *Ledger) Debit(amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance -= amount
}

// Credit returns funds to the balance, e.g. on position exit.
func (l *Ledger) Credit(amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance += amount
}

// RecordClose folds a realized PnL into the aggregate stats. It does
// not touch the balance; callers Credit the exit proceeds separately.
func (l *Ledger) RecordClose(pnl float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.totalPnL += pnl
	l.totalTrades++
	if pnl > 0 {
		l.winningTrades++
	}
	if l.totalTrades == 1 {
		l.bestTrade = pnl
		l.worstTrade = pnl
		return
	}
	if pnl > l.bestTrade {
		l.bestTrade = pnl
	}
	if pnl < l.worstTrade {
		l.worstTrade = pnl
	}
}

// Balance returns the current balance.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Snapshot returns a consistent view of the account. openPositions is
// supplied by the caller since open positions live outside the ledger.
func (l *Ledger) Snapshot(openPositions int) domain.Performance {
	l.mu.Lock()
	defer l.mu.Unlock()

	winRate := 0.0
	if l.totalTrades > 0 {
		winRate = float64(l.winningTrades) / float64(l.totalTrades) * 100
	}

	return domain.Performance{
		Balance:       l.balance,
		TotalPnL:      l.totalPnL,
		TotalTrades:   l.totalTrades,
		WinningTrades: l.winningTrades,
		BestTrade:     l.bestTrade,
		WorstTrade:    l.worstTrade,
		OpenPositions: openPositions,
		WinRate:       winRate,
	}
}
