// Package position owns the open-position lifecycle: entry, monitoring
// and exit against the settlement collaborator.
package position

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Settlement executes the actual buy/sell and returns a settlement id.
// Implementations must respect ctx cancellation; the manager bounds
// every call with a timeout.
type Settlement interface {
	Buy(ctx context.Context, address string, amount, price float64) (string, error)
	Sell(ctx context.Context, address string, amount, price float64) (string, error)
}

// PaperSettlement simulates fills with a fixed delay and a synthetic
// settlement id. It never fails on its own; only ctx expiry aborts it.
type PaperSettlement struct {
	delay time.Duration
}

// NewPaperSettlement creates a paper settlement with the given fill delay.
func NewPaperSettlement(delay time.Duration) *PaperSettlement {
	return &PaperSettlement{delay: delay}
}

func (p *PaperSettlement) Buy(ctx context.Context, _ string, _, _ float64) (string, error) {
	return p.fill(ctx)
}

func (p *PaperSettlement) Sell(ctx context.Context, _ string, _, _ float64) (string, error) {
	return p.fill(ctx)
}

func (p *PaperSettlement) fill(ctx context.Context) (string, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "paper-" + uuid.NewString(), nil
}
