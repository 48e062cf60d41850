package risk

import (
	"context"

	"github.com/sirupsen/logrus"

	"token-radar/internal/domain"
	"token-radar/internal/observability"
)

// Gate thresholds. A prediction must clear every one of them before a
// position is opened.
const (
	DefaultMaxPositions      = 3
	DefaultMinConfidence     = 0.80
	DefaultMinExpectedReturn = 0.20
	DefaultMaxRiskScore      = 0.40
	DefaultMinNotional       = 1.0
)

// Rejection reasons, recorded per gate.
const (
	RejectAction         = "action"
	RejectDuplicate      = "duplicate"
	RejectCapacity       = "capacity"
	RejectConfidence     = "confidence"
	RejectExpectedReturn = "expected_return"
	RejectRisk           = "risk"
	RejectNotional       = "notional"
	RejectSafety         = "safety"
)

// GateConfig holds the admission thresholds.
type GateConfig struct {
	MaxPositions      int
	MinConfidence     float64
	MinExpectedReturn float64
	MaxRiskScore      float64
	MinNotional       float64
}

// DefaultGateConfig returns the standard thresholds.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxPositions:      DefaultMaxPositions,
		MinConfidence:     DefaultMinConfidence,
		MinExpectedReturn: DefaultMinExpectedReturn,
		MaxRiskScore:      DefaultMaxRiskScore,
		MinNotional:       DefaultMinNotional,
	}
}

// PortfolioView exposes the open-position state the gate needs.
type PortfolioView interface {
	HasOpen(address string) bool
	OpenCount() int
}

// Verdict is the gate's decision for one prediction. A rejection is
// normal control flow, not an error: the candidate stays cached and is
// re-evaluated on the next cycle.
type Verdict struct {
	Admit  bool
	Reason string // rejection gate, empty when admitted
	Size   float64
}

// Gate evaluates predictions against portfolio constraints, the sizing
// formula and the external safety check.
type Gate struct {
	cfg       GateConfig
	sizer     *Sizer
	portfolio PortfolioView
	balance   func() float64
	safety    SafetyChecker
	metrics   *observability.Metrics
	log       *logrus.Entry
}

// NewGate creates a gate. balance is read fresh on every evaluation.
func NewGate(cfg GateConfig, sizer *Sizer, portfolio PortfolioView, balance func() float64, safety SafetyChecker, metrics *observability.Metrics, log *logrus.Entry) *Gate {
	return &Gate{
		cfg:       cfg,
		sizer:     sizer,
		portfolio: portfolio,
		balance:   balance,
		safety:    safety,
		metrics:   metrics,
		log:       log,
	}
}

// Evaluate runs the gates in order and returns the verdict. The remote
// safety check runs last so rejected candidates never hit the network.
func (g *Gate) Evaluate(ctx context.Context, p *domain.Prediction) Verdict {
	if p.Action != domain.ActionBuy {
		return g.reject(p, RejectAction)
	}
	if g.portfolio.HasOpen(p.TokenAddress) {
		return g.reject(p, RejectDuplicate)
	}
	if g.portfolio.OpenCount() >= g.cfg.MaxPositions {
		return g.reject(p, RejectCapacity)
	}
	if p.Confidence < g.cfg.MinConfidence {
		return g.reject(p, RejectConfidence)
	}
	if p.ExpectedReturn < g.cfg.MinExpectedReturn {
		return g.reject(p, RejectExpectedReturn)
	}
	if p.RiskScore > g.cfg.MaxRiskScore {
		return g.reject(p, RejectRisk)
	}

	size := g.sizer.Size(g.balance(), p.Confidence, p.ExpectedReturn, p.RiskScore)
	if size < g.cfg.MinNotional {
		return g.reject(p, RejectNotional)
	}

	safe, err := g.safety.IsSafe(ctx, p.TokenAddress)
	if err != nil {
		g.log.WithError(err).WithField("address", p.TokenAddress).
			Warn("safety check failed, treating as unsafe")
	}
	if err != nil || !safe {
		return g.reject(p, RejectSafety)
	}

	return Verdict{Admit: true, Size: size}
}

func (g *Gate) reject(p *domain.Prediction, reason string) Verdict {
	g.metrics.RecordGateRejection(reason)
	g.log.WithFields(logrus.Fields{
		"address": p.TokenAddress,
		"gate":    reason,
	}).Debug("prediction rejected")
	return Verdict{Reason: reason}
}
