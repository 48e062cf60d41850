// Package prediction turns live opportunities into trade predictions.
package prediction

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"token-radar/internal/domain"
	"token-radar/internal/observability"
	"token-radar/internal/storage"
)

// Scoring thresholds. Below the floor nothing is emitted at all;
// between floor and the BUY bar the record is a HOLD.
const (
	confidenceFloor = 0.70
	buyThreshold    = 0.75
)

// Component weights for the combined confidence.
const (
	technicalWeight = 0.4
	socialWeight    = 0.3
	whaleWeight     = 0.3
)

// ScoreProvider supplies the social and whale components for a token.
type ScoreProvider interface {
	SocialScore(address string) float64
	WhaleScore(address string) float64
}

// Engine recomputes predictions from the live opportunity set.
// Re-derivation is idempotent; a fresh prediction for an address
// replaces the cached one.
type Engine struct {
	opps    storage.OpportunityStore
	preds   storage.PredictionStore
	scores  ScoreProvider
	metrics *observability.Metrics
	log     *logrus.Entry
	now     func() int64 // overridable in tests
}

// NewEngine creates a prediction engine.
func NewEngine(opps storage.OpportunityStore, preds storage.PredictionStore, scores ScoreProvider, metrics *observability.Metrics, log *logrus.Entry) *Engine {
	return &Engine{
		opps:    opps,
		preds:   preds,
		scores:  scores,
		metrics: metrics,
		log:     log,
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

// RunOnce rescans all live opportunities and upserts the resulting
// predictions. Returns how many predictions were emitted.
func (e *Engine) RunOnce(ctx context.Context) (int, error) {
	opps, err := e.opps.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load opportunities: %w", err)
	}

	emitted := 0
	for _, o := range opps {
		p := e.Predict(o)
		if p == nil {
			continue
		}
		if err := e.preds.Put(ctx, p); err != nil {
			return emitted, fmt.Errorf("store prediction %s: %w", p.TokenAddress, err)
		}
		e.metrics.RecordPrediction(string(p.Action))
		emitted++
	}
	return emitted, nil
}

// Predict scores a single opportunity. Returns nil when the combined
// confidence stays under the floor — a weak signal leaves no record.
func (e *Engine) Predict(o *domain.Opportunity) *domain.Prediction {
	if o.Urgency <= 0 {
		// No urgency, no time horizon. Nothing to trade against.
		return nil
	}

	technical := TechnicalScore(o)
	social := e.scores.SocialScore(o.Address)
	whale := e.scores.WhaleScore(o.Address)

	combined := technical*technicalWeight + social*socialWeight + whale*whaleWeight
	if combined < confidenceFloor {
		return nil
	}

	action := domain.ActionHold
	if combined > buyThreshold {
		action = domain.ActionBuy
	}

	horizon := 3600 / o.Urgency
	if horizon > 3600 {
		horizon = 3600
	}

	p := &domain.Prediction{
		TokenAddress:   o.Address,
		Action:         action,
		Confidence:     combined,
		ExpectedReturn: o.ExpectedReturn,
		RiskScore:      1 - combined,
		EntryPrice:     o.Price,
		TargetPrice:    o.Price * (1 + o.ExpectedReturn),
		StopLoss:       o.Price * 0.8,
		TimeHorizonSec: horizon,
		SocialScore:    social,
		TechnicalScore: technical,
		WhaleScore:     whale,
		CreatedAt:      e.now(),
	}

	e.log.WithFields(logrus.Fields{
		"address":    p.TokenAddress,
		"action":     p.Action,
		"confidence": p.Confidence,
	}).Debug("prediction generated")

	return p
}

// TechnicalScore blends the opportunity's own signals into one score:
// momentum, detection confidence, urgency, volume, liquidity with
// weights 0.3/0.3/0.2/0.1/0.1.
func TechnicalScore(o *domain.Opportunity) float64 {
	urgency := float64(o.Urgency) / 10
	volumeScore := math.Min(o.Volume1h/50_000, 1.0)
	liquidityScore := math.Min(o.Liquidity/100_000, 1.0)

	return o.Momentum*0.3 + o.Confidence*0.3 + urgency*0.2 +
		volumeScore*0.1 + liquidityScore*0.1
}
