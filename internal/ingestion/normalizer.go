package ingestion

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"token-radar/internal/domain"
	"token-radar/internal/observability"
	"token-radar/internal/storage"
)

// Admission thresholds per detection channel. A pair that clears a
// threshold set becomes exactly one Opportunity; everything else is
// dropped without touching the store.
const (
	newListingMaxAge       = time.Hour
	newListingMinVolume1h  = 5_000.0
	newListingMinLiquidity = 10_000.0

	momentumBreakMinChange5m  = 15.0
	momentumBreakMinVolume1h  = 10_000.0
	momentumBreakMinLiquidity = 25_000.0

	toolsMinChange1h   = 20.0
	toolsMinVolume     = 15_000.0
	toolsMinConfidence = 0.7

	geckoMinAbsChange24h = 30.0
	geckoMinVolume24h    = 20_000.0
	geckoMinConfidence   = 0.75
)

// Skip reasons reported to metrics.
const (
	skipBadAddress    = "bad_address"
	skipZeroPrice     = "zero_price"
	skipBelowGate     = "below_threshold"
	skipLowConfidence = "low_confidence"
)

// Normalizer maps raw feed pairs into scored opportunities.
// One raw pair yields zero or one Opportunity; a malformed item is
// skipped individually and never aborts the batch.
type Normalizer struct {
	opps    storage.OpportunityStore
	metrics *observability.Metrics
	log     *logrus.Entry
	now     func() int64 // overridable in tests
}

// NewNormalizer creates a Normalizer writing into the given store.
func NewNormalizer(opps storage.OpportunityStore, metrics *observability.Metrics, log *logrus.Entry) *Normalizer {
	return &Normalizer{
		opps:    opps,
		metrics: metrics,
		log:     log,
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

// Ingest runs the admission rules for the feed kind over a batch and
// upserts every admitted opportunity. Returns the number admitted.
func (n *Normalizer) Ingest(ctx context.Context, kind FeedKind, source string, pairs []RawPair) (int, error) {
	admitted := 0
	for _, pair := range pairs {
		o, skip := n.normalize(kind, pair)
		if o == nil {
			if skip != "" {
				n.metrics.RecordNormalizerSkip(source, skip)
			}
			continue
		}
		if err := n.opps.Put(ctx, o); err != nil {
			return admitted, fmt.Errorf("store opportunity %s: %w", o.Address, err)
		}
		n.metrics.RecordOpportunityFound(source, string(o.Type))
		n.log.WithFields(logrus.Fields{
			"source":     source,
			"type":       o.Type,
			"symbol":     o.Symbol,
			"confidence": o.Confidence,
		}).Info("opportunity detected")
		admitted++
	}
	n.metrics.RecordPairsScanned(source, len(pairs))
	return admitted, nil
}

func (n *Normalizer) normalize(kind FeedKind, pair RawPair) (*domain.Opportunity, string) {
	address, ok := normalizeAddress(pair.Network, pair.Address)
	if !ok {
		return nil, skipBadAddress
	}
	if pair.PriceUSD <= 0 {
		return nil, skipZeroPrice
	}
	pair.Address = address

	switch kind {
	case FeedDexPairs:
		return n.normalizeDexPair(pair)
	case FeedToolsPairs:
		return n.normalizeToolsPair(pair)
	case FeedTrendingPools:
		return n.normalizeTrendingPool(pair)
	default:
		return nil, skipBelowGate
	}
}

// normalizeDexPair applies the new-listing rule first, then the
// momentum-break rule. A pair can match at most one.
func (n *Normalizer) normalizeDexPair(pair RawPair) (*domain.Opportunity, string) {
	nowMs := n.now()

	change5m := estimate5mChange(pair.Change1h, pair.Volume1h)
	momentum := blendMomentum(pair.Change1h, change5m, pair.Volume1h, pair.LiquidityUSD)

	isNew := pair.PairCreatedAt > 0 && nowMs-pair.PairCreatedAt < newListingMaxAge.Milliseconds()
	if isNew && pair.Volume1h > newListingMinVolume1h && pair.LiquidityUSD > newListingMinLiquidity {
		confidence := math.Min(momentum*0.7+pair.LiquidityUSD/100_000*0.3, 0.95)
		expectedReturn := 0.0
		if pair.LiquidityUSD > 0 {
			expectedReturn = math.Min(pair.Volume1h/pair.LiquidityUSD, 5.0)
		}
		return &domain.Opportunity{
			Address:        pair.Address,
			Symbol:         symbolOrUnknown(pair.Symbol),
			Price:          pair.PriceUSD,
			Change1h:       pair.Change1h,
			Change5m:       0,
			Volume1h:       pair.Volume1h,
			Liquidity:      pair.LiquidityUSD,
			MarketCap:      pair.MarketCap,
			Momentum:       momentum,
			Confidence:     confidence,
			Type:           domain.OpportunityNewListing,
			Urgency:        urgencyFrom(confidence),
			ExpectedReturn: expectedReturn,
			DetectedAt:     nowMs,
		}, ""
	}

	if change5m > momentumBreakMinChange5m && pair.Volume1h > momentumBreakMinVolume1h && pair.LiquidityUSD > momentumBreakMinLiquidity {
		confidence := math.Min(momentum*0.8+pair.LiquidityUSD/200_000*0.2, 0.9)
		return &domain.Opportunity{
			Address:        pair.Address,
			Symbol:         symbolOrUnknown(pair.Symbol),
			Price:          pair.PriceUSD,
			Change1h:       pair.Change1h,
			Change5m:       change5m,
			Volume1h:       pair.Volume1h,
			Liquidity:      pair.LiquidityUSD,
			MarketCap:      pair.MarketCap,
			Momentum:       momentum,
			Confidence:     confidence,
			Type:           domain.OpportunityMomentumBreak,
			Urgency:        urgencyFrom(momentum),
			ExpectedReturn: math.Min(change5m/10, 3.0),
			DetectedAt:     nowMs,
		}, ""
	}

	return nil, skipBelowGate
}

// normalizeToolsPair admits pairs from hot-pair boards on sustained
// 1-hour momentum.
func (n *Normalizer) normalizeToolsPair(pair RawPair) (*domain.Opportunity, string) {
	if pair.Change1h <= toolsMinChange1h || pair.Volume1h <= toolsMinVolume {
		return nil, skipBelowGate
	}

	momentum := math.Min((pair.Change1h/50)*(pair.Volume1h/50_000), 1.0)
	confidence := math.Min(momentum*0.8+pair.LiquidityUSD/100_000*0.2, 0.95)
	if confidence <= toolsMinConfidence {
		return nil, skipLowConfidence
	}

	return &domain.Opportunity{
		Address:        pair.Address,
		Symbol:         symbolOrUnknown(pair.Symbol),
		Price:          pair.PriceUSD,
		Change1h:       pair.Change1h,
		Change5m:       pair.Change1h / 12,
		Volume1h:       pair.Volume1h,
		Liquidity:      pair.LiquidityUSD,
		MarketCap:      pair.MarketCap,
		Momentum:       momentum,
		Confidence:     confidence,
		Type:           domain.OpportunityToolsMomentum,
		Urgency:        urgencyFrom(momentum),
		ExpectedReturn: math.Min(pair.Change1h/20, 2.0),
		DetectedAt:     n.now(),
	}, ""
}

// normalizeTrendingPool admits pools moving hard over 24 hours, in
// either direction. Short-window fields are scaled down from the
// 24-hour figures.
func (n *Normalizer) normalizeTrendingPool(pair RawPair) (*domain.Opportunity, string) {
	absChange := math.Abs(pair.Change24h)
	if absChange <= geckoMinAbsChange24h || pair.Volume24h <= geckoMinVolume24h {
		return nil, skipBelowGate
	}

	momentum := math.Min(absChange/100, 1.0)
	confidence := math.Min(momentum*0.7+pair.Volume24h/100_000*0.3, 0.9)
	if confidence <= geckoMinConfidence {
		return nil, skipLowConfidence
	}

	return &domain.Opportunity{
		Address:        pair.Address,
		Symbol:         symbolOrUnknown(pair.Symbol),
		Price:          pair.PriceUSD,
		Change1h:       pair.Change24h / 24,
		Change5m:       pair.Change24h / 288,
		Volume1h:       pair.Volume24h / 24,
		Liquidity:      pair.LiquidityUSD,
		MarketCap:      0,
		Momentum:       momentum,
		Confidence:     confidence,
		Type:           domain.OpportunityGeckoTrending,
		Urgency:        urgencyFrom(momentum),
		ExpectedReturn: math.Min(absChange/50, 1.5),
		DetectedAt:     n.now(),
	}, ""
}

// estimate5mChange extrapolates a 5-minute change from the 1-hour
// change, weighted up for high-volume pairs where the move is more
// likely front-loaded.
func estimate5mChange(change1h, volume1h float64) float64 {
	if change1h == 0 {
		return 0
	}
	volumeFactor := math.Min(volume1h/10_000, 3.0)
	return change1h * volumeFactor / 12
}

// blendMomentum computes the momentum blend of price velocity, volume
// and liquidity. Each component is clamped to [0,1] before weighting
// and the result is clamped to [0,1].
func blendMomentum(change1h, change5m, volume1h, liquidity float64) float64 {
	priceMomentum := math.Min(math.Abs(change5m)/20, 1.0)
	volumeMomentum := math.Min(volume1h/50_000, 1.0)
	liquidityFactor := math.Min(liquidity/100_000, 1.0)
	return math.Min(priceMomentum*0.5+volumeMomentum*0.3+liquidityFactor*0.2, 1.0)
}

func urgencyFrom(score float64) int {
	u := int(score * 10)
	if u > 10 {
		u = 10
	}
	return u
}

func symbolOrUnknown(symbol string) string {
	if symbol == "" {
		return "UNKNOWN"
	}
	return symbol
}

// normalizeAddress validates and canonicalizes a token address.
// Solana addresses must base58-decode to 32 bytes and keep their case;
// EVM-style addresses are lowercased.
func normalizeAddress(network, address string) (string, bool) {
	if address == "" {
		return "", false
	}
	if strings.EqualFold(network, "solana") {
		decoded, err := base58.Decode(address)
		if err != nil || len(decoded) != 32 {
			return "", false
		}
		return address, true
	}
	return strings.ToLower(address), true
}
