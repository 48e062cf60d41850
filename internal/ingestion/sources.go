package ingestion

import (
	"context"
	"time"
)

// RawPair is a market snapshot for one trading pair as delivered by an
// external feed, before any admission filtering or scoring.
type RawPair struct {
	Network       string  // chain identifier, e.g. "solana"
	Address       string  // token address
	Symbol        string  // ticker symbol
	PriceUSD      float64 // last trade price in USD
	Change1h      float64 // 1-hour price change, percent
	Change24h     float64 // 24-hour price change, percent
	Volume1h      float64 // 1-hour volume in USD
	Volume24h     float64 // 24-hour volume in USD
	LiquidityUSD  float64 // pool liquidity in USD
	MarketCap     float64 // fully diluted market cap in USD
	PairCreatedAt int64   // pair creation time, Unix ms; 0 if unknown
}

// PairSource delivers batches of raw pairs from an external feed.
type PairSource interface {
	// Fetch returns the next batch of pairs. An empty batch is not an
	// error; feeds deliver nothing between market updates.
	Fetch(ctx context.Context) ([]RawPair, error)

	// Name identifies the source in logs and metrics.
	Name() string
}

// FeedKind selects which admission rules apply to a feed's pairs.
type FeedKind string

// Feed kind constants
const (
	FeedDexPairs      FeedKind = "dex_pairs"      // DEX pair listings: new-listing and momentum-break rules
	FeedToolsPairs    FeedKind = "tools_pairs"    // hot-pair boards: 1h momentum rules
	FeedTrendingPools FeedKind = "trending_pools" // trending pools: 24h momentum rules
)

// Feed binds a source to its admission rules and polling cadence.
type Feed struct {
	Name     string
	Kind     FeedKind
	Interval time.Duration
	Source   PairSource
}
