package domain

// OpportunityType classifies how an opportunity was detected.
type OpportunityType string

// Opportunity type constants
const (
	OpportunityNewListing    OpportunityType = "NEW_LISTING"
	OpportunityMomentumBreak OpportunityType = "MOMENTUM_BREAK"
	OpportunityToolsMomentum OpportunityType = "DEXTOOLS_MOMENTUM"
	OpportunityGeckoTrending OpportunityType = "GECKO_TRENDING"
)

// Opportunity represents a scored market signal for a single token.
// One live record per token address; re-detection overwrites in place.
type Opportunity struct {
	Address        string          // token address, unique key
	Symbol         string          // ticker symbol
	Price          float64         // last observed price in USD
	Change1h       float64         // 1-hour price change, percent
	Change5m       float64         // 5-minute price change, percent (may be estimated)
	Volume1h       float64         // 1-hour trading volume in USD
	Liquidity      float64         // pool liquidity in USD
	MarketCap      float64         // fully diluted market cap in USD
	Momentum       float64         // normalized momentum score [0, 1]
	Confidence     float64         // detection confidence [0, 1]
	Type           OpportunityType // detection channel
	Urgency        int             // 1..10, drives scheduling priority
	ExpectedReturn float64         // projected return multiple (0.2 == +20%)
	DetectedAt     int64           // Unix timestamp in milliseconds
}

// Score ranks opportunities for processing order.
// Higher urgency and confidence float a token to the front of the queue.
func (o *Opportunity) Score() float64 {
	return o.Confidence * o.ExpectedReturn * (float64(o.Urgency) / 10.0)
}
