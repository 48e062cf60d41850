// Package enrichment caches social and whale signals keyed by token
// address, feeding component scores into prediction.
package enrichment

import "context"

// SocialSignal aggregates sentiment for one token across channels.
// Overall blends the channels 0.6 twitter / 0.4 reddit.
type SocialSignal struct {
	TwitterSentiment float64 // [0,1], 0.5 is neutral
	RedditSentiment  float64 // [0,1], 0.5 is neutral
	Overall          float64 // 0.6*twitter + 0.4*reddit
	MentionCount     int
	UpdatedAt        int64 // Unix timestamp in milliseconds
}

// Blend recomputes Overall from the channel sentiments.
func (s *SocialSignal) Blend() {
	s.Overall = s.TwitterSentiment*0.6 + s.RedditSentiment*0.4
}

// WhaleSignal summarizes tracked-wallet activity for one token.
type WhaleSignal struct {
	SuccessRate   float64 // historical hit rate of wallets buying this token
	ActiveWallets int     // tracked wallets seen buying recently
	UpdatedAt     int64   // Unix timestamp in milliseconds
}

// SocialSource fetches a social signal for a token. A nil signal with
// nil error means no data; the consumer falls back to the neutral score.
type SocialSource interface {
	Fetch(ctx context.Context, address string) (*SocialSignal, error)
}

// WhaleSource fetches a whale signal for a token. Same nil semantics
// as SocialSource.
type WhaleSource interface {
	Fetch(ctx context.Context, address string) (*WhaleSignal, error)
}
