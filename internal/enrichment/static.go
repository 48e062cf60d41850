package enrichment

import "context"

// StaticSocialSource serves fixed signals, for tests and offline runs.
type StaticSocialSource struct {
	Signals map[string]*SocialSignal
}

// Fetch returns the configured signal or nil.
func (s *StaticSocialSource) Fetch(_ context.Context, address string) (*SocialSignal, error) {
	sig, ok := s.Signals[address]
	if !ok {
		return nil, nil
	}
	sigCopy := *sig
	return &sigCopy, nil
}

// StaticWhaleSource serves fixed signals, for tests and offline runs.
type StaticWhaleSource struct {
	Signals map[string]*WhaleSignal
}

// Fetch returns the configured signal or nil.
func (s *StaticWhaleSource) Fetch(_ context.Context, address string) (*WhaleSignal, error) {
	sig, ok := s.Signals[address]
	if !ok {
		return nil, nil
	}
	sigCopy := *sig
	return &sigCopy, nil
}

// Verify interface compliance at compile time.
var (
	_ SocialSource = (*StaticSocialSource)(nil)
	_ WhaleSource  = (*StaticWhaleSource)(nil)
)
