package enrichment

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// NeutralScore is used whenever a signal is absent, stale, or failing.
// Enrichment never blocks a prediction; it only shifts it.
const NeutralScore = 0.5

// Signal TTLs. Social sentiment decays fast; whale activity is
// meaningful a while longer.
const (
	DefaultSocialTTL = 30 * time.Minute
	DefaultWhaleTTL  = time.Hour
)

// Service caches social and whale signals with per-kind TTLs.
// Reads never hit the network; Refresh is driven by the scheduler.
type Service struct {
	social SocialSource
	whale  WhaleSource

	socialTTL int64 // milliseconds
	whaleTTL  int64 // milliseconds

	mu          sync.RWMutex
	socialCache map[string]*SocialSignal
	whaleCache  map[string]*WhaleSignal

	log *logrus.Entry
	now func() int64 // overridable in tests
}

// NewService creates an enrichment service. Either source may be nil,
// in which case the corresponding score is always neutral.
func NewService(social SocialSource, whale WhaleSource, socialTTL, whaleTTL time.Duration, log *logrus.Entry) *Service {
	return &Service{
		social:      social,
		whale:       whale,
		socialTTL:   socialTTL.Milliseconds(),
		whaleTTL:    whaleTTL.Milliseconds(),
		socialCache: make(map[string]*SocialSignal),
		whaleCache:  make(map[string]*WhaleSignal),
		log:         log,
		now:         func() int64 { return time.Now().UnixMilli() },
	}
}

// Refresh fetches fresh signals for the given addresses. A failure on
// one address is logged and skipped; it never aborts the rest.
func (s *Service) Refresh(ctx context.Context, addresses []string) {
	for _, addr := range addresses {
		if ctx.Err() != nil {
			return
		}
		s.refreshOne(ctx, addr)
	}
}

func (s *Service) refreshOne(ctx context.Context, address string) {
	if s.social != nil {
		sig, err := s.social.Fetch(ctx, address)
		if err != nil {
			s.log.WithError(err).WithField("address", address).Debug("social fetch failed")
		} else if sig != nil {
			sig.UpdatedAt = s.now()
			s.mu.Lock()
			s.socialCache[address] = sig
			s.mu.Unlock()
		}
	}

	if s.whale != nil {
		sig, err := s.whale.Fetch(ctx, address)
		if err != nil {
			s.log.WithError(err).WithField("address", address).Debug("whale fetch failed")
		} else if sig != nil {
			sig.UpdatedAt = s.now()
			s.mu.Lock()
			s.whaleCache[address] = sig
			s.mu.Unlock()
		}
	}
}

// SocialScore returns the cached overall sentiment for a token, or
// NeutralScore when absent or stale.
func (s *Service) SocialScore(address string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.socialCache[address]
	if !ok || s.now()-sig.UpdatedAt > s.socialTTL {
		return NeutralScore
	}
	return sig.Overall
}

// WhaleScore returns the cached whale success rate for a token, or
// NeutralScore when absent or stale.
func (s *Service) WhaleScore(address string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.whaleCache[address]
	if !ok || s.now()-sig.UpdatedAt > s.whaleTTL {
		return NeutralScore
	}
	return sig.SuccessRate
}

// Sweep drops stale cache entries and returns how many were removed.
func (s *Service) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowMs := s.now()
	removed := 0
	for addr, sig := range s.socialCache {
		if nowMs-sig.UpdatedAt > s.socialTTL {
			delete(s.socialCache, addr)
			removed++
		}
	}
	for addr, sig := range s.whaleCache {
		if nowMs-sig.UpdatedAt > s.whaleTTL {
			delete(s.whaleCache, addr)
			removed++
		}
	}
	return removed
}
