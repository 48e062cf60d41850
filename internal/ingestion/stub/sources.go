// Package stub provides synthetic pair feeds for offline runs and tests.
package stub

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"token-radar/internal/ingestion"
)

// PairSource cycles through fixed batches of raw pairs.
// Implements ingestion.PairSource.
type PairSource struct {
	name    string
	batches [][]ingestion.RawPair

	mu   sync.Mutex
	next int
}

// NewPairSource creates a stub source delivering the given batches in
// order, then repeating from the start.
func NewPairSource(name string, batches [][]ingestion.RawPair) *PairSource {
	return &PairSource{name: name, batches: batches}
}

// Name identifies the source in logs and metrics.
func (s *PairSource) Name() string {
	return s.name
}

// Fetch returns the next batch. Returns copies to prevent mutation.
func (s *PairSource) Fetch(_ context.Context) ([]ingestion.RawPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.batches) == 0 {
		return nil, nil
	}

	batch := s.batches[s.next%len(s.batches)]
	s.next++

	result := make([]ingestion.RawPair, len(batch))
	copy(result, batch)
	return result, nil
}

// Verify interface compliance at compile time.
var _ ingestion.PairSource = (*PairSource)(nil)

// SyntheticSource generates plausible pair batches deterministically
// from a seed. Prices follow a rough sine walk so that some tokens
// pump through admission thresholds and later crash through stops.
type SyntheticSource struct {
	name     string
	seed     uint64
	perBatch int
	now      func() int64

	mu   sync.Mutex
	tick uint64
}

// NewSyntheticSource creates a generator producing perBatch pairs per Fetch.
func NewSyntheticSource(name string, seed uint64, perBatch int) *SyntheticSource {
	return &SyntheticSource{
		name:     name,
		seed:     seed,
		perBatch: perBatch,
		now:      func() int64 { return time.Now().UnixMilli() },
	}
}

// Name identifies the source in logs and metrics.
func (s *SyntheticSource) Name() string {
	return s.name
}

// Fetch generates the next batch.
func (s *SyntheticSource) Fetch(_ context.Context) ([]ingestion.RawPair, error) {
	s.mu.Lock()
	tick := s.tick
	s.tick++
	s.mu.Unlock()

	nowMs := s.now()
	batch := make([]ingestion.RawPair, 0, s.perBatch)
	for i := 0; i < s.perBatch; i++ {
		tokenID := s.seed + uint64(i)
		phase := float64(tick)/4 + float64(i)

		// Oscillate around a detectable momentum profile
		change1h := 40 + 40*math.Sin(phase)
		volume1h := 30_000 + 30_000*math.Abs(math.Sin(phase/2))
		liquidity := 60_000 + float64(tokenID%5)*20_000
		price := 0.001 * (1 + 0.5*math.Sin(phase/3)) * float64(1+tokenID%7)

		batch = append(batch, ingestion.RawPair{
			Network:       "solana",
			Address:       MintAddress(tokenID),
			Symbol:        fmt.Sprintf("SYN%d", tokenID),
			PriceUSD:      price,
			Change1h:      change1h,
			Change24h:     change1h * 4,
			Volume1h:      volume1h,
			Volume24h:     volume1h * 24,
			LiquidityUSD:  liquidity,
			MarketCap:     liquidity * 10,
			PairCreatedAt: nowMs - int64(tokenID%90)*60_000,
		})
	}
	return batch, nil
}

// Verify interface compliance at compile time.
var _ ingestion.PairSource = (*SyntheticSource)(nil)

// MintAddress derives a deterministic, well-formed mint address from a
// token ID: hash the ID to a scalar, multiply the ed25519 base point,
// and base58-encode the resulting 32-byte point.
func MintAddress(tokenID uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], tokenID)
	hash := sha256.Sum256(buf[:])

	scalar, err := new(edwards25519.Scalar).SetBytesWithClamping(hash[:32])
	if err != nil {
		// Clamped 32-byte input cannot fail; fall back to the raw hash
		return base58.Encode(hash[:])
	}
	point := new(edwards25519.Point).ScalarBaseMult(scalar)
	return base58.Encode(point.Bytes())
}
