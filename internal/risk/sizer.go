// Package risk admits predictions into execution and sizes positions.
package risk

import "math"

// Sizing parameters.
const (
	// DefaultMaxPositionFraction is the share of the balance a single
	// position may occupy.
	DefaultMaxPositionFraction = 0.3

	// expectedReturnCap bounds the return multiplier in the size formula.
	expectedReturnCap = 2.0

	// riskFloor keeps the risk divisor away from zero.
	riskFloor = 0.1
)

// Sizer computes the notional for a new position.
type Sizer struct {
	maxFraction float64
}

// NewSizer creates a sizer allocating at most maxFraction of the
// balance per position. Non-positive fractions fall back to the default.
func NewSizer(maxFraction float64) *Sizer {
	if maxFraction <= 0 {
		maxFraction = DefaultMaxPositionFraction
	}
	return &Sizer{maxFraction: maxFraction}
}

// Size returns the position notional:
//
//	base = balance × maxFraction
//	size = base × confidence × min(expectedReturn, 2.0) / max(riskScore, 0.1)
//
// clamped to base. A non-positive balance yields a non-positive size,
// which the gate's minimum-notional check turns into a rejection.
func (s *Sizer) Size(balance, confidence, expectedReturn, riskScore float64) float64 {
	base := balance * s.maxFraction
	if base <= 0 {
		return base
	}

	size := base * confidence * math.Min(expectedReturn, expectedReturnCap) /
		math.Max(riskScore, riskFloor)
	if size > base {
		size = base
	}
	return size
}
