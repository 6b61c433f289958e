package domain

import "fmt"

// ReplicationPolicy controls how a detected swap is mirrored. It is built
// once at startup and read-only afterwards.
type ReplicationPolicy struct {
	// SizeFraction scales the observed sold amount, in (0, 1].
	SizeFraction float64
	// SlippageBps is the tolerated quote-to-execution deviation in basis points.
	SlippageBps uint32
	// PriorityFeeCapLamports caps the prioritization fee attached to the
	// mirrored transaction.
	PriorityFeeCapLamports uint64
}

// Validate checks policy bounds.
func (p ReplicationPolicy) Validate() error {
	if p.SizeFraction <= 0 || p.SizeFraction > 1 {
		return fmt.Errorf("size fraction must be in (0, 1], got %v", p.SizeFraction)
	}
	if p.SlippageBps == 0 {
		return fmt.Errorf("slippage bps must be positive")
	}
	return nil
}
