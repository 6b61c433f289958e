package domain

import "math"

// NativeTokenID is the logical identifier for the chain's native currency.
// It is translated to WrappedSOLMint before any aggregator call.
const NativeTokenID = "SOL"

// WrappedSOLMint is the canonical wrapped-SOL mint address.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// NativeDecimals is the lamports-per-SOL exponent.
const NativeDecimals = 9

// TokenAmount is one leg of a detected swap, carried in the token's
// smallest unit.
type TokenAmount struct {
	Mint      string // mint address or NativeTokenID
	RawAmount uint64 // smallest-unit amount
	Decimals  uint8
}

// DecimalValue returns RawAmount scaled down by 10^Decimals.
func (t TokenAmount) DecimalValue() float64 {
	return float64(t.RawAmount) / math.Pow10(int(t.Decimals))
}

// SwapEvent is the canonical form of one detected swap of the monitored
// wallet. It is constructed once per inbound notification, never mutated and
// never persisted.
type SwapEvent struct {
	// Sold is the leg leaving the monitored wallet, nil if none was found.
	Sold *TokenAmount
	// Bought is the leg arriving at the monitored wallet, nil if none was found.
	Bought *TokenAmount
	// Signature is the source transaction signature, used for deduplication
	// and journaling only.
	Signature string
}

// Complete reports whether both legs are present with a positive decimal
// value. Only complete events are eligible for replication.
func (e *SwapEvent) Complete() bool {
	if e == nil || e.Sold == nil || e.Bought == nil {
		return false
	}
	return e.Sold.DecimalValue() > 0 && e.Bought.DecimalValue() > 0
}
