// Package token resolves token mints to their decimal precision.
package token

import "solana-copy-trader/internal/domain"

// Well-known mint addresses.
const (
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// DefaultDecimals is assumed for mints not in the table. Most SPL tokens use
// 9; tokens that do not will be sized incorrectly, which the slippage bound
// then rejects at quote time.
const DefaultDecimals = 9

var decimalsByMint = map[string]uint8{
	USDCMint:              6,
	USDTMint:              6,
	domain.WrappedSOLMint: domain.NativeDecimals,
	domain.NativeTokenID:  domain.NativeDecimals,
}

// Decimals returns the decimal precision for a mint. Total: every input maps
// to a defined value, unknown mints get DefaultDecimals.
func Decimals(mint string) uint8 {
	if d, ok := decimalsByMint[mint]; ok {
		return d
	}
	return DefaultDecimals
}
