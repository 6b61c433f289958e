package token

import (
	"testing"

	"solana-copy-trader/internal/domain"
)

func TestDecimals(t *testing.T) {
	tests := []struct {
		name     string
		mint     string
		expected uint8
	}{
		{"usdc", USDCMint, 6},
		{"usdt", USDTMint, 6},
		{"wrapped sol", domain.WrappedSOLMint, 9},
		{"native alias", domain.NativeTokenID, 9},
		{"unknown mint defaults", "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU", 9},
		{"empty string defaults", "", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decimals(tt.mint); got != tt.expected {
				t.Errorf("Decimals(%q) = %d, expected %d", tt.mint, got, tt.expected)
			}
		})
	}
}
