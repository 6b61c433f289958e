// Package event normalizes heterogeneous trade-notification payloads into
// canonical swap events.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/token"
)

// ErrMalformedPayload is returned when the notification body is not a JSON
// document of one of the supported shapes.
var ErrMalformedPayload = errors.New("malformed notification payload")

// Normalize converts an inbound notification into a canonical SwapEvent for
// the monitored wallet.
//
// Leg selection: the first outgoing entry owned by the monitored wallet
// becomes Sold, the first incoming one Bought. A native-SOL outgoing transfer
// counts as Sold when no token input matched. Multi-hop swaps are therefore
// collapsed to their first legs.
//
// Amount strings that fail to parse degrade to zero and surface as an
// incomplete event; only structural malformation returns an error. A payload
// in which the monitored wallet appears in neither leg yields an incomplete
// event and a nil error.
func Normalize(payload []byte, monitoredWallet string) (*domain.SwapEvent, error) {
	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if n.Transaction == nil {
		return nil, fmt.Errorf("%w: missing transaction object", ErrMalformedPayload)
	}

	ev := &domain.SwapEvent{Signature: n.Transaction.Signature}

	if n.Transaction.Events != nil && n.Transaction.Events.Swap != nil {
		normalizeSwapEvent(ev, n.Transaction.Events.Swap, monitoredWallet)
		return ev, nil
	}

	normalizeTokenTransfers(ev, n.Transaction.TokenTransfers, monitoredWallet)
	return ev, nil
}

// normalizeSwapEvent handles the enhanced "events.swap" shape, which carries
// smallest-unit amount strings with explicit precision.
func normalizeSwapEvent(ev *domain.SwapEvent, swap *SwapPayload, monitoredWallet string) {
	for _, in := range swap.TokenInputs {
		if in.UserAccount != monitoredWallet {
			continue
		}
		ev.Sold = tokenLegAmount(in)
		break
	}

	for _, out := range swap.TokenOutputs {
		if out.UserAccount != monitoredWallet {
			continue
		}
		ev.Bought = tokenLegAmount(out)
		break
	}

	// Native SOL leaving the monitored wallet counts as the sold side when no
	// token input matched. Negative lamports clamp to zero like the transfer
	// path; a uint64 conversion would wrap into an enormous sold leg.
	if ev.Sold == nil && swap.NativeInput != nil && swap.NativeInput.Account == monitoredWallet {
		lamports := float64(swap.NativeInput.Amount)
		if lamports < 0 {
			lamports = 0
		}
		ev.Sold = &domain.TokenAmount{
			Mint:      domain.NativeTokenID,
			RawAmount: uint64(lamports),
			Decimals:  domain.NativeDecimals,
		}
	}
}

// normalizeTokenTransfers handles the flat "tokenTransfers" shape, which
// carries decimal amounts; precision is resolved from the metadata table.
func normalizeTokenTransfers(ev *domain.SwapEvent, transfers []TokenTransfer, monitoredWallet string) {
	for _, tr := range transfers {
		mint := tr.MintAddress()
		if mint == "" {
			continue
		}

		switch {
		case ev.Sold == nil && tr.FromUserAccount == monitoredWallet:
			ev.Sold = transferAmount(mint, float64(tr.TokenAmount))
		case ev.Bought == nil && tr.ToUserAccount == monitoredWallet:
			ev.Bought = transferAmount(mint, float64(tr.TokenAmount))
		}

		if ev.Sold != nil && ev.Bought != nil {
			return
		}
	}
}

func tokenLegAmount(leg TokenLeg) *domain.TokenAmount {
	raw, err := strconv.ParseUint(leg.RawTokenAmount.TokenAmount, 10, 64)
	if err != nil {
		raw = 0
	}

	var decimals uint8
	if leg.RawTokenAmount.Decimals != nil {
		decimals = *leg.RawTokenAmount.Decimals
	}

	return &domain.TokenAmount{
		Mint:      leg.Mint,
		RawAmount: raw,
		Decimals:  decimals,
	}
}

func transferAmount(mint string, amount float64) *domain.TokenAmount {
	decimals := token.Decimals(mint)
	if amount < 0 {
		amount = 0
	}

	return &domain.TokenAmount{
		Mint:      mint,
		RawAmount: uint64(math.Round(amount * math.Pow10(int(decimals)))),
		Decimals:  decimals,
	}
}
