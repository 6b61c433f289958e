package event

import (
	"encoding/json"
	"strconv"
)

// Notification is the inbound webhook document. The transaction object is one
// of two shapes: an enhanced "events.swap" payload, or a flat "tokenTransfers"
// payload. Both are declared explicitly so malformed shapes fail at this
// boundary instead of propagating defaults into the pipeline.
type Notification struct {
	Transaction *TransactionPayload `json:"transaction"`
}

// TransactionPayload carries the per-transaction fields the normalizer reads.
type TransactionPayload struct {
	Signature      string          `json:"signature"`
	Events         *EventsPayload  `json:"events,omitempty"`
	TokenTransfers []TokenTransfer `json:"tokenTransfers,omitempty"`
}

// EventsPayload wraps the enhanced event section.
type EventsPayload struct {
	Swap *SwapPayload `json:"swap"`
}

// SwapPayload is the "events.swap" shape.
type SwapPayload struct {
	TokenInputs  []TokenLeg `json:"tokenInputs"`
	TokenOutputs []TokenLeg `json:"tokenOutputs"`
	NativeInput  *NativeLeg `json:"nativeInput"`
}

// TokenLeg is one SPL token entry of a swap event.
type TokenLeg struct {
	UserAccount    string         `json:"userAccount"`
	Mint           string         `json:"mint"`
	RawTokenAmount RawTokenAmount `json:"rawTokenAmount"`
}

// RawTokenAmount is a smallest-unit amount string plus its precision.
// Decimals is a pointer: an absent field degrades to 0 rather than erroring.
type RawTokenAmount struct {
	TokenAmount string `json:"tokenAmount"`
	Decimals    *uint8 `json:"decimals"`
}

// NativeLeg is a native-SOL movement, amount in lamports.
type NativeLeg struct {
	Account string     `json:"account"`
	Amount  FlexAmount `json:"amount"`
}

// TokenTransfer is one entry of the flat "tokenTransfers" shape. The amount
// here is a decimal value, not smallest units; precision comes from the
// metadata resolver. Some feeds key the mint as "tokenAddress".
type TokenTransfer struct {
	FromUserAccount string     `json:"fromUserAccount"`
	ToUserAccount   string     `json:"toUserAccount"`
	Mint            string     `json:"mint"`
	TokenAddress    string     `json:"tokenAddress"`
	TokenAmount     FlexAmount `json:"tokenAmount"`
}

// MintAddress returns whichever mint key the payload used.
func (t TokenTransfer) MintAddress() string {
	if t.Mint != "" {
		return t.Mint
	}
	return t.TokenAddress
}

// FlexAmount accepts a JSON number or a numeric string. Values that fail to
// parse resolve to 0; the zero amount later fails the completeness check.
type FlexAmount float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexAmount) UnmarshalJSON(data []byte) error {
	*f = 0
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	s := string(data)
	if s[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return nil
		}
		s = unquoted
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*f = FlexAmount(v)
	return nil
}
