package jupiter

import (
	"encoding/json"
	"strconv"
)

// QuoteRequest describes the swap leg to price. Amounts are raw base units.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	AmountRaw   uint64
	SlippageBps uint32
}

// Quote is a priced route returned by the quote endpoint.
//
// Raw holds the response body verbatim. The swap endpoint requires the
// quote to be echoed back exactly as received, including fields this
// package never interprets (routePlan, otherAmountThreshold, fee details),
// so Raw is what gets sent, not a re-marshal of the parsed fields.
type Quote struct {
	InputMint            string
	OutputMint           string
	InAmountRaw          uint64
	OutAmountRaw         uint64
	OtherAmountThreshold uint64
	PriceImpactPct       float64
	SlippageBps          uint32

	Raw json.RawMessage
}

type quotePayload struct {
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             string          `json:"inAmount"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	SlippageBps          uint32          `json:"slippageBps"`
	RoutePlan            json.RawMessage `json:"routePlan"`
}

// parseQuote validates the fields the pipeline depends on and keeps the
// body verbatim for the swap request. Fields beyond outAmount are parsed
// best-effort: a quote without a positive out amount is unusable, the
// rest only feeds telemetry.
func parseQuote(body []byte) (*Quote, error) {
	var p quotePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, ErrMalformedQuote
	}

	outAmount, err := strconv.ParseUint(p.OutAmount, 10, 64)
	if err != nil || outAmount == 0 {
		return nil, ErrMalformedQuote
	}

	inAmount, _ := strconv.ParseUint(p.InAmount, 10, 64)
	threshold, _ := strconv.ParseUint(p.OtherAmountThreshold, 10, 64)
	impact, _ := strconv.ParseFloat(p.PriceImpactPct, 64)

	raw := make(json.RawMessage, len(body))
	copy(raw, body)

	return &Quote{
		InputMint:            p.InputMint,
		OutputMint:           p.OutputMint,
		InAmountRaw:          inAmount,
		OutAmountRaw:         outAmount,
		OtherAmountThreshold: threshold,
		PriceImpactPct:       impact,
		SlippageBps:          p.SlippageBps,
		Raw:                  raw,
	}, nil
}
