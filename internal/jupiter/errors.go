package jupiter

import (
	"errors"
	"fmt"
)

// Errors returned by the quote and swap endpoints.
var (
	ErrNetwork            = errors.New("jupiter request failed")
	ErrNoRoute            = errors.New("no route for pair")
	ErrMalformedQuote     = errors.New("malformed quote response")
	ErrMissingTransaction = errors.New("swap response missing transaction")
	ErrTransactionDecode  = errors.New("swap transaction does not decode")
)

// SimulationError is returned when the swap endpoint built a transaction
// but its simulation failed. The replication must not be submitted.
type SimulationError struct {
	Reason string
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("swap simulation failed: %s", e.Reason)
}
