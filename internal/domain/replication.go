package domain

// ReplicationState is a stage of the replication state machine.
type ReplicationState string

// Replication lifecycle: Idle → Quoting → Building → Signing → Submitted →
// {Confirmed | Failed}.
const (
	StateIdle      ReplicationState = "idle"
	StateQuoting   ReplicationState = "quoting"
	StateBuilding  ReplicationState = "building"
	StateSigning   ReplicationState = "signing"
	StateSubmitted ReplicationState = "submitted"
	StateConfirmed ReplicationState = "confirmed"
	StateFailed    ReplicationState = "failed"
)

// ReplicationRecord is the journal row written once per replication attempt.
// Corresponds to the replications table in PostgreSQL.
type ReplicationRecord struct {
	ReplicationID   string           // PRIMARY KEY, deterministic hash
	SourceSignature string           // signature of the observed transaction
	WalletPubkey    string           // bot wallet public key
	InputMint       string           // mirrored input mint
	OutputMint      string           // mirrored output mint
	InputAmountRaw  uint64           // mirrored input, smallest unit
	SizeFraction    float64          // policy snapshot
	SlippageBps     uint32           // policy snapshot
	State           ReplicationState // terminal state: confirmed | failed
	FailedStage     ReplicationState // stage the attempt failed in, empty on success
	FailureReason   string           // error text, empty on success
	TxSignature     string           // on-chain signature, empty on failure
	QuotedOutAmount uint64           // aggregator's expected output, 0 if never quoted
	PriceImpactPct  float64          // aggregator-reported price impact
	CreatedAt       int64            // Unix timestamp in milliseconds
	FinishedAt      int64            // Unix timestamp in milliseconds
}

// QuoteObservation is one telemetry row per aggregator quote.
// Corresponds to the quote_observations table in ClickHouse.
type QuoteObservation struct {
	ReplicationID  string
	InputMint      string
	OutputMint     string
	InAmountRaw    uint64
	OutAmountRaw   uint64
	SlippageBps    uint32
	PriceImpactPct float64
	LatencyMs      int64
	ObservedAt     int64 // Unix timestamp in milliseconds
}
