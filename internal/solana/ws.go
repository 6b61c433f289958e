package solana

// LogsFilter selects which transaction logs a subscription receives.
type LogsFilter struct {
	// Mentions restricts notifications to transactions that reference any of
	// these addresses. Empty subscribes to all transactions.
	Mentions []string
}

// LogNotification is one logsNotification delivered by the node.
type LogNotification struct {
	Signature string
	Err       interface{}
	Logs      []string
	Slot      int64
}
