package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeReplicationID computes a deterministic replication_id using SHA256.
// Formula: SHA256(source_signature|wallet_pubkey)
// Returns hex-encoded hash (64 characters).
//
// The same observed swap replicated by the same wallet always maps to the
// same id, which is what lets the journal reject duplicate processing of
// a redelivered notification.
func ComputeReplicationID(sourceSignature, walletPubkey string) string {
	data := fmt.Sprintf("%s|%s", sourceSignature, walletPubkey)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
