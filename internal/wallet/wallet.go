// Package wallet holds the bot's signing capability. The pipeline only ever
// sees the Capability interface, never raw key material, so a hardware or
// remote signer can be substituted without touching the orchestrator.
package wallet

import (
	"fmt"

	"filippo.io/edwards25519"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Capability is the ability to identify as a public key and sign arbitrary
// transaction bytes.
type Capability interface {
	// PublicKey returns the signer's public identity.
	PublicKey() solanago.PublicKey

	// Sign produces an ed25519 signature over message.
	Sign(message []byte) (solanago.Signature, error)
}

// Keypair is an in-memory ed25519 keypair implementing Capability.
type Keypair struct {
	key solanago.PrivateKey
}

var _ Capability = (*Keypair)(nil)

// FromBase58 builds a keypair from a base58-encoded 64-byte private key.
func FromBase58(encoded string) (*Keypair, error) {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("private key must be 64 bytes, got %d", len(raw))
	}

	key := solanago.PrivateKey(raw)
	if err := ValidateAddress(key.PublicKey().String()); err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &Keypair{key: key}, nil
}

// FromFile builds a keypair from a Solana CLI keygen JSON file.
func FromFile(path string) (*Keypair, error) {
	key, err := solanago.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}
	return &Keypair{key: key}, nil
}

// Generate creates a fresh random keypair.
func Generate() (*Keypair, error) {
	account := solanago.NewWallet()
	return &Keypair{key: account.PrivateKey}, nil
}

// PublicKey returns the signer's public identity.
func (k *Keypair) PublicKey() solanago.PublicKey {
	return k.key.PublicKey()
}

// Sign produces an ed25519 signature over message.
func (k *Keypair) Sign(message []byte) (solanago.Signature, error) {
	return k.key.Sign(message)
}

// PrivateKeyBase58 exposes the encoded private key. Only called once, when a
// freshly generated wallet is announced to the operator.
func (k *Keypair) PrivateKeyBase58() string {
	return base58.Encode(k.key)
}

// ValidateAddress checks that an address is base58 of a 32-byte ed25519
// point on the curve.
func ValidateAddress(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("address must be 32 bytes, got %d", len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("address is not on the ed25519 curve: %w", err)
	}
	return nil
}
