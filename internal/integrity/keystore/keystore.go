// Package keystore holds the device signing key. Providers are injected
// capabilities rather than hidden singletons so tests can substitute an
// in-memory implementation.
package keystore

import (
	"context"
	"crypto/ecdsa"
)

// Provider persists the process-wide signing keypair. Load returns
// sentinel.ErrNotFound when no key has been stored yet.
type Provider interface {
	Load(ctx context.Context) (*ecdsa.PrivateKey, error)
	Store(ctx context.Context, key *ecdsa.PrivateKey) error
}
