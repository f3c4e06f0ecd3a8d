package keys

import (
	"context"
	"crypto"
	"errors"
	"fmt"
)

// ErrKeyNotFound indicates the identity service does not know the key ID.
var ErrKeyNotFound = errors.New("key not found")

// VerificationKey is resolved key material plus the signing algorithm it
// verifies.
type VerificationKey struct {
	ID        string
	Algorithm string
	// Public holds the parsed verification key: *rsa.PublicKey or
	// *ecdsa.PublicKey for asymmetric algorithms, []byte for HMAC secrets.
	Public crypto.PublicKey
}

// Provider resolves a key identifier to its verification key.
type Provider interface {
	// Get returns the verification key for keyID. It fails with a
	// *ProviderError when the identifier is unknown or the upstream
	// lookup fails; wrapped ErrKeyNotFound distinguishes the former.
	Get(ctx context.Context, keyID string) (*VerificationKey, error)
}

// ProviderError wraps any failure to resolve a key.
type ProviderError struct {
	KeyID string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("key provider failed for key %q: %v", e.KeyID, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
