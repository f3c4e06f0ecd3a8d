package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/platinummonkey/confstore/pkg/keys"
)

// verificationFailed is the normalized message for failures that must not
// leak upstream detail to the caller.
const verificationFailed = "Token verification failed"

// TokenVerifier validates a signed token and resolves it to a Profile
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Profile, error)
}

// Verifier validates JWTs against keys resolved through a keys.Provider.
// Verification is stateless per call except for the provider's cache; a
// transient provider failure surfaces immediately as a verification failure
// rather than being retried, because auth decisions fail closed.
type Verifier struct {
	provider keys.Provider
	parser   *jwt.Parser
}

// NewVerifier creates a verifier backed by the given key provider
func NewVerifier(provider keys.Provider) *Verifier {
	return &Verifier{
		provider: provider,
		parser:   jwt.NewParser(),
	}
}

// Verify validates the token's signature and expiry and returns the resolved
// Profile. Every failure is an *InvalidTokenError.
func (v *Verifier) Verify(ctx context.Context, token string) (*Profile, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &InvalidTokenError{Reason: "Token is a required argument"}
	}

	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("token has no key id")
		}

		key, err := v.provider.Get(ctx, kid)
		if err != nil {
			return nil, err
		}
		if key.Algorithm != t.Method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q for key %q", t.Method.Alg(), kid)
		}
		return key.Public, nil
	})
	if err != nil {
		return nil, translateParseError(err)
	}

	tenant, ok := claims[ClaimTenant].(string)
	if !ok || tenant == "" {
		return nil, &InvalidTokenError{Reason: "Token is missing the tenant claim"}
	}
	if _, ok := claims[ClaimRole]; !ok {
		return nil, &InvalidTokenError{Reason: "Token is missing the role claim"}
	}

	return &Profile{Tenant: tenant, Claims: claims}, nil
}

// translateParseError maps jwt parse failures onto the token error taxonomy.
// Key-resolution failures are normalized so upstream state is not revealed.
func translateParseError(err error) *InvalidTokenError {
	var perr *keys.ProviderError
	if errors.As(err, &perr) {
		return &InvalidTokenError{Reason: verificationFailed, Err: err}
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		return &InvalidTokenError{Reason: "Token is expired", Err: err}
	}
	return &InvalidTokenError{Reason: verificationFailed, Err: err}
}
