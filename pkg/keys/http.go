package keys

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// HTTPProvider resolves keys from the external identity service over HTTP.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPProvider creates a provider against the identity service at baseURL.
// Every lookup is bounded by timeout and fails closed on expiry.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// keyResponse is the identity service's wire format for a published key
type keyResponse struct {
	KeyID     string `json:"key_id"`
	Algorithm string `json:"algorithm"`
	// PublicKey is PEM for asymmetric algorithms, base64 for HMAC secrets
	PublicKey string `json:"public_key"`
}

// Get fetches and parses the verification key for keyID
func (p *HTTPProvider) Get(ctx context.Context, keyID string) (*VerificationKey, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v1/keys/%s", p.baseURL, url.PathEscape(keyID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ProviderError{KeyID: keyID, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{KeyID: keyID, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &ProviderError{KeyID: keyID, Err: ErrKeyNotFound}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ProviderError{
			KeyID: keyID,
			Err:   fmt.Errorf("identity service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var kr keyResponse
	if err := json.NewDecoder(resp.Body).Decode(&kr); err != nil {
		return nil, &ProviderError{KeyID: keyID, Err: fmt.Errorf("decoding key response: %w", err)}
	}

	return parseKey(keyID, kr)
}

// parseKey converts the wire format into usable key material
func parseKey(keyID string, kr keyResponse) (*VerificationKey, error) {
	if kr.Algorithm == "" || kr.PublicKey == "" {
		return nil, &ProviderError{KeyID: keyID, Err: fmt.Errorf("incomplete key response")}
	}

	key := &VerificationKey{ID: keyID, Algorithm: kr.Algorithm}

	switch {
	case strings.HasPrefix(kr.Algorithm, "RS"), strings.HasPrefix(kr.Algorithm, "PS"):
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(kr.PublicKey))
		if err != nil {
			return nil, &ProviderError{KeyID: keyID, Err: fmt.Errorf("parsing RSA public key: %w", err)}
		}
		key.Public = pub
	case strings.HasPrefix(kr.Algorithm, "ES"):
		pub, err := jwt.ParseECPublicKeyFromPEM([]byte(kr.PublicKey))
		if err != nil {
			return nil, &ProviderError{KeyID: keyID, Err: fmt.Errorf("parsing EC public key: %w", err)}
		}
		key.Public = pub
	case strings.HasPrefix(kr.Algorithm, "HS"):
		secret, err := base64.StdEncoding.DecodeString(kr.PublicKey)
		if err != nil {
			return nil, &ProviderError{KeyID: keyID, Err: fmt.Errorf("decoding HMAC secret: %w", err)}
		}
		key.Public = secret
	default:
		return nil, &ProviderError{KeyID: keyID, Err: fmt.Errorf("unsupported algorithm %q", kr.Algorithm)}
	}

	return key, nil
}
