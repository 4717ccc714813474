// Package credentials authorizes outbound calls to upstream APIs.
//
// A Provider yields a Credential per call. The speech upstream uses a static
// API key held in a secrets.Store; the generative upstream uses an OAuth2
// bearer token from Application Default Credentials.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/lexiqai/speech-gateway/internal/secrets"
)

// CloudPlatformScope is the scope requested for Google bearer tokens
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ErrUnavailable is returned when no credential can be obtained
var ErrUnavailable = errors.New("credential unavailable")

// Credential authorizes a single outbound request
type Credential interface {
	Apply(req *http.Request)
}

// Provider yields the credential for the next outbound call
type Provider interface {
	Credential(ctx context.Context) (Credential, error)
}

// APIKey authorizes a request with the ?key= query parameter
type APIKey string

func (k APIKey) Apply(req *http.Request) {
	q := req.URL.Query()
	q.Set("key", string(k))
	req.URL.RawQuery = q.Encode()
}

// BearerToken authorizes a request with an Authorization header
type BearerToken string

func (t BearerToken) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+string(t))
}

// SecretKeyProvider serves an API key stored under Name
type SecretKeyProvider struct {
	Store secrets.Store
	Name  string
}

func NewSecretKeyProvider(store secrets.Store, name string) *SecretKeyProvider {
	return &SecretKeyProvider{Store: store, Name: name}
}

// Credential fetches the key on every call
func (p *SecretKeyProvider) Credential(ctx context.Context) (Credential, error) {
	key, err := p.Store.Secret(ctx, p.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return APIKey(key), nil
}

// TokenSourceProvider serves bearer tokens from an oauth2.TokenSource
type TokenSourceProvider struct {
	source oauth2.TokenSource
}

func NewTokenSourceProvider(source oauth2.TokenSource) *TokenSourceProvider {
	return &TokenSourceProvider{source: oauth2.ReuseTokenSource(nil, source)}
}

// NewGoogleDefault builds a provider from Application Default Credentials
func NewGoogleDefault(ctx context.Context) (*TokenSourceProvider, error) {
	source, err := google.DefaultTokenSource(ctx, CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to find default credentials: %w", err)
	}
	return NewTokenSourceProvider(source), nil
}

func (p *TokenSourceProvider) Credential(_ context.Context) (Credential, error) {
	token, err := p.source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrUnavailable)
	}
	return BearerToken(token.AccessToken), nil
}

// Unavailable is a Provider that always fails, used when no credentials could be set up
type Unavailable struct {
	Reason error
}

func (u Unavailable) Credential(_ context.Context) (Credential, error) {
	if u.Reason == nil {
		return nil, ErrUnavailable
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, u.Reason)
}
