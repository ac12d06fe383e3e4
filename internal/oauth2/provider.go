// Package oauth2 implements the authorization-code flow with PKCE that
// links an external account, Google in practice, to a signed-in reader.
package oauth2

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ketabyar/ketabyar/internal/entities"
)

// TokenResponse is what a provider hands back from a code exchange or a
// refresh.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int // seconds until expiry
	Scope        string
	AccountID    string // provider-side account identifier
}

// ExpiresAt converts the relative ExpiresIn into an absolute time, nil
// when the provider gave no expiry.
func (t *TokenResponse) ExpiresAt() *time.Time {
	if t.ExpiresIn <= 0 {
		return nil
	}
	exp := time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	return &exp
}

// Provider abstracts one OAuth2 identity provider.
type Provider interface {
	Name() entities.OAuthProvider

	// BuildAuthURL starts the flow: the reader is sent to authURL, and
	// the verifier and state come back in the callback for validation.
	BuildAuthURL(redirectURL string) (authURL, codeVerifier, state string, err error)

	// ExchangeCode trades the callback's authorization code for tokens.
	ExchangeCode(ctx context.Context, code, codeVerifier, redirectURL string) (*TokenResponse, error)

	// RefreshToken trades a refresh token for a fresh access token.
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)

	// GetAccountInfo resolves the provider-side account id for a token.
	GetAccountInfo(ctx context.Context, accessToken string) (accountID string, err error)
}

// Registry holds the configured providers by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[entities.OAuthProvider]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[entities.OAuthProvider]Provider)}
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

func (r *Registry) Get(name entities.OAuthProvider) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", name, ErrProviderNotFound)
	}
	return p, nil
}

func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	return providers
}

// DefaultRegistry is used when callers do not carry their own registry.
var DefaultRegistry = NewRegistry()

func Register(p Provider) {
	DefaultRegistry.Register(p)
}

func GetProvider(name entities.OAuthProvider) (Provider, error) {
	return DefaultRegistry.Get(name)
}
