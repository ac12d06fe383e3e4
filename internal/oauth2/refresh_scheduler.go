package oauth2

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ketabyar/ketabyar/internal/audit"
	"github.com/ketabyar/ketabyar/internal/entities"
	"github.com/ketabyar/ketabyar/internal/tokenstore"
)

// RefreshConfig controls the background upkeep of linked-account tokens.
type RefreshConfig struct {
	Enabled       bool
	CheckInterval time.Duration // sweep cadence (30m)
	RefreshMargin time.Duration // refresh tokens expiring within this window (15m)
}

// RefreshScheduler keeps access tokens for linked Google accounts fresh
// so the link never silently goes stale between reader visits.
type RefreshScheduler struct {
	mu sync.Mutex

	tokenStore   *tokenstore.TokenStore
	registry     *Registry
	config       RefreshConfig
	auditService *audit.Service

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewRefreshScheduler(
	store *tokenstore.TokenStore,
	registry *Registry,
	config RefreshConfig,
	auditService *audit.Service,
) *RefreshScheduler {
	if registry == nil {
		registry = DefaultRegistry
	}

	return &RefreshScheduler{
		tokenStore:   store,
		registry:     registry,
		config:       config,
		auditService: auditService,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or the context ends.
func (s *RefreshScheduler) Start(ctx context.Context) {
	if !s.config.Enabled {
		log.Println("Token refresh scheduler disabled")
		close(s.doneCh)
		return
	}

	log.Printf("Token refresh scheduler started (interval: %v, margin: %v)",
		s.config.CheckInterval, s.config.RefreshMargin)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopCh:
			log.Println("Token refresh scheduler stopping")
			close(s.doneCh)
			return
		case <-ctx.Done():
			log.Println("Token refresh scheduler context cancelled")
			close(s.doneCh)
			return
		}
	}
}

// Stop halts the loop and waits for it to exit.
func (s *RefreshScheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// sweep walks every provider's stored tokens and refreshes the ones
// about to expire. Failures are logged and audited per token; one bad
// link never blocks the rest.
func (s *RefreshScheduler) sweep(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, provider := range s.registry.All() {
		tokens, err := s.tokenStore.ListTokens(provider.Name())
		if err != nil {
			log.Printf("Error listing %s tokens: %v", provider.Name(), err)
			continue
		}

		for _, token := range tokens {
			if !token.IsExpiringSoon(s.config.RefreshMargin) {
				continue
			}
			s.refreshOne(ctx, provider, token.AccountID)
		}
	}
}

func (s *RefreshScheduler) refreshOne(ctx context.Context, provider Provider, accountID string) {
	name := provider.Name()

	fail := func(what string, err error) {
		log.Printf("%s for %s/%s: %v", what, name, accountID, err)
		s.logAudit(fmt.Sprintf("%s for %s/%s", what, name, accountID), err)
	}

	token, err := s.tokenStore.GetToken(name, accountID)
	if err != nil {
		fail("Failed to load token", err)
		return
	}
	if token.RefreshToken == "" {
		fail("Cannot refresh link", ErrNoRefreshToken)
		return
	}

	resp, err := provider.RefreshToken(ctx, token.RefreshToken)
	if err != nil {
		fail("Failed to refresh token", err)
		return
	}

	// Google only returns a new refresh token sometimes; keep the old
	// one otherwise.
	refreshToken := resp.RefreshToken
	if refreshToken == "" {
		refreshToken = token.RefreshToken
	}

	err = s.tokenStore.UpdateTokenAfterRefresh(name, accountID,
		resp.AccessToken, refreshToken, resp.ExpiresAt())
	if err != nil {
		fail("Failed to save refreshed token", err)
		return
	}

	log.Printf("Refreshed token for %s/%s", name, accountID)
	s.logAudit(fmt.Sprintf("Refreshed %s token for %s", name, accountID), nil)
}

func (s *RefreshScheduler) logAudit(description string, err error) {
	if s.auditService == nil {
		return
	}
	s.auditService.LogAdmin(0, "oauth_token_refresh", description, err)
}

// Refresh forces an immediate refresh of one linked account's token.
func (s *RefreshScheduler) Refresh(ctx context.Context, providerName entities.OAuthProvider, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	provider, err := s.registry.Get(providerName)
	if err != nil {
		return err
	}

	token, err := s.tokenStore.GetToken(providerName, accountID)
	if err != nil {
		return err
	}
	if token == nil {
		return ErrTokenNotFound
	}
	if token.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	resp, err := provider.RefreshToken(ctx, token.RefreshToken)
	if err != nil {
		return err
	}

	refreshToken := resp.RefreshToken
	if refreshToken == "" {
		refreshToken = token.RefreshToken
	}

	return s.tokenStore.UpdateTokenAfterRefresh(providerName, accountID,
		resp.AccessToken, refreshToken, resp.ExpiresAt())
}
