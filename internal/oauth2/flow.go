package oauth2

import (
	"context"
	"fmt"
	"time"

	"github.com/ketabyar/ketabyar/internal/entities"
	"github.com/ketabyar/ketabyar/internal/tokenstore"
)

// FlowResult contains the result of a completed OAuth2 flow
type FlowResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    *time.Time
	AccountID    string
	Scope        string
}

// FlowHandler runs the web authorization flow for one provider and persists
// the resulting tokens against the local user account.
type FlowHandler struct {
	provider   Provider
	tokenStore *tokenstore.TokenStore
}

// NewFlowHandler creates a new OAuth2 flow handler
func NewFlowHandler(provider Provider, store *tokenstore.TokenStore) *FlowHandler {
	return &FlowHandler{
		provider:   provider,
		tokenStore: store,
	}
}

// StartWebFlow builds the authorization URL for redirecting the browser.
// The returned state and code verifier must be kept server-side (in the
// session) and passed back to CompleteWebFlow on the callback.
func (h *FlowHandler) StartWebFlow(redirectURL string) (authURL, state, codeVerifier string, err error) {
	authURL, codeVerifier, state, err = h.provider.BuildAuthURL(redirectURL)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to build auth URL: %w", err)
	}
	return authURL, state, codeVerifier, nil
}

// CompleteWebFlow verifies the callback state, exchanges the code and stores
// the tokens for the given user.
func (h *FlowHandler) CompleteWebFlow(
	ctx context.Context,
	userID uint,
	code, codeVerifier, redirectURL, expectedState, receivedState string,
) (*FlowResult, error) {
	if expectedState == "" || receivedState != expectedState {
		return nil, ErrStateMismatch
	}

	tokenResp, err := h.provider.ExchangeCode(ctx, code, codeVerifier, redirectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	accountID := tokenResp.AccountID
	if accountID == "" {
		accountID, err = h.provider.GetAccountInfo(ctx, tokenResp.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to get account info: %w", err)
		}
	}

	result := &FlowResult{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenResp.TokenType,
		ExpiresAt:    tokenResp.ExpiresAt(),
		AccountID:    accountID,
		Scope:        tokenResp.Scope,
	}

	if h.tokenStore != nil {
		token := &entities.DecryptedToken{
			UserID:       userID,
			Provider:     h.provider.Name(),
			AccountID:    accountID,
			AccessToken:  tokenResp.AccessToken,
			RefreshToken: tokenResp.RefreshToken,
			TokenType:    tokenResp.TokenType,
			ExpiresAt:    result.ExpiresAt,
			Scope:        tokenResp.Scope,
		}

		if err := h.tokenStore.SaveToken(token); err != nil {
			return nil, fmt.Errorf("failed to save token: %w", err)
		}
	}

	return result, nil
}
