package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ketabyar/ketabyar/internal/auth"
	"github.com/ketabyar/ketabyar/internal/entities"
	"github.com/ketabyar/ketabyar/internal/oauth2"
	"github.com/ketabyar/ketabyar/internal/tokenstore"
)

// Session keys used to carry the authorization state between the connect
// request and the provider callback.
const (
	sessionKeyOAuthState    = "oauth_state"
	sessionKeyOAuthVerifier = "oauth_verifier"
)

// GoogleController links a reader's local account to a Google account.
// The flow handler does the protocol work; this controller only manages the
// browser round trip and keeps the state and code verifier in the session.
type GoogleController struct {
	flow           *oauth2.FlowHandler
	tokenStore     *tokenstore.TokenStore
	sessionManager *auth.SessionManager
	redirectURL    string
}

// NewGoogleController creates a new GoogleController.
func NewGoogleController(flow *oauth2.FlowHandler, store *tokenstore.TokenStore, sm *auth.SessionManager, redirectURL string) *GoogleController {
	return &GoogleController{
		flow:           flow,
		tokenStore:     store,
		sessionManager: sm,
		redirectURL:    redirectURL,
	}
}

// Connect handles POST /api/me/google/connect
// Returns the Google authorization URL the client should navigate to.
func (gc *GoogleController) Connect(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	authURL, state, verifier, err := gc.flow.StartWebFlow(gc.redirectURL)
	if err != nil {
		respondInternalError(c, err, "start google flow")
		return
	}

	ctx := c.Request.Context()
	gc.sessionManager.Put(ctx, sessionKeyOAuthState, state)
	gc.sessionManager.Put(ctx, sessionKeyOAuthVerifier, verifier)

	c.JSON(http.StatusOK, gin.H{"auth_url": authURL})
}

// Callback handles GET /api/me/google/callback
// Google redirects here with code and state after the user consents.
func (gc *GoogleController) Callback(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	if errMsg := c.Query("error"); errMsg != "" {
		respondBadRequest(c, "authorization refused: "+errMsg)
		return
	}

	code := c.Query("code")
	if code == "" {
		respondBadRequest(c, "code is required")
		return
	}

	ctx := c.Request.Context()
	expectedState := gc.sessionManager.PopString(ctx, sessionKeyOAuthState)
	verifier := gc.sessionManager.PopString(ctx, sessionKeyOAuthVerifier)

	result, err := gc.flow.CompleteWebFlow(ctx, userID, code, verifier, gc.redirectURL, expectedState, c.Query("state"))
	if err != nil {
		if errors.Is(err, oauth2.ErrStateMismatch) {
			respondBadRequest(c, "state mismatch, restart the connect flow")
			return
		}
		respondInternalError(c, err, "complete google flow")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":  true,
		"account_id": result.AccountID,
		"expires_at": result.ExpiresAt,
	})
}

// Status handles GET /api/me/google
func (gc *GoogleController) Status(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	token, err := gc.tokenStore.GetTokenForUser(userID, entities.OAuthProviderGoogle)
	if err != nil {
		respondInternalError(c, err, "google token status")
		return
	}
	if token == nil {
		c.JSON(http.StatusOK, gin.H{"connected": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":  true,
		"account_id": token.AccountID,
		"expires_at": token.ExpiresAt,
	})
}

// Disconnect handles DELETE /api/me/google
func (gc *GoogleController) Disconnect(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	token, err := gc.tokenStore.GetTokenForUser(userID, entities.OAuthProviderGoogle)
	if err != nil {
		respondInternalError(c, err, "google token lookup")
		return
	}
	if token == nil {
		respondNotFound(c, "google connection")
		return
	}

	if err := gc.tokenStore.DeleteToken(token.Provider, token.AccountID); err != nil {
		respondInternalError(c, err, "delete google token")
		return
	}

	respondSuccess(c, "google account disconnected")
}
