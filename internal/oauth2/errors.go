package oauth2

import "errors"

// Sentinel errors for the account-linking flow and token upkeep.
var (
	ErrTokenNotFound    = errors.New("no stored token for this link")
	ErrNoRefreshToken   = errors.New("link has no refresh token")
	ErrStateMismatch    = errors.New("oauth state mismatch")
	ErrProviderNotFound = errors.New("provider not registered")
)
