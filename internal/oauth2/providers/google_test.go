package providers

import (
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAuthURL(t *testing.T) {
	p := NewGoogleProvider("client-id-123", "secret")

	authURL, codeVerifier, state, err := p.BuildAuthURL("https://books.example.com/auth/google/callback")
	require.NoError(t, err)
	require.NotEmpty(t, codeVerifier)
	require.NotEmpty(t, state)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", parsed.Host)

	q := parsed.Query()
	assert.Equal(t, "client-id-123", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, state, q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "https://books.example.com/auth/google/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "email")

	// The challenge must be the S256 hash of the returned verifier.
	hash := sha256.Sum256([]byte(codeVerifier))
	expected := base64.RawURLEncoding.EncodeToString(hash[:])
	assert.Equal(t, expected, q.Get("code_challenge"))
}

func TestBuildAuthURL_UniquePerCall(t *testing.T) {
	p := NewGoogleProvider("client-id-123", "")

	_, verifier1, state1, err := p.BuildAuthURL("")
	require.NoError(t, err)
	_, verifier2, state2, err := p.BuildAuthURL("")
	require.NoError(t, err)

	assert.NotEqual(t, verifier1, verifier2)
	assert.NotEqual(t, state1, state2)
}

func TestCodeVerifierFormat(t *testing.T) {
	verifier, err := generateCodeVerifier()
	require.NoError(t, err)

	// RFC 7636 requires 43-128 characters from the unreserved set.
	assert.GreaterOrEqual(t, len(verifier), 43)
	assert.LessOrEqual(t, len(verifier), 128)
	assert.False(t, strings.ContainsAny(verifier, "+/="))
}
