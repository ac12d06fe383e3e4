package tokenstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ketabyar/ketabyar/internal/crypto"
	"github.com/ketabyar/ketabyar/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*TokenStore, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "tokenstore-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tempDir, "test.db")

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	store, err := New(Config{
		DatabasePath:  dbPath,
		EncryptionKey: key,
	})
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
		os.RemoveAll(tempDir)
	}

	return store, cleanup
}

func googleToken(userID uint, accountID string) *entities.DecryptedToken {
	return &entities.DecryptedToken{
		UserID:       userID,
		Provider:     entities.OAuthProviderGoogle,
		AccountID:    accountID,
		AccessToken:  "ya29.access-" + accountID,
		RefreshToken: "1//refresh-" + accountID,
		TokenType:    "Bearer",
		Scope:        "openid email profile",
	}
}

func TestNew(t *testing.T) {
	t.Run("creates store with valid config", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()
		assert.NotNil(t, store)
	})

	t.Run("fails with invalid encryption key", func(t *testing.T) {
		tempDir, _ := os.MkdirTemp("", "tokenstore-test-*")
		defer os.RemoveAll(tempDir)

		_, err := New(Config{
			DatabasePath:  filepath.Join(tempDir, "test.db"),
			EncryptionKey: "invalid-key",
		})
		assert.Error(t, err)
	})

	t.Run("generates key file if missing", func(t *testing.T) {
		tempDir, _ := os.MkdirTemp("", "tokenstore-test-*")
		defer os.RemoveAll(tempDir)

		keyPath := filepath.Join(tempDir, "new-key")
		dbPath := filepath.Join(tempDir, "test.db")

		store, err := New(Config{
			DatabasePath: dbPath,
			KeyFilePath:  keyPath,
		})
		require.NoError(t, err)
		defer store.Close()

		info, err := os.Stat(keyPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})
}

func TestSaveAndGetToken(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	t.Run("save and retrieve token", func(t *testing.T) {
		expiresAt := time.Now().Add(1 * time.Hour)
		token := googleToken(7, "reader@example.com")
		token.ExpiresAt = &expiresAt

		err := store.SaveToken(token)
		require.NoError(t, err)

		retrieved, err := store.GetToken(entities.OAuthProviderGoogle, "reader@example.com")
		require.NoError(t, err)
		require.NotNil(t, retrieved)

		assert.Equal(t, uint(7), retrieved.UserID)
		assert.Equal(t, token.Provider, retrieved.Provider)
		assert.Equal(t, token.AccountID, retrieved.AccountID)
		assert.Equal(t, token.AccessToken, retrieved.AccessToken)
		assert.Equal(t, token.RefreshToken, retrieved.RefreshToken)
		assert.Equal(t, token.TokenType, retrieved.TokenType)
		assert.Equal(t, token.Scope, retrieved.Scope)
	})

	t.Run("get non-existent token returns nil", func(t *testing.T) {
		retrieved, err := store.GetToken(entities.OAuthProviderGoogle, "nonexistent@example.com")
		require.NoError(t, err)
		assert.Nil(t, retrieved)
	})

	t.Run("re-authenticating updates the existing record", func(t *testing.T) {
		token := googleToken(9, "update@example.com")
		require.NoError(t, store.SaveToken(token))

		token.AccessToken = "ya29.rotated-access-token"
		require.NoError(t, store.SaveToken(token))

		retrieved, err := store.GetToken(entities.OAuthProviderGoogle, "update@example.com")
		require.NoError(t, err)
		assert.Equal(t, "ya29.rotated-access-token", retrieved.AccessToken)

		tokens, err := store.ListTokens(entities.OAuthProviderGoogle)
		require.NoError(t, err)

		count := 0
		for _, tok := range tokens {
			if tok.AccountID == "update@example.com" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}

func TestGetTokenForUser(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, store.SaveToken(googleToken(1, "old@example.com")))
	time.Sleep(10 * time.Millisecond) // ensure different updated_at
	require.NoError(t, store.SaveToken(googleToken(1, "new@example.com")))
	require.NoError(t, store.SaveToken(googleToken(2, "other@example.com")))

	t.Run("returns the newest token for the user", func(t *testing.T) {
		retrieved, err := store.GetTokenForUser(1, entities.OAuthProviderGoogle)
		require.NoError(t, err)
		require.NotNil(t, retrieved)
		assert.Equal(t, "new@example.com", retrieved.AccountID)
	})

	t.Run("does not leak other users tokens", func(t *testing.T) {
		retrieved, err := store.GetTokenForUser(2, entities.OAuthProviderGoogle)
		require.NoError(t, err)
		require.NotNil(t, retrieved)
		assert.Equal(t, "other@example.com", retrieved.AccountID)
	})

	t.Run("returns nil for user without tokens", func(t *testing.T) {
		retrieved, err := store.GetTokenForUser(99, entities.OAuthProviderGoogle)
		require.NoError(t, err)
		assert.Nil(t, retrieved)
	})
}

func TestDeleteToken(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, store.SaveToken(googleToken(3, "delete@example.com")))

	retrieved, err := store.GetToken(entities.OAuthProviderGoogle, "delete@example.com")
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	err = store.DeleteToken(entities.OAuthProviderGoogle, "delete@example.com")
	require.NoError(t, err)

	retrieved, err = store.GetToken(entities.OAuthProviderGoogle, "delete@example.com")
	require.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestUpdateTokenAfterRefresh(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	originalExpiry := time.Now().Add(1 * time.Hour)
	token := googleToken(4, "refresh@example.com")
	token.ExpiresAt = &originalExpiry
	require.NoError(t, store.SaveToken(token))

	newExpiry := time.Now().Add(4 * time.Hour)
	err := store.UpdateTokenAfterRefresh(
		entities.OAuthProviderGoogle,
		"refresh@example.com",
		"ya29.new-access-token",
		"", // Google only returns a refresh token on first consent
		&newExpiry,
	)
	require.NoError(t, err)

	retrieved, err := store.GetToken(entities.OAuthProviderGoogle, "refresh@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ya29.new-access-token", retrieved.AccessToken)
	assert.Equal(t, "1//refresh-refresh@example.com", retrieved.RefreshToken)
}

func TestTokenEncryption(t *testing.T) {
	tempDir, _ := os.MkdirTemp("", "tokenstore-test-*")
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")
	key, _ := crypto.GenerateKey()

	store, err := New(Config{
		DatabasePath:  dbPath,
		EncryptionKey: key,
	})
	require.NoError(t, err)

	token := googleToken(5, "encrypt@example.com")
	require.NoError(t, store.SaveToken(token))
	store.Close()

	store2, err := New(Config{
		DatabasePath:  dbPath,
		EncryptionKey: key,
	})
	require.NoError(t, err)
	defer store2.Close()

	// The raw record must never contain the plaintext tokens.
	var rawToken entities.OAuthToken
	err = store2.db.Where("account_id = ?", "encrypt@example.com").First(&rawToken).Error
	require.NoError(t, err)

	assert.NotEqual(t, token.AccessToken, rawToken.AccessToken)
	assert.NotEqual(t, token.RefreshToken, rawToken.RefreshToken)

	decrypted, err := store2.GetToken(entities.OAuthProviderGoogle, "encrypt@example.com")
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, decrypted.AccessToken)
	assert.Equal(t, token.RefreshToken, decrypted.RefreshToken)
}

func TestTokenEncryptionWithWrongKey(t *testing.T) {
	tempDir, _ := os.MkdirTemp("", "tokenstore-test-*")
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")
	key1, _ := crypto.GenerateKey()
	key2, _ := crypto.GenerateKey()

	store1, err := New(Config{
		DatabasePath:  dbPath,
		EncryptionKey: key1,
	})
	require.NoError(t, err)
	require.NoError(t, store1.SaveToken(googleToken(6, "wrongkey@example.com")))
	store1.Close()

	store2, err := New(Config{
		DatabasePath:  dbPath,
		EncryptionKey: key2,
	})
	require.NoError(t, err)
	defer store2.Close()

	_, err = store2.GetToken(entities.OAuthProviderGoogle, "wrongkey@example.com")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt")
}
