// Package tokenstore persists the OAuth tokens of linked Google
// accounts, encrypted with AES-256-GCM before they touch disk.
package tokenstore

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ketabyar/ketabyar/internal/crypto"
	"github.com/ketabyar/ketabyar/internal/entities"
)

const (
	// EnvEncryptionKey names the environment variable holding the
	// base64 encryption key.
	EnvEncryptionKey = "TOKEN_ENCRYPTION_KEY"

	// DefaultKeyFileName is where a generated key lands in the home
	// directory when no key is configured.
	DefaultKeyFileName = ".ketabyar-token-key"
)

// TokenStore holds encrypted tokens keyed by provider and account.
// A token row belongs to the reader who linked the account.
type TokenStore struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
}

// Config for opening a token store.
type Config struct {
	// DatabasePath is the SQLite file holding the token table.
	DatabasePath string

	// EncryptionKey is the base64-encoded 32-byte key. When empty the
	// key comes from TOKEN_ENCRYPTION_KEY or the key file.
	EncryptionKey string

	// KeyFilePath overrides the default ~/.ketabyar-token-key location.
	KeyFilePath string
}

// New opens the store, resolving the encryption key and migrating the
// token table.
func New(cfg Config) (*TokenStore, error) {
	key, err := resolveEncryptionKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}

	encryptor, err := crypto.NewEncryptorFromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&entities.OAuthToken{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &TokenStore{db: db, encryptor: encryptor}, nil
}

// resolveEncryptionKey picks the key by priority: explicit config, then
// environment, then key file. With none present a key is generated and
// written to the key file so restarts can still decrypt stored tokens.
func resolveEncryptionKey(cfg Config) (string, error) {
	if cfg.EncryptionKey != "" {
		return cfg.EncryptionKey, nil
	}
	if envKey := os.Getenv(EnvEncryptionKey); envKey != "" {
		return envKey, nil
	}

	keyFilePath := cfg.KeyFilePath
	if keyFilePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		keyFilePath = filepath.Join(homeDir, DefaultKeyFileName)
	}

	if data, err := os.ReadFile(keyFilePath); err == nil {
		return string(data), nil
	}

	newKey, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate encryption key: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(newKey), 0600); err != nil {
		return "", fmt.Errorf("failed to save encryption key to %s: %w", keyFilePath, err)
	}

	log.Printf("Generated new token encryption key and saved to %s", keyFilePath)
	return newKey, nil
}

// SaveToken encrypts and upserts a token. Keyed by provider and account
// so relinking the same Google account replaces its tokens instead of
// stacking rows.
func (s *TokenStore) SaveToken(token *entities.DecryptedToken) error {
	encAccess, encRefresh, err := s.encryptPair(token.AccessToken, token.RefreshToken)
	if err != nil {
		return err
	}

	row := &entities.OAuthToken{
		UserID:       token.UserID,
		Provider:     token.Provider,
		AccountID:    token.AccountID,
		AccessToken:  encAccess,
		RefreshToken: encRefresh,
		TokenType:    token.TokenType,
		ExpiresAt:    token.ExpiresAt,
		Scope:        token.Scope,
	}

	result := s.db.Where("provider = ? AND account_id = ?", token.Provider, token.AccountID).
		Assign(map[string]interface{}{
			"user_id":       token.UserID,
			"access_token":  encAccess,
			"refresh_token": encRefresh,
			"token_type":    token.TokenType,
			"expires_at":    token.ExpiresAt,
			"scope":         token.Scope,
			"updated_at":    time.Now(),
		}).
		FirstOrCreate(row)
	if result.Error != nil {
		return fmt.Errorf("failed to save token: %w", result.Error)
	}
	return nil
}

// GetToken loads and decrypts one token. A missing row yields (nil, nil).
func (s *TokenStore) GetToken(provider entities.OAuthProvider, accountID string) (*entities.DecryptedToken, error) {
	var row entities.OAuthToken
	err := s.db.Where("provider = ? AND account_id = ?", provider, accountID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return s.decryptToken(&row)
}

// GetTokenForUser loads the newest token a reader holds for a provider.
func (s *TokenStore) GetTokenForUser(userID uint, provider entities.OAuthProvider) (*entities.DecryptedToken, error) {
	var row entities.OAuthToken
	err := s.db.Where("user_id = ? AND provider = ?", userID, provider).
		Order("updated_at DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return s.decryptToken(&row)
}

// ListTokens returns a provider's tokens still encrypted, for callers
// that only need expiry metadata.
func (s *TokenStore) ListTokens(provider entities.OAuthProvider) ([]entities.OAuthToken, error) {
	var tokens []entities.OAuthToken
	if err := s.db.Where("provider = ?", provider).Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// DeleteToken removes a linked account's token, severing the link.
func (s *TokenStore) DeleteToken(provider entities.OAuthProvider, accountID string) error {
	err := s.db.Where("provider = ? AND account_id = ?", provider, accountID).
		Delete(&entities.OAuthToken{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// UpdateLastUsed stamps last_used_at after a token is handed out.
func (s *TokenStore) UpdateLastUsed(provider entities.OAuthProvider, accountID string) error {
	err := s.db.Model(&entities.OAuthToken{}).
		Where("provider = ? AND account_id = ?", provider, accountID).
		Update("last_used_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}
	return nil
}

// UpdateTokenAfterRefresh stores a refreshed access token. The refresh
// token is only replaced when the provider issued a new one.
func (s *TokenStore) UpdateTokenAfterRefresh(provider entities.OAuthProvider, accountID string, newAccessToken string, newRefreshToken string, expiresAt *time.Time) error {
	encAccess, err := s.encryptor.Encrypt(newAccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	updates := map[string]interface{}{
		"access_token":      encAccess,
		"expires_at":        expiresAt,
		"last_refreshed_at": time.Now(),
	}
	if newRefreshToken != "" {
		encRefresh, err := s.encryptor.Encrypt(newRefreshToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		updates["refresh_token"] = encRefresh
	}

	err = s.db.Model(&entities.OAuthToken{}).
		Where("provider = ? AND account_id = ?", provider, accountID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update token: %w", err)
	}
	return nil
}

func (s *TokenStore) encryptPair(accessToken, refreshToken string) (string, string, error) {
	encAccess, err := s.encryptor.Encrypt(accessToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encRefresh, err := s.encryptor.Encrypt(refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt refresh token: %w", err)
	}
	return encAccess, encRefresh, nil
}

func (s *TokenStore) decryptToken(row *entities.OAuthToken) (*entities.DecryptedToken, error) {
	accessToken, err := s.encryptor.Decrypt(row.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refreshToken, err := s.encryptor.Decrypt(row.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	return &entities.DecryptedToken{
		UserID:       row.UserID,
		Provider:     row.Provider,
		AccountID:    row.AccountID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    row.TokenType,
		ExpiresAt:    row.ExpiresAt,
		Scope:        row.Scope,
	}, nil
}

// Close releases the underlying database handle.
func (s *TokenStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
