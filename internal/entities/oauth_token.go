package entities

import (
	"time"

	"gorm.io/gorm"
)

// OAuthProvider identifies an external identity provider.
type OAuthProvider string

const (
	OAuthProviderGoogle OAuthProvider = "google"
)

// OAuthToken stores the tokens obtained during OAuth sign-in, linked to the
// local user account. Access and refresh tokens are stored as base64-encoded
// AES-256-GCM ciphertext.
type OAuthToken struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Provider  OAuthProvider  `gorm:"type:varchar(50);not null;uniqueIndex:idx_provider_account" json:"provider"`
	AccountID string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_provider_account" json:"account_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	AccessToken  string `gorm:"type:text;not null" json:"-"`
	RefreshToken string `gorm:"type:text" json:"-"`

	TokenType string     `gorm:"type:varchar(50);default:Bearer" json:"token_type"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Scope     string     `gorm:"type:text" json:"scope,omitempty"`

	LastUsedAt      *time.Time `json:"last_used_at,omitempty"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
}

func (OAuthToken) TableName() string {
	return "oauth_tokens"
}

// IsExpired checks if the access token has expired or is about to.
func (t *OAuthToken) IsExpired() bool {
	return t.IsExpiringSoon(5 * time.Minute)
}

// IsExpiringSoon reports whether the access token expires within the margin.
func (t *OAuthToken) IsExpiringSoon(margin time.Duration) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return time.Now().Add(margin).After(*t.ExpiresAt)
}

// DecryptedToken holds plaintext token values for in-memory use only.
type DecryptedToken struct {
	UserID       uint
	Provider     OAuthProvider
	AccountID    string
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    *time.Time
	Scope        string
}
