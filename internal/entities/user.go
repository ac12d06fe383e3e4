package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleEditor UserRole = "editor"
	UserRoleReader UserRole = "reader"
)

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string   `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string   `gorm:"size:255" json:"-"`
	Role         UserRole `gorm:"size:20;default:'reader'" json:"role"`

	// Level controls which vocabulary glosses the reader sees.
	Level Level `gorm:"size:20;default:'beginner'" json:"level"`

	// TokenHash is the SHA-256 hash of the user's API token.
	TokenHash      string     `gorm:"index;size:64" json:"-"`
	TokenExpiresAt *time.Time `json:"-"`

	// Account lockout tracking
	FailedLogins int        `gorm:"default:0" json:"-"`
	LockedUntil  *time.Time `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// ReadingLevel returns the user's level, falling back to beginner when the
// stored value is unknown. External input (profile edits, old rows) may carry
// an invalid level; rendering must not fail because of it.
func (u *User) ReadingLevel() Level {
	if u.Level.IsValid() {
		return u.Level
	}
	return LevelBeginner
}
