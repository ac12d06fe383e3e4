package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "reader passphrase",
			password: "khayyam-rubaiyat-101",
			wantErr:  nil,
		},
		{
			name:     "too short",
			password: "ketab",
			wantErr:  ErrPasswordTooShort,
		},
		{
			// The minimum is measured in bytes. Six Persian letters
			// encode to twelve UTF-8 bytes and just clear it.
			name:     "persian passphrase at byte minimum",
			password: "کتابخو",
			wantErr:  nil,
		},
		{
			name:     "five persian letters miss the byte minimum",
			password: "کتابخ",
			wantErr:  ErrPasswordTooShort,
		},
		{
			name:     "over bcrypt's 72-byte limit",
			password: strings.Repeat("k", 73),
			wantErr:  ErrPasswordTooLong,
		},
		{
			name:     "exactly at bcrypt's limit",
			password: strings.Repeat("k", 72),
			wantErr:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, 4)
			if err != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil && hash == "" {
				t.Error("HashPassword() returned empty hash")
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	const password = "khayyam-rubaiyat-101"
	hash, err := HashPassword(password, 4)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "correct password", password: password, wantErr: nil},
		{name: "wrong password", password: "hafez-divan-101", wantErr: ErrInvalidPassword},
		{name: "empty password", password: "", wantErr: ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckPassword(tt.password, hash); err != tt.wantErr {
				t.Errorf("CheckPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateAPIToken(t *testing.T) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		t.Fatalf("GenerateAPIToken() error = %v", err)
	}

	// 32 random bytes hex-encoded, and a SHA-256 hex digest.
	if len(plaintext) != 64 {
		t.Errorf("Token length = %d, want 64", len(plaintext))
	}
	if len(hash) != 64 {
		t.Errorf("Hash length = %d, want 64", len(hash))
	}
	if HashToken(plaintext) != hash {
		t.Error("HashToken(plaintext) does not match returned hash")
	}

	plaintext2, _, err := GenerateAPIToken()
	if err != nil {
		t.Fatalf("Second GenerateAPIToken() error = %v", err)
	}
	if plaintext == plaintext2 {
		t.Error("two generated tokens collided")
	}
}

func TestGenerateSessionSecret(t *testing.T) {
	secret, err := GenerateSessionSecret()
	if err != nil {
		t.Fatalf("GenerateSessionSecret() error = %v", err)
	}
	if len(secret) != 64 {
		t.Errorf("Secret length = %d, want 64", len(secret))
	}

	secret2, err := GenerateSessionSecret()
	if err != nil {
		t.Fatalf("Second GenerateSessionSecret() error = %v", err)
	}
	if secret == secret2 {
		t.Error("two generated secrets collided")
	}
}
