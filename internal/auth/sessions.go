package auth

import (
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/ketabyar/ketabyar/internal/config"
	"github.com/ketabyar/ketabyar/internal/entities"
)

// Session keys for the signed-in reader's identity.
const (
	SessionKeyUserID   = "user_id"
	SessionKeyUsername = "username"
	SessionKeyRole     = "role"
	SessionKeyLevel    = "level"
	SessionKeyLoginAt  = "login_at"
)

func init() {
	// scs gob-encodes session values, so the custom types must be
	// registered up front.
	gob.Register(entities.UserRole(""))
	gob.Register(entities.Level(""))
	gob.Register(time.Time{})
}

// SessionManager wraps scs with the reader-identity accessors the
// handlers need.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager sets up scs backed by the sessions table in the
// main SQLite database. sqlDB is GORM's underlying *sql.DB.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession stores the reader's identity after a successful login.
// The token is renewed first to prevent session fixation.
func (sm *SessionManager) CreateSession(r *http.Request, user *entities.User) error {
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	ctx := r.Context()
	// Stored as int so GetInt can read it back.
	sm.Put(ctx, SessionKeyUserID, int(user.ID))
	sm.Put(ctx, SessionKeyUsername, user.Username)
	sm.Put(ctx, SessionKeyRole, user.Role)
	sm.Put(ctx, SessionKeyLevel, user.ReadingLevel())
	sm.Put(ctx, SessionKeyLoginAt, time.Now())
	return nil
}

// DestroySession logs the reader out.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetUserID returns the signed-in reader's ID, or 0 without a session.
func (sm *SessionManager) GetUserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyUserID))
}

func (sm *SessionManager) GetUsername(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyUsername)
}

func (sm *SessionManager) GetUserRole(r *http.Request) entities.UserRole {
	role, ok := sm.Get(r.Context(), SessionKeyRole).(entities.UserRole)
	if !ok {
		return ""
	}
	return role
}

// GetUserLevel returns the reading level stored at login. Stale or
// missing values degrade to beginner.
func (sm *SessionManager) GetUserLevel(r *http.Request) entities.Level {
	level, ok := sm.Get(r.Context(), SessionKeyLevel).(entities.Level)
	if !ok || !level.IsValid() {
		return entities.LevelBeginner
	}
	return level
}

func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetUserID(r) != 0
}

// SessionData is the full identity snapshot carried by a session.
type SessionData struct {
	UserID   uint
	Username string
	Role     entities.UserRole
	Level    entities.Level
	LoginAt  time.Time
}

// GetSessionData reads the whole snapshot, or nil without a session.
func (sm *SessionManager) GetSessionData(r *http.Request) *SessionData {
	userID := sm.GetUserID(r)
	if userID == 0 {
		return nil
	}

	loginAt, _ := sm.Get(r.Context(), SessionKeyLoginAt).(time.Time)
	return &SessionData{
		UserID:   userID,
		Username: sm.GetUsername(r),
		Role:     sm.GetUserRole(r),
		Level:    sm.GetUserLevel(r),
		LoginAt:  loginAt,
	}
}
