package http

import (
	"github.com/ketabyar/ketabyar/internal/audit"
	"github.com/ketabyar/ketabyar/internal/auth"
	"github.com/ketabyar/ketabyar/internal/bookmarks"
	"github.com/ketabyar/ketabyar/internal/config"
	"github.com/ketabyar/ketabyar/internal/database"
	"github.com/ketabyar/ketabyar/internal/oauth2"
	"github.com/ketabyar/ketabyar/internal/progress"
	"github.com/ketabyar/ketabyar/internal/tasks"
	"github.com/ketabyar/ketabyar/internal/tokenstore"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces the long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database     *database.Database
	Auditor      *audit.Auditor
	AuditService *audit.Service

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Stores
	BookStore       BookStore
	VocabularyStore VocabularyStore
	SessionStore    SessionStore
	UserStore       UserStore

	// Reading services
	Tracker   *progress.Tracker
	Bookmarks *bookmarks.Service

	// Google account linking (optional)
	GoogleFlow        *oauth2.FlowHandler
	TokenStore        *tokenstore.TokenStore
	GoogleRedirectURL string

	// Task queue client (optional)
	TaskClient *tasks.Client

	// Application info
	Version string
}
