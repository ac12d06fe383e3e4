package http

import (
	"github.com/gin-gonic/gin"

	"github.com/ketabyar/ketabyar/internal/auth"
	"github.com/ketabyar/ketabyar/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Apply CSRF protection if auth is enabled
	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Apply session middleware if enabled
	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	// Apply auth middleware if enabled
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	// Register auth routes if auth service is available
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig)
		authController.RegisterRoutes(router)

		// API token management endpoints
		tokenController := auth.NewAPITokenController(cfg.AuthService)
		router.POST("/api/auth/token", tokenController.GenerateToken)
		router.DELETE("/api/auth/token", tokenController.RevokeToken)
	}

	// requireEditor gates editorial endpoints; with auth disabled it is a
	// pass-through, matching single-user setups.
	requireEditor := passthrough()
	requireAdmin := passthrough()
	if cfg.AuthMiddleware != nil {
		requireEditor = cfg.AuthMiddleware.RequireRole(entities.UserRoleEditor, entities.UserRoleAdmin)
		requireAdmin = cfg.AuthMiddleware.RequireRole(entities.UserRoleAdmin)
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Catalog and reading endpoints
	booksController := NewBooksController(cfg.BookStore, cfg.AuditService, cfg.Auditor, cfg.TaskClient)
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/books/search", booksController.SearchBooks)
	router.GET("/api/books/:id", booksController.GetBook)

	readerController := NewReaderController(cfg.BookStore, cfg.VocabularyStore, cfg.SessionStore, cfg.Tracker)
	router.GET("/api/books/:id/pages/:page", readerController.GetPage)
	router.POST("/api/books/:id/sessions", readerController.StartSession)
	router.POST("/api/sessions/:id/end", readerController.EndSession)

	// Editorial book and page endpoints
	editorial := router.Group("/api", requireEditor)
	editorial.POST("/books", booksController.CreateBook)
	editorial.PATCH("/books/:id", booksController.UpdateBook)
	editorial.DELETE("/books/:id", booksController.DeleteBook)
	editorial.PUT("/books/:id/pages", booksController.SavePage)
	editorial.GET("/books/:id/pages/:page/raw", booksController.GetPageRaw)
	editorial.DELETE("/pages/:id", booksController.DeletePage)

	// Vocabulary endpoints
	vocabController := NewVocabularyController(cfg.VocabularyStore, cfg.AuditService)
	router.GET("/api/vocabulary", vocabController.ListWords)
	router.GET("/api/vocabulary/search", vocabController.SearchWords)
	router.GET("/api/vocabulary/stats", vocabController.GetVocabularyStats)
	router.GET("/api/vocabulary/:id", vocabController.GetWord)
	router.GET("/api/explanations/:id", vocabController.GetExplanation)

	editorial.POST("/vocabulary", vocabController.AddWord)
	editorial.PATCH("/vocabulary/:id", vocabController.UpdateWord)
	editorial.DELETE("/vocabulary/:id", vocabController.DeleteWord)
	editorial.PUT("/vocabulary/:id/explanations", vocabController.SaveExplanation)
	editorial.DELETE("/explanations/:id", vocabController.DeleteExplanation)
	editorial.POST("/pages/:id/positions", vocabController.AddPosition)
	editorial.GET("/pages/:id/positions", vocabController.GetPositions)
	editorial.DELETE("/positions/:id", vocabController.DeletePosition)

	// Progress endpoints
	progressController := NewProgressController(cfg.Tracker)
	router.GET("/api/progress", progressController.ListProgress)
	router.GET("/api/progress/stats", progressController.GetStats)
	router.GET("/api/books/:id/progress", progressController.GetBookProgress)

	// Bookmark endpoints
	bookmarksController := NewBookmarksController(cfg.Bookmarks, cfg.AuditService)
	router.POST("/api/books/:id/bookmarks", bookmarksController.CreateBookmark)
	router.GET("/api/books/:id/bookmarks", bookmarksController.ListBookBookmarks)
	router.GET("/api/bookmarks", bookmarksController.ListBookmarks)
	router.DELETE("/api/bookmarks/:id", bookmarksController.DeleteBookmark)

	// Profile endpoints
	if cfg.AuthService != nil {
		profileController := NewProfileController(cfg.AuthService)
		router.GET("/api/me", profileController.GetProfile)
		router.PUT("/api/me/level", profileController.ChangeLevel)
		router.PUT("/api/me/password", profileController.ChangePassword)
	}

	// Google account linking
	if cfg.GoogleFlow != nil && cfg.TokenStore != nil && cfg.SessionManager != nil {
		googleController := NewGoogleController(cfg.GoogleFlow, cfg.TokenStore, cfg.SessionManager, cfg.GoogleRedirectURL)
		router.POST("/api/me/google/connect", googleController.Connect)
		router.GET("/api/me/google/callback", googleController.Callback)
		router.GET("/api/me/google", googleController.Status)
		router.DELETE("/api/me/google", googleController.Disconnect)
	}

	// Admin endpoints
	admin := router.Group("/api/admin", requireAdmin)
	if cfg.UserStore != nil {
		usersController := NewUsersController(cfg.UserStore, cfg.AuditService)
		admin.GET("/users", usersController.ListUsers)
		admin.PUT("/users/:id/role", usersController.ChangeRole)
		admin.DELETE("/users/:id", usersController.DeleteUser)
	}

	auditController := NewAuditController(cfg.AuditService)
	admin.GET("/audit", auditController.GetAuditEvents)

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		admin.GET("/tasks/types", tasksController.ListTaskTypes)
		admin.GET("/tasks/:id", tasksController.GetTaskStatus)
		admin.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}

func passthrough() gin.HandlerFunc {
	return func(c *gin.Context) { c.Next() }
}
