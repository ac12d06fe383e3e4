package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ketabyar/ketabyar/internal/audit"
	"github.com/ketabyar/ketabyar/internal/auth"
	"github.com/ketabyar/ketabyar/internal/bookmarks"
	"github.com/ketabyar/ketabyar/internal/config"
	"github.com/ketabyar/ketabyar/internal/database"
	auditdb "github.com/ketabyar/ketabyar/internal/database/audit"
	bookmarksdb "github.com/ketabyar/ketabyar/internal/database/bookmarks"
	booksdb "github.com/ketabyar/ketabyar/internal/database/books"
	progressdb "github.com/ketabyar/ketabyar/internal/database/progress"
	usersdb "github.com/ketabyar/ketabyar/internal/database/users"
	vocabdb "github.com/ketabyar/ketabyar/internal/database/vocabulary"
	"github.com/ketabyar/ketabyar/internal/entities"
	http_controllers "github.com/ketabyar/ketabyar/internal/http"
	"github.com/ketabyar/ketabyar/internal/oauth2"
	"github.com/ketabyar/ketabyar/internal/oauth2/providers"
	"github.com/ketabyar/ketabyar/internal/progress"
	"github.com/ketabyar/ketabyar/internal/scheduler"
	"github.com/ketabyar/ketabyar/internal/tasks"
	"github.com/ketabyar/ketabyar/internal/tokenstore"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	// Wait for interrupt signal to gracefully shutdown the server with
	// a timeout of 1 second.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Ketabyar v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Repositories
	booksRepo := booksdb.NewRepository(db.DB)
	vocabRepo := vocabdb.NewRepository(db.DB)
	progressRepo := progressdb.NewRepository(db.DB)
	bookmarksRepo := bookmarksdb.NewRepository(db.DB)
	usersRepo := usersdb.NewRepository(db.DB)
	auditRepo := auditdb.NewRepository(db.DB)

	// Reading services
	tracker := progress.NewTracker(progressRepo, booksRepo)
	bookmarksService := bookmarks.NewService(bookmarksRepo, booksRepo)

	// Audit: structured events in the database plus raw upload snapshots
	auditService := audit.NewService(auditRepo)
	auditor := audit.NewAuditor(cfg.Audit.Dir)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var maintenance *scheduler.MaintenanceScheduler
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Register task queues
		taskClient.Register(
			tasks.NewCloseStaleSessionsQueue(progressRepo),
			tasks.NewCleanupAuditEventsQueue(auditService),
			tasks.NewRecountBookPagesQueue(booksRepo),
			tasks.NewRecountAllBooksQueue(booksRepo),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		// Recurring maintenance: close stale sessions and prune old audit
		// events on the configured cron schedule.
		maintenance = scheduler.NewMaintenanceScheduler(taskClient, scheduler.MaintenanceConfig{
			Enabled:            cfg.Sessions.Enabled,
			ReapSchedule:       cfg.Sessions.ReapSchedule,
			SessionMaxIdle:     cfg.Sessions.MaxIdle,
			AuditRetentionDays: cfg.Audit.RetentionDays,
		})
		if err := maintenance.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start maintenance scheduler: %v", err)
		}
	}

	// Initialize authentication if enabled
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		// Create auth service
		authService = auth.NewService(db.DB, cfg.Auth)

		// Get underlying SQL DB for session store
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}

		// Initialize session manager
		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		// Create auth middleware
		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		// Generate or use configured CSRF secret
		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			// Generate a secret
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		// Check if setup is needed
		hasUsers, _ := authService.HasUsers()
		if !hasUsers {
			log.Printf("No users found. Visit /setup to create an administrator account.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	// Google account linking, if configured
	var tokenStore *tokenstore.TokenStore
	var googleFlow *oauth2.FlowHandler
	var refreshScheduler *oauth2.RefreshScheduler
	if cfg.Google.ClientID != "" && cfg.Google.ClientSecret != "" {
		tokenStore, err = tokenstore.New(tokenstore.Config{
			DatabasePath: cfg.Database.Path,
		})
		if err != nil {
			log.Fatalf("Failed to initialize token store: %v", err)
		}
		defer func() {
			if err := tokenStore.Close(); err != nil {
				log.Printf("Error closing token store: %v", err)
			}
		}()

		providers.RegisterGoogle(cfg.Google.ClientID, cfg.Google.ClientSecret)
		googleProvider, err := oauth2.GetProvider(entities.OAuthProviderGoogle)
		if err != nil {
			log.Fatalf("Failed to resolve google provider: %v", err)
		}
		googleFlow = oauth2.NewFlowHandler(googleProvider, tokenStore)

		if cfg.OAuth2.RefreshEnabled {
			refreshScheduler = oauth2.NewRefreshScheduler(tokenStore, nil, oauth2.RefreshConfig{
				Enabled:       true,
				CheckInterval: cfg.OAuth2.CheckInterval,
				RefreshMargin: cfg.OAuth2.RefreshMargin,
			}, auditService)
			refreshScheduler.Start(context.Background())
		}
	} else {
		log.Printf("Google account linking disabled (set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET to enable)")
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:          db,
		Auditor:           auditor,
		AuditService:      auditService,
		AuthService:       authService,
		SessionManager:    sessionManager,
		AuthMiddleware:    authMiddleware,
		AuthConfig:        cfg.Auth,
		CSRFSecret:        csrfSecret,
		SecureCookies:     cfg.Auth.SecureCookies,
		BookStore:         booksRepo,
		VocabularyStore:   vocabRepo,
		SessionStore:      progressRepo,
		UserStore:         usersRepo,
		Tracker:           tracker,
		Bookmarks:         bookmarksService,
		GoogleFlow:        googleFlow,
		TokenStore:        tokenStore,
		GoogleRedirectURL: cfg.Google.RedirectURL,
		TaskClient:        taskClient,
		Version:           version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if refreshScheduler != nil {
			refreshScheduler.Stop()
		}
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
