// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations
//	├── books/           # Book catalog and page content
//	├── vocabulary/      # Words, explanations, word positions
//	├── progress/        # Reading progress and sessions
//	├── bookmarks/       # Per-user bookmarks
//	├── users/           # User management
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./ketabyar.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	vocabRepo := vocabulary.NewRepository(db.DB)
//	progressRepo := progress.NewRepository(db.DB)
//
// Repositories implement the store interfaces declared by their consumers
// (internal/http controllers, internal/progress tracker, internal/bookmarks
// service). Compile-time checks live next to each Repository:
//
//	var _ http.CatalogStore = (*books.Repository)(nil)
package database
