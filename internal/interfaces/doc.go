// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BookStore: Catalog and page management (internal/http/stores.go)
//   - VocabularyStore: Words, explanations and positions (internal/http/stores.go)
//   - SessionStore: Reading session lifecycle (internal/http/stores.go)
//   - UserStore: Account administration (internal/http/stores.go)
//   - progress.Store: Per-book progress rows and streak queries (internal/progress/tracker.go)
//   - bookmarks.Store: Bookmark persistence (internal/bookmarks/service.go)
//
// ## Background Task Interfaces
//
//   - tasks.SessionCloser: Closes stale reading sessions (internal/tasks/close_sessions.go)
//   - tasks.BookMaintainer: Verifies stored page counts (internal/tasks/recount_pages.go)
//   - tasks.AuditEventCleaner: Prunes expired audit events (internal/tasks/cleanup_audit.go)
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., annotations):
//
//  1. Create sub-package: internal/database/annotations/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Implement interface methods
//
//  4. Add compile-time check to checks.go:
//
//     var _ AnnotationStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
