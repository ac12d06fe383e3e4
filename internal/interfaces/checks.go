package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/ketabyar/ketabyar/internal/audit"
	"github.com/ketabyar/ketabyar/internal/bookmarks"
	bookmarksdb "github.com/ketabyar/ketabyar/internal/database/bookmarks"
	booksdb "github.com/ketabyar/ketabyar/internal/database/books"
	progressdb "github.com/ketabyar/ketabyar/internal/database/progress"
	usersdb "github.com/ketabyar/ketabyar/internal/database/users"
	vocabdb "github.com/ketabyar/ketabyar/internal/database/vocabulary"
	"github.com/ketabyar/ketabyar/internal/http"
	"github.com/ketabyar/ketabyar/internal/progress"
	"github.com/ketabyar/ketabyar/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// BookStore implementations
var _ http.BookStore = (*booksdb.Repository)(nil)
var _ progress.BookStore = (*booksdb.Repository)(nil)
var _ bookmarks.BookStore = (*booksdb.Repository)(nil)

// VocabularyStore implementations
var _ http.VocabularyStore = (*vocabdb.Repository)(nil)

// Progress and session stores
var _ http.SessionStore = (*progressdb.Repository)(nil)
var _ progress.Store = (*progressdb.Repository)(nil)

// Bookmark store
var _ bookmarks.Store = (*bookmarksdb.Repository)(nil)

// User store
var _ http.UserStore = (*usersdb.Repository)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

// Task queue collaborators
var _ tasks.SessionCloser = (*progressdb.Repository)(nil)
var _ tasks.BookMaintainer = (*booksdb.Repository)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
