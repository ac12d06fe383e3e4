// Package bookmarks provides database operations for per-user bookmarks.
//
// This package implements the BookmarkStore interface defined in
// internal/bookmarks/service.go.
package bookmarks

import (
	"gorm.io/gorm"

	"github.com/ketabyar/ketabyar/internal/entities"
)

// Repository handles all bookmark database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new bookmarks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBookmark stores a bookmark. No uniqueness on (user, book, page):
// several bookmarks on the same page, each with its own note, are allowed.
func (r *Repository) CreateBookmark(bookmark *entities.Bookmark) error {
	return r.db.Create(bookmark).Error
}

// GetBookmarkByID retrieves a bookmark.
func (r *Repository) GetBookmarkByID(id uint) (*entities.Bookmark, error) {
	var bookmark entities.Bookmark
	err := r.db.First(&bookmark, id).Error
	if err != nil {
		return nil, err
	}
	return &bookmark, nil
}

// GetBookmarksForBook returns a user's bookmarks in one book, in page order.
func (r *Repository) GetBookmarksForBook(userID, bookID uint) ([]entities.Bookmark, error) {
	var bookmarks []entities.Bookmark
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).
		Order("page_number ASC, created_at ASC").
		Find(&bookmarks).Error
	return bookmarks, err
}

// GetBookmarksForUser returns all of a user's bookmarks with books
// preloaded, newest first, with pagination.
func (r *Repository) GetBookmarksForUser(userID uint, limit, offset int) ([]entities.Bookmark, int64, error) {
	var bookmarks []entities.Bookmark
	var total int64

	if err := r.db.Model(&entities.Bookmark{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Preload("Book").Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&bookmarks).Error
	return bookmarks, total, err
}

// DeleteBookmark removes a bookmark. Ownership is checked by the service
// layer before this is called.
func (r *Repository) DeleteBookmark(id uint) error {
	return r.db.Delete(&entities.Bookmark{}, id).Error
}
