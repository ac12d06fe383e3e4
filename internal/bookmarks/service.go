// Package bookmarks implements per-user page bookmarks with
// application-level ownership checks.
package bookmarks

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ketabyar/ketabyar/internal/entities"
)

var (
	// ErrNotFound is returned when the referenced bookmark does not exist.
	ErrNotFound = errors.New("bookmark not found")

	// ErrNotOwner is returned when a user operates on another user's bookmark.
	ErrNotOwner = errors.New("bookmark belongs to another user")

	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("page number must be at least 1")
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateBookmark(bookmark *entities.Bookmark) error
	GetBookmarkByID(id uint) (*entities.Bookmark, error)
	GetBookmarksForBook(userID, bookID uint) ([]entities.Bookmark, error)
	GetBookmarksForUser(userID uint, limit, offset int) ([]entities.Bookmark, int64, error)
	DeleteBookmark(id uint) error
}

// BookStore verifies that the bookmarked book exists.
type BookStore interface {
	GetBookByID(id uint) (*entities.Book, error)
}

// Service handles bookmark operations on behalf of one requesting user.
type Service struct {
	store Store
	books BookStore
}

// NewService creates a bookmark service.
func NewService(store Store, books BookStore) *Service {
	return &Service{store: store, books: books}
}

// Create adds a bookmark for the user. Several bookmarks on the same
// page are allowed; each carries its own note.
func (s *Service) Create(userID, bookID uint, pageNumber int, note string) (*entities.Bookmark, error) {
	if pageNumber < 1 {
		return nil, ErrInvalidPage
	}

	if _, err := s.books.GetBookByID(bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("book %d: %w", bookID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load book %d: %w", bookID, err)
	}

	bookmark := &entities.Bookmark{
		UserID:     userID,
		BookID:     bookID,
		PageNumber: pageNumber,
		Note:       note,
	}
	if err := s.store.CreateBookmark(bookmark); err != nil {
		return nil, fmt.Errorf("failed to create bookmark: %w", err)
	}
	return bookmark, nil
}

// ListForBook returns the user's bookmarks in one book, in page order.
func (s *Service) ListForBook(userID, bookID uint) ([]entities.Bookmark, error) {
	return s.store.GetBookmarksForBook(userID, bookID)
}

// ListForUser returns all of the user's bookmarks, newest first.
func (s *Service) ListForUser(userID uint, limit, offset int) ([]entities.Bookmark, int64, error) {
	return s.store.GetBookmarksForUser(userID, limit, offset)
}

// Delete removes a bookmark after verifying the requesting user owns it.
// A bookmark belonging to someone else is reported as ErrNotOwner, not
// hidden as a not-found, so the caller can log the attempt.
func (s *Service) Delete(userID, bookmarkID uint) error {
	bookmark, err := s.store.GetBookmarkByID(bookmarkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load bookmark %d: %w", bookmarkID, err)
	}

	if bookmark.UserID != userID {
		return ErrNotOwner
	}

	return s.store.DeleteBookmark(bookmarkID)
}
