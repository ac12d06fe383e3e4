// Package progress tracks per-user reading positions and aggregates
// them into reading statistics.
package progress

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/ketabyar/ketabyar/internal/entities"
)

var (
	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("page number must be at least 1")
)

// Store is the persistence surface the tracker needs.
type Store interface {
	UpsertPageView(userID, bookID uint, pageNumber, totalPages int, now time.Time) (*entities.ReadingProgress, error)
	GetProgress(userID, bookID uint) (*entities.ReadingProgress, error)
	GetProgressForUser(userID uint) ([]entities.ReadingProgress, error)
	CountBooksStarted(userID uint) (int64, error)
	CountBooksCompleted(userID uint) (int64, error)
	SumCurrentPages(userID uint) (int64, error)
	CountActiveSince(userID uint, since time.Time) (int64, error)
	GetReadingDays(userID uint, since time.Time) ([]string, error)
}

// BookStore resolves the page count of a book at view time.
type BookStore interface {
	GetBookByID(id uint) (*entities.Book, error)
}

// recentWindow is how far back a book's lastReadAt may lie for it to
// count as recently active.
const recentWindow = 30 * 24 * time.Hour

// Stats is the aggregate view of one user's reading history.
type Stats struct {
	BooksStarted   int64 `json:"books_started"`
	BooksCompleted int64 `json:"books_completed"`
	TotalPagesRead int64 `json:"total_pages_read"`
	RecentlyActive int64 `json:"recently_active"`
	DayStreak      int   `json:"day_streak"`
}

// Tracker records page views and computes reading statistics.
type Tracker struct {
	store Store
	books BookStore

	now func() time.Time
}

// NewTracker creates a tracker backed by the given stores.
func NewTracker(store Store, books BookStore) *Tracker {
	return &Tracker{
		store: store,
		books: books,
		now:   time.Now,
	}
}

// RecordPageView stores the page a user is currently looking at. The
// stored position is the latest visited page, not the furthest: jumping
// back to page 3 after page 42 leaves the progress at 3.
func (t *Tracker) RecordPageView(userID, bookID uint, pageNumber int) (*entities.ReadingProgress, error) {
	if pageNumber < 1 {
		return nil, ErrInvalidPage
	}

	book, err := t.books.GetBookByID(bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load book %d: %w", bookID, err)
	}

	progress, err := t.store.UpsertPageView(userID, bookID, pageNumber, book.TotalPages, t.now())
	if err != nil {
		return nil, fmt.Errorf("failed to record page view: %w", err)
	}
	return progress, nil
}

// GetProgress returns the stored position for one book, or a zero-value
// position if the user has never opened it.
func (t *Tracker) GetProgress(userID, bookID uint) (*entities.ReadingProgress, error) {
	progress, err := t.store.GetProgress(userID, bookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entities.ReadingProgress{UserID: userID, BookID: bookID}, nil
	}
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// ListProgress returns all of a user's per-book positions.
func (t *Tracker) ListProgress(userID uint) ([]entities.ReadingProgress, error) {
	return t.store.GetProgressForUser(userID)
}

// ComputeStats aggregates a user's reading history. Statistics are
// informational: if any underlying query fails the error is logged and
// an all-zero Stats is returned, never an error.
func (t *Tracker) ComputeStats(userID uint) Stats {
	started, err := t.store.CountBooksStarted(userID)
	if err != nil {
		log.Printf("Failed to count started books for user %d: %v", userID, err)
		return Stats{}
	}

	completed, err := t.store.CountBooksCompleted(userID)
	if err != nil {
		log.Printf("Failed to count completed books for user %d: %v", userID, err)
		return Stats{}
	}

	pagesRead, err := t.store.SumCurrentPages(userID)
	if err != nil {
		log.Printf("Failed to sum pages read for user %d: %v", userID, err)
		return Stats{}
	}

	recentlyActive, err := t.store.CountActiveSince(userID, t.now().Add(-recentWindow))
	if err != nil {
		log.Printf("Failed to count recently active books for user %d: %v", userID, err)
		return Stats{}
	}

	streak, err := t.computeStreak(userID)
	if err != nil {
		log.Printf("Failed to compute reading streak for user %d: %v", userID, err)
		return Stats{}
	}

	return Stats{
		BooksStarted:   started,
		BooksCompleted: completed,
		TotalPagesRead: pagesRead,
		RecentlyActive: recentlyActive,
		DayStreak:      streak,
	}
}

// computeStreak counts consecutive reading days ending today or
// yesterday. A streak survives until a full calendar day is skipped.
func (t *Tracker) computeStreak(userID uint) (int, error) {
	now := t.now().UTC()
	since := now.AddDate(0, 0, -366)

	days, err := t.store.GetReadingDays(userID, since)
	if err != nil {
		return 0, err
	}
	if len(days) == 0 {
		return 0, nil
	}

	seen := make(map[string]bool, len(days))
	for _, d := range days {
		seen[d] = true
	}

	cursor := now
	if !seen[cursor.Format("2006-01-02")] {
		// No session today yet; a streak ending yesterday still counts.
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for seen[cursor.Format("2006-01-02")] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak, nil
}
