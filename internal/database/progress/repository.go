// Package progress provides database operations for reading progress and
// reading sessions.
//
// This package implements the progress.Store interface defined in
// internal/progress/tracker.go and the SessionStore interface defined in
// internal/http/stores.go.
package progress

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ketabyar/ketabyar/internal/entities"
)

// Repository handles all reading-progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertPageView records that a user visited a page. One row per
// (user, book); currentPage is always overwritten with the visited page,
// even when moving backwards, and lastReadAt is refreshed unconditionally.
// TotalPages only ever grows: raised to max(known, pageNumber, totalPages).
func (r *Repository) UpsertPageView(userID, bookID uint, pageNumber, totalPages int, now time.Time) (*entities.ReadingProgress, error) {
	var row entities.ReadingProgress
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = entities.ReadingProgress{
			UserID:      userID,
			BookID:      bookID,
			CurrentPage: pageNumber,
			TotalPages:  maxInt(totalPages, pageNumber),
			LastReadAt:  now,
		}
		if createErr := r.db.Create(&row).Error; createErr != nil {
			return nil, createErr
		}
		return &row, nil
	}
	if err != nil {
		return nil, err
	}

	row.CurrentPage = pageNumber
	row.TotalPages = maxInt(row.TotalPages, maxInt(totalPages, pageNumber))
	row.LastReadAt = now
	if saveErr := r.db.Save(&row).Error; saveErr != nil {
		return nil, saveErr
	}
	return &row, nil
}

// GetProgress retrieves the progress row for a (user, book).
func (r *Repository) GetProgress(userID, bookID uint) (*entities.ReadingProgress, error) {
	var row entities.ReadingProgress
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetProgressForUser returns all progress rows for a user, most recently
// read first, with the book preloaded for display.
func (r *Repository) GetProgressForUser(userID uint) ([]entities.ReadingProgress, error) {
	var rows []entities.ReadingProgress
	err := r.db.Preload("Book").Where("user_id = ?", userID).
		Order("last_read_at DESC").Find(&rows).Error
	return rows, err
}

// CountBooksStarted counts the progress rows for a user.
func (r *Repository) CountBooksStarted(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.ReadingProgress{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountBooksCompleted counts books whose latest visited page has reached the
// book's total page count. Books with an unknown (zero) page count never
// count as completed.
func (r *Repository) CountBooksCompleted(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.ReadingProgress{}).
		Joins("JOIN books ON books.id = reading_progress.book_id").
		Where("reading_progress.user_id = ?", userID).
		Where("books.total_pages > 0").
		Where("reading_progress.current_page >= books.total_pages").
		Count(&count).Error
	return count, err
}

// SumCurrentPages sums the latest visited page across all of a user's books.
// An approximation of pages read: re-reading does not add.
func (r *Repository) SumCurrentPages(userID uint) (int64, error) {
	var sum int64
	err := r.db.Model(&entities.ReadingProgress{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(current_page), 0)").
		Scan(&sum).Error
	return sum, err
}

// CountActiveSince counts books read at or after the given time.
func (r *Repository) CountActiveSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&entities.ReadingProgress{}).
		Where("user_id = ? AND last_read_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

// StartSession opens a reading session for a (user, book).
func (r *Repository) StartSession(userID, bookID uint, startedAt time.Time) (*entities.ReadingSession, error) {
	session := &entities.ReadingSession{
		UserID:    userID,
		BookID:    bookID,
		StartedAt: startedAt,
	}
	if err := r.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// EndSession closes a session, recording pages read and duration.
func (r *Repository) EndSession(sessionID uint, endedAt time.Time, pagesRead int) (*entities.ReadingSession, error) {
	var session entities.ReadingSession
	if err := r.db.First(&session, sessionID).Error; err != nil {
		return nil, err
	}
	if session.EndedAt != nil {
		return &session, nil
	}

	session.EndedAt = &endedAt
	session.PagesRead = pagesRead
	session.DurationSeconds = int(endedAt.Sub(session.StartedAt).Seconds())
	if session.DurationSeconds < 0 {
		session.DurationSeconds = 0
	}

	if err := r.db.Save(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSessionByID retrieves a session.
func (r *Repository) GetSessionByID(id uint) (*entities.ReadingSession, error) {
	var session entities.ReadingSession
	err := r.db.First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// CloseStaleSessions ends every session that has been open longer than
// maxAge, crediting the time up to the cutoff. Returns the number closed.
func (r *Repository) CloseStaleSessions(maxAge time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-maxAge)

	var stale []entities.ReadingSession
	err := r.db.Where("ended_at IS NULL AND started_at < ?", cutoff).Find(&stale).Error
	if err != nil {
		return 0, err
	}

	var closed int64
	for i := range stale {
		endedAt := stale[i].StartedAt.Add(maxAge)
		stale[i].EndedAt = &endedAt
		stale[i].DurationSeconds = int(maxAge.Seconds())
		if err := r.db.Save(&stale[i]).Error; err != nil {
			return closed, err
		}
		closed++
	}
	return closed, nil
}

// GetReadingDays returns the distinct UTC days on which the user had a
// reading session, most recent first. Feeds the day-streak stat.
func (r *Repository) GetReadingDays(userID uint, since time.Time) ([]string, error) {
	var days []string
	err := r.db.Model(&entities.ReadingSession{}).
		Where("user_id = ? AND started_at >= ?", userID, since).
		Select("DISTINCT DATE(started_at)").
		Order("DATE(started_at) DESC").
		Pluck("DATE(started_at)", &days).Error
	return days, err
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
