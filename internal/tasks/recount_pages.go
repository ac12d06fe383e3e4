package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// BookMaintainer provides the page recount operations used by maintenance tasks.
type BookMaintainer interface {
	RecountTotalPages(bookID uint) (int, error)
	ListBookIDs() ([]uint, error)
}

// RecountBookPagesTask recalculates a single book's total page count after
// editorial page changes.
type RecountBookPagesTask struct {
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for page recount tasks.
func (t RecountBookPagesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "recount_book_pages",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RecountBookPagesProcessor creates a processor function for RecountBookPagesTask.
func RecountBookPagesProcessor(books BookMaintainer) backlite.QueueProcessor[RecountBookPagesTask] {
	return func(ctx context.Context, task RecountBookPagesTask) error {
		if books == nil {
			return fmt.Errorf("book maintainer not configured")
		}

		total, err := books.RecountTotalPages(task.BookID)
		if err != nil {
			return fmt.Errorf("recount pages for book %d: %w", task.BookID, err)
		}

		log.Printf("[TASK] Recounted book %d: %d pages", task.BookID, total)
		return nil
	}
}

// NewRecountBookPagesQueue creates a backlite queue for page recount tasks.
func NewRecountBookPagesQueue(books BookMaintainer) backlite.Queue {
	return backlite.NewQueue(RecountBookPagesProcessor(books))
}

// RecountAllBooksTask recalculates page counts across the whole catalogue.
type RecountAllBooksTask struct{}

// Config returns the queue configuration for bulk recount tasks.
func (t RecountAllBooksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "recount_all_books",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RecountAllBooksProcessor creates a processor function for RecountAllBooksTask.
func RecountAllBooksProcessor(books BookMaintainer) backlite.QueueProcessor[RecountAllBooksTask] {
	return func(ctx context.Context, task RecountAllBooksTask) error {
		if books == nil {
			return fmt.Errorf("book maintainer not configured")
		}

		ids, err := books.ListBookIDs()
		if err != nil {
			return fmt.Errorf("list books: %w", err)
		}

		var failed int
		for _, id := range ids {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if _, err := books.RecountTotalPages(id); err != nil {
				log.Printf("[TASK] Failed to recount book %d: %v", id, err)
				failed++
			}
		}

		log.Printf("[TASK] Recounted %d books, %d failed", len(ids)-failed, failed)
		return nil
	}
}

// NewRecountAllBooksQueue creates a backlite queue for bulk recount tasks.
func NewRecountAllBooksQueue(books BookMaintainer) backlite.Queue {
	return backlite.NewQueue(RecountAllBooksProcessor(books))
}
