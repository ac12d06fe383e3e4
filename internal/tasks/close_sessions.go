package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// SessionCloser provides the ability to close abandoned reading sessions.
type SessionCloser interface {
	CloseStaleSessions(maxAge time.Duration, now time.Time) (int64, error)
}

// CloseStaleSessionsTask closes reading sessions whose reader walked away
// without ending them, so day streaks and durations stay meaningful.
type CloseStaleSessionsTask struct {
	MaxIdleMinutes int `json:"max_idle_minutes"`
}

// Config returns the queue configuration for session cleanup tasks.
func (t CloseStaleSessionsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "close_stale_sessions",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CloseStaleSessionsProcessor creates a processor function for CloseStaleSessionsTask.
func CloseStaleSessionsProcessor(closer SessionCloser) backlite.QueueProcessor[CloseStaleSessionsTask] {
	return func(ctx context.Context, task CloseStaleSessionsTask) error {
		if closer == nil {
			return fmt.Errorf("session closer not configured")
		}

		maxIdle := time.Duration(task.MaxIdleMinutes) * time.Minute
		if maxIdle <= 0 {
			maxIdle = 2 * time.Hour
		}

		closed, err := closer.CloseStaleSessions(maxIdle, time.Now())
		if err != nil {
			return fmt.Errorf("close stale sessions: %w", err)
		}

		if closed > 0 {
			log.Printf("[TASK] Closed %d stale reading sessions (idle > %v)", closed, maxIdle)
		}
		return nil
	}
}

// NewCloseStaleSessionsQueue creates a backlite queue for session cleanup tasks.
func NewCloseStaleSessionsQueue(closer SessionCloser) backlite.Queue {
	return backlite.NewQueue(CloseStaleSessionsProcessor(closer))
}
