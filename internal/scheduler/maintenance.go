// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ketabyar/ketabyar/internal/tasks"
)

// MaintenanceConfig controls the periodic maintenance jobs.
type MaintenanceConfig struct {
	Enabled            bool
	ReapSchedule       string        // Cron schedule for closing stale sessions
	SessionMaxIdle     time.Duration // Sessions idle longer than this get closed
	AuditRetentionDays int
}

// MaintenanceScheduler enqueues recurring maintenance work on the task queue:
// closing abandoned reading sessions and pruning old audit events.
type MaintenanceScheduler struct {
	taskClient *tasks.Client
	config     MaintenanceConfig

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a new scheduler instance
func NewMaintenanceScheduler(taskClient *tasks.Client, config MaintenanceConfig) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		taskClient: taskClient,
		config:     config,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if maintenance is enabled
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Maintenance scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.ReapSchedule, func() {
		s.runMaintenance()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.ReapSchedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Maintenance scheduler: started with schedule '%s'", s.config.ReapSchedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Maintenance scheduler: stopped")
}

// RunNow triggers an immediate maintenance pass
func (s *MaintenanceScheduler) RunNow() {
	go s.runMaintenance()
}

// IsRunning returns whether the scheduler is active
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next maintenance pass will occur
func (s *MaintenanceScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runMaintenance enqueues the maintenance tasks. The task queue handles
// retries, so failures here are only logged.
func (s *MaintenanceScheduler) runMaintenance() {
	maxIdleMinutes := int(s.config.SessionMaxIdle / time.Minute)

	if _, err := s.taskClient.Add(tasks.CloseStaleSessionsTask{
		MaxIdleMinutes: maxIdleMinutes,
	}).Save(); err != nil {
		log.Printf("Maintenance scheduler: failed to enqueue session cleanup: %v", err)
	}

	if _, err := s.taskClient.Add(tasks.CleanupAuditEventsTask{
		RetentionDays: s.config.AuditRetentionDays,
	}).Save(); err != nil {
		log.Printf("Maintenance scheduler: failed to enqueue audit cleanup: %v", err)
	}
}
