package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/ketabyar/ketabyar/internal/database/audit"
	"github.com/ketabyar/ketabyar/internal/entities"
)

// Error messages and user agents get clipped before they hit the database.
const maxAuditFieldLen = 500

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// dispatch marks the event failed when err is set, then hands it off
// asynchronously. Every Log* helper funnels through here.
func (s *Service) dispatch(event *entities.AuditEvent, err error) {
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxAuditFieldLen)
	} else if event.Status == "" {
		event.Status = entities.AuditStatusSuccess
	}
	s.LogAsync(event)
}

// LogEditorial records a content change made by an editor, such as saving a
// page, tagging a word position or replacing a level explanation.
func (s *Service) LogEditorial(userID uint, action, description, entityType string, entityID uint, metadata map[string]any, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventEditorial,
		Action:      action,
		Description: description,
		EntityType:  entityType,
		EntityID:    &entityID,
	}
	if metadata != nil {
		if body, e := json.Marshal(metadata); e == nil {
			event.Metadata = string(body)
		}
	}
	s.dispatch(event, err)
}

// LogDelete records a deletion event.
func (s *Service) LogDelete(userID uint, entityType string, entityID uint, entityName string) {
	s.dispatch(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: "Deleted " + entityType + ": " + entityName,
		EntityType:  entityType,
		EntityID:    &entityID,
	}, nil)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, maxAuditFieldLen),
		Status:    entities.AuditStatusSuccess,
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}
	s.LogAsync(event)
}

// LogAdmin records a background or administrative event, such as a scheduled
// token refresh or a maintenance task run.
func (s *Service) LogAdmin(userID uint, action, description string, err error) {
	s.dispatch(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventAdmin,
		Action:      action,
		Description: description,
	}, err)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, userID, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
