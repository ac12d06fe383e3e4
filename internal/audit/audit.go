package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Auditor keeps raw copies of uploaded editorial payloads on disk so a bad
// import can be replayed or inspected after the fact.
type Auditor struct {
	AuditDir string
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
	}
}

// SaveJSON writes the payload to the snapshot directory under a fresh UUID
// filename and returns that filename so callers can record it alongside the
// imported row.
func (a *Auditor) SaveJSON(payload any) (string, error) {
	if err := os.MkdirAll(a.AuditDir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}

	filename := uuid.New().String() + ".json"
	path := filepath.Join(a.AuditDir, filename)

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot payload: %w", err)
	}

	log.Printf("Snapshotting upload to %s", path)
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("write snapshot file: %w", err)
	}

	return filename, nil
}
