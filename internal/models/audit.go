package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions
const (
	AuditActionViewMount = "view.mount"
)

// Audit outcomes
const (
	AuditOutcomeStudies   = "studies"
	AuditOutcomeRetrieval = "retrieval"
	AuditOutcomeError     = "error"
	AuditOutcomeAbandoned = "abandoned"
)

// AuditLog records the outcome of a viewer mount
type AuditLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID    uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	Action       string    `gorm:"type:varchar(100);not null;index" json:"action"`
	ImageID      string    `gorm:"type:text" json:"image_id"`
	Outcome      string    `gorm:"type:varchar(20);index" json:"outcome"`
	StudyCount   int       `json:"study_count"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	Duration     int64     `json:"duration_ms"`
	CreatedAt    time.Time `gorm:"index" json:"timestamp"`
}

// TableName overrides the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate hook
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
