package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction represents the type of privileged action being audited
type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionDelete     AuditAction = "DELETE"
	AuditActionAdjustment AuditAction = "ADJUSTMENT"
)

var ErrAuditImmutable = errors.New("audit records are immutable")

// AuditRecord is one append-only row of the audit trail. The actor fields
// are denormalized so the trail stays meaningful after user edits, and
// RequestID correlates every record produced by one inbound call.
type AuditRecord struct {
	ID               uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	RequestID        string      `json:"request_id" gorm:"type:varchar(64);not null;index"`
	UserID           uuid.UUID   `json:"user_id" gorm:"type:uuid;not null"`
	UserEmail        string      `json:"user_email" gorm:"type:varchar(255);not null"`
	UserRole         Role        `json:"user_role" gorm:"type:varchar(20);not null"`
	Action           AuditAction `json:"action" gorm:"type:varchar(20);not null;index:idx_audit_entity_action,priority:2"`
	HTTPMethod       string      `json:"http_method" gorm:"type:varchar(10);not null"`
	Endpoint         string      `json:"endpoint" gorm:"type:varchar(255);not null"`
	EntityType       string      `json:"entity_type" gorm:"type:varchar(50);not null;index:idx_audit_entity_action,priority:1"`
	EntityID         *string     `json:"entity_id,omitempty" gorm:"type:varchar(100)"`
	EntityIdentifier *string     `json:"entity_identifier,omitempty" gorm:"type:varchar(255)"`
	OldValues        *string     `json:"old_values,omitempty" gorm:"type:jsonb"`
	NewValues        *string     `json:"new_values,omitempty" gorm:"type:jsonb"`
	IPAddress        *string     `json:"ip_address,omitempty" gorm:"type:varchar(45)"`
	UserAgent        *string     `json:"user_agent,omitempty" gorm:"type:varchar(500)"`
	Notes            *string     `json:"notes,omitempty" gorm:"type:varchar(1000)"`
	Timestamp        time.Time   `json:"timestamp" gorm:"autoCreateTime;index;index:idx_audit_entity_action,priority:3"`
}

func (a *AuditRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate fails closed: the trail is append-only.
func (a *AuditRecord) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditImmutable
}

// BeforeDelete fails closed: retention is handled out of band, never through
// the engine.
func (a *AuditRecord) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditImmutable
}

// EntityRef identifies the entity an audit record describes. Identifier is
// the human-readable key (SKU, location code) kept alongside the opaque id.
type EntityRef struct {
	Type       string
	ID         string
	Identifier string
}

type AuditFilter struct {
	EntityType *string
	Action     *AuditAction
	From       *time.Time
	To         *time.Time
}
