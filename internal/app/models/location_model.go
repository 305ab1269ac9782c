package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationType string

const (
	LocationTypeWarehouse LocationType = "WAREHOUSE"
	LocationTypeZone      LocationType = "ZONE"
	LocationTypeBin       LocationType = "BIN"
)

// Location is a warehouse, zone or bin. Locations may nest via ParentID and
// follow the same soft-delete discipline as items.
type Location struct {
	ID        uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Code      string       `json:"code" gorm:"type:varchar(30);uniqueIndex;not null"`
	Name      string       `json:"name" gorm:"type:varchar(255);not null"`
	Type      LocationType `json:"type" gorm:"type:varchar(20);not null;default:'WAREHOUSE'"`
	Address   *string      `json:"address,omitempty" gorm:"type:varchar(500)"`
	ParentID  *uuid.UUID   `json:"parent_id,omitempty" gorm:"type:uuid"`
	IsDeleted bool         `json:"is_deleted" gorm:"not null;default:false;index"`
	CreatedBy uuid.UUID    `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Snapshot returns the audit-relevant fields of the location.
func (l *Location) Snapshot() map[string]any {
	return map[string]any{
		"code":       l.Code,
		"name":       l.Name,
		"type":       l.Type,
		"address":    l.Address,
		"parent_id":  l.ParentID,
		"is_deleted": l.IsDeleted,
	}
}

type LocationCreateRequest struct {
	Code     string       `json:"code" validate:"required,max=30"`
	Name     string       `json:"name" validate:"required,max=255"`
	Type     LocationType `json:"type" validate:"omitempty,oneof=WAREHOUSE ZONE BIN"`
	Address  *string      `json:"address,omitempty" validate:"omitempty,max=500"`
	ParentID *string      `json:"parent_id,omitempty" validate:"omitempty,uuid"`
}

type LocationUpdateRequest struct {
	Name     *string       `json:"name,omitempty" validate:"omitempty,max=255"`
	Type     *LocationType `json:"type,omitempty" validate:"omitempty,oneof=WAREHOUSE ZONE BIN"`
	Address  *string       `json:"address,omitempty" validate:"omitempty,max=500"`
	ParentID *string       `json:"parent_id,omitempty" validate:"omitempty,uuid"`
}

type LocationFilter struct {
	Type           *LocationType
	IncludeDeleted bool
}
