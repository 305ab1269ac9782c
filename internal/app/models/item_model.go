package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemStatus string

const (
	ItemStatusActive   ItemStatus = "ACTIVE"
	ItemStatusInactive ItemStatus = "INACTIVE"
)

// Item is master data for a stockable SKU. Items are soft-deleted only:
// ledger entries keep referencing them after deletion.
type Item struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	SKU         string     `json:"sku" gorm:"type:varchar(50);uniqueIndex;not null"`
	Name        string     `json:"name" gorm:"type:varchar(255);not null"`
	Unit        string     `json:"unit" gorm:"type:varchar(20);not null;default:'PCS'"`
	Status      ItemStatus `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	Description *string    `json:"description,omitempty" gorm:"type:varchar(500)"`
	IsDeleted   bool       `json:"is_deleted" gorm:"not null;default:false;index"`
	CreatedBy   uuid.UUID  `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Snapshot returns the audit-relevant fields of the item.
func (i *Item) Snapshot() map[string]any {
	return map[string]any{
		"sku":         i.SKU,
		"name":        i.Name,
		"unit":        i.Unit,
		"status":      i.Status,
		"description": i.Description,
		"is_deleted":  i.IsDeleted,
	}
}

type ItemCreateRequest struct {
	SKU         string     `json:"sku" validate:"required,max=50"`
	Name        string     `json:"name" validate:"required,max=255"`
	Unit        string     `json:"unit" validate:"omitempty,max=20"`
	Status      ItemStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
}

// ItemUpdateRequest deliberately has no SKU field: a SKU is immutable once
// issued.
type ItemUpdateRequest struct {
	Name        *string     `json:"name,omitempty" validate:"omitempty,max=255"`
	Unit        *string     `json:"unit,omitempty" validate:"omitempty,max=20"`
	Status      *ItemStatus `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=500"`
}

type ItemFilter struct {
	Status         *ItemStatus
	IncludeDeleted bool
}
