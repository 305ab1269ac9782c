package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/smebase/inventory-core/internal/app/errors"
	"github.com/smebase/inventory-core/internal/app/models"
	"github.com/smebase/inventory-core/internal/app/policy"
	"github.com/smebase/inventory-core/internal/infrastructures"
	"gorm.io/gorm"
)

const entityTypeItem = "item"

type ItemService struct {
	db        *gorm.DB
	validator *infrastructures.Validator
	audit     AuditRecorder
}

func NewItemService(db *gorm.DB, validator *infrastructures.Validator, audit AuditRecorder) *ItemService {
	return &ItemService{
		db:        db,
		validator: validator,
		audit:     audit,
	}
}

// Helper to parse UUID path/body parameters with a uniform error.
func parseUUID(id, fieldName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, errors.NewValidationError(fmt.Sprintf("Invalid %s format", fieldName))
	}
	return parsed, nil
}

func (s *ItemService) CreateItem(rctx *models.RequestContext, req *models.ItemCreateRequest) (*models.Item, error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpItemCreate) {
		return nil, errors.NewForbiddenError("Item creation requires ADMIN role or higher")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var existing models.Item
	err := s.db.Where("sku = ?", req.SKU).First(&existing).Error
	if err == nil {
		return nil, errors.NewValidationError("SKU already exists")
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.NewInternalServerError(err, "Failed to check SKU uniqueness")
	}

	item := &models.Item{
		SKU:         req.SKU,
		Name:        req.Name,
		Unit:        req.Unit,
		Status:      req.Status,
		Description: req.Description,
		CreatedBy:   rctx.Principal.UserID,
	}
	if item.Unit == "" {
		item.Unit = "PCS"
	}
	if item.Status == "" {
		item.Status = models.ItemStatusActive
	}

	if err := s.db.Create(item).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to create item")
	}

	recordAudit(s.audit, rctx, models.AuditActionCreate,
		models.EntityRef{Type: entityTypeItem, ID: item.ID.String(), Identifier: item.SKU},
		nil, item.Snapshot())

	return item, nil
}

func (s *ItemService) UpdateItem(rctx *models.RequestContext, itemID string, req *models.ItemUpdateRequest) (*models.Item, error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpItemUpdate) {
		return nil, errors.NewForbiddenError("Item update requires ADMIN role or higher")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	id, err := parseUUID(itemID, "item ID")
	if err != nil {
		return nil, err
	}

	item, err := s.findItem(s.db, id, false)
	if err != nil {
		return nil, err
	}
	oldValues := item.Snapshot()

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
	if req.Description != nil {
		item.Description = req.Description
	}

	if err := s.db.Save(item).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to update item")
	}

	recordAudit(s.audit, rctx, models.AuditActionUpdate,
		models.EntityRef{Type: entityTypeItem, ID: item.ID.String(), Identifier: item.SKU},
		oldValues, item.Snapshot())

	return item, nil
}

// SoftDeleteItem hides the item from new transactions while preserving its
// ledger history. Deleting an already-deleted or absent item is NotFound.
func (s *ItemService) SoftDeleteItem(rctx *models.RequestContext, itemID string) error {
	if !policy.Permits(rctx.Principal.Role, policy.OpItemDelete) {
		return errors.NewForbiddenError("Item deletion requires ADMIN role or higher")
	}

	id, err := parseUUID(itemID, "item ID")
	if err != nil {
		return err
	}

	item, err := s.findItem(s.db, id, false)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.CodeEntityDeleted {
			return errors.NewNotFoundError("Item not found")
		}
		return err
	}
	oldValues := item.Snapshot()

	item.IsDeleted = true
	if err := s.db.Save(item).Error; err != nil {
		return errors.NewInternalServerError(err, "Failed to delete item")
	}

	recordAudit(s.audit, rctx, models.AuditActionDelete,
		models.EntityRef{Type: entityTypeItem, ID: item.ID.String(), Identifier: item.SKU},
		oldValues, item.Snapshot())

	return nil
}

func (s *ItemService) GetItem(rctx *models.RequestContext, itemID string) (*models.Item, error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpItemRead) {
		return nil, errors.NewForbiddenError("Item read requires VIEWER role or higher")
	}

	id, err := parseUUID(itemID, "item ID")
	if err != nil {
		return nil, err
	}
	// Reads resolve soft-deleted items too, so historical ledger rows keep
	// a resolvable identity.
	return s.findItem(s.db, id, true)
}

func (s *ItemService) GetItems(rctx *models.RequestContext, filter *models.ItemFilter, pagination *models.PaginationRequest) (*models.Pagination[[]models.Item], error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpItemRead) {
		return nil, errors.NewForbiddenError("Item read requires VIEWER role or higher")
	}

	pagination.Normalize()

	query := s.db.Model(&models.Item{})
	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if !filter.IncludeDeleted {
			query = query.Where("is_deleted = ?", false)
		}
	} else {
		query = query.Where("is_deleted = ?", false)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to count items")
	}

	var items []models.Item
	if err := query.Order("created_at DESC").
		Limit(pagination.Limit).
		Offset(pagination.Offset()).
		Find(&items).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to get items")
	}

	return models.NewPagination(pagination, totalItems, items), nil
}

// findItem loads an item by id. With includeDeleted false a soft-deleted
// item yields EntityDeleted, so callers can tell it apart from absence.
func (s *ItemService) findItem(tx *gorm.DB, id uuid.UUID, includeDeleted bool) (*models.Item, error) {
	var item models.Item
	err := tx.Where("id = ?", id).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("Item not found")
		}
		return nil, errors.NewInternalServerError(err, "Failed to get item")
	}
	if item.IsDeleted && !includeDeleted {
		return nil, errors.NewEntityDeletedError("Item has been deleted")
	}
	return &item, nil
}
