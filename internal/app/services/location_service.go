package services

import (
	"github.com/google/uuid"
	"github.com/smebase/inventory-core/internal/app/errors"
	"github.com/smebase/inventory-core/internal/app/models"
	"github.com/smebase/inventory-core/internal/app/policy"
	"github.com/smebase/inventory-core/internal/infrastructures"
	"gorm.io/gorm"
)

const entityTypeLocation = "location"

type LocationService struct {
	db        *gorm.DB
	validator *infrastructures.Validator
	audit     AuditRecorder
}

func NewLocationService(db *gorm.DB, validator *infrastructures.Validator, audit AuditRecorder) *LocationService {
	return &LocationService{
		db:        db,
		validator: validator,
		audit:     audit,
	}
}

func (s *LocationService) CreateLocation(rctx *models.RequestContext, req *models.LocationCreateRequest) (*models.Location, error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpLocationCreate) {
		return nil, errors.NewForbiddenError("Location creation requires ADMIN role or higher")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var existing models.Location
	err := s.db.Where("code = ?", req.Code).First(&existing).Error
	if err == nil {
		return nil, errors.NewValidationError("Location code already exists")
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.NewInternalServerError(err, "Failed to check code uniqueness")
	}

	location := &models.Location{
		Code:      req.Code,
		Name:      req.Name,
		Type:      req.Type,
		Address:   req.Address,
		CreatedBy: rctx.Principal.UserID,
	}
	if location.Type == "" {
		location.Type = models.LocationTypeWarehouse
	}

	if req.ParentID != nil {
		parentID, err := s.resolveParent(*req.ParentID, uuid.Nil)
		if err != nil {
			return nil, err
		}
		location.ParentID = parentID
	}

	if err := s.db.Create(location).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to create location")
	}

	recordAudit(s.audit, rctx, models.AuditActionCreate,
		models.EntityRef{Type: entityTypeLocation, ID: location.ID.String(), Identifier: location.Code},
		nil, location.Snapshot())

	return location, nil
}

func (s *LocationService) UpdateLocation(rctx *models.RequestContext, locationID string, req *models.LocationUpdateRequest) (*models.Location, error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpLocationUpdate) {
		return nil, errors.NewForbiddenError("Location update requires ADMIN role or higher")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	id, err := parseUUID(locationID, "location ID")
	if err != nil {
		return nil, err
	}

	location, err := s.findLocation(s.db, id, false)
	if err != nil {
		return nil, err
	}
	oldValues := location.Snapshot()

	if req.Name != nil {
		location.Name = *req.Name
	}
	if req.Type != nil {
		location.Type = *req.Type
	}
	if req.Address != nil {
		location.Address = req.Address
	}
	if req.ParentID != nil {
		parentID, err := s.resolveParent(*req.ParentID, location.ID)
		if err != nil {
			return nil, err
		}
		location.ParentID = parentID
	}

	if err := s.db.Save(location).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to update location")
	}

	recordAudit(s.audit, rctx, models.AuditActionUpdate,
		models.EntityRef{Type: entityTypeLocation, ID: location.ID.String(), Identifier: location.Code},
		oldValues, location.Snapshot())

	return location, nil
}

func (s *LocationService) SoftDeleteLocation(rctx *models.RequestContext, locationID string) error {
	if !policy.Permits(rctx.Principal.Role, policy.OpLocationDelete) {
		return errors.NewForbiddenError("Location deletion requires ADMIN role or higher")
	}

	id, err := parseUUID(locationID, "location ID")
	if err != nil {
		return err
	}

	location, err := s.findLocation(s.db, id, false)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.CodeEntityDeleted {
			return errors.NewNotFoundError("Location not found")
		}
		return err
	}
	oldValues := location.Snapshot()

	location.IsDeleted = true
	if err := s.db.Save(location).Error; err != nil {
		return errors.NewInternalServerError(err, "Failed to delete location")
	}

	recordAudit(s.audit, rctx, models.AuditActionDelete,
		models.EntityRef{Type: entityTypeLocation, ID: location.ID.String(), Identifier: location.Code},
		oldValues, location.Snapshot())

	return nil
}

func (s *LocationService) GetLocation(rctx *models.RequestContext, locationID string) (*models.Location, error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpLocationRead) {
		return nil, errors.NewForbiddenError("Location read requires VIEWER role or higher")
	}

	id, err := parseUUID(locationID, "location ID")
	if err != nil {
		return nil, err
	}
	return s.findLocation(s.db, id, true)
}

func (s *LocationService) GetLocations(rctx *models.RequestContext, filter *models.LocationFilter, pagination *models.PaginationRequest) (*models.Pagination[[]models.Location], error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpLocationRead) {
		return nil, errors.NewForbiddenError("Location read requires VIEWER role or higher")
	}

	pagination.Normalize()

	query := s.db.Model(&models.Location{})
	if filter != nil {
		if filter.Type != nil {
			query = query.Where("type = ?", *filter.Type)
		}
		if !filter.IncludeDeleted {
			query = query.Where("is_deleted = ?", false)
		}
	} else {
		query = query.Where("is_deleted = ?", false)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to count locations")
	}

	var locations []models.Location
	if err := query.Order("created_at DESC").
		Limit(pagination.Limit).
		Offset(pagination.Offset()).
		Find(&locations).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to get locations")
	}

	return models.NewPagination(pagination, totalItems, locations), nil
}

// resolveParent validates a parent reference: it must exist, not be deleted
// and not be the location itself.
func (s *LocationService) resolveParent(parentID string, self uuid.UUID) (*uuid.UUID, error) {
	id, err := parseUUID(parentID, "parent location ID")
	if err != nil {
		return nil, err
	}
	if self != uuid.Nil && id == self {
		return nil, errors.NewValidationError("Location cannot be its own parent")
	}
	parent, err := s.findLocation(s.db, id, false)
	if err != nil {
		return nil, err
	}
	return &parent.ID, nil
}

func (s *LocationService) findLocation(tx *gorm.DB, id uuid.UUID, includeDeleted bool) (*models.Location, error) {
	var location models.Location
	err := tx.Where("id = ?", id).First(&location).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("Location not found")
		}
		return nil, errors.NewInternalServerError(err, "Failed to get location")
	}
	if location.IsDeleted && !includeDeleted {
		return nil, errors.NewEntityDeletedError("Location has been deleted")
	}
	return &location, nil
}
