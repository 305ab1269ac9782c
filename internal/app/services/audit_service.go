package services

import (
	"encoding/json"
	"fmt"

	"github.com/smebase/inventory-core/internal/app/errors"
	"github.com/smebase/inventory-core/internal/app/models"
	"github.com/smebase/inventory-core/internal/app/policy"
	"github.com/smebase/inventory-core/internal/infrastructures"
	"gorm.io/gorm"
)

// AuditRecorder is the write side of the audit trail. Business services call
// it through this interface so its failure can be isolated and tested.
type AuditRecorder interface {
	Record(rctx *models.RequestContext, action models.AuditAction, ref models.EntityRef, oldValues, newValues any) error
}

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{
		db: db,
	}
}

var _ AuditRecorder = (*AuditService)(nil)

// Record appends one audit row describing a privileged mutation. The row is
// its own transactional unit, independent of the business transaction it
// describes.
func (s *AuditService) Record(rctx *models.RequestContext, action models.AuditAction, ref models.EntityRef, oldValues, newValues any) error {
	oldJSON, err := marshalValues(oldValues)
	if err != nil {
		return fmt.Errorf("failed to marshal old values: %w", err)
	}
	newJSON, err := marshalValues(newValues)
	if err != nil {
		return fmt.Errorf("failed to marshal new values: %w", err)
	}

	record := &models.AuditRecord{
		RequestID:  rctx.RequestID,
		UserID:     rctx.Principal.UserID,
		UserEmail:  rctx.Principal.Email,
		UserRole:   rctx.Principal.Role,
		Action:     action,
		HTTPMethod: rctx.Method,
		Endpoint:   rctx.Endpoint,
		EntityType: ref.Type,
		OldValues:  oldJSON,
		NewValues:  newJSON,
	}
	if ref.ID != "" {
		record.EntityID = &ref.ID
	}
	if ref.Identifier != "" {
		record.EntityIdentifier = &ref.Identifier
	}
	if rctx.IPAddress != "" {
		record.IPAddress = &rctx.IPAddress
	}
	if rctx.UserAgent != "" {
		ua := rctx.UserAgent
		if len(ua) > 500 {
			ua = ua[:500]
		}
		record.UserAgent = &ua
	}

	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create audit record: %w", err)
	}

	return nil
}

// GetAuditLogs retrieves audit records with filters and pagination, newest
// first. ADMIN+ only.
func (s *AuditService) GetAuditLogs(rctx *models.RequestContext, filter *models.AuditFilter, pagination *models.PaginationRequest) (*models.Pagination[[]models.AuditRecord], error) {
	if !policy.Permits(rctx.Principal.Role, policy.OpAuditRead) {
		return nil, errors.NewForbiddenError("Audit log access requires ADMIN role or higher")
	}

	pagination.Normalize()

	query := s.db.Model(&models.AuditRecord{})
	if filter != nil {
		if filter.EntityType != nil {
			query = query.Where("entity_type = ?", *filter.EntityType)
		}
		if filter.Action != nil {
			query = query.Where("action = ?", *filter.Action)
		}
		if filter.From != nil {
			query = query.Where("timestamp >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("timestamp <= ?", *filter.To)
		}
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to count audit records")
	}

	var records []models.AuditRecord
	if err := query.Order("timestamp DESC").
		Limit(pagination.Limit).
		Offset(pagination.Offset()).
		Find(&records).Error; err != nil {
		return nil, errors.NewInternalServerError(err, "Failed to get audit records")
	}

	return models.NewPagination(pagination, totalItems, records), nil
}

// recordAudit is the fail-open boundary around the audit trail: a failed
// audit write is logged and counted, never surfaced to the caller whose
// business operation already succeeded.
func recordAudit(recorder AuditRecorder, rctx *models.RequestContext, action models.AuditAction, ref models.EntityRef, oldValues, newValues any) {
	if err := recorder.Record(rctx, action, ref, oldValues, newValues); err != nil {
		infrastructures.GetLogger().WithFields(map[string]any{
			"request_id":  rctx.RequestID,
			"entity_type": ref.Type,
			"entity_id":   ref.ID,
			"action":      action,
		}).Errorf("audit write failed: %v", err)
		infrastructures.AuditWriteFailures.Inc()
	}
}

func marshalValues(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
