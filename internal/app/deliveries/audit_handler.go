package deliveries

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/smebase/inventory-core/internal/app/middlewares"
	"github.com/smebase/inventory-core/internal/app/models"
	"github.com/smebase/inventory-core/internal/app/pkg"
	"github.com/smebase/inventory-core/internal/app/services"
)

type AuditHandler struct {
	auditService   *services.AuditService
	authMiddleware *middlewares.AuthMiddleware
}

func NewAuditHandler(auditService *services.AuditService, authMiddleware *middlewares.AuthMiddleware) *AuditHandler {
	return &AuditHandler{
		auditService:   auditService,
		authMiddleware: authMiddleware,
	}
}

func (h *AuditHandler) RegisterRoutes(router fiber.Router) {
	auditGroup := router.Group("/audit")

	auditGroup.Get("/logs", h.authMiddleware.Authenticate, h.GetAuditLogs)
}

func (h *AuditHandler) GetAuditLogs(c *fiber.Ctx) error {
	pagination := parsePagination(c)

	var filter models.AuditFilter
	if entityType := c.Query("entity_type"); entityType != "" {
		filter.EntityType = &entityType
	}
	if action := c.Query("action"); action != "" {
		a := models.AuditAction(action)
		filter.Action = &a
	}
	if from := c.Query("from"); from != "" {
		if ts, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &ts
		}
	}
	if to := c.Query("to"); to != "" {
		if ts, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &ts
		}
	}

	logs, err := h.auditService.GetAuditLogs(middlewares.RequestContext(c), &filter, pagination)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, logs)
}
