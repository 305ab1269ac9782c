package deliveries

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/smebase/inventory-core/internal/app/middlewares"
	"github.com/smebase/inventory-core/internal/app/models"
	"github.com/smebase/inventory-core/internal/app/pkg"
	"github.com/smebase/inventory-core/internal/app/services"
)

type ItemHandler struct {
	itemService    *services.ItemService
	authMiddleware *middlewares.AuthMiddleware
}

func NewItemHandler(itemService *services.ItemService, authMiddleware *middlewares.AuthMiddleware) *ItemHandler {
	return &ItemHandler{
		itemService:    itemService,
		authMiddleware: authMiddleware,
	}
}

func (h *ItemHandler) RegisterRoutes(router fiber.Router) {
	itemGroup := router.Group("/inventory/items")

	itemGroup.Post("/", h.authMiddleware.Authenticate, h.CreateItem)
	itemGroup.Get("/", h.authMiddleware.Authenticate, h.GetItems)
	itemGroup.Get("/:id", h.authMiddleware.Authenticate, h.GetItem)
	itemGroup.Put("/:id", h.authMiddleware.Authenticate, h.UpdateItem)
	itemGroup.Delete("/:id", h.authMiddleware.Authenticate, h.DeleteItem)
}

func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	var req models.ItemCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	item, err := h.itemService.CreateItem(middlewares.RequestContext(c), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.CreatedResponse(c, item)
}

func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.itemService.GetItem(middlewares.RequestContext(c), c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, item)
}

func (h *ItemHandler) GetItems(c *fiber.Ctx) error {
	pagination := parsePagination(c)

	var filter models.ItemFilter
	if status := c.Query("status"); status != "" {
		s := models.ItemStatus(status)
		filter.Status = &s
	}
	filter.IncludeDeleted = c.QueryBool("include_deleted")

	items, err := h.itemService.GetItems(middlewares.RequestContext(c), &filter, pagination)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, items)
}

func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	var req models.ItemUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	item, err := h.itemService.UpdateItem(middlewares.RequestContext(c), c.Params("id"), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, item)
}

func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	if err := h.itemService.SoftDeleteItem(middlewares.RequestContext(c), c.Params("id")); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, map[string]string{"status": "deleted"})
}

// parsePagination reads page/limit query parameters with defaults.
func parsePagination(c *fiber.Ctx) *models.PaginationRequest {
	pagination := &models.PaginationRequest{Page: 1, Limit: 10}

	if page, err := strconv.Atoi(c.Query("page", "1")); err == nil && page > 0 {
		pagination.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit", "10")); err == nil && limit > 0 {
		pagination.Limit = limit
	}

	return pagination
}
