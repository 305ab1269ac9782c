package deliveries

import (
	"github.com/gofiber/fiber/v2"
	"github.com/smebase/inventory-core/internal/app/middlewares"
	"github.com/smebase/inventory-core/internal/app/models"
	"github.com/smebase/inventory-core/internal/app/pkg"
	"github.com/smebase/inventory-core/internal/app/services"
)

type LocationHandler struct {
	locationService *services.LocationService
	authMiddleware  *middlewares.AuthMiddleware
}

func NewLocationHandler(locationService *services.LocationService, authMiddleware *middlewares.AuthMiddleware) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		authMiddleware:  authMiddleware,
	}
}

func (h *LocationHandler) RegisterRoutes(router fiber.Router) {
	locationGroup := router.Group("/inventory/locations")

	locationGroup.Post("/", h.authMiddleware.Authenticate, h.CreateLocation)
	locationGroup.Get("/", h.authMiddleware.Authenticate, h.GetLocations)
	locationGroup.Get("/:id", h.authMiddleware.Authenticate, h.GetLocation)
	locationGroup.Put("/:id", h.authMiddleware.Authenticate, h.UpdateLocation)
	locationGroup.Delete("/:id", h.authMiddleware.Authenticate, h.DeleteLocation)
}

func (h *LocationHandler) CreateLocation(c *fiber.Ctx) error {
	var req models.LocationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	location, err := h.locationService.CreateLocation(middlewares.RequestContext(c), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.CreatedResponse(c, location)
}

func (h *LocationHandler) GetLocation(c *fiber.Ctx) error {
	location, err := h.locationService.GetLocation(middlewares.RequestContext(c), c.Params("id"))
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, location)
}

func (h *LocationHandler) GetLocations(c *fiber.Ctx) error {
	pagination := parsePagination(c)

	var filter models.LocationFilter
	if locType := c.Query("type"); locType != "" {
		t := models.LocationType(locType)
		filter.Type = &t
	}
	filter.IncludeDeleted = c.QueryBool("include_deleted")

	locations, err := h.locationService.GetLocations(middlewares.RequestContext(c), &filter, pagination)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, locations)
}

func (h *LocationHandler) UpdateLocation(c *fiber.Ctx) error {
	var req models.LocationUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	location, err := h.locationService.UpdateLocation(middlewares.RequestContext(c), c.Params("id"), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, location)
}

func (h *LocationHandler) DeleteLocation(c *fiber.Ctx) error {
	if err := h.locationService.SoftDeleteLocation(middlewares.RequestContext(c), c.Params("id")); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, map[string]string{"status": "deleted"})
}
