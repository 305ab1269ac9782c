package deliveries

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/smebase/inventory-core/internal/app/middlewares"
	"github.com/smebase/inventory-core/internal/app/models"
	"github.com/smebase/inventory-core/internal/app/pkg"
	"github.com/smebase/inventory-core/internal/app/services"
)

type StockHandler struct {
	ledgerService  *services.LedgerService
	stockService   *services.StockService
	authMiddleware *middlewares.AuthMiddleware
}

func NewStockHandler(ledgerService *services.LedgerService, stockService *services.StockService, authMiddleware *middlewares.AuthMiddleware) *StockHandler {
	return &StockHandler{
		ledgerService:  ledgerService,
		stockService:   stockService,
		authMiddleware: authMiddleware,
	}
}

func (h *StockHandler) RegisterRoutes(router fiber.Router) {
	stockGroup := router.Group("/inventory/stock")

	stockGroup.Post("/in", h.authMiddleware.Authenticate, h.StockIn)
	stockGroup.Post("/out", h.authMiddleware.Authenticate, h.StockOut)
	stockGroup.Post("/transfer", h.authMiddleware.Authenticate, h.Transfer)
	stockGroup.Post("/adjustment", h.authMiddleware.Authenticate, h.Adjustment)

	stockGroup.Get("/current", h.authMiddleware.Authenticate, h.CurrentStock)
	stockGroup.Get("/ledger", h.authMiddleware.Authenticate, h.LedgerHistory)
}

func (h *StockHandler) StockIn(c *fiber.Ctx) error {
	var req models.StockInRequest
	if err := c.BodyParser(&req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	entry, err := h.ledgerService.StockIn(middlewares.RequestContext(c), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.CreatedResponse(c, entry)
}

func (h *StockHandler) StockOut(c *fiber.Ctx) error {
	var req models.StockOutRequest
	if err := c.BodyParser(&req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	entry, err := h.ledgerService.StockOut(middlewares.RequestContext(c), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.CreatedResponse(c, entry)
}

func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var req models.StockTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	transfer, err := h.ledgerService.Transfer(middlewares.RequestContext(c), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.CreatedResponse(c, transfer)
}

func (h *StockHandler) Adjustment(c *fiber.Ctx) error {
	var req models.StockAdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return pkg.ErrorResponse(c, err)
	}

	entry, err := h.ledgerService.Adjust(middlewares.RequestContext(c), &req)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.CreatedResponse(c, entry)
}

// CurrentStock serves both shapes of the projection: a single (item,
// location) quantity when both ids are given, otherwise a grouped snapshot.
func (h *StockHandler) CurrentStock(c *fiber.Ctx) error {
	rctx := middlewares.RequestContext(c)
	itemID := c.Query("item_id")
	locationID := c.Query("location_id")

	if itemID != "" && locationID != "" {
		qty, err := h.stockService.CurrentStock(rctx, itemID, locationID)
		if err != nil {
			return pkg.ErrorResponse(c, err)
		}
		return pkg.SuccessResponse(c, map[string]int64{"quantity": qty})
	}

	var filter models.StockFilter
	if itemID != "" {
		id, err := uuid.Parse(itemID)
		if err == nil {
			filter.ItemID = &id
		}
	}
	if locationID != "" {
		id, err := uuid.Parse(locationID)
		if err == nil {
			filter.LocationID = &id
		}
	}

	levels, err := h.stockService.Snapshot(rctx, &filter)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, levels)
}

func (h *StockHandler) LedgerHistory(c *fiber.Ctx) error {
	pagination := parsePagination(c)

	var filter models.LedgerFilter
	if itemID := c.Query("item_id"); itemID != "" {
		if id, err := uuid.Parse(itemID); err == nil {
			filter.ItemID = &id
		}
	}
	if locationID := c.Query("location_id"); locationID != "" {
		if id, err := uuid.Parse(locationID); err == nil {
			filter.LocationID = &id
		}
	}
	if txType := c.Query("type"); txType != "" {
		t := models.TransactionType(txType)
		filter.Type = &t
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

	history, err := h.ledgerService.History(middlewares.RequestContext(c), &filter, pagination)
	if err != nil {
		return pkg.ErrorResponse(c, err)
	}

	return pkg.SuccessResponse(c, history)
}
