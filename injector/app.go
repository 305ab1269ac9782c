package injector

import (
	"github.com/gofiber/fiber/v2"
	"github.com/smebase/inventory-core/internal/app/deliveries"
	"github.com/smebase/inventory-core/internal/app/middlewares"
)

// Application is the wired container of everything the HTTP surface needs.
type Application struct {
	HealthHandler       *deliveries.HealthHandler
	ItemHandler         *deliveries.ItemHandler
	LocationHandler     *deliveries.LocationHandler
	StockHandler        *deliveries.StockHandler
	AuditHandler        *deliveries.AuditHandler
	RateLimitMiddleware *middlewares.RateLimitMiddleware
}

// RegisterRoutes mounts every handler on the given Fiber router. Reads and
// mutations carry separate per-IP budgets.
func (app *Application) RegisterRoutes(router fiber.Router) {
	readLimit := app.RateLimitMiddleware.LimitByIP(middlewares.ReadAPILimit)
	mutationLimit := app.RateLimitMiddleware.LimitByIP(middlewares.MutationAPILimit)
	router.Use(func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return readLimit(c)
		}
		return mutationLimit(c)
	})

	app.HealthHandler.RegisterRoutes(router)
	app.ItemHandler.RegisterRoutes(router)
	app.LocationHandler.RegisterRoutes(router)
	app.StockHandler.RegisterRoutes(router)
	app.AuditHandler.RegisterRoutes(router)
}
