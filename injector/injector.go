//go:build wireinject
// +build wireinject

package injector

import (
	"github.com/google/wire"
	"github.com/smebase/inventory-core/internal/app/deliveries"
	"github.com/smebase/inventory-core/internal/app/middlewares"
	"github.com/smebase/inventory-core/internal/app/services"
	"github.com/smebase/inventory-core/internal/infrastructures"
)

// Infrastructure providers
var infrastructureSet = wire.NewSet(
	infrastructures.GetConfig,
	infrastructures.NewDatabase,
	infrastructures.NewRedisClient,
	infrastructures.NewValidator,
	wire.Value("inventory"),
	wire.Bind(new(middlewares.RateLimiter), new(*middlewares.RedisRateLimiter)),
	middlewares.NewRedisRateLimiter,
)

// Service providers
var serviceSet = wire.NewSet(
	services.NewAuditService,
	wire.Bind(new(services.AuditRecorder), new(*services.AuditService)),
	services.NewStockService,
	services.NewLedgerService,
	services.NewItemService,
	services.NewLocationService,
)

// Middleware providers
var middlewareSet = wire.NewSet(
	middlewares.NewAuthMiddleware,
	middlewares.NewRateLimitMiddleware,
)

// Handler providers
var handlerSet = wire.NewSet(
	deliveries.NewHealthHandler,
	deliveries.NewItemHandler,
	deliveries.NewLocationHandler,
	deliveries.NewStockHandler,
	deliveries.NewAuditHandler,
	wire.Struct(new(Application), "*"),
)

// InitializeApplication initializes the application with all its dependencies
func InitializeApplication() (*Application, error) {
	wire.Build(
		infrastructureSet,
		serviceSet,
		middlewareSet,
		handlerSet,
	)
	return &Application{}, nil
}
