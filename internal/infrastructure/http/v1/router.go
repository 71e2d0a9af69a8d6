// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"ebase/internal/app"
	"ebase/internal/domain/catalogs/part"
	"ebase/internal/domain/repair"
	"ebase/internal/infrastructure/http/v1/dto"
	"ebase/internal/infrastructure/http/v1/handlers"
	"ebase/internal/infrastructure/http/v1/middleware"
	"ebase/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services *app.Services

	// Logger for request logging
	Logger *logger.Logger

	// DB is pinged by the readiness probe; nil for the in-memory backend.
	DB handlers.Pinger

	// Idempotency enables X-Idempotency-Key handling when set.
	Idempotency middleware.IdempotencyStore

	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string

	// ReleaseMode switches gin to release mode.
	ReleaseMode bool

	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
	router.GET("/health", healthHandler.Live)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.UserContext())
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerCatalogRoutes(v1, base, cfg.Services)
	registerStockRoutes(v1, base, cfg.Services)
	registerDocumentRoutes(v1, base, cfg.Services)
	registerRepairRoutes(v1, base, cfg.Services)

	return router, nil
}

// registerCatalogRoutes registers the part and loaner-unit catalogs.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	{
		h := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*part.Part, dto.CreatePartRequest, dto.UpdatePartRequest]{
			Service:        svc.Parts.CatalogService,
			MapCreateDTO:   (*dto.CreatePartRequest).ToEntity,
			ApplyUpdateDTO: (*dto.UpdatePartRequest).ApplyTo,
		})
		parts := rg.Group("/parts")
		parts.POST("", h.Create)
		parts.GET("", h.List)
		parts.GET("/:id", h.Get)
		parts.PUT("/:id", h.Update)
	}

	{
		h := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*repair.Replacement, dto.CreateReplacementRequest, struct{}]{
			Service:      svc.Repairs.Replacements(),
			MapCreateDTO: (*dto.CreateReplacementRequest).ToEntity,
		})
		replacements := rg.Group("/replacements")
		replacements.POST("", h.Create)
		replacements.GET("", h.List)
		replacements.GET("/:id", h.Get)
	}
}

// registerStockRoutes registers ledger endpoints.
func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	h := handlers.NewStockHandler(base, svc.Ledger)
	stock := rg.Group("/stock")
	stock.GET("", h.List)
	stock.GET("/parts/:id/availability", h.Availability)
	stock.GET("/reconcile", h.Reconcile)
	stock.GET("/export", h.Export)
}

// registerDocumentRoutes registers supply and shipment endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	{
		h := handlers.NewSupplyHandler(base, svc.Supplies)
		supplies := rg.Group("/supplies")
		supplies.POST("", h.Create)
		supplies.GET("", h.List)
		supplies.GET("/:id", h.Get)
		supplies.DELETE("/:id", h.Delete)
	}

	{
		h := handlers.NewShipmentHandler(base, svc.Shipments)
		shipments := rg.Group("/shipments")
		shipments.POST("", h.Create)
		shipments.GET("", h.List)
		shipments.GET("/:id", h.Get)
		shipments.PUT("/:id/lines", h.ReviseLines)
		shipments.DELETE("/:id", h.Delete)
	}
}

// registerRepairRoutes registers repair and act endpoints.
func registerRepairRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	h := handlers.NewRepairHandler(base, svc.Repairs, svc.Acts)
	repairs := rg.Group("/repairs")
	repairs.POST("", h.Create)
	repairs.GET("", h.List)
	repairs.GET("/:id", h.Get)
	repairs.PUT("/:id", h.Update)
	repairs.DELETE("/:id", h.Delete)
	repairs.POST("/:id/close", h.Close)
	repairs.POST("/:id/reopen", h.Reopen)
	repairs.POST("/:id/return-replacement", h.ReturnReplacement)
	repairs.POST("/:id/acts/:kind", h.GenerateAct)
	repairs.GET("/:id/acts/:kind", h.DownloadAct)
}
