// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockcore/internal/core/idempotency"
	"stockcore/internal/core/security"
	"stockcore/internal/domain/audit"
	"stockcore/internal/domain/cashledger"
	"stockcore/internal/domain/costing"
	"stockcore/internal/domain/inventory"
	"stockcore/internal/domain/product"
	"stockcore/internal/domain/stockmove"
	"stockcore/internal/infrastructure/http/v1/handlers"
	"stockcore/internal/infrastructure/http/v1/middleware"
	"stockcore/internal/infrastructure/metrics"
	"stockcore/internal/infrastructure/storage/postgres"
	"stockcore/pkg/logger"
)

// RouterConfig holds everything the router wires.
type RouterConfig struct {
	Logger       *logger.Logger
	JWTValidator middleware.TokenValidator

	Inventory *inventory.Service
	Products  *product.Service
	Moves     *stockmove.Service
	Costing   *costing.Engine

	AuditReader audit.Reader
	Cash        cashledger.Lister

	// Optional: nil disables the feature.
	Idempotency idempotency.Store
	Metrics     *metrics.Metrics
	Pool        *postgres.Pool
	// Checks are pinged by /health/ready.
	Checks []handlers.Check
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: Recovery's error must reach ErrorHandler.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Checks...)
	health := router.Group("/health")
	{
		health.GET("", healthHandler.Ready)
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerProductRoutes(api, base, cfg)
	registerStockRoutes(api, base, cfg)
	registerDocumentRoutes(api, base, cfg)
	if cfg.AuditReader != nil {
		h := handlers.NewAuditHandler(base, cfg.AuditReader)
		api.GET("/audit/:entity/:entityId", h.History)
	}

	return router
}

func registerProductRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewProductHandler(base, cfg.Products, cfg.Inventory)

	products := rg.Group("/products")
	products.GET("", h.List)
	products.POST("", h.Create)
	products.GET("/low-stock", h.LowStock)
	products.GET("/:id", h.Get)
	products.PATCH("/:id", h.Update)
}

func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewStockHandler(base, cfg.Inventory, cfg.Products, cfg.Moves, cfg.Costing)

	rg.GET("/stock-moves", h.Moves)
	rg.POST("/cogs", h.Cogs)

	stock := rg.Group("/stock")
	stock.GET("/adjustments", h.Adjustments)
	stock.POST("/adjustments", middleware.RequirePrivileged(security.OpAdjustStock), h.Adjust)
	stock.POST("/opname", middleware.RequirePrivileged(security.OpOpname), h.Opname)
	stock.GET("/opname/sheet", h.OpnameSheet)
	stock.POST("/opname/import", middleware.RequirePrivileged(security.OpOpname), h.OpnameImport)
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewDocumentHandler(base, cfg.Inventory, cfg.Cash)

	sales := rg.Group("/sales")
	sales.GET("", h.ListSales)
	sales.POST("/checkout", h.Checkout)
	sales.GET("/:id", h.GetSale)
	sales.GET("/:id/cash", h.SaleCash)
	sales.PATCH("/:id/total", middleware.RequirePrivileged(security.OpEditSaleTotal), h.EditSaleTotal)

	purchases := rg.Group("/purchases")
	purchases.GET("", h.ListPurchases)
	purchases.POST("", h.CreatePurchase)
	purchases.GET("/:id", h.GetPurchase)
	purchases.GET("/:id/cash", h.PurchaseCash)
	purchases.POST("/:id/void", middleware.RequirePrivileged(security.OpVoidPurchase), h.VoidPurchase)
}
