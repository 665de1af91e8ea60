// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"aurum/internal/domain/audit"
	"aurum/internal/domain/catalogs/account"
	"aurum/internal/domain/catalogs/item"
	"aurum/internal/domain/catalogs/party"
	"aurum/internal/domain/documents/invoice"
	"aurum/internal/domain/documents/purchase"
	"aurum/internal/domain/documents/returns"
	"aurum/internal/domain/ledgers/gold"
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/domain/ledgers/stock"
	"aurum/internal/domain/reconcile"
	"aurum/internal/infrastructure/http/v1/handlers"
	"aurum/internal/infrastructure/http/v1/middleware"
	"aurum/internal/infrastructure/storage/postgres"
	"aurum/pkg/logger"
)

// RouterConfig holds the wired services the API serves.
// Repositories and services are constructed once in cmd/server, against
// either the Postgres pool or the in-memory store.
type RouterConfig struct {
	// Pool is nil when running on the in-memory store
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// Catalogs
	Accounts *account.Service
	Items    *item.Service
	Parties  *party.Service

	// Documents
	Purchases *purchase.Service
	Invoices  *invoice.Service
	Returns   *returns.Service

	// Ledgers
	StockLedger *stock.Service
	MoneyLedger *money.Service
	GoldLedger  *gold.Service

	// Reconciliation and audit
	Reconcile *reconcile.Service
	Audit     *audit.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no identity required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1: identity comes from headers, auth happens upstream
	api := router.Group("/api/v1")
	api.Use(middleware.UserContext())
	{
		registerCatalogRoutes(api, cfg)
		registerDocumentRoutes(api, cfg)
		registerLedgerRoutes(api, cfg)
		registerReconcileRoutes(api, cfg)
		registerAuditRoutes(api, cfg)
	}

	return router
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	// --- ACCOUNTS ---
	{
		handler := handlers.NewAccountHandler(baseHandler, cfg.Accounts)
		group := catalogs.Group("/accounts")
		RegisterCatalogRoutes(group, handler)
		group.GET("/system/:classification", handler.GetSystem)
	}

	// --- ITEMS ---
	{
		handler := handlers.NewItemHandler(baseHandler, cfg.Items)
		RegisterCatalogRoutes(catalogs.Group("/items"), handler)
	}

	// --- PARTIES ---
	{
		handler := handlers.NewPartyHandler(baseHandler, cfg.Parties)
		group := catalogs.Group("/parties")
		RegisterCatalogRoutes(group, handler)
		group.GET("/by-phone", handler.FindByPhone)
	}
}

// registerDocumentRoutes registers document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	docsGroup := rg.Group("/document")
	baseHandler := handlers.NewBaseHandler()

	// --- PURCHASES ---
	{
		handler := handlers.NewPurchaseHandler(baseHandler, cfg.Purchases)
		RegisterDocumentRoutes(docsGroup.Group("/purchases"), handler)
	}

	// --- INVOICES ---
	{
		handler := handlers.NewInvoiceHandler(baseHandler, cfg.Invoices)
		RegisterDocumentRoutes(docsGroup.Group("/invoices"), handler)
	}

	// --- RETURNS ---
	{
		handler := handlers.NewReturnHandler(baseHandler, cfg.Returns)
		group := docsGroup.Group("/returns")
		RegisterDocumentRoutes(group, handler)
		group.POST("/:id/resolve-inventory", handler.ResolveInventory)
	}
}

// registerLedgerRoutes registers ledger read and adjustment endpoints.
func registerLedgerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	ledgers := rg.Group("/ledgers")
	baseHandler := handlers.NewBaseHandler()

	// Stock movements
	{
		handler := handlers.NewStockLedgerHandler(baseHandler, cfg.StockLedger)
		group := ledgers.Group("/stock")
		group.GET("/entries", handler.History)
		group.GET("/balances", handler.Balances)
		group.GET("/balance", handler.Balance)
		group.POST("/adjustments", handler.Adjust)
		group.POST("/entries/:id/soft-delete", handler.SoftDelete)
	}

	// Money transactions
	{
		handler := handlers.NewMoneyLedgerHandler(baseHandler, cfg.MoneyLedger)
		group := ledgers.Group("/money")
		group.GET("/entries", handler.History)
		group.GET("/balance/:accountId", handler.Balance)
		group.POST("/adjustments", handler.Adjust)
		group.POST("/entries/:id/soft-delete", handler.SoftDelete)
	}

	// Gold movements
	{
		handler := handlers.NewGoldLedgerHandler(baseHandler, cfg.GoldLedger)
		group := ledgers.Group("/gold")
		group.GET("/entries", handler.History)
		group.GET("/balance/:partyId", handler.Balance)
		group.POST("/adjustments", handler.Adjust)
		group.POST("/entries/:id/soft-delete", handler.SoftDelete)
	}
}

// registerReconcileRoutes registers read-only reconciliation endpoints.
func registerReconcileRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewReconcileHandler(baseHandler, cfg.Reconcile)

	group := rg.Group("/reconcile")
	group.GET("/status", handler.Status)
	group.GET("/delete-preview", handler.DeletePreview)
	group.GET("/:ledger", handler.Ledger)
}

// registerAuditRoutes registers audit trail endpoints.
func registerAuditRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewAuditHandler(baseHandler, cfg.Audit)

	rg.GET("/audit/:entityType/:id", handler.History)
}
