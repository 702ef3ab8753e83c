package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/pharmadesk/internal/config"
	domainRepo "github.com/sangkips/pharmadesk/internal/domain/repository"
	"github.com/sangkips/pharmadesk/internal/presentation/http/handler"
	"github.com/sangkips/pharmadesk/internal/presentation/http/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Health   *handler.HealthHandler
	Session  *handler.SessionHandler
	Catalog  *handler.CatalogHandler
	Customer *handler.CustomerHandler
	Billing  *handler.BillingHandler
	Bill     *handler.BillHandler
	Report   *handler.ReportHandler
	Settings *handler.SettingsHandler
	Printer  *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg             *config.Config
	Logger          logrus.FieldLogger
	Tokens          oauth2.TokenSource
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.ClientRateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")
	if deps.RateLimiter != nil {
		v1.Use(deps.RateLimiter.Middleware())
	}
	{
		// Usable without a pharmacy API token
		registerSessionRoutes(v1, h)
		registerPrinterRoutes(v1, h)
		v1.GET("/settings", h.Settings.GetStoreProfile)

		upstream := v1.Group("")
		upstream.Use(middleware.RequireSession(deps.Tokens))

		registerCatalogRoutes(upstream, h)
		registerCustomerRoutes(upstream, h)
		registerBillingRoutes(upstream, h, deps)
		registerBillRoutes(upstream, h)
		registerReportRoutes(upstream, h)
	}

	return router
}

func registerSessionRoutes(v1 *gin.RouterGroup, h *Handlers) {
	session := v1.Group("/session")
	{
		session.GET("", h.Session.Status)
		session.PUT("", h.Session.SetToken)
		session.DELETE("", h.Session.Clear)
	}
}

func registerPrinterRoutes(v1 *gin.RouterGroup, h *Handlers) {
	printerGroup := v1.Group("/printer")
	{
		printerGroup.GET("/status", h.Printer.GetStatus)
		printerGroup.POST("/test", h.Printer.TestPrint)
	}
}

func registerCatalogRoutes(upstream *gin.RouterGroup, h *Handlers) {
	medicines := upstream.Group("/medicines")
	{
		medicines.GET("", h.Catalog.List)
		medicines.GET("/:id/batches", h.Catalog.Batches)
	}
}

func registerCustomerRoutes(upstream *gin.RouterGroup, h *Handlers) {
	customers := upstream.Group("/customers")
	{
		customers.GET("", h.Customer.Search)
		customers.POST("", h.Customer.Create)
	}
}

func registerBillingRoutes(upstream *gin.RouterGroup, h *Handlers, deps *Deps) {
	sessions := upstream.Group("/billing/sessions")
	{
		sessions.POST("", h.Billing.Open)
		sessions.GET("/:id", h.Billing.Get)
		sessions.DELETE("/:id", h.Billing.Close)

		sessions.GET("/:id/allocation/:medicineId", h.Billing.OpenAllocation)
		sessions.PUT("/:id/cart/:medicineId", h.Billing.Allocate)
		sessions.DELETE("/:id/cart/lines/:index", h.Billing.RemoveLine)
		sessions.DELETE("/:id/cart", h.Billing.ClearCart)

		sessions.PUT("/:id/customer", h.Billing.SelectCustomer)
		sessions.DELETE("/:id/customer", h.Billing.ClearCustomer)
		sessions.POST("/:id/customer/new", h.Billing.CreateCustomer)
		sessions.PUT("/:id/customer/query", h.Billing.QueryCustomers)
		sessions.GET("/:id/customer/matches", h.Billing.CustomerMatches)

		sessions.PUT("/:id/notify", h.Billing.SetNotification)
		sessions.GET("/:id/preview", h.Billing.Preview)
		// a retried submit replays the first response instead of billing twice
		sessions.POST("/:id/submit", middleware.Idempotency(middleware.IdempotencyConfig{
			Repo:   deps.IdempotencyRepo,
			Logger: deps.Logger,
		}), h.Billing.Submit)
	}
}

func registerBillRoutes(upstream *gin.RouterGroup, h *Handlers) {
	bills := upstream.Group("/bills")
	{
		bills.GET("", h.Bill.List)
		bills.GET("/:id", h.Bill.Get)
		bills.DELETE("/:id", h.Bill.Delete)
		bills.GET("/:id/receipt", h.Bill.Receipt)
		bills.GET("/:id/receipt.pdf", h.Bill.ReceiptPDF)
		bills.POST("/:id/print", h.Bill.Print)
		bills.POST("/:id/email", h.Bill.Email)
	}
}

func registerReportRoutes(upstream *gin.RouterGroup, h *Handlers) {
	reports := upstream.Group("/reports")
	{
		reports.GET("/stock", h.Report.Stock)
		reports.GET("/stock.xlsx", h.Report.StockXLSX)
		reports.GET("/sales", h.Report.Sales)
		reports.GET("/expiring-batches", h.Report.ExpiringBatches)
		reports.GET("/low-stock", h.Report.LowStock)
	}
}
