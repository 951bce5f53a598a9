package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/obratech/procurement-api/internal/middleware"
	"github.com/obratech/procurement-api/internal/models"
	"github.com/obratech/procurement-api/pkg/config"
	"github.com/obratech/procurement-api/pkg/logger"
	"github.com/obratech/procurement-api/pkg/middleware/cors"
	"github.com/obratech/procurement-api/pkg/middleware/requestid"
)

var paymentMethods = map[string]bool{
	string(models.PaymentCash):       true,
	string(models.PaymentPix):        true,
	string(models.PaymentBankSlip):   true,
	string(models.PaymentCredit):     true,
	string(models.PaymentDebit):      true,
	string(models.PaymentTransfer):   true,
	string(models.PaymentNegotiable): true,
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
			return paymentMethods[fl.Field().String()]
		})
	}
}

// Handlers bundles every route handler for router assembly.
type Handlers struct {
	Requests       *RequestHandler
	Quotations     *QuotationHandler
	Requisitions   *RequisitionHandler
	Receipts       *ReceiptHandler
	Master         *MasterHandler
	Classification *ClassificationHandler
	Dashboard      *DashboardHandler
}

// NewRouter assembles the gin engine: ambient middleware, health and
// metrics endpoints, swagger, and the versioned API surface.
func NewRouter(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())
	router.Use(logger.GinMiddleware(log))
	router.Use(cors.New(cfg.CORS.AllowedOrigins))
	router.Use(middleware.Metrics())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	office := middleware.RequireRoles(models.RoleOfficeClerk, models.RoleDirector)
	engineer := middleware.RequireRoles(models.RoleEngineer)

	api := router.Group(cfg.APIPrefix)
	api.Use(middleware.Auth(cfg.JWT.Secret))
	{
		requests := api.Group("/requests")
		{
			requests.POST("", h.Requests.Create)
			requests.GET("", h.Requests.List)
			requests.GET("/:id", h.Requests.Get)
			requests.GET("/:id/history", h.Requests.History)
			requests.POST("/:id/duplicate", h.Requests.Duplicate)

			requests.POST("/:id/approve", engineer, h.Requests.Approve)
			requests.POST("/:id/reject", engineer, h.Requests.Reject)
			requests.POST("/:id/split", engineer, h.Requests.Split)

			requests.POST("/:id/office-reject", office, h.Requests.OfficeReject)
			requests.POST("/:id/start-quotation", office, h.Requests.StartQuotation)

			requests.POST("/:id/dispatches", office, h.Quotations.Dispatch)
			requests.GET("/:id/quotations", h.Quotations.Board)
			requests.POST("/:id/quotations", office, h.Quotations.Record)

			requests.POST("/:id/receipts", h.Receipts.Record)
			requests.GET("/:id/receipts", h.Receipts.Events)
			requests.GET("/:id/receipts/progress", h.Receipts.Progress)
			requests.GET("/:id/receipts/pending", h.Receipts.Pending)
		}

		quotations := api.Group("/quotations")
		{
			quotations.POST("/:id/select", office, h.Quotations.SelectWinner)
			quotations.POST("/:id/reject", office, h.Quotations.Reject)
		}
		api.GET("/dispatches/:id/email-draft", office, h.Quotations.EmailDraft)

		requisitions := api.Group("/requisitions")
		{
			requisitions.GET("", h.Requisitions.List)
			requisitions.GET("/:id", h.Requisitions.Get)
			requisitions.GET("/:id/pdf", h.Requisitions.PDF)
			requisitions.POST("/:id/sign", office, h.Requisitions.Sign)
			requisitions.POST("/:id/dispatch", office, h.Requisitions.Dispatch)
		}

		suppliers := api.Group("/suppliers")
		{
			suppliers.GET("", h.Master.ListSuppliers)
			suppliers.GET("/:id", h.Master.GetSupplier)
			suppliers.POST("", office, h.Master.CreateSupplier)
			suppliers.DELETE("/:id", office, h.Master.DeactivateSupplier)
		}

		catalog := api.Group("/catalog")
		{
			catalog.GET("/categories", h.Master.ListCategories)
			catalog.POST("/categories", office, h.Master.CreateCategory)
			catalog.GET("/units", h.Master.ListUnits)
			catalog.POST("/units", office, h.Master.CreateUnit)
			catalog.GET("/items", h.Master.ListItems)
			catalog.POST("/items", office, h.Master.CreateItem)
			catalog.DELETE("/items/:id", office, h.Master.DeleteItem)
			catalog.POST("/items/:id/deactivate", office, h.Master.DeactivateItem)
		}

		sites := api.Group("/sites")
		{
			sites.GET("", h.Master.ListSites)
			sites.POST("", office, h.Master.CreateSite)
			sites.DELETE("/:id", office, h.Master.DeactivateSite)
		}

		api.POST("/classification", h.Classification.Classify)
		api.GET("/dashboard/summary", h.Dashboard.Summary)
	}

	return router
}
