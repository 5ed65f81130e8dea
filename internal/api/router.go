package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	v1 "github.com/marketpay/marketpay/internal/api/v1"
	"github.com/marketpay/marketpay/internal/rest/middleware"
)

type Handlers struct {
	Health  *v1.HealthHandler
	Shop    *v1.ShopHandler
	Invoice *v1.InvoiceHandler
	Payment *v1.PaymentHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(
		middleware.CORSMiddleware,
		middleware.RequestIDMiddleware,
		middleware.ErrorHandler(),
	)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", handlers.Health.Health)

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Shop routes
	shops := router.Group("/shops")
	{
		shops.POST("", handlers.Shop.CreateShop)
		shops.GET("", handlers.Shop.ListShops)
		shops.GET("/:id", handlers.Shop.GetShop)
		shops.GET("/:id/invoices", handlers.Shop.ListShopInvoices)
	}

	// Invoice routes
	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
	}

	// Payment routes
	payments := router.Group("/payments")
	{
		payments.POST("", handlers.Payment.ApplyPayment)
		payments.POST("/batch", handlers.Payment.ApplyPaymentBatch)
		payments.GET("/:id", handlers.Payment.GetPayment)
	}
}
