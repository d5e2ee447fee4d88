package server

import (
	"net/http"

	"github.com/flashsale/checkout/internal/api/handlers"
	"github.com/flashsale/checkout/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

func NewRouter(deps AppDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	productsHandler := handlers.NewProductsHandler(deps.DB, deps.ProductCache, deps.Logger)
	router.GET("/products/:id", productsHandler.GetProduct)

	holdsHandler := handlers.NewHoldsHandler(deps.DB, deps.Holds, deps.Logger)
	router.POST("/holds", holdsHandler.CreateHold)

	ordersHandler := handlers.NewOrdersHandler(deps.DB, deps.Orders, deps.Logger)
	router.POST("/orders", ordersHandler.CreateOrder)

	webhooksHandler := handlers.NewWebhooksHandler(deps.Webhooks, deps.Logger)
	router.POST("/payments/webhook", webhooksHandler.HandleWebhook)

	return router
}
