package router

import (
	"context"
	"net/http"

	"backoffice-service/internal/handlers"

	"github.com/gin-contrib/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type Deps struct {
	Orders    *handlers.OrderHandler
	Inventory *handlers.InventoryHandler
	// Checks are run by /health; a failing check turns the response into 503.
	Checks map[string]Pinger
}

func Router(d Deps, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/health", func(c *gin.Context) {
		status, code := gin.H{"status": "ok"}, http.StatusOK
		for name, check := range d.Checks {
			if err := check(c.Request.Context()); err != nil {
				log.Warn("health check failed", zap.String("check", name), zap.Error(err))
				status["status"] = "degraded"
				status[name] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, status)
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/imports", d.Orders.Import)

		orders := v1.Group("/orders")
		orders.GET("", d.Orders.ListOrders)
		orders.GET("/:id", d.Orders.GetOrder)
		orders.POST("/:id/status", d.Orders.ChangeStatus)
		orders.PUT("/:id/lines", d.Orders.UpdateLine)
		orders.DELETE("/:id/lines/:code", d.Orders.RemoveLine)
		orders.PUT("/:id/discount", d.Orders.SetDiscount)
		orders.PUT("/:id/shipping", d.Orders.SetShipping)

		inventory := v1.Group("/inventory")
		inventory.GET("/movements", d.Inventory.Movements)
		inventory.GET("/:product_id/availability", d.Inventory.Availability)
		inventory.POST("/adjustments", d.Inventory.AdjustStock)

		v1.POST("/purchases/receipts", d.Inventory.ReceivePurchase)
	}

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
		)
	}
}
