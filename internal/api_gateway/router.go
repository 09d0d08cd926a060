package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mc-economy-bridge/internal/api_gateway/handler"
	"github.com/mc-economy-bridge/internal/api_gateway/middleware"
)

const healthPath = "/health"

type handlers struct {
	accounts   *handler.AccountHandler
	links      *handler.LinkHandler
	market     *handler.MarketHandler
	deliveries *handler.DeliveryHandler
	history    *handler.HistoryHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, apiKey string, h handlers) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger, healthPath))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.APIKey(logger, apiKey))
	{
		// Called by the server plugin
		v1.POST("/link", h.links.Issue)
		v1.GET("/balance/:game_uuid", h.accounts.GetBalanceByGameUUID)
		v1.POST("/give", h.deliveries.Give)
		v1.GET("/deliveries/:game_uuid", h.deliveries.Pending)
		v1.POST("/deliveries/:id/claim", h.deliveries.Claim)

		v1.POST("/link/redeem", h.links.Redeem)
		v1.POST("/transfers", h.accounts.Transfer)
		v1.POST("/admin/adjust", h.accounts.AdminAdjust)

		accounts := v1.Group("/accounts")
		{
			accounts.GET("/:key", h.accounts.GetByKey)
			accounts.GET("/:key/history", h.history.GetByIdentityKey)
		}

		market := v1.Group("/market")
		{
			market.GET("", h.market.List)
			market.POST("/listings", h.market.CreateListing)
			market.POST("/listings/:id/purchase", h.market.Purchase)
		}

		v1.GET("/events/:id", h.history.GetEvent)
	}

	r.GET(healthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
