package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fleetdesk/contracts/config"
	"github.com/fleetdesk/contracts/middleware"
	"github.com/fleetdesk/contracts/model"
	"github.com/fleetdesk/contracts/service"
)

// NewRouter wires the middleware chain and every API route
func NewRouter(cfg *config.Config, manager *service.ContractManager, fees *service.FeeSchedule) *gin.Engine {
	authHandler := NewAuthHandler(cfg)
	contractHandler := NewContractHandler(manager)
	pricingHandler := NewPricingHandler(fees)

	router := gin.New() // Use New() instead of Default() to avoid default middleware

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(cacheMiddleware())
	router.Use(middleware.RateLimit(cfg.Server.RateLimitPerMinute, time.Minute))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	api.POST("/auth/login", authHandler.Login)

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	protected.Use(middleware.RateLimitByTenant(cfg.Server.RateLimitPerMinute, time.Minute))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.GET("/contracts", contractHandler.List)
		protected.GET("/contracts/expiring", contractHandler.Expiring)
		protected.GET("/contracts/transitions", contractHandler.Transitions)
		protected.GET("/contracts/:id", contractHandler.Get)
		protected.GET("/contracts/:id/history", contractHandler.History)
		protected.GET("/pricing/auction-fee", pricingHandler.AuctionFee)
	}

	writers := protected.Group("/")
	writers.Use(middleware.RequireRole(model.RoleAdmin, model.RoleManager))
	{
		writers.POST("/contracts", contractHandler.Create)
		writers.PATCH("/contracts/:id", contractHandler.Patch)
		writers.POST("/contracts/:id/status", contractHandler.UpdateStatus)
	}

	router.NoRoute(func(c *gin.Context) {
		respondErrors(c, http.StatusNotFound, "Route not found")
	})

	return router
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// cacheMiddleware keeps API responses out of shared caches
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}
		c.Next()
	}
}
