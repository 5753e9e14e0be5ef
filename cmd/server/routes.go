// Package main provides the blood sugar LINE bot server entry point.
package main

import (
	"net/http"

	"github.com/ZhenYan1214/sugar-linebot-go/internal/config"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/storage"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, webhookHandler *webhook.Handler, db *storage.DB, registry *prometheus.Registry, cfg *config.Config) {
	// Liveness probe used by the uptime pinger. Plain "OK" body, never
	// checks dependencies.
	healthHandler := func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	healthzHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthzHandler)
	router.HEAD("/healthz", healthzHandler)

	// Readiness probe with a dependency check
	readyHandler := func(c *gin.Context) {
		if err := db.Ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		recordCount, _ := db.CountRecords(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
			"records":  recordCount,
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// LINE webhook callback endpoint
	router.POST("/callback", webhookHandler.Handle)

	// Prometheus metrics endpoint
	router.GET("/metrics",
		metricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}
