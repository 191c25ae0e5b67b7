package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/app"
	"github.com/pawwalk/pawwalk/internal/handlers"
	"github.com/pawwalk/pawwalk/internal/monitoring"
	"github.com/pawwalk/pawwalk/internal/monitoring/checks"
)

const defaultMetricsEndpoint = "/metrics"

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, db *gorm.DB, extra []monitoring.Check) {
	if !cfg.Monitoring.Health.Enabled {
		r.GET("/health", disabledHealthHandler)
		return
	}
	manager := monitoring.NewHealthManager(checks.Database(db, 0))
	for _, check := range extra {
		manager.Register(check)
	}
	r.GET("/health", handlers.Health(manager))
}

func registerMetricsRoutes(r *gin.Engine, cfg *app.Config) {
	if !cfg.Monitoring.Prometheus.Enabled {
		return
	}
	endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if endpoint == "" {
		endpoint = defaultMetricsEndpoint
	}
	r.GET(endpoint, gin.WrapH(promhttp.Handler()))
}

func disabledHealthHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"status":  "disabled",
	})
}
