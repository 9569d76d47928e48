package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ud28188-create/codonyx.org/internal/app"
	"github.com/ud28188-create/codonyx.org/internal/handlers"
	"github.com/ud28188-create/codonyx.org/internal/monitoring"
)

func registerHealthRoutes(r *gin.Engine, manager *monitoring.HealthManager, cfg *app.Config) {
	health := handlers.Health(manager)
	r.GET("/health", health)
	r.GET("/api/health", health)

	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(metricsPath(cfg), gin.WrapH(promhttp.Handler()))
	}
}
