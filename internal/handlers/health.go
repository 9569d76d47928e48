package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/monitoring"
	"github.com/ud28188-create/codonyx.org/pkg/errors"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

// Health evaluates dependency probes. Degraded dependencies still answer 200.
func Health(manager *monitoring.HealthManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil {
			response.Success(c, http.StatusOK, monitoring.HealthReport{Status: monitoring.StatusUp})
			return
		}

		report := manager.Evaluate(requestContext(c))
		if !report.Healthy() {
			unavailable := errors.New("UNAVAILABLE", "service unavailable", http.StatusServiceUnavailable)
			response.Error(c, unavailable.WithDetails(report))
			return
		}
		response.Success(c, http.StatusOK, report)
	}
}
