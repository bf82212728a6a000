package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealscope/roi-service/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Keepa    string `json:"keepa"`
	Qogita   string `json:"qogita"`
}

// HealthDeps reports which upstream integrations are configured.
type HealthDeps struct {
	KeepaConfigured  bool
	QogitaConfigured bool
}

// HealthCheck handles the health check endpoint. Upstream APIs are only
// reported as configured or not; probing them would burn rate-limited
// tokens on every liveness poll.
func HealthCheck(deps HealthDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status: "ok",
			Keepa:  configuredLabel(deps.KeepaConfigured),
			Qogita: configuredLabel(deps.QogitaConfigured),
		}

		if database.Pool() != nil {
			if err := database.Status(c.Request.Context()); err != nil {
				response.Database = "disconnected"
				c.JSON(http.StatusServiceUnavailable, response)
				return
			}
			response.Database = "connected"
		} else {
			response.Database = "not configured"
		}

		c.JSON(http.StatusOK, response)
	}
}

func configuredLabel(configured bool) string {
	if configured {
		return "configured"
	}
	return "not configured"
}
