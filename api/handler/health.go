package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/marsscrape/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Status is "empty" until the first snapshot has been stored.
func Health(svc MarsService, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := models.HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: Version,
		}

		rec, err := svc.Latest(c.Request.Context())
		switch {
		case err == nil:
			resp.ScrapedAt = rec.ScrapedAt.Format(time.RFC3339)
		case models.IsCode(err, models.ErrCodeNotFound):
			resp.Status = "empty"
		default:
			resp.Status = "degraded"
		}

		c.JSON(http.StatusOK, resp)
	}
}
