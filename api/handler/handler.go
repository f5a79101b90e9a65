package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/marsscrape/models"
)

// MarsService triggers runs and reads the stored snapshot.
type MarsService interface {
	Scrape(ctx context.Context) (*models.Record, error)
	Latest(ctx context.Context) (*models.Record, error)
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	scrapeErr := models.AsScrapeError(err)

	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeMissingElement, models.ErrCodeReshape:
		return http.StatusBadGateway // 502
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	default:
		return http.StatusInternalServerError // 500
	}
}

// RejectJSON writes err as a failed ScrapeResponse. Middleware uses it to
// refuse an API request before the handler runs.
func RejectJSON(c *gin.Context, err error) {
	respondError(c, err, models.TimingInfo{})
}

// RejectText writes err as the plain-text failure served by GET /scrape.
func RejectText(c *gin.Context, err error) {
	se := models.AsScrapeError(err)
	c.String(mapErrorToStatus(se), "Scrape failed: %s", se.Message)
}
