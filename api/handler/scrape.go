package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/marsscrape/models"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// The response carries the stored Record on success. On failure the
// previous snapshot is untouched and the error code decides the status.
func Scrape(svc MarsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rec, err := svc.Scrape(c.Request.Context())
		timing := models.TimingInfo{TotalMs: time.Since(start).Milliseconds()}
		if err != nil {
			respondError(c, err, timing)
			return
		}

		c.JSON(http.StatusOK, models.ScrapeResponse{
			Success: true,
			Record:  rec,
			Timing:  timing,
		})
	}
}

// ScrapeAndRedirect returns a handler for GET /scrape. It runs the
// pipeline and sends the browser back to the landing page.
func ScrapeAndRedirect(svc MarsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := svc.Scrape(c.Request.Context()); err != nil {
			RejectText(c, err)
			return
		}
		c.Redirect(http.StatusFound, "/")
	}
}
