package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/marsscrape/models"
	"github.com/use-agent/marsscrape/render"
)

// Index returns a handler for GET /, the landing page.
func Index(svc MarsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := svc.Latest(c.Request.Context())
		if err != nil && !models.IsCode(err, models.ErrCodeNotFound) {
			se := models.AsScrapeError(err)
			c.String(mapErrorToStatus(se), "Failed to load snapshot: %s", se.Message)
			return
		}
		c.HTML(http.StatusOK, render.IndexTemplate, render.NewPage(rec))
	}
}

// Latest returns a handler for GET /api/v1/mars.
//
// ?format=markdown returns the snapshot as Markdown instead of JSON.
func Latest(svc MarsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := svc.Latest(c.Request.Context())
		if err != nil {
			se := models.AsScrapeError(err)
			c.JSON(mapErrorToStatus(se), models.RecordResponse{
				Success: false,
				Error:   se.ToDetail(),
			})
			return
		}

		if c.Query("format") == "markdown" {
			md, err := render.Markdown(rec)
			if err != nil {
				respondError(c, err, models.TimingInfo{})
				return
			}
			c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
			return
		}

		c.JSON(http.StatusOK, models.RecordResponse{
			Success: true,
			Record:  rec,
		})
	}
}
