package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/marsscrape/api/handler"
	"github.com/use-agent/marsscrape/api/middleware"
	"github.com/use-agent/marsscrape/config"
	"github.com/use-agent/marsscrape/render"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:        Recovery → Logger
//	Scrape routes: ClientLimiter (one budget per client across both routes)
//
// Read-only routes are not rate limited.
func NewRouter(svc handler.MarsService, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.SetHTMLTemplate(render.Templates())

	limiter := middleware.NewClientLimiter(cfg.RateLimit)

	// Browser-facing pages.
	r.GET("/", handler.Index(svc))
	r.GET("/scrape", limiter.Limit(handler.RejectText), handler.ScrapeAndRedirect(svc))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(svc, startTime))
	v1.GET("/mars", handler.Latest(svc))
	v1.POST("/scrape", limiter.Limit(handler.RejectJSON), handler.Scrape(svc))

	return r
}
