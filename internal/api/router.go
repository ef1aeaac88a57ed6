// Package api wires the Gin router: middleware, the crawler trigger surface,
// and the read-only jobs endpoints.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/davidtran/jobpilot/internal/api/handler"
	"github.com/davidtran/jobpilot/internal/api/middleware"
	"github.com/davidtran/jobpilot/internal/logger"
	"github.com/davidtran/jobpilot/internal/repository"
	"github.com/davidtran/jobpilot/internal/service"
)

// RouterConfig carries the surface-level settings the router needs.
type RouterConfig struct {
	Mode           string
	AdminToken     string
	AllowedOrigins []string
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	crawlService *service.CrawlService,
	jobRepo *repository.JobRepository,
	log *logger.Logger,
	cfg RouterConfig,
) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.AllowedOrigins,
		AllowAllOrigins: len(cfg.AllowedOrigins) == 0,
	}))

	healthHandler := handler.NewHealthHandler()
	crawlerHandler := handler.NewCrawlerHandler(crawlService, log)
	jobsHandler := handler.NewJobsHandler(jobRepo)

	// Liveness
	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		// Jobs (read-only)
		v1.GET("/jobs", jobsHandler.ListJobs)
		v1.GET("/jobs/:id", jobsHandler.GetJob)

		// Crawler
		crawler := v1.Group("/crawler")
		crawler.GET("/health", crawlerHandler.Health)

		admin := crawler.Group("", middleware.AdminAuth(cfg.AdminToken))
		admin.POST("/run", crawlerHandler.RunCrawl)
		admin.POST("/test", crawlerHandler.TestCrawl)
	}

	return r
}
