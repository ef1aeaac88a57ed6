package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davidtran/jobpilot/internal/api/middleware"
	"github.com/davidtran/jobpilot/internal/logger"
	"github.com/davidtran/jobpilot/internal/service"
)

// CrawlerHandler exposes the crawl trigger and pipeline health endpoints.
type CrawlerHandler struct {
	crawler *service.CrawlService
	logger  *logger.Logger
}

// NewCrawlerHandler creates a new crawler handler.
func NewCrawlerHandler(crawler *service.CrawlService, log *logger.Logger) *CrawlerHandler {
	return &CrawlerHandler{crawler: crawler, logger: log}
}

// TestCrawlRequest is the body of the single-URL test endpoint.
type TestCrawlRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// RunCrawl triggers a full crawl of all registered sources. The run executes
// in the background; the response acknowledges the trigger, it does not carry
// results. A run already in flight yields 409.
func (h *CrawlerHandler) RunCrawl(c *gin.Context) {
	if h.crawler.Running() {
		c.JSON(http.StatusConflict, gin.H{"error": "a crawl run is already in progress"})
		return
	}

	log := middleware.GetLogger(c)
	log.Info("Crawl run triggered via API")

	// The run must outlive the HTTP request.
	go func() {
		if _, err := h.crawler.RunAll(context.Background()); err != nil {
			if errors.Is(err, service.ErrCrawlRunning) {
				return
			}
			h.logger.WithError(err).Error("Triggered crawl run failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "crawl run started"})
}

// TestCrawl ingests a single URL synchronously, routed to the strategy that
// recognizes it. Intended for verifying selectors against a live page.
func (h *CrawlerHandler) TestCrawl(c *gin.Context) {
	var req TestCrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log := middleware.GetLogger(c)
	log.WithField(logger.FieldURL, req.URL).Info("Test crawl requested")

	if err := h.crawler.CrawlSpecificURL(c.Request.Context(), req.URL); err != nil {
		if errors.Is(err, service.ErrNoStrategy) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "url crawled successfully"})
}

// Health reports per-source pipeline health for the trailing 24 hours.
func (h *CrawlerHandler) Health(c *gin.Context) {
	summary, err := h.crawler.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}
