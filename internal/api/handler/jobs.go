package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/davidtran/jobpilot/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// JobsHandler exposes the read-only job posting endpoints.
type JobsHandler struct {
	jobs *repository.JobRepository
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(jobs *repository.JobRepository) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// ListJobs returns postings filtered by source, city and job type, newest
// first.
func (h *JobsHandler) ListJobs(c *gin.Context) {
	filter := repository.ListFilter{
		Source:  c.Query("source"),
		City:    c.Query("city"),
		JobType: c.Query("job_type"),
		Limit:   queryInt(c, "limit", defaultPageSize),
		Offset:  queryInt(c, "offset", 0),
	}
	if filter.Limit <= 0 || filter.Limit > maxPageSize {
		filter.Limit = defaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	jobs, total, err := h.jobs.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":   jobs,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetJob returns one posting by ID.
func (h *JobsHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
