package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/jobhunt-api/internal/model"
	"github.com/yourusername/jobhunt-api/internal/repository"
	"github.com/yourusername/jobhunt-api/internal/service"
)

type JobHandler struct {
	jobs *service.JobService
}

func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// ListJobs handles GET /jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	filter := repository.JobFilter{
		Search:       c.Query("search"),
		Source:       c.Query("source"),
		LocationType: c.Query("location"),
		Limit:        queryInt(c, "limit", 0),
		Offset:       queryInt(c, "offset", 0),
	}

	jobs, err := h.jobs.List(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list jobs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs"})
		return
	}

	if jobs == nil {
		jobs = []model.Job{}
	}

	c.JSON(http.StatusOK, jobs)
}

// GetJob handles GET /jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		log.Error().Err(err).Str("jobId", jobID.String()).Msg("Failed to get job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// CreateJob handles POST /jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var in model.JobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := h.jobs.Create(c.Request.Context(), in)
	if errors.Is(err, service.ErrInvalidJob) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and company are required"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to create job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save job"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateJob handles PUT /jobs/:id
func (h *JobHandler) UpdateJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	var in model.JobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.jobs.Update(c.Request.Context(), jobID, in)
	switch {
	case errors.Is(err, service.ErrInvalidJob):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and company are required"})
		return
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	case err != nil:
		log.Error().Err(err).Str("jobId", jobID.String()).Msg("Failed to update job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update job"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteJob handles DELETE /jobs/:id
func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	err = h.jobs.Delete(c.Request.Context(), jobID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("jobId", jobID.String()).Msg("Failed to delete job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// RepairJobs handles POST /admin/repair
// Defaults to a dry run unless dryRun=false is passed explicitly.
func (h *JobHandler) RepairJobs(c *gin.Context) {
	dryRun := c.DefaultQuery("dryRun", "true") != "false"

	report, err := h.jobs.Repair(c.Request.Context(), dryRun)
	if err != nil {
		log.Error().Err(err).Bool("dryRun", dryRun).Msg("Failed to repair job lists")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to repair jobs"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
