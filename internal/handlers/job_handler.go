package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"io.fixlink.jobboard/internal/jobboard"
	"io.fixlink.jobboard/internal/jobs"
	createjobmodels "io.fixlink.jobboard/internal/models/create_job"
	jobmodels "io.fixlink.jobboard/internal/models/job"
	searchjobsmodels "io.fixlink.jobboard/internal/models/search_jobs"
	"io.fixlink.jobboard/internal/notify"
)

const jobCacheTTL = 5 * time.Minute

type JobHandler struct {
	store  *jobs.Store
	api    *jobboard.Client
	hook   *notify.Hook
	redis  *redis.Client
	logger *zap.SugaredLogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(store *jobs.Store, api *jobboard.Client, hook *notify.Hook, redisClient *redis.Client, logger *zap.SugaredLogger) *JobHandler {
	return &JobHandler{
		store:  store,
		api:    api,
		hook:   hook,
		redis:  redisClient,
		logger: logger,
	}
}

// CreateJob proxies the creation upstream when configured, mirrors the job
// locally, responds, and fires the notification hook detached from the
// request.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req createjobmodels.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	ctx := context.Background()

	j := jobmodels.Job{
		SONumber:      req.SONumber,
		Description:   req.Description,
		CustomerName:  req.CustomerName,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Zip:           req.Zip,
		ApplianceType: req.ApplianceType,
		VendorName:    req.VendorName,
	}

	if h.api.Enabled() {
		externalID, err := h.api.CreateJob(ctx, &j)
		if err != nil {
			h.logError(c, err, "upstream job creation failed", "so_number", req.SONumber)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create job upstream"})
			return
		}
		j.ExternalID = externalID
	}

	if err := h.store.Create(ctx, &j); err != nil {
		h.logError(c, err, "failed to mirror job", "so_number", req.SONumber)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
		return
	}

	c.JSON(http.StatusCreated, createjobmodels.CreateJobResponse{
		Job:     j,
		Message: "Job created successfully",
	})

	// Fire-and-forget: the creation response never waits on delivery, and
	// nothing the hook does can change it.
	if h.hook != nil {
		go h.hook.JobCreated(context.Background(), j)
	}
}

type jobIDRequest struct {
	ID string `json:"id" binding:"required"`
}

// GetJob serves a single job from cache or the mirror
func (h *JobHandler) GetJob(c *gin.Context) {
	var req jobIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID is required"})
		return
	}

	ctx := context.Background()

	cacheKey := "job:" + req.ID
	if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var j jobmodels.Job
		if err := json.Unmarshal([]byte(cached), &j); err == nil {
			c.JSON(http.StatusOK, gin.H{"job": j})
			return
		}
	}

	j, err := h.store.Get(ctx, req.ID)
	if errors.Is(err, jobs.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		h.logError(c, err, "failed to load job", "job_id", req.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job"})
		return
	}

	if jobJSON, err := json.Marshal(j); err == nil {
		h.redis.Set(ctx, cacheKey, jobJSON, jobCacheTTL)
	}

	c.JSON(http.StatusOK, gin.H{"job": j})
}

// SearchJobs filters the mirror
func (h *JobHandler) SearchJobs(c *gin.Context) {
	var req searchjobsmodels.SearchJobsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	results, err := h.store.Search(context.Background(), jobs.SearchQuery{
		Status:        req.Status,
		Zip:           req.Zip,
		ApplianceType: req.ApplianceType,
		VendorID:      req.VendorID,
		SONumber:      req.SONumber,
		Limit:         req.Limit,
	})
	if err != nil {
		h.logError(c, err, "failed to search jobs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search jobs"})
		return
	}

	c.JSON(http.StatusOK, searchjobsmodels.SearchJobsResponse{
		Jobs:  results,
		Count: len(results),
	})
}

type updateJobRequest struct {
	ID            string `json:"id" binding:"required"`
	Description   string `json:"description,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Zip           string `json:"zip,omitempty"`
	ApplianceType string `json:"applianceType,omitempty"`
	Status        string `json:"status,omitempty"`
}

// UpdateJob applies a partial update to the mirror and proxies it upstream
func (h *JobHandler) UpdateJob(c *gin.Context) {
	var req updateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	updates := bson.M{}
	upstream := map[string]interface{}{}
	setField := func(key, upstreamKey, value string) {
		if value != "" {
			updates[key] = value
			upstream[upstreamKey] = value
		}
	}
	setField("description", "description", req.Description)
	setField("customer_name", "customerName", req.CustomerName)
	setField("address", "address", req.Address)
	setField("city", "city", req.City)
	setField("state", "state", req.State)
	setField("zip", "zip", req.Zip)
	setField("appliance_type", "applianceType", req.ApplianceType)
	setField("status", "status", req.Status)

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	ctx := context.Background()

	j, err := h.store.Get(ctx, req.ID)
	if errors.Is(err, jobs.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		h.logError(c, err, "failed to load job for update", "job_id", req.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update job"})
		return
	}

	if err := h.store.Update(ctx, req.ID, updates); err != nil {
		h.logError(c, err, "failed to update job", "job_id", req.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update job"})
		return
	}

	if h.api.Enabled() && j.ExternalID != "" {
		if err := h.api.UpdateJob(ctx, j.ExternalID, upstream); err != nil {
			// Mirror already updated; upstream drift is logged, not fatal
			h.logError(c, err, "upstream job update failed", "job_id", req.ID)
		}
	}

	h.redis.Del(ctx, "job:"+req.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Job updated successfully"})
}

// DeleteJob removes the job from the mirror and upstream
func (h *JobHandler) DeleteJob(c *gin.Context) {
	var req jobIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID is required"})
		return
	}

	ctx := context.Background()

	j, err := h.store.Get(ctx, req.ID)
	if errors.Is(err, jobs.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		h.logError(c, err, "failed to load job for deletion", "job_id", req.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete job"})
		return
	}

	if err := h.store.Delete(ctx, req.ID); err != nil {
		h.logError(c, err, "failed to delete job", "job_id", req.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete job"})
		return
	}

	if h.api.Enabled() && j.ExternalID != "" {
		if err := h.api.DeleteJob(ctx, j.ExternalID); err != nil {
			h.logError(c, err, "upstream job deletion failed", "job_id", req.ID)
		}
	}

	h.redis.Del(ctx, "job:"+req.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Job deleted successfully"})
}

type assignJobRequest struct {
	ID       string `json:"id" binding:"required"`
	VendorID string `json:"vendorId" binding:"required"`
}

// AssignJob assigns a job to a vendor
func (h *JobHandler) AssignJob(c *gin.Context) {
	var req assignJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID and vendor ID are required"})
		return
	}

	ctx := context.Background()

	j, err := h.store.Get(ctx, req.ID)
	if errors.Is(err, jobs.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		h.logError(c, err, "failed to load job for assignment", "job_id", req.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign job"})
		return
	}

	if err := h.store.Assign(ctx, req.ID, req.VendorID); err != nil {
		h.logError(c, err, "failed to assign job", "job_id", req.ID, "vendor_id", req.VendorID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign job"})
		return
	}

	if h.api.Enabled() && j.ExternalID != "" {
		if err := h.api.AssignJob(ctx, j.ExternalID, req.VendorID); err != nil {
			h.logError(c, err, "upstream job assignment failed", "job_id", req.ID)
		}
	}

	h.redis.Del(ctx, "job:"+req.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Job assigned successfully"})
}
