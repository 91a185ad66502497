package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"io.fixlink.jobboard/internal/jobs"
)

var allowedPhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
}

type UploadHandler struct {
	store     *jobs.Store
	logger    *zap.SugaredLogger
	uploadDir string
}

// NewUploadHandler creates a new upload handler storing photos on local disk
func NewUploadHandler(store *jobs.Store, logger *zap.SugaredLogger, uploadDir string) *UploadHandler {
	return &UploadHandler{
		store:     store,
		logger:    logger,
		uploadDir: uploadDir,
	}
}

// AddJobPhoto saves a multipart photo upload and attaches it to the job
func (h *UploadHandler) AddJobPhoto(c *gin.Context) {
	jobID := c.PostForm("jobId")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID is required"})
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo file is required"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedPhotoExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported photo format"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logError(c, err, "failed to create upload directory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save photo"})
		return
	}

	filename := uuid.New().String() + ext
	dest := filepath.Join(h.uploadDir, filename)
	if err := c.SaveUploadedFile(file, dest); err != nil {
		h.logError(c, err, "failed to save uploaded photo", "job_id", jobID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save photo"})
		return
	}

	photoURL := "/uploads/" + filename
	if err := h.store.AddPhoto(context.Background(), jobID, photoURL); err != nil {
		_ = os.Remove(dest)
		if errors.Is(err, jobs.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logError(c, err, "failed to attach photo to job", "job_id", jobID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save photo"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobId":    jobID,
		"photoUrl": photoURL,
		"message":  "Photo added successfully",
	})
}

type removePhotoRequest struct {
	JobID    string `json:"jobId" binding:"required"`
	PhotoURL string `json:"photoUrl" binding:"required"`
}

// RemoveJobPhoto detaches a photo from the job and deletes the file
func (h *UploadHandler) RemoveJobPhoto(c *gin.Context) {
	var req removePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID and photo URL are required"})
		return
	}

	if err := h.store.RemovePhoto(context.Background(), req.JobID, req.PhotoURL); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logError(c, err, "failed to remove job photo", "job_id", req.JobID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove photo"})
		return
	}

	// Only delete files this handler wrote
	if name, ok := strings.CutPrefix(req.PhotoURL, "/uploads/"); ok && !strings.Contains(name, "/") {
		if err := os.Remove(filepath.Join(h.uploadDir, name)); err != nil && !os.IsNotExist(err) {
			h.logError(c, err, "failed to delete photo file", "photo_url", req.PhotoURL)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Photo removed successfully"})
}
