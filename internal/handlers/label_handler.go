package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	extractlabelmodels "io.fixlink.jobboard/internal/models/extract_label"
	"io.fixlink.jobboard/internal/vision"
)

type LabelHandler struct {
	extractor *vision.Extractor
	logger    *zap.SugaredLogger
}

// NewLabelHandler creates a new appliance-label extraction handler
func NewLabelHandler(extractor *vision.Extractor, logger *zap.SugaredLogger) *LabelHandler {
	return &LabelHandler{
		extractor: extractor,
		logger:    logger,
	}
}

// ExtractLabel reads brand/model/serial off an appliance label photo
func (h *LabelHandler) ExtractLabel(c *gin.Context) {
	var req extractlabelmodels.ExtractLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image URL is required"})
		return
	}

	if !h.extractor.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Label extraction is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	label, err := h.extractor.ExtractLabel(ctx, req.ImageURL)
	if err != nil {
		h.logError(c, err, "label extraction failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to extract label data"})
		return
	}

	c.JSON(http.StatusOK, extractlabelmodels.ExtractLabelResponse{
		Brand:        label.Brand,
		Model:        label.Model,
		SerialNumber: label.SerialNumber,
	})
}
