package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	vendormodels "io.fixlink.jobboard/internal/models/vendor"
)

type VendorHandler struct {
	postgres *pgxpool.Pool
	redis    *redis.Client
	logger   *zap.SugaredLogger
}

// NewVendorHandler creates a new vendor profile handler
func NewVendorHandler(postgres *pgxpool.Pool, redisClient *redis.Client, logger *zap.SugaredLogger) *VendorHandler {
	return &VendorHandler{
		postgres: postgres,
		redis:    redisClient,
		logger:   logger,
	}
}

// GetProfile returns the vendor profile linked to the authenticated user
func (h *VendorHandler) GetProfile(c *gin.Context) {
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userUID, _ := uid.(string)

	ctx := context.Background()

	cacheKey := "vendor_profile:" + userUID
	if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var v vendormodels.Vendor
		if err := json.Unmarshal([]byte(cached), &v); err == nil {
			c.JSON(http.StatusOK, gin.H{"vendor": v})
			return
		}
	}

	var v vendormodels.Vendor
	query := `
		SELECT v.id, v.company_name, COALESCE(v.contact_name, ''), COALESCE(v.phone, ''),
		       v.service_areas, v.appliance_types, v.created_at, v.updated_at
		FROM vendors v
		JOIN users u ON u.vendor_id = v.id
		WHERE u.uid = $1`
	err := h.postgres.QueryRow(ctx, query, userUID).Scan(
		&v.ID, &v.CompanyName, &v.ContactName, &v.Phone,
		&v.ServiceAreas, &v.ApplianceTypes, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No vendor profile linked to this account"})
		return
	}
	if err != nil {
		h.logError(c, err, "failed to load vendor profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load vendor profile"})
		return
	}

	if vendorJSON, err := json.Marshal(v); err == nil {
		h.redis.Set(ctx, cacheKey, vendorJSON, time.Hour)
	}

	c.JSON(http.StatusOK, gin.H{"vendor": v})
}

type updateProfileRequest struct {
	CompanyName    string   `json:"companyName,omitempty"`
	ContactName    string   `json:"contactName,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	ServiceAreas   []string `json:"serviceAreas,omitempty"`
	ApplianceTypes []string `json:"applianceTypes,omitempty"`
}

// UpdateProfile updates the vendor profile, including the coverage arrays
// that drive vendor-matched notifications
func (h *VendorHandler) UpdateProfile(c *gin.Context) {
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userUID, _ := uid.(string)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	ctx := context.Background()

	query := `
		UPDATE vendors v SET
			company_name = COALESCE(NULLIF($1, ''), v.company_name),
			contact_name = COALESCE(NULLIF($2, ''), v.contact_name),
			phone = COALESCE(NULLIF($3, ''), v.phone),
			service_areas = COALESCE($4, v.service_areas),
			appliance_types = COALESCE($5, v.appliance_types),
			updated_at = NOW()
		FROM users u
		WHERE u.vendor_id = v.id AND u.uid = $6`
	tag, err := h.postgres.Exec(ctx, query,
		req.CompanyName, req.ContactName, req.Phone,
		req.ServiceAreas, req.ApplianceTypes, userUID,
	)
	if err != nil {
		h.logError(c, err, "failed to update vendor profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vendor profile"})
		return
	}
	if tag.RowsAffected() == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No vendor profile linked to this account"})
		return
	}

	h.redis.Del(ctx, "vendor_profile:"+userUID)
	c.JSON(http.StatusOK, gin.H{"message": "Vendor profile updated successfully"})
}
