package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	notificationsmodels "io.fixlink.jobboard/internal/models/notifications"
)

// staleTokenAge is how long a token may go unrefreshed before the nightly
// sweep prunes it.
const staleTokenAge = "90 days"

const staleTokenSweepQuery = `DELETE FROM push_tokens WHERE updated_at < NOW() - $1::interval`

type NotificationsHandler struct {
	postgres    *pgxpool.Pool
	redis       *redis.Client
	logger      *zap.SugaredLogger
	cronManager *cron.Cron
}

// NewNotificationsHandler creates the push-token handler and starts the
// nightly stale-token sweep
func NewNotificationsHandler(postgres *pgxpool.Pool, redisClient *redis.Client, logger *zap.SugaredLogger) *NotificationsHandler {
	h := &NotificationsHandler{
		postgres:    postgres,
		redis:       redisClient,
		logger:      logger,
		cronManager: cron.New(cron.WithLocation(time.UTC)),
	}

	if _, err := h.cronManager.AddFunc("0 3 * * *", h.sweepStaleTokens); err != nil {
		logger.Errorw("failed to schedule stale-token sweep", "error", err)
	}
	h.cronManager.Start()

	return h
}

// Stop halts the scheduled sweep
func (h *NotificationsHandler) Stop() {
	ctx := h.cronManager.Stop()
	<-ctx.Done()
}

// RegisterPushToken registers a device token for the authenticated user
func (h *NotificationsHandler) RegisterPushToken(c *gin.Context) {
	var tokenData notificationsmodels.PushToken
	if err := c.ShouldBindJSON(&tokenData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	tokenData.UserUID = uid.(string)
	tokenData.UpdatedAt = time.Now()
	if tokenData.Platform == "" {
		tokenData.Platform = "android"
	}

	ctx := context.Background()

	upsert := `
		INSERT INTO push_tokens (user_uid, token, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_uid, token)
		DO UPDATE SET platform = EXCLUDED.platform, updated_at = NOW()`
	if _, err := h.postgres.Exec(ctx, upsert, tokenData.UserUID, tokenData.Token, tokenData.Platform); err != nil {
		h.logError(c, err, "failed to save push token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save token"})
		return
	}

	if _, err := h.postgres.Exec(ctx,
		`UPDATE users SET last_push_token = $1, updated_at = NOW() WHERE uid = $2`,
		tokenData.Token, tokenData.UserUID); err != nil {
		h.logError(c, err, "failed to update last push token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save token"})
		return
	}

	// Cache the token for quick access
	tokenKey := "push_token:" + tokenData.UserUID
	if tokenJSON, err := json.Marshal(tokenData); err == nil {
		h.redis.Set(ctx, tokenKey, tokenJSON, 24*time.Hour)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Token registered successfully"})
}

type unregisterTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// UnregisterPushToken removes one device token from the authenticated user
func (h *NotificationsHandler) UnregisterPushToken(c *gin.Context) {
	var req unregisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userUID := uid.(string)

	ctx := context.Background()

	if _, err := h.postgres.Exec(ctx,
		`DELETE FROM push_tokens WHERE user_uid = $1 AND token = $2`, userUID, req.Token); err != nil {
		h.logError(c, err, "failed to remove push token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove token"})
		return
	}
	if _, err := h.postgres.Exec(ctx,
		`UPDATE users SET last_push_token = NULL WHERE uid = $1 AND last_push_token = $2`, userUID, req.Token); err != nil {
		h.logError(c, err, "failed to clear last push token")
	}

	h.redis.Del(ctx, "push_token:"+userUID)
	c.JSON(http.StatusOK, gin.H{"message": "Token removed successfully"})
}

// GetNotificationStats returns the authenticated user's registration state
func (h *NotificationsHandler) GetNotificationStats(c *gin.Context) {
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userUID := uid.(string)

	ctx := context.Background()

	var tokenCount int
	var lastUpdated *time.Time
	query := `SELECT COUNT(*), MAX(updated_at) FROM push_tokens WHERE user_uid = $1`
	if err := h.postgres.QueryRow(ctx, query, userUID).Scan(&tokenCount, &lastUpdated); err != nil {
		h.logError(c, err, "failed to load notification stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	cached := h.redis.Exists(ctx, "push_token:"+userUID).Val() > 0

	resp := gin.H{
		"registeredTokens": tokenCount,
		"tokenCached":      cached,
	}
	if lastUpdated != nil {
		resp["lastRegisteredAt"] = lastUpdated
	}

	c.JSON(http.StatusOK, resp)
}

// sweepStaleTokens prunes tokens that have not been refreshed recently
func (h *NotificationsHandler) sweepStaleTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tag, err := h.postgres.Exec(ctx, staleTokenSweepQuery, staleTokenAge)
	if err != nil {
		h.logger.Errorw("stale-token sweep failed", "error", err)
		return
	}
	h.logger.Infow("stale-token sweep finished", "removed", tag.RowsAffected())
}
