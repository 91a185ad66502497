package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	usermodels "io.fixlink.jobboard/internal/models/account"
	loginmodels "io.fixlink.jobboard/internal/models/login"
)

const sessionTTL = 24 * time.Hour

type AuthHandler struct {
	postgres  *pgxpool.Pool
	redis     *redis.Client
	logger    *zap.SugaredLogger
	jwtSecret []byte
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(postgres *pgxpool.Pool, redisClient *redis.Client, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		postgres:  postgres,
		redis:     redisClient,
		logger:    logger,
		jwtSecret: []byte(os.Getenv("JWT_SECRET")),
	}
}

// CreateAccount registers a vendor user together with its company profile
func (h *AuthHandler) CreateAccount(c *gin.Context) {
	var req loginmodels.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logError(c, err, "failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	ctx := context.Background()

	tx, err := h.postgres.Begin(ctx)
	if err != nil {
		h.logError(c, err, "failed to start transaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}
	defer tx.Rollback(ctx)

	var vendorID string
	vendorQuery := `
		INSERT INTO vendors (company_name, contact_name, phone, service_areas, appliance_types)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err = tx.QueryRow(ctx, vendorQuery,
		req.CompanyName, req.ContactName, req.Phone,
		orEmptyArray(req.ServiceAreas), orEmptyArray(req.ApplianceTypes),
	).Scan(&vendorID)
	if err != nil {
		h.logError(c, err, "failed to insert vendor")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	uid := uuid.New().String()
	userQuery := `
		INSERT INTO users (uid, email, display_name, password_hash, vendor_id)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, userQuery, uid, req.Email, req.DisplayName, string(hash), vendorID); err != nil {
		h.logError(c, err, "failed to insert user", "email", req.Email)
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.logError(c, err, "failed to commit account creation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"uid":      uid,
		"vendorId": vendorID,
		"message":  "Account created successfully",
	})
}

// Login authenticates a vendor user and registers the supplied push token
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginmodels.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	ctx := context.Background()

	var user usermodels.User
	var passwordHash string
	query := `
		SELECT uid, email, COALESCE(display_name, ''), COALESCE(vendor_id::text, ''), password_hash, created_at, updated_at
		FROM users
		WHERE email = $1`
	err := h.postgres.QueryRow(ctx, query, req.Email).Scan(
		&user.UID, &user.Email, &user.DisplayName, &user.VendorID, &passwordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.logError(c, err, "failed to load user", "email", req.Email)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.UID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	if err != nil {
		h.logError(c, err, "failed to sign session token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	// Session marker with the same lifetime as the JWT
	if err := h.redis.Set(ctx, "session:"+user.UID, "1", sessionTTL).Err(); err != nil {
		h.logError(c, err, "failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	// Register the device token as part of the login, never as a separate
	// failure: a token problem must not block the login itself.
	if req.PushToken != "" {
		if err := h.registerPushToken(ctx, user.UID, req.PushToken, req.Platform); err != nil {
			h.logError(c, err, "failed to register push token at login", "uid", user.UID)
		}
	}

	c.JSON(http.StatusOK, loginmodels.LoginResponse{
		Token: tokenString,
		User:  user,
	})
}

// orEmptyArray replaces a nil slice with an empty one. pgx encodes nil as
// SQL NULL, which the NOT NULL coverage columns reject.
func orEmptyArray(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func (h *AuthHandler) registerPushToken(ctx context.Context, uid, token, platform string) error {
	if platform == "" {
		platform = "android"
	}
	upsert := `
		INSERT INTO push_tokens (user_uid, token, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_uid, token)
		DO UPDATE SET platform = EXCLUDED.platform, updated_at = NOW()`
	if _, err := h.postgres.Exec(ctx, upsert, uid, token, platform); err != nil {
		return err
	}
	// Keep the legacy single-token column in sync with the newest value
	_, err := h.postgres.Exec(ctx, `UPDATE users SET last_push_token = $1, updated_at = NOW() WHERE uid = $2`, token, uid)
	return err
}

// Logout ends the session and removes the supplied push token
func (h *AuthHandler) Logout(c *gin.Context) {
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userUID, _ := uid.(string)

	var req loginmodels.LogoutRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	ctx := context.Background()
	h.redis.Del(ctx, "session:"+userUID)

	if req.PushToken != "" {
		if _, err := h.postgres.Exec(ctx,
			`DELETE FROM push_tokens WHERE user_uid = $1 AND token = $2`, userUID, req.PushToken); err != nil {
			h.logError(c, err, "failed to remove push token at logout", "uid", userUID)
		}
		if _, err := h.postgres.Exec(ctx,
			`UPDATE users SET last_push_token = NULL WHERE uid = $1 AND last_push_token = $2`, userUID, req.PushToken); err != nil {
			h.logError(c, err, "failed to clear last push token at logout", "uid", userUID)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
