package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"io.fixlink.jobboard/internal/db"
	firebaseutil "io.fixlink.jobboard/internal/firebase"
	"io.fixlink.jobboard/internal/handlers"
	"io.fixlink.jobboard/internal/jobboard"
	"io.fixlink.jobboard/internal/jobs"
	"io.fixlink.jobboard/internal/middleware"
	"io.fixlink.jobboard/internal/notify"
	"io.fixlink.jobboard/internal/vision"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	// Initialize Firebase (nil app means push delivery runs disabled)
	firebaseApp, err := firebaseutil.InitFirebase()
	if err != nil {
		logger.Fatalw("Failed to initialize Firebase", "error", err)
	}

	// Initialize PostgreSQL
	postgresDB, err := db.InitPostgres()
	if err != nil {
		logger.Fatalw("Failed to initialize PostgreSQL", "error", err)
	}
	defer postgresDB.Close()

	// Initialize Redis
	redisClient, err := db.InitRedis()
	if err != nil {
		logger.Fatalw("Failed to initialize Redis", "error", err)
	}
	defer redisClient.Close()

	// Initialize MongoDB (job mirror)
	mongoDB, err := db.InitMongo()
	if err != nil {
		logger.Fatalw("Failed to initialize MongoDB", "error", err)
	}
	defer mongoDB.Client().Disconnect(context.Background())

	// Notification pipeline
	jobStore := jobs.NewStore(mongoDB)
	registry := notify.NewPostgresRegistry(postgresDB)
	deliveryClient := notify.NewClient(firebaseApp, logger)
	dispatcher := notify.NewDispatcher(registry, deliveryClient, logger, notify.Options{
		BatchSize:      envInt("NOTIFY_BATCH_SIZE", notify.DefaultBatchSize),
		FilterValidity: envBool("NOTIFY_FILTER_TOKENS", true),
		PruneInvalid:   envBool("NOTIFY_PRUNE_INVALID", false),
	})
	hook := notify.NewHook(dispatcher, registry, jobStore, logger, envBool("NOTIFY_VENDOR_MATCH", true))
	watcher := notify.NewWatcher(jobStore.Collection(), dispatcher, logger)

	// The change-feed watcher and the post-create hook cover the same
	// contract; the watcher is for deployments where jobs are inserted by
	// importers that bypass the API.
	if envBool("NOTIFY_WATCHER", false) {
		if err := watcher.Start(context.Background()); err != nil {
			logger.Errorw("Failed to start job watcher, continuing without it", "error", err)
		}
	}

	// Collaborator clients
	boardAPI := jobboard.NewFromEnv()
	labelExtractor := vision.NewFromEnv()

	// Initialize Gin router
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Add CORS middleware for the vendor mobile app
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(postgresDB, redisClient, logger)
	jobHandler := handlers.NewJobHandler(jobStore, boardAPI, hook, redisClient, logger)
	vendorHandler := handlers.NewVendorHandler(postgresDB, redisClient, logger)
	uploadHandler := handlers.NewUploadHandler(jobStore, logger, envOr("UPLOAD_DIR", "./internal/uploads"))
	labelHandler := handlers.NewLabelHandler(labelExtractor, logger)
	notificationsHandler := handlers.NewNotificationsHandler(postgresDB, redisClient, logger)
	defer notificationsHandler.Stop()

	authRequired := middleware.AuthMiddleware(postgresDB, redisClient)

	// Define routes
	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/create-account", authHandler.CreateAccount)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authRequired, authHandler.Logout)
		}

		// Protected job routes
		jobRoutes := v1.Group("/jobs")
		jobRoutes.Use(authRequired)
		{
			jobRoutes.POST("/create-job", jobHandler.CreateJob)
			jobRoutes.POST("/get-job", jobHandler.GetJob)
			jobRoutes.POST("/search-jobs", jobHandler.SearchJobs)
			jobRoutes.POST("/update-job", jobHandler.UpdateJob)
			jobRoutes.POST("/delete-job", jobHandler.DeleteJob)
			jobRoutes.POST("/assign-job", jobHandler.AssignJob)
			jobRoutes.POST("/add-photo", uploadHandler.AddJobPhoto)
			jobRoutes.POST("/remove-photo", uploadHandler.RemoveJobPhoto)
		}

		vendors := v1.Group("/vendors")
		vendors.Use(authRequired)
		{
			vendors.POST("/get-profile", vendorHandler.GetProfile)
			vendors.POST("/update-profile", vendorHandler.UpdateProfile)
		}

		labels := v1.Group("/labels")
		labels.Use(authRequired)
		{
			labels.POST("/extract", labelHandler.ExtractLabel)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(authRequired)
		{
			notifications.POST("/register-token", notificationsHandler.RegisterPushToken)
			notifications.POST("/unregister-token", notificationsHandler.UnregisterPushToken)
			notifications.POST("/stats", notificationsHandler.GetNotificationStats)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Serve uploaded job photos
	router.Static("/uploads", envOr("UPLOAD_DIR", "./internal/uploads"))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + envOr("PORT", "9080"),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Infow("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infow("Shutting down server")

	watcher.Stop()

	// Give a 5 second timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalw("Server forced to shutdown", "error", err)
	}

	logger.Infow("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
