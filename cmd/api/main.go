package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/picstream/backend/internal/config"
	"github.com/picstream/backend/internal/handlers"
	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/services"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize database. The memory driver runs without PostgreSQL and
	// keeps records for the lifetime of the process only.
	var (
		db         *gorm.DB
		imageStore services.ImageStore
		err        error
	)
	switch cfg.DBDriver {
	case "memory":
		// Image core only; auth needs the relational store and stays off.
		log.Println("DB_DRIVER=memory: records are not persisted, auth endpoints disabled")
		imageStore = services.NewMemoryImageStore()
	default:
		db, err = models.InitDB(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := models.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		imageStore = services.NewGormImageStore(db)
	}
	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize services
	s3Service, err := services.NewS3Service(cfg)
	if err != nil {
		log.Fatalf("Failed to init S3 service: %v", err)
	}
	imageService := services.NewImageService(imageStore, s3Service, cfg)

	var authService *services.AuthService
	if db != nil {
		authService = services.NewAuthService(db, cfg)
	}

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(redisClient, cfg))

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(imageService)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	if authService != nil {
		authHandler := handlers.NewAuthHandler(authService)
		auth := router.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", middleware.Identity(authService), authHandler.Logout)
		}
	}

	images := router.Group("/images")
	if authService != nil {
		images.Use(middleware.Identity(authService))
	}
	{
		images.POST("/presigned", middleware.PresignRateLimit(redisClient, cfg), imageHandler.Presign)
		images.POST("", imageHandler.CommitUploads)
		images.GET("", imageHandler.Feed)
		images.GET("/:imageId", imageHandler.GetOne)
		images.DELETE("/:imageId", imageHandler.Delete)
		images.PATCH("/:imageId/like", imageHandler.Like)
		images.PATCH("/:imageId/unlike", imageHandler.Unlike)
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
