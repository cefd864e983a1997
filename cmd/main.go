package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"motormart/internal/caching"
	"motormart/internal/handlers"
	"motormart/internal/jobs/background"
	"motormart/internal/middleware"
	"motormart/internal/repositories"
	"motormart/internal/services"
	"motormart/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Identity configuration: JWKS of the hosted provider, or a shared
	// secret for development.
	jwksURL := os.Getenv("IDENTITY_JWKS_URL")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwksURL == "" && jwtSecret == "" {
		jwtSecret = random.String(32)
		log.Printf("WARNING: Using generated JWT secret: %s", jwtSecret)
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	storageBucket := os.Getenv("STORAGE_BUCKET")
	if storageBucket == "" {
		storageBucket = "car-images"
	}
	publicStorageURL := os.Getenv("PUBLIC_STORAGE_URL")
	if publicStorageURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicStorageURL = fmt.Sprintf("%s://%s", scheme, minioEndpoint)
	}

	storageSvc, err := services.NewMinioStorage(minioEndpoint, minioAccessKey, minioSecretKey, useSSL, storageBucket, publicStorageURL)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}
	if err := storageSvc.EnsureBucket(context.Background()); err != nil {
		log.Printf("WARNING: could not ensure storage bucket %s: %v", storageBucket, err)
	}

	// Gemini configuration. A missing key is reported per analysis call,
	// not at startup, so the rest of the app still serves.
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-2.5-flash"
	}

	// Create repositories
	carRepo := repositories.NewCarRepo(pool)
	userRepo := repositories.NewUserRepo(pool)

	// Create services
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)
	visionClient := services.NewGeminiVision(geminiAPIKey, geminiModel)
	analysisSvc := services.NewAnalysisService(visionClient)
	carSvc := services.NewCarService(carRepo, userRepo, storageSvc, cacheSvc)

	// Create handlers
	carHandlers := handlers.NewCarHandlers(carSvc, analysisSvc)
	searchHandlers := handlers.NewSearchHandlers(carSvc, analysisSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	authMiddleware, err := middleware.NewAuthMiddleware(jwksURL, jwtSecret)
	if err != nil {
		log.Fatalf("Failed to initialize auth middleware: %v", err)
	}

	// Background maintenance jobs (off unless enabled)
	if os.Getenv("ENABLE_BACKGROUND_JOBS") == "true" {
		scheduler, err := background.NewJobScheduler(carRepo, storageSvc, cacheSvc)
		if err != nil {
			log.Fatalf("Failed to create job scheduler: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// API routes
	v1 := e.Group("/v1")

	// Public search surface
	v1.GET("/cars", searchHandlers.ListCars)
	v1.POST("/search/image", searchHandlers.ImageSearch)

	// Admin routes (require a verified identity token)
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.Authenticate())
	admin.POST("/cars", carHandlers.CreateCar)
	admin.GET("/cars", carHandlers.ListCars)
	admin.DELETE("/cars/:id", carHandlers.DeleteCar)
	admin.PATCH("/cars/:id/status", carHandlers.UpdateCarStatus)
	admin.POST("/cars/analyze", carHandlers.AnalyzeCar)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Motormart server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
