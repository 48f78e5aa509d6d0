package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/tastegen/backend/config"
	"github.com/tastegen/backend/internal/api"
	"github.com/tastegen/backend/internal/database"
	"github.com/tastegen/backend/internal/middleware"
	"github.com/tastegen/backend/internal/router"
	"github.com/tastegen/backend/internal/server"
	"github.com/tastegen/backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	rawDB, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = rawDB.Close() }()

	db, err := database.NewGorm(cfg)
	if err != nil {
		log.Fatalf("Failed to open GORM connection: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis is optional; without it there is no rate limiting and no live
	// pipeline progress.
	var redisClient *redis.Client
	if rc, err := database.NewRedisClient(cfg); err != nil {
		log.Printf("Warning: Redis unavailable, rate limiting disabled: %v", err)
	} else {
		redisClient = rc
	}

	s3Cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize S3: %v", err)
	}
	if err := s3Cfg.SetupBucketPolicy(ctx); err != nil {
		log.Printf("Warning: failed to apply bucket policy: %v", err)
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	recipeService := service.NewRecipeService(db, cfg.InsertChunkSize)
	llmService := service.NewLLMService(cfg)
	audioService := service.NewAudioService(cfg, s3Cfg)
	imageService := service.NewImageService(cfg, s3Cfg)
	pipelineService := service.NewPipelineService(llmService, recipeService, audioService, redisClient, cfg.AudioLimit)

	var limiter *middleware.RateLimiter
	if redisClient != nil {
		limiter = middleware.NewGenerationRateLimiter(redisClient)
	}

	engine := router.SetupRouter(router.Handlers{
		Auth:           api.NewAuthHandler(authService),
		Recipes:        api.NewRecipeHandler(recipeService),
		Generate:       api.NewGenerateHandler(pipelineService, recipeService),
		Plans:          api.NewPlanHandler(llmService),
		Audio:          api.NewAudioHandler(recipeService, audioService, cfg.AudioLimit),
		Images:         api.NewImageHandler(recipeService, imageService),
		Health:         api.HealthCheck(database.NewHealthService(rawDB)),
		TokenValidator: authService,
		RateLimiter:    limiter,
	})

	srv := server.New(engine)
	if err := srv.Start(cfg.ServerHost + ":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
