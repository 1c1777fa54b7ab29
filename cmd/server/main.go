package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aulalink/exercise-service/internal/cache"
	"github.com/aulalink/exercise-service/internal/config"
	"github.com/aulalink/exercise-service/internal/events"
	"github.com/aulalink/exercise-service/internal/grading"
	"github.com/aulalink/exercise-service/internal/handlers"
	"github.com/aulalink/exercise-service/internal/repositories/postgres"
	"github.com/aulalink/exercise-service/internal/services"
	"github.com/aulalink/exercise-service/internal/utils"
	"github.com/aulalink/exercise-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := postgres.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: cfg.KafkaBrokers,
		TopicName:    cfg.EventsTopic,
		Logger:       slogger,
	})
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	cacheService := cache.NewRedisCache(redisClient, slogger)
	validator := utils.NewValidator()
	engine := grading.NewEngine()

	exerciseService := services.NewExerciseService(repo, cacheService, publisher, slogger, validator)
	submissionService := services.NewSubmissionService(repo, engine, publisher, slogger, validator)
	gradingService := services.NewGradingService(repo, cacheService, publisher, slogger, validator)
	exportService := services.NewExportService(repo, slogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(utils.ContextLogger(logger))

	handlerManager := handlers.NewHandlerManager(
		exerciseService, submissionService, gradingService, exportService,
		validator, logger,
	)
	handlerManager.SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}
