package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/skillpulse/skillpulse-api/internal/config"
	"github.com/skillpulse/skillpulse-api/internal/database"
	"github.com/skillpulse/skillpulse-api/internal/handler"
	"github.com/skillpulse/skillpulse-api/internal/middleware"
	"github.com/skillpulse/skillpulse-api/internal/models"
	"github.com/skillpulse/skillpulse-api/internal/repository"
	"github.com/skillpulse/skillpulse-api/internal/router"
	"github.com/skillpulse/skillpulse-api/internal/scheduler"
	"github.com/skillpulse/skillpulse-api/internal/service"
	"github.com/skillpulse/skillpulse-api/pkg/forge"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Task{}, &models.Submission{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, fairness cache and sweep lease disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	skillConfigs, err := config.LoadSkillConfigurations(cfg.SkillsConfigPath, validate)
	if err != nil {
		log.Fatalf("failed to load skill configurations: %v", err)
	}

	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create task generator: %v", err)
	}

	events := service.NewRotationEventPublisher(redisClient, natsConn, cfg.EventChannelBase, logger)

	rotationService, err := service.NewRotationService(taskRepo, generator, events, cfg.Rotation, logger)
	if err != nil {
		log.Fatalf("failed to create rotation service: %v", err)
	}
	scoringService := service.NewScoringService(skillConfigs, redisClient, service.ScoringOptions{
		FairnessThreshold: cfg.FairnessThreshold,
		ReferenceScore:    cfg.FairnessReference,
		CacheTTL:          cfg.FairnessCacheTTL,
	}, logger)
	integrityService := service.NewIntegrityService(submissionRepo, service.IntegrityOptions{
		CorpusWindowDays: cfg.CorpusWindowDays,
	}, logger)
	taskService := service.NewTaskService(taskRepo, rotationService, logger)
	submissionService := service.NewSubmissionService(submissionRepo, taskRepo, integrityService, scoringService, validate, logger)

	taskHandler := handler.NewTaskHandler(taskService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	rotationHandler := handler.NewRotationHandler(rotationService, taskRepo, logger)
	scoringHandler := handler.NewScoringHandler(scoringService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		TaskHandler:       taskHandler,
		SubmissionHandler: submissionHandler,
		RotationHandler:   rotationHandler,
		ScoringHandler:    scoringHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper := scheduler.NewSweeper(rotationService, redisClient, cfg.SweepInterval, cfg.SweepTimeout, cfg.SweepLeaseTTL, logger)
	go sweeper.Run(sweepCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopSweeper)
}

func buildGenerator(cfg config.Config, logger zerolog.Logger) (forge.Generator, error) {
	if cfg.ForgeProvider == "openai" {
		return forge.NewOpenAIGenerator(forge.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
	}
	return forge.NewTemplateGenerator(time.Now().UnixNano()), nil
}

func waitForShutdown(app *fiber.App, stopSweeper context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
