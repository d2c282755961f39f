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
	"github.com/rs/zerolog"

	"github.com/modu-camp/quizdeck-api/internal/config"
	"github.com/modu-camp/quizdeck-api/internal/database"
	"github.com/modu-camp/quizdeck-api/internal/handler"
	"github.com/modu-camp/quizdeck-api/internal/middleware"
	"github.com/modu-camp/quizdeck-api/internal/models"
	"github.com/modu-camp/quizdeck-api/internal/repository"
	"github.com/modu-camp/quizdeck-api/internal/router"
	"github.com/modu-camp/quizdeck-api/internal/service"
	cloud "github.com/modu-camp/quizdeck-api/pkg/cloudinary"
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

	if err := db.AutoMigrate(
		&models.Quiz{},
		&models.Cohort{},
		&models.Question{},
		&models.Deployment{},
		&models.Submission{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, access caching disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, graded events disabled")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	var uploader service.FileUploader
	cloudService, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("cloudinary unavailable, question images disabled")
	} else {
		uploader = cloudService
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	quizRepo := repository.NewQuizRepository(db)
	cohortRepo := repository.NewCohortRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	deploymentRepo := repository.NewDeploymentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	questionService := service.NewQuestionService(questionRepo, quizRepo, validate, uploader, logger)
	deploymentService := service.NewDeploymentService(
		deploymentRepo,
		quizRepo,
		cohortRepo,
		questionRepo,
		validate,
		redisClient,
		cfg.AccessCacheTTL,
		cfg.DefaultDurationMinutes,
		logger,
	)
	submissionService := service.NewSubmissionService(
		submissionRepo,
		deploymentRepo,
		validate,
		natsConn,
		cfg.NATSGradedSubject,
		logger,
	)

	questionHandler := handler.NewQuestionHandler(questionService, logger)
	deploymentHandler := handler.NewDeploymentHandler(deploymentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		QuestionHandler:   questionHandler,
		DeploymentHandler: deploymentHandler,
		SubmissionHandler: submissionHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
