package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"draft-session-system/handlers"
	"draft-session-system/middleware"
	"draft-session-system/models"
	"draft-session-system/refdata"
	"draft-session-system/services"
	"draft-session-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment variables directly")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer logger.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.Player{},
		&models.Session{},
		&models.SessionPlayer{},
		&models.SessionSettings{},
		&models.MatchPlayer{},
		&models.OutcomeLedger{},
	); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	catalog, err := refdata.Load()
	if err != nil {
		logger.Fatal("failed to load faction catalog", zap.Error(err))
	}

	bus := services.NewEventBus(logger)
	sessionService := services.NewSessionService(db, logger)
	draftService := services.NewDraftService(db, catalog, logger)
	matchService := services.NewMatchService(db, bus, logger)
	ratingService := services.NewRatingService(db, logger)

	bus.SubscribeMatchFinished(ratingService.HandleMatchFinished)

	// Bring ratings up to date with any matches finished while the
	// service was down, then keep reconciling on a schedule.
	if err := ratingService.Replay(); err != nil {
		logger.Error("startup rating replay failed", zap.Error(err))
	}
	ratingService.StartReplayScheduler(time.Hour)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nameSync := workers.NewNameSyncWorker(db, logger, 10*time.Minute)
	go nameSync.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName: "draft-session-system",
	})

	app.Use(cors.New())
	app.Use(middleware.UserContext(logger))

	handlers.SetupSessionRoutes(app, sessionService, draftService, matchService)
	handlers.SetupRatingRoutes(app, ratingService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}()

	logger.Info("server running", zap.String("port", port))

	<-ctx.Done()
	logger.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
