package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/transdoc/api/internal/bootstrap"
	"github.com/transdoc/api/internal/config"
	"github.com/transdoc/api/internal/handler"
	"github.com/transdoc/api/internal/janitor"
	"github.com/transdoc/api/internal/middleware"
	"github.com/transdoc/api/internal/model"
	"github.com/transdoc/api/internal/service"
	"github.com/transdoc/api/internal/storage"
	ws "github.com/transdoc/api/internal/websocket"
	"github.com/transdoc/api/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	bootstrap.SetupLogging(cfg.Server)

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Test Redis connection
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("Redis not available")
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	store, err := bootstrap.NewStore(cfg)
	if err != nil {
		logrus.Fatalf("Failed to open output storage: %v", err)
	}
	components := bootstrap.New(cfg)

	documentService := service.NewDocumentService(asynqClient, inspector, &cfg.Worker, cfg.Translation.DefaultLanguage)

	// Output janitor
	cleaner := janitor.New(store, cfg.Storage.CleanupSchedule, cfg.Storage.Retention)
	if err := cleaner.Start(ctx); err != nil {
		logrus.Fatalf("Failed to start output janitor: %v", err)
	}
	defer cleaner.Stop()

	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.Enabled, cfg.Auth.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    (cfg.Upload.PremiumMaxSizeMB + 1) * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	handler.Register(app, handler.Routes{
		Auth:          authMiddleware.Optional(),
		UploadLimit:   middleware.UploadLimit(cfg.Upload.MaxSizeMB, cfg.Upload.PremiumMaxSizeMB),
		ImageLimit:    rateLimiter.ImageLimit(cfg.RateLimit.ImagePerMin),
		AudioLimit:    rateLimiter.AudioLimit(cfg.RateLimit.AudioPerMin),
		DocumentLimit: rateLimiter.DocumentLimit(cfg.RateLimit.DocsPerHour),
		Documents:     handler.NewDocumentHandler(documentService, validate),
		Images:        handler.NewImageHandler(components.Images, validate, cfg.Translation.DefaultLanguage),
		Audio:         handler.NewAudioHandler(components.Audio, validate, cfg.Translation.DefaultLanguage),
		Downloads:     handler.NewDownloadHandler(store),
		Socket: func(c *websocket.Conn, handle string) {
			hub.HandleConnection(c, handle)
		},
		Services: func() map[string]bool {
			return map[string]bool{
				"translation": components.Client.IsConfigured(),
				"vision":      components.Vision.IsConfigured(),
				"speech":      components.Speech.IsConfigured(),
				"auth":        cfg.Auth.Enabled,
				"r2":          cfg.Storage.Driver == "r2",
			}
		},
	})

	// Start Asynq worker server
	workerServer := newWorkerServer(cfg, redisOpt)
	go runWorkerServer(workerServer, components, store, hub, cfg.Translation.DefaultLanguage)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logrus.Info("Shutting down server...")
		workerServer.Shutdown()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.WithError(err).Error("Server shutdown error")
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	logrus.Infof("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		logrus.Fatalf("Server error: %v", err)
	}
}

func newWorkerServer(cfg *config.Config, redisOpt asynq.RedisClientOpt) *asynq.Server {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	return asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				cfg.Worker.Queue: 1,
			},
			Logger:   logrus.StandardLogger(),
			LogLevel: asynqLogLevel,
		},
	)
}

func runWorkerServer(srv *asynq.Server, components *bootstrap.Components, store storage.Store, hub *ws.Hub, defaultLanguage string) {
	translationWorker := worker.NewTranslationWorker(components.Pipeline, store, hub, defaultLanguage)

	mux := asynq.NewServeMux()
	mux.HandleFunc(model.TaskTypeTranslateDocument, translationWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		logrus.WithError(err).Error("Asynq worker error")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
