package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"

	"diwt-portal/backend/chatsync"
	"diwt-portal/backend/config"
	"diwt-portal/backend/controllers"
	"diwt-portal/backend/routes"
	"diwt-portal/backend/storage"
	"diwt-portal/backend/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	if err := utils.EnsureAdmin(db, cfg); err != nil {
		log.Fatalf("Error seeding admin account: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis — лимит попыток входа (опционально)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Error connecting to redis: %v", err)
		}
	}

	// MinIO — вложения заявок ЄДЕБО (опционально)
	store, err := storage.NewObjectStore(cfg)
	if err != nil {
		log.Fatalf("Error initializing object store: %v", err)
	}
	var attachments controllers.AttachmentStore
	if store != nil {
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatalf("Error preparing bucket: %v", err)
		}
		attachments = store
	}

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(utils.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, attachments, rdb)

	// Счетчики очередей администратора
	chatsync.StartQueueNotifier(ctx, db, logger, chatsync.DefaultPollInterval)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
