package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/audioroom/backend/internal/api"
	"github.com/audioroom/backend/internal/config"
	"github.com/audioroom/backend/internal/database"
	_ "github.com/audioroom/backend/internal/games"
	"github.com/audioroom/backend/internal/locale"
	"github.com/audioroom/backend/internal/migrations"
	"github.com/audioroom/backend/internal/redis"
	"github.com/audioroom/backend/internal/table"
	"github.com/audioroom/backend/internal/ws"
)

const serverVersion = "1.2.0"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	catalog := locale.New()
	tables := table.NewManager(db, rdb, cfg, catalog)
	defer tables.Shutdown()

	hub := ws.NewHub()
	hub.StartIdleWorker(time.Duration(cfg.SessionTimeoutMin) * time.Minute)

	wsServer := ws.NewServer(hub, tables, db, rdb, cfg, catalog, serverVersion)
	wsServer.StartChatBridge(context.Background())
	tables.SetClosedHook(wsServer.ReturnToMainMenu)

	// Periodic cleanup of saved tables past their retention window
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			tables.PurgeExpiredSaves()
		}
	}()

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, wsServer, tables, db, cfg, catalog, serverVersion)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting AudioRoom server %s on port %s", serverVersion, port)
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		if err := router.RunTLS(":"+port, cfg.TLSCertFile, cfg.TLSKeyFile); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
		return
	}
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
