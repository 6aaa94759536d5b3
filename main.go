package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ozgunk/social-feed-be/internal/api"
	"github.com/ozgunk/social-feed-be/internal/auth"
	"github.com/ozgunk/social-feed-be/internal/config"
	"github.com/ozgunk/social-feed-be/internal/database"
	"github.com/ozgunk/social-feed-be/internal/logger"
	"github.com/ozgunk/social-feed-be/internal/monitoring"
	"github.com/ozgunk/social-feed-be/internal/services"
	"github.com/ozgunk/social-feed-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Ensure the base directory for uploaded images exists
	if err := os.MkdirAll(cfg.ImagesPath, 0755); err != nil {
		log.Fatalf("Failed to create images directory: %v", err)
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	tokenService := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, eventService)
	assetService := services.NewAssetService(cfg.ImagesPath)
	postService := services.NewPostService(db, assetService, eventService, hub)

	// Set up and run the background stat updater
	statUpdater := monitoring.NewStatUpdater(hub, cfg.ImagesPath)
	go statUpdater.Run()

	// Set up and run the background orphan-asset sweeper
	sweeper, err := monitoring.NewAssetSweeper(postService, assetService, eventService, cfg.AssetSweepSchedule)
	if err != nil {
		log.Fatalf("Failed to initialize asset sweeper: %v", err)
	}
	go sweeper.Run()

	// Set up router
	router := api.NewRouter(api.RouterDeps{
		Tokens:       tokenService,
		UserService:  userService,
		PostService:  postService,
		EventService: eventService,
		StatUpdater:  statUpdater,
		Hub:          hub,
		ImagesPath:   cfg.ImagesPath,
		ProdMode:     cfg.AppEnv == "production",
		CookieTTL:    cfg.TokenTTL,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on port %d\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	statUpdater.Stop() // Stop the monitoring service
	sweeper.Stop()     // Stop the orphan sweeper

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
