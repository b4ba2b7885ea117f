package main

import (
	"log"

	"kingofdiamonds/config"
	"kingofdiamonds/handlers"
	"kingofdiamonds/middleware"
	"kingofdiamonds/routes"
	"kingofdiamonds/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize WebSocket hub and room registry. They reference each
	// other: the hub routes events to rooms, the rooms broadcast through
	// the hub.
	hub := services.NewHub(nil)
	registry := services.NewRegistry(services.DefaultRoomConfig(), hub)
	hub.SetRegistry(registry)
	go hub.Run()

	// Periodic cleanup of rooms abandoned to their bots
	registry.StartSweeper(services.RoomSweepInterval)

	// Initialize handlers
	roomHandler := handlers.NewRoomHandler(registry, hub, cfg)

	// Setup Gin router
	router := gin.Default()

	router.Use(middleware.CORS(cfg.CORSOrigin))
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	routes.SetupRoutes(router, roomHandler, hub)

	// Start server
	addr := cfg.BindAddress + ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
