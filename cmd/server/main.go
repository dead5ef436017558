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

	"caption-search-backend/internal/config"
	"caption-search-backend/internal/database"
	"caption-search-backend/internal/handlers"
	"caption-search-backend/internal/middleware"
	"caption-search-backend/internal/repository"
	"caption-search-backend/internal/router"
	"caption-search-backend/internal/services"
	"caption-search-backend/internal/websocket"
	"caption-search-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Caption Search Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL, database.PoolSize(cfg.WorkerCount))
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL, cfg.WorkerCount)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories & Services ────
	searchRepo := repository.NewSearchRepo(pool)
	queue := worker.NewQueue(redisClients.Queue)
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)

	searchHandler := handlers.NewSearchHandler(searchRepo, queue, cfg.Search.MaxReferences)

	// ──── Step 5: Start Search Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		searchRepo,
		queue,
		worker.YouTubeProviders,
		cfg.Search,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	retention := services.NewRetentionScheduler(searchRepo, cfg.RetentionDays)
	if err := retention.Start(cfg.RetentionCron); err != nil {
		log.Fatalf("✗ Retention scheduler failed: %v", err)
	}
	log.Println("✓ Retention scheduler started")

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(jwtAuth, searchHandler, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}

		// Running searches are handed back to the queue before exit.
		workerPool.Stop()
		retention.Stop()
	}()

	log.Printf("✓ Caption Search Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	<-shutdownDone
	log.Println("Shutdown complete")
}
