package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkalvans/mafia-backend/internal/config"
	"github.com/mkalvans/mafia-backend/internal/database"
	"github.com/mkalvans/mafia-backend/internal/httpapi"
	"github.com/mkalvans/mafia-backend/internal/ratelimit"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Connect to PostgreSQL.
	ctx := context.Background()
	dbPool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer dbPool.Close()
	log.Println("connected to database")

	// Run pending migrations.
	if err := database.Migrate(ctx, dbPool, cfg.MigrationsDir); err != nil {
		log.Fatalf("database migrate: %v", err)
	}
	log.Println("migrations up to date")

	var limiter ratelimit.Limiter
	if cfg.RateLimit {
		limiter = httpapi.DefaultRateLimiter()
	}

	router := httpapi.NewRouter(dbPool, []byte(cfg.TokenSecret), limiter, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("mafia backend listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
