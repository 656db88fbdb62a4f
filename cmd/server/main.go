package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AnshRaj112/orally-backend/internal/app"
	"github.com/AnshRaj112/orally-backend/internal/config"
	"github.com/AnshRaj112/orally-backend/internal/routes"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize:", err)
	}
	defer a.Close()
	log.Printf("✅ Store ready (%s)", cfg.StoreDriver)

	router, err := a.Router()
	if err != nil {
		log.Fatal("Failed to build router:", err)
	}

	log.Println("📋 Registered routes:")
	for _, route := range routes.Registered {
		log.Println("  " + route)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️  WARNING: shutdown: %v", err)
		}
	}()

	log.Printf("🚀 Orally backend running on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start server:", err)
	}
	log.Println("👋 Server stopped")
}
