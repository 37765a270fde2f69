package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"

	"github.com/hondana/bookstore/pkg/bookstore/api"
	"github.com/hondana/bookstore/pkg/bookstore/config"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	serverConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	svc, err := serverConfig.BuildService(context.Background())
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	logger := httplog.NewLogger("bookstore", httplog.Options{
		JSON:     serverConfig.Environment == "production",
		LogLevel: slog.LevelInfo,
		Concise:  true,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/books", api.NewBooksHandler(svc).Routes())
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: r,
	}

	go func() {
		slog.Info("bookstore server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"storage", serverConfig.StorageBackend)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	slog.Info("server exiting")
}
