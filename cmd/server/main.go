// server runs the handwritten math calculator API.
//
// It accepts a drawing as a base64 data URI on POST /calculate, sends it to a
// vision model (falling back through the configured model list) and returns
// the recognized expressions with their evaluated results.
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/calculator/backend/internal/api"
	"github.com/codyseavey/calculator/backend/internal/config"
	"github.com/codyseavey/calculator/backend/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file %s: %v", cfg.LogFile, err)
		}
		defer f.Close()
		out := io.MultiWriter(os.Stderr, f)
		log.SetOutput(out)
		gin.DefaultWriter = out
		gin.DefaultErrorWriter = out
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	client, err := services.NewFallbackClientFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to configure models: %v", err)
	}
	validator := services.NewImageValidator(cfg.MaxImagePixels, cfg.AllowedImageFormats)

	router := api.NewRouter(api.RouterDeps{
		Validator:      validator,
		Analyzer:       services.NewCalculator(client),
		Models:         client.Models(),
		AllowedFormats: validator.AllowedFormats(),
		MaxPixels:      validator.MaxPixels(),
		CORSOrigins:    cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Calculator server starting on %s (env=%s, models=%v, formats=%v)",
			cfg.Addr(), cfg.Env, client.Models(), validator.AllowedFormats())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
