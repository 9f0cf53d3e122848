package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"wikidash/internal/config"
	"wikidash/internal/endpoints"
	"wikidash/internal/handler"
	"wikidash/internal/middleware"
	wikiService "wikidash/internal/service/wiki"
	"wikidash/internal/service/wiki/converter"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logger, logCloser, err := config.NewLogger(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"log_dir", cfg.LogDir,
	)

	registry, err := endpoints.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load endpoint registry: %v", err)
	}

	summaryConverter, err := converter.ForFormat("markdown")
	if err != nil {
		log.Fatalf("Failed to create summary converter: %v", err)
	}

	services, err := wikiService.SetupServices(cfg, summaryConverter, logger)
	if err != nil {
		log.Fatalf("Failed to set up services: %v", err)
	}

	// Handlers: one per endpoint kind, resolved once here
	analysisHandler := handler.NewAnalysisHandler(wikiService.Pipelines(services.Analysis), registry, logger)
	indexHandler := handler.NewIndexHandler(registry, logger)

	routes := analysisHandler.Routes()
	for kind, h := range indexHandler.Routes() {
		routes[kind] = h
	}

	mux := http.NewServeMux()
	if err := registry.Mount(mux, routes); err != nil {
		log.Fatalf("Failed to mount routes: %v", err)
	}
	for _, ep := range registry.List() {
		logger.Debug("route registered", "kind", ep.Kind, "pattern", ep.Pattern(), "partial", ep.Partial)
	}

	// Build middleware chain
	var handler http.Handler = mux

	// Order: CORS → RequestID → Recovery → Routes
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.RequestID(logger)(handler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})
	handler = corsHandler.Handler(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Expired geolocation entries are dropped lazily on read; sweep the rest
	go purgeLoop(ctx, services, cfg.GeoCacheTTL, logger)

	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// purgeLoop periodically drops expired geolocation entries until ctx ends
func purgeLoop(ctx context.Context, services *wikiService.Services, ttl time.Duration, logger *slog.Logger) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := services.GeoCache.Purge(); n > 0 {
				logger.Debug("geolocation cache purged", "removed", n, "remaining", services.GeoCache.Len())
			}
		}
	}
}
