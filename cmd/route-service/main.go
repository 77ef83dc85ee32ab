package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"lowcost_routes/internal/cache"
	"lowcost_routes/internal/config"
	"lowcost_routes/internal/database"
	"lowcost_routes/internal/handlers"
	"lowcost_routes/internal/middleware"
	"lowcost_routes/internal/services"
	"lowcost_routes/internal/upstream"
	"lowcost_routes/pkg/logger"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting route service",
		"address", cfg.Addr(),
		"upstream", cfg.Upstream.BaseURL,
		"cache_backend", cfg.Cache.Backend,
		"cache_ttl", cfg.Cache.TTL,
		"currency", cfg.Upstream.Currency,
	)
	if !cfg.Upstream.VerifyTLS {
		log.Warn("TLS certificate verification of the fares source is disabled")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, closeStore, err := newCacheStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise cache", "backend", cfg.Cache.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Initialize services
	client := upstream.NewClient(cfg.Upstream)
	loader := cache.NewLoader(store, cfg.Cache.TTL, log).WithLoadTimeout(cfg.Search.Timeout)
	airportService := services.NewAirportService(client, loader, log)
	routeService := services.NewRouteService(client, airportService, loader, log, cfg.Search.FanOut)
	fareService := services.NewFareService(client, routeService, loader, log)
	itineraryService := services.NewItineraryService(routeService, fareService, loader, log, cfg.Search.FanOut, client.Currency())

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log)
	routeHandlers := handlers.NewRouteHandlers(airportService, itineraryService, cfg.Search.Timeout, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Search.Timeout + 5*time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.ServeHTTP)
	r.Route("/api", routeHandlers.Register)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "address", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down route service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("route service stopped")
}

// newCacheStore builds the configured cache backend. The returned func
// releases its connections.
func newCacheStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.Store, func(), error) {
	sweep := cfg.Cache.TTL / 2
	if sweep < time.Minute {
		sweep = time.Minute
	}

	switch cfg.Cache.Backend {
	case "none":
		return cache.NoopStore{}, func() {}, nil

	case "redis":
		client, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using redis cache", "host", cfg.Redis.Host, "port", cfg.Redis.Port)
		return cache.NewRedisStore(client), func() { client.Close() }, nil

	case "postgres":
		db, err := database.NewPostgresDB(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		store, err := cache.NewPostgresStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		go func() {
			ticker := time.NewTicker(sweep)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					n, err := store.DeleteExpired(ctx)
					if err != nil {
						log.Warn("failed to delete expired cache rows", "error", err)
						continue
					}
					log.Debug("deleted expired cache rows", "count", n)
				}
			}
		}()
		log.Info("using postgres cache")
		return store, func() { db.Close() }, nil

	default:
		store := cache.NewMemoryStore()
		store.StartJanitor(ctx)
		return store, func() {}, nil
	}
}
