package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/labcita/scheduling/internal/adapters/cache"
	"github.com/labcita/scheduling/internal/adapters/database"
	"github.com/labcita/scheduling/internal/adapters/events"
	"github.com/labcita/scheduling/internal/api/handlers"
	"github.com/labcita/scheduling/internal/api/middleware"
	"github.com/labcita/scheduling/internal/api/routes"
	"github.com/labcita/scheduling/internal/application/services"
	"github.com/labcita/scheduling/internal/domain/providers"
	"github.com/labcita/scheduling/internal/domain/repositories"
	"github.com/labcita/scheduling/internal/infrastructure/clients/postgres"
	"github.com/labcita/scheduling/internal/infrastructure/clients/redis"
	"github.com/labcita/scheduling/internal/infrastructure/observability"
	"github.com/labcita/scheduling/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database, cfg.Scheduling.TxTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		// Continue without Redis: caching and event streaming degrade,
		// booking correctness does not depend on them.
		log.Warn().Err(err).Msg("Failed to initialize Redis client")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time booking updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("Event bus initialized successfully")
	} else {
		log.Info().Msg("Event bus disabled (Redis not available)")
	}

	// Initialize adapters
	slotAdapter := database.NewSlotAdapter(pgClient)
	bookingAdapter := database.NewBookingAdapter(pgClient)
	scheduleAdapter := database.NewScheduleAdapter(pgClient)

	// Catalog reads are hot on every generation call; wrap them with the
	// cache when Redis is available.
	var serviceRepo repositories.ServiceRepository = database.NewServiceAdapter(pgClient)
	var locationRepo repositories.LocationRepository = database.NewLocationAdapter(pgClient)
	if cacheProvider != nil {
		serviceRepo = database.NewCachedServiceAdapter(serviceRepo, cacheProvider)
		locationRepo = database.NewCachedLocationAdapter(locationRepo, cacheProvider)
		log.Info().Msg("Catalog adapters wrapped with caching layer")
	}

	// Initialize services
	slotService := services.NewSlotService(
		slotAdapter,
		scheduleAdapter,
		serviceRepo,
		locationRepo,
		cfg.Scheduling,
	)
	bookingService := services.NewBookingService(
		bookingAdapter,
		slotAdapter,
		pgClient,
		eventBus,
		metrics,
		cfg.Scheduling,
	)

	// Initialize handlers
	slotHandler := handlers.NewSlotHandler(slotService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	scheduleHandler := handlers.NewScheduleHandler(slotService)

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus)
	}

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Info().Msg("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		slotHandler,
		bookingHandler,
		scheduleHandler,
		sseHandler,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}
