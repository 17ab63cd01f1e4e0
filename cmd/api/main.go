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

	"github.com/hospitalcore/surgical-procedures/internal/adapters/cache"
	"github.com/hospitalcore/surgical-procedures/internal/adapters/database"
	"github.com/hospitalcore/surgical-procedures/internal/adapters/events"
	"github.com/hospitalcore/surgical-procedures/internal/api/handlers"
	"github.com/hospitalcore/surgical-procedures/internal/api/routes"
	"github.com/hospitalcore/surgical-procedures/internal/application/services"
	"github.com/hospitalcore/surgical-procedures/internal/domain/providers"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
	"github.com/hospitalcore/surgical-procedures/internal/infrastructure/clients/postgres"
	"github.com/hospitalcore/surgical-procedures/internal/infrastructure/clients/redis"
	"github.com/hospitalcore/surgical-procedures/internal/infrastructure/observability"
	"github.com/hospitalcore/surgical-procedures/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Warn().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// Initialize Redis client. The engine runs without it; caching and
	// event publishing are degraded, not required.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Redis client, continuing without cache and events")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized")
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("event bus initialized")
	}

	// Initialize adapters
	procedureAdapter := database.NewProcedureAdapter(pgClient)
	patientAdapter := database.NewPatientAdapter(pgClient)
	validationAdapter := database.NewValidationAdapter(pgClient)
	auditLogAdapter := database.NewAuditLogAdapter(pgClient)

	var ruleAdapter repositories.RuleRepository = database.NewRuleAdapter(pgClient)
	if cacheProvider != nil {
		ruleAdapter = database.NewCachedRuleAdapter(ruleAdapter, cacheProvider)
		log.Info().Msg("rule adapter wrapped with caching layer")
	}

	// Initialize services
	pricingService := services.NewPricingService()
	auditPolicy := services.NewAuditPolicy()
	procedureService := services.NewProcedureService(
		procedureAdapter,
		patientAdapter,
		auditLogAdapter,
		eventBus,
		pricingService,
		auditPolicy,
	)
	validationService := services.NewPortValidationService(ruleAdapter, validationAdapter)
	analyticsService := services.NewAnalyticsService(procedureAdapter)

	// Initialize handlers
	procedureHandler := handlers.NewProcedureHandler(procedureService)
	validationHandler := handlers.NewValidationHandler(validationService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	patientHandler := handlers.NewPatientHandler(patientAdapter)

	// Set up router
	router := routes.NewRouter(
		procedureHandler,
		validationHandler,
		analyticsHandler,
		patientHandler,
		metrics,
	)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
