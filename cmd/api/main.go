package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plantgate-platform/dispatch-service/pkg/cloudevents"
	"github.com/plantgate-platform/dispatch-service/pkg/kafka"
	"github.com/plantgate-platform/dispatch-service/pkg/logging"
	"github.com/plantgate-platform/dispatch-service/pkg/metrics"
	"github.com/plantgate-platform/dispatch-service/pkg/middleware"
	"github.com/plantgate-platform/dispatch-service/pkg/mongodb"
	"github.com/plantgate-platform/dispatch-service/pkg/outbox"
	outboxMongo "github.com/plantgate-platform/dispatch-service/pkg/outbox/mongodb"
	"github.com/plantgate-platform/dispatch-service/pkg/tracing"

	"github.com/plantgate-platform/dispatch-service/internal/api/handlers"
	"github.com/plantgate-platform/dispatch-service/internal/application"
	mongoRepo "github.com/plantgate-platform/dispatch-service/internal/infrastructure/mongodb"
)

const serviceName = "dispatch-service"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting dispatch-service API")

	// Load configuration
	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing - don't exit
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	businessMetrics := middleware.NewBusinessMetrics(m)
	logger.Info("Metrics initialized")

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	db := mongoClient.Database()

	// Initialize Kafka producer behind a circuit breaker
	producer := kafka.NewProductionProducer(config.Kafka, m, logger)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Initialize CloudEvents factory
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceDispatch)

	// Initialize repositories
	operationRepo := mongoRepo.NewOperationRepository(db)
	workshopRepo := mongoRepo.NewWorkshopRepository(db)
	scheduleRepo := mongoRepo.NewWorkshopScheduleRepository(db)
	bookingRepo := mongoRepo.NewBookingRepository(db, eventFactory)
	stepRepo := mongoRepo.NewBookingStepRepository(db)
	orderRepo := mongoRepo.NewOrderRepository(db, eventFactory)
	baseWeightRepo := mongoRepo.NewBaseWeightRepository(db)
	userRepo := mongoRepo.NewUserRepository(db)
	orgRepo := mongoRepo.NewOrganizationRepository(db)
	vehicleRepo := mongoRepo.NewVehicleRepository(db)
	uow := mongoRepo.NewUnitOfWork(mongoClient)

	// Initialize and start outbox publisher
	outboxRepo := outboxMongo.NewRepository(db)
	outboxPublisher := outbox.NewPublisher(
		outboxRepo,
		producer,
		logger,
		m,
		&outbox.PublisherConfig{
			PollInterval: 1 * time.Second,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	// Initialize application services
	reconcileService := application.NewReconcileService(orderRepo, bookingRepo, logger, businessMetrics)
	availabilityService := application.NewAvailabilityService(workshopRepo, scheduleRepo, bookingRepo, logger, businessMetrics)
	bookingService := application.NewBookingService(
		orderRepo,
		scheduleRepo,
		bookingRepo,
		operationRepo,
		userRepo,
		orgRepo,
		vehicleRepo,
		availabilityService,
		reconcileService,
		uow,
		application.DefaultBookingLimits(),
		logger,
		businessMetrics,
	)
	checkpointService := application.NewCheckpointService(
		bookingRepo,
		stepRepo,
		operationRepo,
		scheduleRepo,
		baseWeightRepo,
		orderRepo,
		userRepo,
		reconcileService,
		uow,
		logger,
		businessMetrics,
	)
	configService := application.NewConfigService(operationRepo, workshopRepo, scheduleRepo, logger)

	// Initialize Kafka consumer for inbound order events
	consumer := kafka.NewProductionConsumer(config.Kafka, m, logger)
	orderEventHandler := application.NewOrderEventHandler(orderRepo, logger)
	orderEventHandler.Register(consumer)

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go func() {
		if err := consumer.Start(consumerCtx); err != nil && consumerCtx.Err() == nil {
			logger.WithError(err).Error("Kafka consumer stopped")
		}
	}()
	defer consumer.Close()
	logger.Info("Kafka consumer started", "topic", kafka.Topics.OrdersInbound)

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	// Add metrics middleware
	router.Use(middleware.MetricsMiddleware(m))

	// Add tracing middleware
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	// Handle 404 and 405 errors
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes behind gateway-trust identity and tenant scoping
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(&middleware.AuthConfig{Required: true}))
	api.Use(middleware.TenantAuth(middleware.DefaultTenantAuthConfig()))
	handlers.NewBookingHandlers(bookingService, logger).RegisterRoutes(api)
	handlers.NewCheckpointHandlers(checkpointService, logger).RegisterRoutes(api)
	handlers.NewWorkshopHandlers(availabilityService, logger).RegisterRoutes(api)
	handlers.NewAdminHandlers(configService, logger).RegisterRoutes(api)

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	consumerCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8010"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "dispatch_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
			ReplicaSet:     getEnv("MONGODB_REPLICA_SET", ""),
		},
		Kafka: &kafka.Config{
			Brokers:       []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ConsumerGroup: serviceName,
			ClientID:      serviceName,
			BatchSize:     100,
			BatchTimeout:  10 * time.Millisecond,
			RequiredAcks:  -1,
			MinBytes:      1,
			MaxBytes:      10e6,
			MaxWait:       500 * time.Millisecond,
			CommitTimeout: 5 * time.Second,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
