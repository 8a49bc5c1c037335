package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UniNest-Housing/service-payment/internal/adapter"
	"github.com/UniNest-Housing/service-payment/internal/application"
	"github.com/UniNest-Housing/service-payment/internal/auth"
	"github.com/UniNest-Housing/service-payment/internal/cache"
	"github.com/UniNest-Housing/service-payment/internal/config"
	"github.com/UniNest-Housing/service-payment/internal/database"
	paymentEvents "github.com/UniNest-Housing/service-payment/internal/events"
	"github.com/UniNest-Housing/service-payment/internal/handler"
	"github.com/UniNest-Housing/service-payment/internal/health"
	"github.com/UniNest-Housing/service-payment/internal/kafka"
	"github.com/UniNest-Housing/service-payment/internal/logger"
	"github.com/UniNest-Housing/service-payment/internal/middleware"
	"github.com/UniNest-Housing/service-payment/internal/notify"
	"github.com/UniNest-Housing/service-payment/internal/reconcile"
	"github.com/UniNest-Housing/service-payment/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-payment")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-payment",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.PaymentModel{}, &repository.TransactionModel{}, &repository.BookingModel{}); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, 15*time.Minute)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()

	// Initialize Redis-backed booking owner cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})
	defer redisClient.Close()
	ownerCache := cache.NewRedisCache(redisClient, zapLogger)

	// Initialize notification emitters: Kafka for other services, the
	// in-process hub for this service's SSE streams.
	notificationHub := notify.NewHub(16)
	emitter := notify.Fanout{
		notify.NewKafkaEmitter(kafkaProducer, "service-payment"),
		notificationHub,
	}

	// Initialize payment processor adapter (mock for development)
	var processor adapter.PaystackAdapter
	if cfg.AppEnv == "development" {
		processor = adapter.NewMockPaystackAdapter(cfg.PaystackConfig.SecretKey, zapLogger)
	} else {
		processor = adapter.NewHTTPPaystackAdapter(cfg.PaystackConfig, zapLogger)
	}

	// Initialize repositories
	paymentRepo := repository.NewPaymentRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	// Initialize reconciler
	reconciler := reconcile.NewReconciler(paymentRepo, transactionRepo, bookingRepo, emitter, zapLogger)

	// Initialize application service
	paymentService := application.NewPaymentService(
		paymentRepo,
		transactionRepo,
		bookingRepo,
		processor,
		reconciler,
		ownerCache,
		cfg.OwnerCacheTTL,
		zapLogger,
	)

	// Initialize Kafka consumer for booking events
	consumerGroupID := cfg.KafkaConfig.GroupPrefix + "payment-service"
	bookingConsumer := paymentEvents.NewBookingEventConsumer(
		cfg.KafkaConfig.Brokers,
		consumerGroupID,
		paymentService,
		zapLogger,
	)
	defer bookingConsumer.Close()

	// Start Kafka consumer in a goroutine
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	go func() {
		zapLogger.Info("starting booking event consumer")
		if err := bookingConsumer.Start(consumerCtx); err != nil {
			if consumerCtx.Err() == nil {
				zapLogger.Error("booking event consumer failed", zap.Error(err))
			}
		}
	}()

	// Initialize HTTP handlers
	paymentHandler := handler.NewPaymentHandler(paymentService, processor, zapLogger)
	notificationHandler := handler.NewNotificationHandler(notificationHub, zapLogger)
	adminHandler := handler.NewAdminHandler(paymentService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-payment")
	healthHandler.RegisterRoutes(router)

	// Expose Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register API routes
	apiV1 := router.Group("/api/v1")
	paymentHandler.RegisterRoutes(apiV1, jwtManager)
	notificationHandler.RegisterRoutes(apiV1, jwtManager)
	adminHandler.RegisterRoutes(apiV1, jwtManager)

	// Create HTTP server
	// No write timeout: notification streams stay open indefinitely.
	srv := &http.Server{
		Addr:        cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-payment...")

	// Cancel Kafka consumer
	consumerCancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-payment stopped")
}
