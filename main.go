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

	apperrors "github.com/Jacob59569/Fast-Api-Stripe/common/errors"
	"github.com/Jacob59569/Fast-Api-Stripe/common/logger"
	"github.com/Jacob59569/Fast-Api-Stripe/common/middleware"
	"github.com/Jacob59569/Fast-Api-Stripe/config"
	"github.com/Jacob59569/Fast-Api-Stripe/controllers"
	"github.com/Jacob59569/Fast-Api-Stripe/database"
	"github.com/Jacob59569/Fast-Api-Stripe/kafka"
	"github.com/Jacob59569/Fast-Api-Stripe/models"
	aws_pkg "github.com/Jacob59569/Fast-Api-Stripe/pkg/aws"
	"github.com/Jacob59569/Fast-Api-Stripe/repository"
	"github.com/Jacob59569/Fast-Api-Stripe/routes"
	"github.com/Jacob59569/Fast-Api-Stripe/services"
	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[CheckoutService] Failed to load config: ", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- AWS setup (only when something needs it) ---
	var awsCfg sdkaws.Config
	if cfg.NeedsAWS() {
		awsCfg, err = aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Fatal("[CheckoutService] Failed to load AWS config: ", err)
		}
	}

	// --- Logger ---
	var shipWriter io.Writer
	if cfg.CloudWatchEnabled {
		cwLogs, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, services.ServiceName)
		if err != nil {
			log.Printf("[CheckoutService] CloudWatch Logs disabled: %v", err)
		} else {
			shipper := &zapcore.BufferedWriteSyncer{WS: zapcore.AddSync(cwLogs), FlushInterval: 5 * time.Second}
			defer func() { _ = shipper.Stop() }()
			shipWriter = shipper
		}
	}
	zapLogger, err := logger.Initialize(cfg.Env, shipWriter)
	if err != nil {
		log.Fatal("[CheckoutService] Failed to initialize logger: ", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	// --- Storage ---
	db, err := database.ConnectPostgres(cfg.PostgresDSN(), zapLogger, &models.Payment{})
	if err != nil {
		zapLogger.Fatal("DB connection failed", zap.Error(err))
	}
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("Redis connection failed", zap.Error(err))
	}

	metricsClient := aws_pkg.NewMetricsClient(awsCfg, "ECommerce/Checkout", cfg.CloudWatchEnabled)

	// --- Event bus ---
	var publisher services.EventPublisher
	var kafkaProducer *kafka.PaymentEventProducer
	switch cfg.EventBus {
	case config.EventBusSNS:
		publisher = services.NewSNSEventPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.PaymentSNSTopicARN)
		zapLogger.Info("Publishing payment events to SNS", zap.String("topic_arn", cfg.PaymentSNSTopicARN))
	case config.EventBusKafka:
		kafkaProducer = kafka.NewPaymentEventProducer(cfg.KafkaBrokers, cfg.KafkaTopic, zapLogger)
		publisher = kafkaProducer
	default:
		zapLogger.Info("Event bus disabled")
	}

	// --- Dependency injection ---
	stripeSvc := services.NewStripeService(
		cfg.StripeSecretKey,
		cfg.StripeWebhookSecret,
		cfg.CheckoutCurrency,
		cfg.CheckoutSuccessURL,
		cfg.CheckoutCancelURL,
	)
	paymentRepo := repository.NewGormPaymentRepo(db)
	cartRepo := repository.NewRedisCartRepo(redisClient, cfg.CartTTL)

	checkoutService := services.NewCheckoutService(stripeSvc, metricsClient, zapLogger)
	paymentService := services.NewPaymentService(stripeSvc, paymentRepo, publisher, metricsClient, zapLogger)

	paymentController := controllers.NewPaymentController(checkoutService, paymentService, zapLogger)
	cartController := controllers.NewCartController(cartRepo, checkoutService, metricsClient, zapLogger)

	if cfg.CheckoutRequestQueueURL != "" {
		sqsConsumer := aws_pkg.NewSQSConsumer(awsCfg, cfg.CheckoutRequestQueueURL, zapLogger)
		consumer := services.NewCheckoutRequestConsumer(sqsConsumer, checkoutService, publisher, metricsClient, zapLogger)
		go consumer.Start(ctx)
	}

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	rateLimiter := middleware.NewRateLimiter(rate.Every(time.Minute/100), 50, 10*time.Minute)
	go rateLimiter.StartCleanup(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.MetricsMiddleware(metricsClient, services.ServiceName))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterRoutes(r, paymentController, cartController, rateLimiter)

	// --- HTTP server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLogger.Info("Checkout Service started", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Initiating graceful shutdown...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown error", zap.Error(err))
	}

	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			zapLogger.Error("Kafka producer close error", zap.Error(err))
		}
	}
	if err := redisClient.Close(); err != nil {
		zapLogger.Error("Redis close error", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		zapLogger.Error("Database close error", zap.Error(err))
	}

	zapLogger.Info("Checkout Service stopped gracefully")
}
