package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-verifier/internal/api"
	"github.com/akylbek/payment-system/payment-verifier/internal/client"
	"github.com/akylbek/payment-system/payment-verifier/internal/config"
	"github.com/akylbek/payment-system/payment-verifier/internal/events"
	"github.com/akylbek/payment-system/payment-verifier/internal/repository"
	"github.com/akylbek/payment-system/payment-verifier/internal/service"
	"github.com/akylbek/payment-system/payment-verifier/internal/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize telemetry
	if err := telemetry.InitTelemetry("payment-verifier", cfg.JaegerEndpoint); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Payment Verifier",
		zap.String("endpoint", cfg.Gateway.Endpoint),
		zap.Int("store_id", cfg.Gateway.StoreID),
	)

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repo := repository.NewVerificationRepository(db)
	if err := repo.InitDB(); err != nil {
		telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	defer redisClient.Close()
	pendingStore := repository.NewPendingOrderStore(redisClient, cfg.PendingTTL, cfg.LockTTL)

	// Connect to NATS
	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer nc.Close()

	// Connect to Kafka
	kafkaWriter := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(cfg.KafkaBrokers, ",")...),
		Topic:    cfg.KafkaTopic,
		Balancer: &kafka.LeastBytes{},
	}
	defer kafkaWriter.Close()

	// Verification pipeline
	posClient := client.New(cfg.Gateway, telemetry.Logger)
	verifier := service.NewVerifier(posClient, posClient.StoreID(), telemetry.Logger)
	orchestrator := service.NewOrchestrator(verifier, cfg.PaymentMethods)
	checkout := service.NewCheckout(
		orchestrator,
		pendingStore,
		repo,
		events.NewKafkaPublisher(kafkaWriter),
		cfg.BatchConcurrency,
	)

	responder := service.NewNATSResponder(checkout, cfg.Gateway.Timeout, cfg.NATSConcurrency)
	sub, err := responder.Subscribe(nc, service.VerifySubject)
	if err != nil {
		telemetry.Logger.Fatal("Failed to subscribe to NATS", zap.Error(err))
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := api.NewRouter(checkout, orchestrator)

	// Setup HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.WithCORS(r, cfg.CORSAllowedOrigins),
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Payment Verifier starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := sub.Unsubscribe(); err != nil {
		telemetry.Logger.Error("Failed to unsubscribe from NATS", zap.Error(err))
	}
	responder.Wait()

	telemetry.Logger.Info("Server exited")
}
