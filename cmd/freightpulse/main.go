package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/freightpulse/freightpulse/api"
	"github.com/freightpulse/freightpulse/internal/config"
	"github.com/freightpulse/freightpulse/internal/metrics"
	"github.com/freightpulse/freightpulse/internal/publish"
	"github.com/freightpulse/freightpulse/internal/stream"
	"github.com/freightpulse/freightpulse/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	zapLogger, err := logger.NewLogger(logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// An invalid baseline must keep the query and streaming paths from
	// ever becoming reachable, so the simulator is built before the
	// server and failure is fatal.
	sim, err := metrics.NewSimulator(cfg.Simulator.Fields, cfg.Simulator.Seed)
	if err != nil {
		zapLogger.Fatal("Failed to create metrics simulator", zap.Error(err))
	}

	hub := stream.NewHub(cfg.Stream.QueueDepth, zapLogger)

	var sinks []stream.Sink
	var kafkaPub *publish.KafkaPublisher
	if cfg.Kafka.Enabled {
		kafkaPub = publish.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, zapLogger)
		sinks = append(sinks, kafkaPub)
		zapLogger.Info("Kafka KPI feed enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	coord := stream.NewCoordinator(sim, hub, cfg.Stream.TickInterval, zapLogger, sinks...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coordErr := make(chan error, 1)
	go func() { coordErr <- coord.Run(ctx) }()

	apiServer := api.NewServer(zapLogger, sim, hub, cfg)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := apiServer.Start(addr); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		zapLogger.Info("Shutting down...")
	case err := <-coordErr:
		if err != nil {
			zapLogger.Error("Streaming coordinator failed", zap.Error(err))
		}
	}

	cancel()
	hub.Shutdown()
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			zapLogger.Error("Failed to close Kafka publisher", zap.Error(err))
		}
	}
	zapLogger.Info("Server exited properly")
}
