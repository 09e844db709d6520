// Worker runs a standalone outbox publisher. Multiple workers can run against
// the same database; the skip-locked dequeue keeps their batches disjoint. Set
// OUTBOX_ENABLED=false on the server when workers own publishing.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"stepup-auth-gateway/internal/config"
	"stepup-auth-gateway/internal/db"
	"stepup-auth-gateway/internal/kafka"
	"stepup-auth-gateway/internal/logging"
	outboxmetrics "stepup-auth-gateway/internal/outbox/metrics"
	outboxpublisher "stepup-auth-gateway/internal/outbox/publisher"
	outboxrepository "stepup-auth-gateway/internal/outbox/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required")
	}

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	producer := kafka.NewProducer(brokers, cfg.MonitoringKafkaTopic)
	defer producer.Close()

	publisher := outboxpublisher.New(
		&db.SQLRunner{DB: pool},
		outboxrepository.NewPostgresRepository(pool),
		producer,
		logger,
		outboxmetrics.New(prometheus.NewRegistry()),
		cfg.OutboxBatchSize,
		cfg.PublishInterval(),
	)
	publisher.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("worker shutting down")
	publisher.Stop()
}
