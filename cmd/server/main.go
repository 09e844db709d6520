// Server runs the step-up authentication gateway: HTTP API, risk decisions,
// OTP challenges, and (unless disabled) an in-process outbox publisher.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stepup-auth-gateway/internal/config"
	"stepup-auth-gateway/internal/db"
	decisionrepository "stepup-auth-gateway/internal/decision/repository"
	decisionservice "stepup-auth-gateway/internal/decision/service"
	"stepup-auth-gateway/internal/kafka"
	"stepup-auth-gateway/internal/logging"
	"stepup-auth-gateway/internal/otp"
	outboxmetrics "stepup-auth-gateway/internal/outbox/metrics"
	outboxpublisher "stepup-auth-gateway/internal/outbox/publisher"
	outboxrepository "stepup-auth-gateway/internal/outbox/repository"
	"stepup-auth-gateway/internal/risk"
	"stepup-auth-gateway/internal/security"
	"stepup-auth-gateway/internal/server"
	"stepup-auth-gateway/internal/server/handler"
	"stepup-auth-gateway/internal/telemetry/otel"
	trustrepository "stepup-auth-gateway/internal/trust/repository"
	trustservice "stepup-auth-gateway/internal/trust/service"
	userrepository "stepup-auth-gateway/internal/user/repository"
	userservice "stepup-auth-gateway/internal/user/service"
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

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "stepup-auth-gateway", cfg.OTLPInsecure)
	if err != nil {
		logger.Fatal("telemetry", zap.Error(err))
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()
	runner := &db.SQLRunner{DB: pool}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis", zap.Error(err))
	}

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		logger.Fatal("jwt private key", zap.Error(err))
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		logger.Fatal("jwt public key", zap.Error(err))
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	authSvc := userservice.NewAuthService(
		userrepository.NewPostgresRepository(pool),
		security.NewHasher(cfg.BcryptCost),
		tokens,
		logger,
	)

	ledger := trustservice.NewLedger(
		trustrepository.NewPostgresDeviceRepository(pool),
		trustrepository.NewPostgresCountryRepository(pool),
	)
	engine := risk.NewEngine(risk.Weights{
		NewDeviceScore:       cfg.RiskNewDeviceScore,
		NewCountryScore:      cfg.RiskNewCountryScore,
		HighAmountScore:      cfg.RiskHighAmountScore,
		HighAmountThreshold:  cfg.HighAmountThreshold(),
		StepUpScoreThreshold: cfg.RiskStepUpScoreThreshold,
	})
	otpStore := otp.NewStore(rdb, cfg.OTPLifetime(), cfg.OTPMaxAttempts)
	outboxRepo := outboxrepository.NewPostgresRepository(pool)
	decisionRepo := decisionrepository.NewPostgresDecisionRepository(pool)
	challengeRepo := decisionrepository.NewPostgresChallengeRepository(pool)

	coordinator := decisionservice.NewCoordinator(
		runner, decisionRepo, challengeRepo, ledger, engine, otpStore, outboxRepo, logger, cfg.OTPDevPreview)
	verifier := decisionservice.NewVerifier(
		runner, decisionRepo, challengeRepo, ledger, otpStore, outboxRepo, logger)

	if cfg.OutboxEnabled {
		producer := kafka.NewProducer(cfg.KafkaBrokersList(), cfg.MonitoringKafkaTopic)
		defer producer.Close()
		publisher := outboxpublisher.New(
			runner, outboxRepo, producer, logger,
			outboxmetrics.New(registry),
			cfg.OutboxBatchSize, cfg.PublishInterval())
		publisher.Start()
		defer publisher.Stop()
	}

	router := server.NewRouter(server.Deps{
		Auth:     handler.NewAuthHandler(authSvc, logger),
		Decision: handler.NewDecisionHandler(coordinator, verifier, logger),
		Health:   handler.NewHealthHandler(pool, rdb),
		Tokens:   tokens,
		Registry: registry,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", zap.Error(err))
		}
	}
}
