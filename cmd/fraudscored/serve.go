package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bibbank/fraudscore/internal/application/usecase"
	"github.com/bibbank/fraudscore/internal/domain/port"
	"github.com/bibbank/fraudscore/internal/domain/service"
	"github.com/bibbank/fraudscore/internal/infrastructure/auth"
	"github.com/bibbank/fraudscore/internal/infrastructure/config"
	"github.com/bibbank/fraudscore/internal/infrastructure/kafka"
	"github.com/bibbank/fraudscore/internal/infrastructure/memory"
	"github.com/bibbank/fraudscore/internal/infrastructure/observability"
	"github.com/bibbank/fraudscore/internal/infrastructure/postgres"
	grpcpresentation "github.com/bibbank/fraudscore/internal/presentation/grpc"
	"github.com/bibbank/fraudscore/internal/presentation/messaging"
	"github.com/bibbank/fraudscore/internal/presentation/rest"
)

func serve(ctx context.Context) error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	logger.Info("starting fraudscore",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"environment", cfg.Environment,
	)

	// Initialize tracing and metrics.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		Endpoint:    cfg.OTLPEndpoint,
		Environment: cfg.Environment,
	}, logger)
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		shutdownTracer = func(context.Context) error { return nil }
	}
	meterProvider, metricsHandler, err := observability.InitMetrics()
	if err != nil {
		return err
	}
	scoringMetrics, err := observability.NewScoringMetrics(meterProvider)
	if err != nil {
		return err
	}

	// Scoring engine. An invalid configuration is fatal.
	engineCfg, err := config.LoadScoring(cfg.ScoringConfigPath)
	if err != nil {
		return err
	}
	engine, err := service.NewEngine(engineCfg)
	if err != nil {
		return err
	}

	// Storage adapters.
	checks := map[string]rest.ReadinessCheck{}
	var (
		scoreRepo     port.ScoreRepository
		profileSource port.ProfileSource
	)
	if cfg.DatabaseURL != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := postgres.NewPool(dbCtx, postgres.PoolConfig{URL: cfg.DatabaseURL})
		dbCancel()
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info("connected to database")

		scoreRepo = postgres.NewScoreRepository(pool)
		profileSource = postgres.NewProfileRepository(pool)
		checks["database"] = func(ctx context.Context) error { return postgres.HealthCheck(ctx, pool) }
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		scoreRepo = memory.NewScoreRepository()
		profileSource = memory.ProfileSource(nil)
	}

	profiles, err := service.LoadProfileStore(ctx, profileSource)
	if err != nil {
		return err
	}
	logger.Info("account profiles loaded", "profiles", profiles.Len())

	// Messaging adapters.
	kafkaCfg := kafka.Config{
		Brokers:       cfg.KafkaBrokers,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		SASLMechanism: cfg.KafkaSASLMechanism,
		SASLUsername:  cfg.KafkaSASLUsername,
		SASLPassword:  cfg.KafkaSASLPassword,
		TLS:           cfg.KafkaTLS,
	}
	var publisher port.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(kafkaCfg)
		if err != nil {
			return err
		}
		defer producer.Close()
		publisher = kafka.NewEventPublisher(producer, cfg.KafkaScoresTopic, logger)
	} else {
		logger.Warn("KAFKA_BROKERS not set, scoring events will not be published")
	}

	// Wire use cases.
	scoreBatchUC := usecase.NewScoreBatch(engine, profiles, scoreRepo, publisher, scoringMetrics, logger, cfg.ScoringWorkers)
	listScoredUC := usecase.NewListScoredTransactions(scoreRepo)
	getScoredUC := usecase.NewGetScoredTransaction(scoreRepo)

	// gRPC server.
	validator, err := newValidator(cfg)
	if err != nil {
		return err
	}
	grpcHandler := grpcpresentation.NewScoringServiceHandler(scoreBatchUC, listScoredUC, getScoredUC, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		Address:     cfg.GRPCAddress(),
		TLSCertFile: cfg.TLSCertFile,
		TLSKeyFile:  cfg.TLSKeyFile,
		Reflection:  !cfg.IsProduction(),
	}, logger, validator)
	if err != nil {
		return err
	}

	// Streaming scorer fed by the transactions topic.
	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	var (
		stream       *usecase.ScoreStream
		consumer     *kafka.Consumer
		consumerDone = make(chan struct{})
	)
	errCh := make(chan error, 3)

	if cfg.StreamEnabled {
		stream = usecase.NewScoreStream(engine, profiles, scoreRepo, publisher, scoringMetrics, logger, cfg.StreamPartitions)
		stream.Start(context.WithoutCancel(ctx))
		checks["stream"] = func(context.Context) error {
			if !stream.Running() {
				return errors.New("score stream stopped")
			}
			return nil
		}

		handler := messaging.NewTransactionHandler(stream, logger)
		consumer, err = kafka.NewConsumer(kafkaCfg, cfg.KafkaTransactionsTopic, handler.Handle, logger)
		if err != nil {
			stream.Stop()
			return err
		}
		go func() {
			defer close(consumerDone)
			if err := consumer.Start(runCtx); err != nil {
				errCh <- fmt.Errorf("consumer error: %w", err)
			}
		}()
	} else {
		close(consumerDone)
	}

	// HTTP server (health checks and metrics).
	healthHandler := rest.NewHealthHandler(logger, checks)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      rest.NewRouter(healthHandler, metricsHandler, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start servers.
	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("fraudscore started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"stream_enabled", cfg.StreamEnabled,
	)

	// Wait for shutdown signal.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}

	// Graceful shutdown: stop intake first, then drain the stream.
	logger.Info("shutting down fraudscore")

	grpcServer.Stop()

	stopRun()
	<-consumerDone
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("consumer close error", "error", err)
		}
	}
	if stream != nil {
		stream.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("meter provider shutdown error", "error", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown error", "error", err)
	}

	logger.Info("fraudscore stopped")
	return runErr
}

// newValidator returns nil when no JWT material is configured.
func newValidator(cfg *config.Config) (*auth.Validator, error) {
	if !cfg.AuthEnabled() {
		return nil, nil
	}
	vcfg := auth.ValidatorConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}
	if cfg.JWTPublicKeyFile != "" {
		key, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		vcfg.PublicKeyPEM = string(key)
	}
	return auth.NewValidator(vcfg)
}
