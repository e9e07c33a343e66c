package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/consumer"
	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/gateway"
	paymenthttp "github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/http"
	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/repository"
	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/service"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/outbox"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/tracing"
)

type Config struct {
	HTTPPort        string
	KafkaBrokers    []string
	OTLPEndpoint    string
	SuccessRate     float64
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	DB              repository.Credentials
}

func loadConfig() (*Config, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, errors.New("invalid DB_PORT")
	}

	successRate, err := strconv.ParseFloat(getEnv("PAYMENT_SUCCESS_RATE", "0.8"), 64)
	if err != nil || successRate < 0 || successRate > 1 {
		return nil, errors.New("PAYMENT_SUCCESS_RATE must be a number in [0,1]")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8083"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		SuccessRate:     successRate,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DB: repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "payments_db"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.With().Str("service", "payment-service").Logger()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	tp, err := tracing.InitTracerProvider(ctx, "payment-service", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	repo, err := repository.NewRepository(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	if err := repo.RunMigrations(&cfg.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	gw := gateway.NewBernoulliGateway(cfg.SuccessRate)
	svc := service.NewPaymentService(repo, gw)
	log.Info().Float64("success_rate", cfg.SuccessRate).Msg("settlement gateway configured")

	writer := outbox.NewWriter(cfg.KafkaBrokers...)
	defer writer.Close()

	reader := consumer.NewReader(cfg.KafkaBrokers)
	defer reader.Close()
	dlqReader := consumer.NewDLQReader(cfg.KafkaBrokers)
	defer dlqReader.Close()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		outbox.NewPoller(repo, writer, nil).Run(workerCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.NewOrderConsumer(reader, writer, svc).Run(workerCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.NewDLQConsumer(dlqReader).Run(workerCtx)
	}()

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(paymenthttp.RequestIDMiddleware)
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	paymenthttp.NewPaymentsHandler(svc, cfg.RequestTimeout).Routes(router)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "payment-service"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("payment service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down payment service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	workerCancel()
	wg.Wait()
	log.Info().Msg("payment service stopped")
}
