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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/adarshpatil06123/ecommerce-backend/order-service/internal/clients"
	orderhttp "github.com/adarshpatil06123/ecommerce-backend/order-service/internal/http"
	"github.com/adarshpatil06123/ecommerce-backend/order-service/internal/publisher"
	"github.com/adarshpatil06123/ecommerce-backend/order-service/internal/repository"
	"github.com/adarshpatil06123/ecommerce-backend/order-service/internal/service"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/outbox"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/tracing"
)

type Config struct {
	HTTPPort        string
	KafkaBrokers    []string
	AuthServiceURL  string
	ProductURL      string
	RedisAddr       string
	OTLPEndpoint    string
	UpstreamTimeout time.Duration
	RequestTimeout  time.Duration
	PendingStaleAge time.Duration
	ShutdownTimeout time.Duration
	DB              repository.Credentials
}

func loadConfig() (*Config, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, errors.New("invalid DB_PORT")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		AuthServiceURL:  getEnv("AUTH_SERVICE_URL", "http://localhost:8084"),
		ProductURL:      getEnv("PRODUCT_SERVICE_URL", "http://localhost:8082"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		UpstreamTimeout: 5 * time.Second,
		RequestTimeout:  30 * time.Second,
		PendingStaleAge: 15 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
		DB: repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "orders_db"),
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
	log.Logger = log.With().Str("service", "order-service").Logger()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	tp, err := tracing.InitTracerProvider(ctx, "order-service", cfg.OTLPEndpoint)
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

	var productCache clients.ProductCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		productCache = clients.NewRedisProductCache(rdb)
		log.Info().Str("addr", cfg.RedisAddr).Msg("product read cache enabled")
	}

	authClient := clients.NewAuthClient(cfg.AuthServiceURL, cfg.UpstreamTimeout)
	productClient := clients.NewProductClient(cfg.ProductURL, cfg.UpstreamTimeout, productCache)
	svc := service.NewOrderService(repo, authClient, productClient)

	// Outbox relay + stale PENDING sweep.
	writer := outbox.NewWriter(cfg.KafkaBrokers...)
	defer writer.Close()
	poller := publisher.NewOrderPoller(repo, writer, cfg.PendingStaleAge)

	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(pollerCtx)
	}()

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(orderhttp.RequestIDMiddleware)
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	orderhttp.NewOrdersHandler(svc, cfg.RequestTimeout).Routes(router)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "order-service"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("order service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down order service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	pollerCancel()
	wg.Wait()
	log.Info().Msg("order service stopped")
}
