package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/checkout"
	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/clients"
	ordershttp "github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/http"
	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/publisher"
	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/repository"
	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/service"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/catalog"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/health"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/httpx"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/logger"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/metrics"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/mongodb"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/pricing"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	_ = godotenv.Load()

	log, err := logger.New("orders-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("orders-service starting")
	var wg sync.WaitGroup

	// Configuration
	httpPort := getEnv("ORDERS_SERVICE_HTTP_PORT", "8082")
	grpcPort := getEnv("GRPC_PORT", "50055")
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	cartServiceURL := getEnv("CART_SERVICE_URL", "http://localhost:8081")
	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
	catalogDBName := getEnv("CATALOG_DB_NAME", "cartdb")
	requestTimeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "10s"))
	if err != nil {
		log.Fatal("invalid REQUEST_TIMEOUT", zap.Error(err))
	}
	rateLimit, err := strconv.ParseFloat(getEnv("CHECKOUT_RATE_LIMIT", "1"), 64)
	if err != nil {
		log.Fatal("invalid CHECKOUT_RATE_LIMIT", zap.Error(err))
	}
	rateBurst, err := strconv.Atoi(getEnv("CHECKOUT_RATE_BURST", "3"))
	if err != nil {
		log.Fatal("invalid CHECKOUT_RATE_BURST", zap.Error(err))
	}

	pricingCfg, err := pricing.ConfigFromEnv()
	if err != nil {
		log.Fatal("invalid pricing configuration", zap.Error(err))
	}
	estimator, err := checkout.EstimatorFromEnv()
	if err != nil {
		log.Fatal("invalid delivery estimate configuration", zap.Error(err))
	}

	// Database setup
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatal("invalid DB_PORT", zap.Error(err))
	}

	creds := &repository.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              dbPort,
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "ecommerce"),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalogDB, err := mongodb.Connect(ctx, mongoURI, catalogDBName)
	if err != nil {
		log.Fatal("failed to connect to catalog", zap.Error(err))
	}

	submitter := checkout.NewSubmitter(
		repo,
		clients.NewCartClient(cartServiceURL, requestTimeout, log),
		catalog.NewMongoReader(catalogDB),
		checkout.NewAssembler(pricingCfg),
		log,
		checkout.WithEstimator(estimator),
		checkout.WithTimeout(requestTimeout),
	)
	orders := service.NewOrderService(repo, log)

	// HTTP API
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	router := httpx.NewRouter(httpx.RouterConfig{
		RequestTimeout: requestTimeout,
		AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ","),
	}, log, metrics.NewServerMetrics(registry, "orders"))
	router.Handle("/metrics", metrics.Handler(registry))

	checkoutHandler := ordershttp.NewCheckoutHandler(submitter, httpx.NewRateLimiter(rateLimit, rateBurst), log)
	ordersHandler := ordershttp.NewOrdersHandler(orders, log)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(httpx.UserMiddleware)
		checkoutHandler.Routes(r)
		ordersHandler.Routes(r)
		ordersHandler.AdminRoutes(r)
	})

	httpServer := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           otelhttp.NewHandler(router, "orders-service"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start outbox publisher
	outboxPoller := publisher.NewOutboxPoller(repo, log, kafkaBrokers...)
	wg.Add(1)
	go func() {
		defer wg.Done()
		outboxPoller.Run(ctx)
	}()

	// gRPC health endpoint
	healthServer := health.NewServer("orders-service", log, map[string]health.Checker{
		"postgres": repo.Ping,
		"mongo":    func(ctx context.Context) error { return catalogDB.Client().Ping(ctx, nil) },
	})
	lis, err := net.Listen("tcp", ":"+grpcPort)
	if err != nil {
		log.Fatal("failed to listen", zap.String("port", grpcPort), zap.Error(err))
	}
	go healthServer.Watch(ctx, 10*time.Second)
	go func() {
		log.Info("gRPC health listening", zap.String("port", grpcPort))
		if err := healthServer.GRPC.Serve(lis); err != nil {
			log.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	go func() {
		log.Info("orders service listening", zap.String("port", httpPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down orders service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	healthServer.Shutdown()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Info("outbox publisher stopped cleanly")
	case <-shutdownCtx.Done():
		log.Warn("outbox publisher didn't stop in time")
	}

	outboxPoller.Close()
	if err := catalogDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Warn("mongo disconnect", zap.Error(err))
	}
	log.Info("orders service stopped")
}
