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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	c "github.com/yashturmbekar/atyourdoorstep-sub001/cart-service/internal/cache"
	carthttp "github.com/yashturmbekar/atyourdoorstep-sub001/cart-service/internal/http"
	"github.com/yashturmbekar/atyourdoorstep-sub001/cart-service/internal/poller"
	"github.com/yashturmbekar/atyourdoorstep-sub001/cart-service/internal/repository"
	s "github.com/yashturmbekar/atyourdoorstep-sub001/cart-service/internal/service"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/cart"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/catalog"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/health"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/httpx"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/logger"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/metrics"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/mongodb"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/pricing"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New("cart-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Configuration
	httpPort := getEnv("CART_SERVICE_HTTP_PORT", "8081")
	grpcPort := getEnv("CART_SERVICE_GRPC_PORT", "50052")
	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
	mongoDBName := getEnv("MONGO_DB_NAME", "cartdb")
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	requestTimeout := getEnvDuration("REQUEST_TIMEOUT", 5*time.Second)

	pricingCfg, err := pricing.ConfigFromEnv()
	if err != nil {
		log.Fatal("invalid pricing configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up MongoDB connection
	mongoDB, err := mongodb.Connect(ctx, mongoURI, mongoDBName)
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	log.Info("connected to MongoDB", zap.String("uri", mongoURI))

	repo := repository.NewMongoRepository(mongoDB)
	if ix, ok := repo.(interface{ CreateIndexes(context.Context) error }); ok {
		if err := ix.CreateIndexes(ctx); err != nil {
			log.Warn("failed to create cart indexes", zap.Error(err))
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	log.Info("redis ping succeeded")

	reducer := cart.NewReducer(pricingCfg)
	service := s.NewCartService(
		repo,
		c.NewRedisCache(redisClient),
		catalog.NewMongoReader(mongoDB),
		reducer,
		log)

	// HTTP API
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	router := httpx.NewRouter(httpx.RouterConfig{
		RequestTimeout: requestTimeout,
		AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ","),
	}, log, metrics.NewServerMetrics(registry, "cart"))
	router.Handle("/metrics", metrics.Handler(registry))
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(httpx.UserMiddleware)
		carthttp.NewCartHandler(service, requestTimeout, log).Routes(r)
	})

	httpServer := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           otelhttp.NewHandler(router, "cart-service"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// gRPC health endpoint
	healthServer := health.NewServer("cart-service", log, map[string]health.Checker{
		"mongo": func(ctx context.Context) error { return mongoDB.Client().Ping(ctx, nil) },
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
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

	// Clears carts once their checkout has been recorded
	orderEvents := poller.NewPoller(service, log, kafkaBrokers...)
	go orderEvents.Run(ctx)

	go func() {
		log.Info("cart service listening", zap.String("port", httpPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down cart service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	healthServer.Shutdown()
	orderEvents.Close()
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Warn("mongo disconnect", zap.Error(err))
	}
	log.Info("cart service stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
