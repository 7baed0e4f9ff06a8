package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Checker reports whether a backing dependency is reachable.
type Checker func(ctx context.Context) error

// Server exposes grpc.health.v1 for a service and flips its status as dependencies come and go.
type Server struct {
	GRPC    *grpc.Server
	health  *health.Server
	service string
	checks  map[string]Checker
	log     *zap.Logger
}

func NewServer(service string, log *zap.Logger, checks map[string]Checker) *Server {
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(grpcServer)

	hs.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{
		GRPC:    grpcServer,
		health:  hs,
		service: service,
		checks:  checks,
		log:     log,
	}
}

// Check runs every dependency check once and publishes the aggregate status.
func (s *Server) Check(ctx context.Context) bool {
	ok := true
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.log.Warn("dependency check failed", zap.String("dependency", name), zap.Error(err))
			ok = false
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(s.service, status)
	s.health.SetServingStatus("", status)
	return ok
}

// Watch re-runs Check on every tick until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, interval/2)
			s.Check(checkCtx)
			cancel()
		}
	}
}

func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.GRPC.GracefulStop()
}
