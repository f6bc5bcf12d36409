// Package grpc provides the gRPC surface of the catalog service.
package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the name the catalog reports under in health checks.
const ServiceName = "catalog.v1.Catalog"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer implements grpc.health.v1.Health by pinging the product store.
type HealthServer struct {
	// Embed the unimplemented server for forward compatibility
	healthpb.UnimplementedHealthServer
	store   Pinger
	timeout time.Duration
	logger  *slog.Logger
}

func NewHealthServer(store Pinger, timeout time.Duration, logger *slog.Logger) *HealthServer {
	return &HealthServer{store: store, timeout: timeout, logger: logger.With("component", "grpc-health")}
}

// Check answers for the whole server ("") and for ServiceName.
func (s *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.Ping(pingCtx); err != nil {
		s.logger.WarnContext(ctx, "store ping failed", slog.Any("error", err))
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
