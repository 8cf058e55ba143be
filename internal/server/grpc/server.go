// Package grpcserver exposes the operational gRPC endpoint: health checks and reflection.
package grpcserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported for the availability API.
const ServiceName = "dropin.Availability"

const defaultPingTimeout = 2 * time.Second

// Pinger reports storage liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health answers grpc.health.v1 Check calls by pinging the database.
type Health struct {
	healthpb.UnimplementedHealthServer
	db      Pinger
	timeout time.Duration
	log     *zap.Logger
}

// NewHealth constructs a database-backed health service.
func NewHealth(db Pinger, timeout time.Duration, log *zap.Logger) *Health {
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	return &Health{db: db, timeout: timeout, log: log}
}

// Check reports SERVING while the database answers pings.
func (h *Health) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", ServiceName:
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health ping failed", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	return &healthpb.HealthCheckResponse{Status: st}, nil
}

// New builds the ops server with recovery and logging interceptors.
// Reflection is registered only when enabled.
func New(db Pinger, log *zap.Logger, enableReflection bool) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoverUnary(log),
			LoggingUnary(log),
		),
	)
	healthpb.RegisterHealthServer(s, NewHealth(db, 0, log))
	if enableReflection {
		reflection.Register(s)
	}
	return s
}
