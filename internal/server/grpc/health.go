// Package grpcserver serves the gRPC health endpoint of the observer backend.
package grpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "observer.v1.Backend"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is a gRPC server exposing grpc.health.v1, with status driven by dependency pings.
type Server struct {
	gs     *grpc.Server
	health *health.Server
	deps   []Pinger
	log    *zap.Logger
}

// New builds the server with recover and logging interceptors. Reflection is registered in dev.
func New(log *zap.Logger, dev bool, deps ...Pinger) *Server {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(RecoverUnary(log), LoggingUnary(log)),
		grpc.ChainStreamInterceptor(RecoverStream(log), LoggingStream(log)),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	if dev {
		reflection.Register(gs)
	}
	s := &Server{gs: gs, health: hs, deps: deps, log: log}
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) set(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Check pings every dependency once and publishes the result.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	for _, d := range s.deps {
		if err := d.Ping(ctx); err != nil {
			s.log.Warn("dependency ping failed", zap.Error(err))
			st = healthpb.HealthCheckResponse_NOT_SERVING
			break
		}
	}
	s.set(st)
	return st
}

// Watch runs Check every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, every time.Duration) {
	s.Check(ctx)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Check(ctx)
		}
	}
}

// Serve blocks serving on lis.
func (s *Server) Serve(lis net.Listener) error { return s.gs.Serve(lis) }

// Stop marks the server as shutting down and stops it gracefully, forcing after timeout.
func (s *Server) Stop(timeout time.Duration) {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() {
		s.gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.gs.Stop()
	}
}
