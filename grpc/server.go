// Package grpc exposes the relay liveness through the standard gRPC health protocol.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the service reported by the health endpoint.
const ServiceName = "chat.Relay"

const gracefulStopTimeout = 5 * time.Second

// HealthServer reports SERVING while it runs and NOT_SERVING once stopped.
type HealthServer struct {
	log    *slog.Logger
	port   int
	health *health.Server
}

func NewHealthServer(log *slog.Logger, port int) *HealthServer {
	h := health.NewServer()
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{log: log, port: port, health: h}
}

func (s *HealthServer) Run(ctx context.Context) error {
	address := fmt.Sprintf(":%d", s.port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return s.Serve(ctx, listener)
}

// Serve answers health checks on listener until ctx is canceled.
func (s *HealthServer) Serve(ctx context.Context, listener net.Listener) error {
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, s.health)

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting gRPC health server", "address", listener.Addr().String(), "service", ServiceName)
		if err := server.Serve(listener); err != nil && err != grpc.ErrServerStopped {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	s.health.Resume()
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	select {
	case <-ctx.Done():
		s.stop(server)
		return nil
	case err := <-errChan:
		s.health.Shutdown()
		return err
	}
}

// Status returns the status currently reported for ServiceName.
func (s *HealthServer) Status(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// stop flips every service to NOT_SERVING so watchers are told, then stops
// the server, forcing it when open streams outlive the grace period.
func (s *HealthServer) stop(server *grpc.Server) {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(gracefulStopTimeout):
		s.log.Warn("gRPC health server did not stop gracefully, forcing")
		server.Stop()
	}
	s.log.Debug("gRPC health server stopped")
}
