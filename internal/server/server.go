// Package server exposes the state of a running search over the standard
// gRPC health service, so supervisors can poll a long search without parsing
// its terminal output.
//
// The search service reports SERVING only while the coordinator is running.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/ChuLiYu/zipsweep/internal/controller"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SearchService is the health service name that tracks the search phase.
const SearchService = "zipsweep.Search"

// Server wraps a gRPC server carrying only the health service.
type Server struct {
	health *health.Server
	grpc   *grpc.Server

	mu    sync.Mutex
	lis   net.Listener
	phase controller.Phase
}

// NewServer creates a status server. The search starts as NOT_SERVING.
func NewServer() *Server {
	hs := health.NewServer()
	hs.SetServingStatus(SearchService, healthpb.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		health: hs,
		grpc:   gs,
		phase:  controller.PhaseIdle,
	}
}

// Observe is a controller.Observer that mirrors phase transitions.
func (s *Server) Observe(phase controller.Phase) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if phase == controller.PhaseRunning {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(SearchService, status)
	slog.Debug("Status updated", "phase", phase, "status", status)
}

// Phase returns the last observed phase.
func (s *Server) Phase() controller.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Health returns the underlying health service.
func (s *Server) Health() healthpb.HealthServer {
	return s.health
}

// Listen binds addr and serves in the background.
func (s *Server) Listen(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.lis = lis
	s.mu.Unlock()

	go func() {
		if err := s.grpc.Serve(lis); err != nil {
			slog.Error("Status server stopped", "error", err)
		}
	}()
	slog.Info("Status server listening", "addr", lis.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Stop marks every service NOT_SERVING and stops the gRPC server.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
