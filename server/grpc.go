package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/zero-day-ai/runtimehealth/checkservice"
)

// ServiceName is reported next to the overall ("") service.
const ServiceName = "runtimehealth"

// GRPCConfig holds gRPC listener settings.
type GRPCConfig struct {
	// Addr is the listen address. Default: ":9090"
	Addr string

	// GracefulTimeout bounds graceful shutdown. Default: 10s
	GracefulTimeout time.Duration

	// TLS is enabled when both files are set.
	TLSCertFile string
	TLSKeyFile  string
}

// GRPCServer serves grpc.health.v1 and mirrors check reports into it.
type GRPCServer struct {
	grpcServer   *grpc.Server
	listener     net.Listener
	config       GRPCConfig
	healthServer *health.Server
	logger       *slog.Logger
}

// NewGRPCServer listens on cfg.Addr and registers the health service. The
// status starts as NOT_SERVING until the first report arrives.
func NewGRPCServer(cfg GRPCConfig, log *slog.Logger) (*GRPCServer, error) {
	if cfg.Addr == "" {
		cfg.Addr = ":9090"
	}
	if cfg.GracefulTimeout <= 0 {
		cfg.GracefulTimeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	var opts []grpc.ServerOption
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			listener.Close()
			return nil, fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(opts...)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	s := &GRPCServer{
		grpcServer:   grpcServer,
		listener:     listener,
		config:       cfg,
		healthServer: healthServer,
		logger:       log.With(slog.String("component", "grpc")),
	}
	s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s, nil
}

// HealthServer returns the health check server.
func (s *GRPCServer) HealthServer() *health.Server {
	return s.healthServer
}

// Addr returns the bound listener address.
func (s *GRPCServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Observe updates the serving status from a report: NOT_SERVING when any
// result is an error, SERVING otherwise.
func (s *GRPCServer) Observe(report checkservice.Report) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if report.HasErrors() {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.setStatus(status)
	s.logger.Debug("health status updated", "report", report.ID, "status", status.String())
}

func (s *GRPCServer) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.healthServer.SetServingStatus("", status)
	s.healthServer.SetServingStatus(ServiceName, status)
}

// Start serves in the background.
func (s *GRPCServer) Start() {
	go func() {
		s.logger.Info("grpc server listening", "addr", s.listener.Addr().String())
		if err := s.grpcServer.Serve(s.listener); err != nil {
			s.logger.Error("grpc server stopped", "error", err)
		}
	}()
}

// Stop gracefully stops the server, forcing it once ctx or the configured
// timeout expires.
func (s *GRPCServer) Stop(ctx context.Context) {
	s.healthServer.Shutdown()

	ctx, cancel := context.WithTimeout(ctx, s.config.GracefulTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("graceful shutdown timeout, forcing stop")
		s.grpcServer.Stop()
	}
}
