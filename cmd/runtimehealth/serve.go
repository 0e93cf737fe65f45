package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/zero-day-ai/runtimehealth/checkservice"
	"github.com/zero-day-ai/runtimehealth/config"
	"github.com/zero-day-ai/runtimehealth/server"
)

const instrumentationName = "github.com/zero-day-ai/runtimehealth"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run checks on a schedule and serve results over HTTP and gRPC health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := fx.New(
			fx.Provide(
				provideConfig,
				provideLogger,
				provideComponents,
				provideService,
				provideHTTPServer,
				provideGRPCServer,
			),
			fx.Invoke(
				startService,
				startHTTPServer,
				startGRPCServer,
			),
			fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
				return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
			}),
		)
		if err := app.Err(); err != nil {
			return err
		}
		app.Run()
		return nil
	},
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)
	return logger
}

func provideComponents(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*components, error) {
	c, err := buildComponents(cfg, logger, checkservice.Options{
		Tracer: otel.Tracer(instrumentationName),
		Meter:  otel.Meter(instrumentationName),
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { c.close(logger); return nil }})
	return c, nil
}

func provideService(c *components) *checkservice.Service { return c.service }

func provideHTTPServer(cfg config.Config, logger *slog.Logger, svc *checkservice.Service) *server.HTTPServer {
	return server.NewHTTPServer(cfg.Server.HTTPAddr, logger,
		server.NewPingHandler(),
		server.NewHealthHandler(svc, logger),
	)
}

func provideGRPCServer(cfg config.Config, logger *slog.Logger) (*server.GRPCServer, error) {
	return server.NewGRPCServer(server.GRPCConfig{Addr: cfg.Server.GRPCAddr}, logger)
}

func startService(lc fx.Lifecycle, svc *checkservice.Service, grpcSrv *server.GRPCServer) {
	svc.OnReport(grpcSrv.Observe)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return svc.Start(ctx) },
		OnStop:  func(ctx context.Context) error { return svc.Stop(ctx) },
	})
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { srv.Start(); return nil },
		OnStop:  func(ctx context.Context) error { return srv.Shutdown(ctx) },
	})
}

func startGRPCServer(lc fx.Lifecycle, srv *server.GRPCServer) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { srv.Start(); return nil },
		OnStop:  func(ctx context.Context) error { srv.Stop(ctx); return nil },
	})
}
