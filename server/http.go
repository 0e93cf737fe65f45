// Package server exposes health results over HTTP (echo) and the standard
// gRPC health protocol.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/zero-day-ai/runtimehealth/checkservice"
	"github.com/zero-day-ai/runtimehealth/types"
)

// Checker is the part of checkservice.Service the handlers use.
type Checker interface {
	Results(ctx context.Context) ([]types.HealthStatus, error)
	RunAll(ctx context.Context) (checkservice.Report, error)
	Checks() []checkservice.CheckInfo
}

// Registrar mounts routes on an echo instance.
type Registrar interface {
	Register(e *echo.Echo)
}

// PingHandler answers liveness probes.
type PingHandler struct{}

// NewPingHandler creates a PingHandler.
func NewPingHandler() *PingHandler { return &PingHandler{} }

// Register mounts GET /ping.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
}

// Ping responds with {"status":"ok"}.
func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status  string               `json:"status"`
	Results []types.HealthStatus `json:"results"`
}

// HealthHandler exposes the check service over HTTP.
type HealthHandler struct {
	checker Checker
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler backed by checker.
func NewHealthHandler(checker Checker, log *slog.Logger) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{checker: checker, logger: log.With(slog.String("handler", "health"))}
}

// Register mounts the /api/v1/health routes.
func (h *HealthHandler) Register(e *echo.Echo) {
	group := e.Group("/api/v1/health")
	group.GET("", h.List)
	group.POST("/run", h.Run)
	group.GET("/checks", h.Checks)
}

// List returns the cached non-healthy results, worst first.
func (h *HealthHandler) List(c echo.Context) error {
	results, err := h.checker.Results(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list health results", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	status := types.StatusHealthy
	for _, r := range results {
		status = types.Worst(status, r.Status)
	}
	if results == nil {
		results = []types.HealthStatus{}
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: status, Results: results})
}

// Run executes every registered check and returns the report.
func (h *HealthHandler) Run(c echo.Context) error {
	report, err := h.checker.RunAll(c.Request().Context())
	if err != nil {
		h.logger.Error("health run could not be recorded", "report", report.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

// Checks lists the registered checks.
func (h *HealthHandler) Checks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.checker.Checks())
}

// HTTPServer serves the registered handlers.
type HTTPServer struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// NewHTTPServer builds an echo server on addr (default ":8080") with the
// given handlers mounted.
func NewHTTPServer(addr string, log *slog.Logger, handlers ...Registrar) *HTTPServer {
	if addr == "" {
		addr = ":8080"
	}
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	for _, h := range handlers {
		if h != nil {
			h.Register(e)
		}
	}

	return &HTTPServer{echo: e, addr: addr, logger: log.With(slog.String("component", "http"))}
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler { return s.echo }

// Start listens in the background. Listen failures are logged.
func (s *HTTPServer) Start() {
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", "error", err)
		}
	}()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
