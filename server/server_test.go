package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/zero-day-ai/runtimehealth/checkservice"
	"github.com/zero-day-ai/runtimehealth/health"
	"github.com/zero-day-ai/runtimehealth/platform"
	"github.com/zero-day-ai/runtimehealth/runtimecheck"
	"github.com/zero-day-ai/runtimehealth/types"
	"github.com/zero-day-ai/runtimehealth/version"
)

func newService(t *testing.T, runtimeVersion string) *checkservice.Service {
	t.Helper()

	svc, err := checkservice.New(checkservice.Options{})
	require.NoError(t, err)

	rule, err := runtimecheck.NewRule(runtimecheck.Options{
		Provider: platform.Active("Mono", version.MustParse(runtimeVersion)),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Register(
		rule,
		health.Func("Disk", true, func(context.Context) types.HealthStatus {
			return types.HealthStatus{Status: types.StatusHealthy}
		}),
	))
	return svc
}

func doRequest(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	srv := NewHTTPServer("", nil, NewPingHandler())

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthHandler(t *testing.T) {
	svc := newService(t, "4.4.0")
	srv := NewHTTPServer("", nil, NewPingHandler(), NewHealthHandler(svc, nil))
	h := srv.Handler()

	// nothing cached before the first run
	rec := doRequest(t, h, http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var before HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &before))
	assert.Equal(t, types.StatusHealthy, before.Status)
	assert.Empty(t, before.Results)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/health/run")
	require.Equal(t, http.StatusOK, rec.Code)
	var report checkservice.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, types.StatusError, report.Overall)
	assert.Len(t, report.Results, 2)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var after HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Equal(t, types.StatusError, after.Status)
	require.Len(t, after.Results, 1)
	assert.Equal(t, runtimecheck.CheckID, after.Results[0].Source)
	assert.Equal(t, runtimecheck.AnchorOldUnsupported, after.Results[0].HelpAnchor)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/health/checks")
	require.Equal(t, http.StatusOK, rec.Code)
	var checks []checkservice.CheckInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &checks))
	assert.Equal(t, []checkservice.CheckInfo{
		{ID: runtimecheck.CheckID, Schedulable: false},
		{ID: "Disk", Schedulable: true},
	}, checks)
}

type brokenChecker struct{}

func (brokenChecker) Results(context.Context) ([]types.HealthStatus, error) {
	return nil, errors.New("store unavailable")
}

func (brokenChecker) RunAll(context.Context) (checkservice.Report, error) {
	return checkservice.Report{ID: "r1"}, errors.New("store unavailable")
}

func (brokenChecker) Checks() []checkservice.CheckInfo { return nil }

func TestHealthHandler_Errors(t *testing.T) {
	srv := NewHTTPServer("", nil, NewHealthHandler(brokenChecker{}, nil))

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "store unavailable")

	rec = doRequest(t, srv.Handler(), http.MethodPost, "/api/v1/health/run")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGRPCServer_Observe(t *testing.T) {
	srv, err := NewGRPCServer(GRPCConfig{Addr: "127.0.0.1:0", GracefulTimeout: time.Second}, nil)
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(func() { srv.Stop(context.Background()) })

	ctx := context.Background()
	check := func(service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
		resp, err := srv.HealthServer().Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		return resp.GetStatus()
	}

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check(""))

	svc := newService(t, "5.20")
	svc.OnReport(srv.Observe)
	_, err = svc.RunAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check(""))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check(ServiceName))

	srv.Observe(checkservice.Report{Results: []types.HealthStatus{types.NewErrorStatus("x", "down", "")}})
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check(""))

	// notices and warnings keep serving
	srv.Observe(checkservice.Report{Results: []types.HealthStatus{types.NewWarningStatus("x", "slow", "")}})
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check(ServiceName))
}
