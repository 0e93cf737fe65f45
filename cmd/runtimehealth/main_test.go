package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/runtimehealth/checkservice"
	"github.com/zero-day-ai/runtimehealth/config"
	"github.com/zero-day-ai/runtimehealth/platform"
	"github.com/zero-day-ai/runtimehealth/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer

	on, err := useColor("on", &buf)
	require.NoError(t, err)
	assert.True(t, on)

	off, err := useColor("off", &buf)
	require.NoError(t, err)
	assert.False(t, off)

	auto, err := useColor("auto", &buf)
	require.NoError(t, err)
	assert.False(t, auto, "a buffer is never a terminal")

	_, err = useColor("sometimes", &buf)
	assert.Error(t, err)
}

func TestRenderText(t *testing.T) {
	report := checkservice.Report{
		Overall:  types.StatusError,
		Duration: 12 * time.Millisecond,
		Results: []types.HealthStatus{
			types.NewHealthyStatus("path:/tmp"),
			types.NewErrorStatus("runtime-version", "upgrade now", "old-unsupported"),
		},
	}

	var buf bytes.Buffer
	renderText(&buf, report, false)
	out := buf.String()

	assert.Contains(t, out, "upgrade now (#old-unsupported)")
	assert.Contains(t, out, "overall: error")
	assert.Contains(t, out, "2 checks, 1 not healthy")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("runtime-version")), bytes.Index(buf.Bytes(), []byte("path:/tmp")),
		"errors are listed first")
}

func TestRenderJSON(t *testing.T) {
	report := checkservice.Report{ID: "r1", Overall: types.StatusHealthy}

	var buf bytes.Buffer
	require.NoError(t, renderJSON(&buf, report))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "r1", decoded["id"])
}

func TestRenderVersionText(t *testing.T) {
	var buf bytes.Buffer
	renderVersionText(&buf, versionPayload{Tool: "runtimehealth", Version: "1.2.3", GitCommit: "abc"})

	assert.Equal(t, "runtimehealth 1.2.3\ncommit: abc\n", buf.String())
	assert.Equal(t, "unknown", valueOrUnknown(""))
}

func TestNewProvider(t *testing.T) {
	cfg := config.Default()

	cfg.Runtime.Disabled = true
	p, err := newProvider(cfg, discardLogger())
	require.NoError(t, err)
	info, err := p.Detect(context.Background())
	require.NoError(t, err)
	assert.False(t, info.Active)

	cfg.Runtime.Disabled = false
	cfg.Runtime.Version = "6.12.0.200"
	p, err = newProvider(cfg, discardLogger())
	require.NoError(t, err)
	info, err = p.Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, info.Active)
	assert.Equal(t, "6.12.0.200", info.Version.String())

	cfg.Runtime.Version = "not a version"
	_, err = newProvider(cfg, discardLogger())
	assert.Error(t, err)

	cfg.Runtime.Version = ""
	p, err = newProvider(cfg, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &platform.BinaryProber{}, p)
}

func TestBuildComponents(t *testing.T) {
	cfg := config.Default()
	cfg.Runtime.Version = "4.4.0"
	cfg.Checks.Paths = []string{t.TempDir()}

	c, err := buildComponents(cfg, discardLogger(), checkservice.Options{})
	require.NoError(t, err)
	defer c.close(discardLogger())

	assert.Nil(t, c.publisher)
	assert.Len(t, c.service.Checks(), 2)

	report, err := c.service.RunAll(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HasErrors())
	assert.Equal(t, types.StatusError, report.Overall)

	cached, err := c.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "old-unsupported", cached[0].HelpAnchor)
}
