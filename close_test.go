package runtimehealth

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCloser struct {
	closeErr   error
	closeCalls int
}

func (m *mockCloser) Close() error {
	m.closeCalls++
	return m.closeErr
}

func TestCloseWithLog(t *testing.T) {
	tests := []struct {
		name      string
		closer    *mockCloser
		resource  string
		wantLines []string
	}{
		{
			name:     "successful close is silent",
			closer:   &mockCloser{},
			resource: "result store",
		},
		{
			name:      "close error is logged as warning",
			closer:    &mockCloser{closeErr: errors.New("connection reset by peer")},
			resource:  "redis publisher",
			wantLines: []string{"failed to close resource", "redis publisher", "connection reset", "level=WARN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logBuf, nil))

			func() {
				defer CloseWithLog(tt.closer, logger, tt.resource)
			}()

			assert.Equal(t, 1, tt.closer.closeCalls)
			if len(tt.wantLines) == 0 {
				assert.Empty(t, logBuf.String())
				return
			}
			for _, want := range tt.wantLines {
				assert.Contains(t, logBuf.String(), want)
			}
		})
	}
}

func TestCloseWithLog_NilInputs(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	CloseWithLog(nil, logger, "etcd client")
	assert.Empty(t, logBuf.String(), "should not log for nil closer")

	closer := &mockCloser{closeErr: errors.New("test error")}
	require.NotPanics(t, func() {
		CloseWithLog(closer, nil, "gRPC listener")
	})
	assert.Equal(t, 1, closer.closeCalls)
}

func TestCloseWithLog_RealCloser(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	r, w := io.Pipe()
	_ = w.Close()
	CloseWithLog(r, logger, "pipe reader")

	assert.Empty(t, logBuf.String())
}
