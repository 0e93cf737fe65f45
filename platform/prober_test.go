package platform

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	runtimehealth "github.com/zero-day-ai/runtimehealth"
	"github.com/zero-day-ai/runtimehealth/version"
)

// writeScript creates an executable shell script that records each invocation
// in a "calls" file next to it.
func writeScript(t *testing.T, body string) (string, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	dir := t.TempDir()
	calls := filepath.Join(dir, "calls")
	script := filepath.Join(dir, "fake-runtime")
	content := "#!/bin/sh\necho call >> \"" + calls + "\"\n" + body + "\n"
	require.NoError(t, os.WriteFile(script, []byte(content), 0o755))
	return script, calls
}

func countCalls(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(data), "call")
}

func TestBinaryProber_MissingBinary(t *testing.T) {
	p := NewBinaryProber(ProberOptions{
		RuntimeName: "Mono",
		Binary:      "this-runtime-definitely-does-not-exist-12345",
	}, nil)

	info, err := p.Detect(context.Background())
	require.NoError(t, err)
	assert.False(t, info.Active)
	assert.Equal(t, "Mono", info.RuntimeName)
}

func TestBinaryProber_EmptyBinary(t *testing.T) {
	p := NewBinaryProber(ProberOptions{RuntimeName: "Mono"}, nil)

	info, err := p.Detect(context.Background())
	require.NoError(t, err)
	assert.False(t, info.Active)
}

func TestBinaryProber_ParsesVersion(t *testing.T) {
	script, calls := writeScript(t, `echo "Mono JIT compiler version 6.12.0.122 (tarball Mon Feb 22 17:33:28 UTC 2021)"`)

	p := NewBinaryProber(ProberOptions{RuntimeName: "Mono", Binary: script}, nil)

	info, err := p.Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, info.Active)
	assert.True(t, info.Version.Equal(version.MustParse("6.12.0.122")))

	// second call is served from cache
	_, err = p.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, countCalls(t, calls))

	p.Reset()
	_, err = p.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, countCalls(t, calls))
}

func TestBinaryProber_UnparseableOutput(t *testing.T) {
	script, calls := writeScript(t, `echo "usage: fake-runtime [options]"`)

	p := NewBinaryProber(ProberOptions{RuntimeName: "Mono", Binary: script}, nil)

	_, err := p.Detect(context.Background())
	require.ErrorIs(t, err, ErrProbeFailed)

	// failures are not cached
	_, err = p.Detect(context.Background())
	require.ErrorIs(t, err, ErrProbeFailed)
	assert.Equal(t, 2, countCalls(t, calls))
}

func TestBinaryProber_CommandFails(t *testing.T) {
	script, _ := writeScript(t, "exit 3")

	p := NewBinaryProber(ProberOptions{Binary: script}, nil)

	_, err := p.Detect(context.Background())
	require.ErrorIs(t, err, ErrProbeFailed)
	assert.Equal(t, runtimehealth.KindProbe, runtimehealth.KindOf(err))
}

func TestBinaryProber_Timeout(t *testing.T) {
	script, _ := writeScript(t, "exec sleep 5")

	p := NewBinaryProber(ProberOptions{Binary: script, Timeout: 100 * time.Millisecond}, nil)

	_, err := p.Detect(context.Background())
	require.ErrorIs(t, err, ErrProbeFailed)
}

func TestStaticProviders(t *testing.T) {
	info, err := Inactive("Mono").Detect(context.Background())
	require.NoError(t, err)
	assert.False(t, info.Active)

	v := version.MustParse("5.20")
	info, err = Active("Mono", v).Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, info.Active)
	assert.True(t, info.Version.Equal(v))
}
