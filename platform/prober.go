package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	runtimehealth "github.com/zero-day-ai/runtimehealth"
	"github.com/zero-day-ai/runtimehealth/version"
)

const (
	defaultVersionFlag  = "--version"
	defaultProbeTimeout = 5 * time.Second
)

// ProberOptions configures a BinaryProber.
type ProberOptions struct {
	// RuntimeName is the display name of the runtime, e.g. "Mono".
	RuntimeName string

	// Binary is the executable to look up in PATH, e.g. "mono".
	// An absolute or relative path is used as-is.
	Binary string

	// VersionFlag is passed to the binary to print its version.
	// Default: "--version"
	VersionFlag string

	// Timeout bounds the version command.
	// Default: 5s
	Timeout time.Duration
}

// BinaryProber detects the runtime by executing its binary.
//
// A missing binary means the runtime is not active and is not an error. The
// first successful detection is cached for the lifetime of the prober since
// the installed runtime does not change under a running process.
//
// Example:
//
//	prober := platform.NewBinaryProber(platform.ProberOptions{
//	    RuntimeName: "Mono",
//	    Binary:      "mono",
//	}, logger)
//	info, err := prober.Detect(ctx)
type BinaryProber struct {
	opts   ProberOptions
	logger *slog.Logger

	mu     sync.Mutex
	cached *Info
}

// NewBinaryProber creates a prober with defaults applied to opts.
func NewBinaryProber(opts ProberOptions, logger *slog.Logger) *BinaryProber {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.VersionFlag == "" {
		opts.VersionFlag = defaultVersionFlag
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultProbeTimeout
	}
	if opts.RuntimeName == "" {
		opts.RuntimeName = opts.Binary
	}
	return &BinaryProber{
		opts:   opts,
		logger: logger.With(slog.String("component", "platform_prober")),
	}
}

// Detect looks up and runs the runtime binary, returning the parsed version.
func (p *BinaryProber) Detect(ctx context.Context) (Info, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil {
		return *p.cached, nil
	}

	info := Info{RuntimeName: p.opts.RuntimeName}

	if strings.TrimSpace(p.opts.Binary) == "" {
		p.cached = &info
		return info, nil
	}

	path, err := exec.LookPath(p.opts.Binary)
	if err != nil {
		p.logger.Debug("runtime binary not found", "binary", p.opts.Binary, "error", err)
		p.cached = &info
		return info, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, p.opts.VersionFlag)
	cmd.WaitDelay = time.Second
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Info{RuntimeName: p.opts.RuntimeName}, runtimehealth.NewProbeError("platform.Detect", fmt.Errorf("%w: %s %s timed out after %s", ErrProbeFailed, path, p.opts.VersionFlag, p.opts.Timeout))
		}
		return Info{RuntimeName: p.opts.RuntimeName}, runtimehealth.NewProbeError("platform.Detect", fmt.Errorf("%w: %s %s: %v", ErrProbeFailed, path, p.opts.VersionFlag, err))
	}

	v, err := version.Extract(string(output))
	if err != nil {
		return Info{RuntimeName: p.opts.RuntimeName}, runtimehealth.NewProbeError("platform.Detect", fmt.Errorf("%w: parse output of %s: %v", ErrProbeFailed, path, err))
	}

	info.Active = true
	info.Version = v
	p.cached = &info

	p.logger.Debug("runtime detected", "runtime", info.RuntimeName, "binary", path, "version", v.String())
	return info, nil
}

// Reset discards the cached detection so the next Detect probes again.
func (p *BinaryProber) Reset() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}
