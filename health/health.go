// Package health defines the Check capability and a set of reusable checks.
// It offers standardized ways to verify dependencies, connectivity, and system state.
package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"time"

	"github.com/zero-day-ai/runtimehealth/localization"
	"github.com/zero-day-ai/runtimehealth/types"
)

// Help anchors used by the built-in checks.
const (
	AnchorPathMissing         = "path-missing"
	AnchorEndpointUnreachable = "endpoint-unreachable"
	AnchorBinaryMissing       = "binary-missing"
)

const defaultDialTimeout = 5 * time.Second

// PathCheck verifies that a file or directory exists.
type PathCheck struct {
	id        string
	path      string
	localizer localization.Localizer
}

// NewPathCheck creates a schedulable check for path.
// A nil localizer uses the embedded English catalog.
func NewPathCheck(path string, localizer localization.Localizer) *PathCheck {
	if localizer == nil {
		localizer = localization.Default()
	}
	return &PathCheck{
		id:        "PathCheck:" + path,
		path:      path,
		localizer: localizer,
	}
}

// ID returns "PathCheck:<path>".
func (c *PathCheck) ID() string { return c.id }

// Schedulable returns true; paths can disappear at any time.
func (c *PathCheck) Schedulable() bool { return true }

// Check stats the path.
//
// Example:
//
//	status := health.NewPathCheck("/etc/hosts", nil).Check(ctx)
//	if status.IsError() {
//	    log.Fatal("/etc/hosts does not exist")
//	}
func (c *PathCheck) Check(ctx context.Context) types.HealthStatus {
	if c.path == "" {
		return types.NewErrorStatus(c.id, c.localizer.Localize("PathCheckMissingMessage", "''"), AnchorPathMissing)
	}

	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.NewErrorStatus(
				c.id,
				c.localizer.Localize("PathCheckMissingMessage", c.path),
				AnchorPathMissing,
			).WithDetails(map[string]any{"path": c.path})
		}

		return types.NewErrorStatus(
			c.id,
			c.localizer.Localize("PathCheckStatFailedMessage", c.path, err.Error()),
			AnchorPathMissing,
		).WithDetails(map[string]any{
			"path":  c.path,
			"error": err.Error(),
		})
	}

	fileType := "file"
	if info.IsDir() {
		fileType = "directory"
	}

	return types.NewHealthyStatus(c.id).WithDetails(map[string]any{
		"path": c.path,
		"type": fileType,
	})
}

// EndpointCheck verifies TCP connectivity to a host and port.
type EndpointCheck struct {
	id        string
	host      string
	port      int
	timeout   time.Duration
	localizer localization.Localizer
}

// NewEndpointCheck creates a schedulable connectivity check. A zero timeout
// defaults to 5s and only applies when ctx carries no deadline of its own.
func NewEndpointCheck(host string, port int, timeout time.Duration, localizer localization.Localizer) *EndpointCheck {
	if localizer == nil {
		localizer = localization.Default()
	}
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	return &EndpointCheck{
		id:        "EndpointCheck:" + net.JoinHostPort(host, strconv.Itoa(port)),
		host:      host,
		port:      port,
		timeout:   timeout,
		localizer: localizer,
	}
}

// ID returns "EndpointCheck:<host>:<port>".
func (c *EndpointCheck) ID() string { return c.id }

// Schedulable returns true.
func (c *EndpointCheck) Schedulable() bool { return true }

// Check dials the endpoint and closes the connection immediately.
func (c *EndpointCheck) Check(ctx context.Context) types.HealthStatus {
	address := net.JoinHostPort(c.host, strconv.Itoa(c.port))

	if c.host == "" {
		return types.NewErrorStatus(c.id, c.localizer.Localize("EndpointCheckUnreachableMessage", address, "host cannot be empty"), AnchorEndpointUnreachable)
	}
	if c.port <= 0 || c.port > 65535 {
		return types.NewErrorStatus(
			c.id,
			c.localizer.Localize("EndpointCheckUnreachableMessage", address, fmt.Sprintf("invalid port number: %d", c.port)),
			AnchorEndpointUnreachable,
		).WithDetails(map[string]any{"port": c.port})
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return types.NewErrorStatus(
			c.id,
			c.localizer.Localize("EndpointCheckUnreachableMessage", address, err.Error()),
			AnchorEndpointUnreachable,
		).WithDetails(map[string]any{
			"host":  c.host,
			"port":  c.port,
			"error": err.Error(),
		})
	}
	conn.Close()

	return types.NewHealthyStatus(c.id).WithDetails(map[string]any{"address": address})
}

// BinaryCheck verifies that a binary exists and is executable in PATH.
type BinaryCheck struct {
	id        string
	name      string
	localizer localization.Localizer
}

// NewBinaryCheck creates a schedulable check for the named binary.
func NewBinaryCheck(name string, localizer localization.Localizer) *BinaryCheck {
	if localizer == nil {
		localizer = localization.Default()
	}
	return &BinaryCheck{
		id:        "BinaryCheck:" + name,
		name:      name,
		localizer: localizer,
	}
}

// ID returns "BinaryCheck:<name>".
func (c *BinaryCheck) ID() string { return c.id }

// Schedulable returns true.
func (c *BinaryCheck) Schedulable() bool { return true }

// Check looks the binary up in PATH.
func (c *BinaryCheck) Check(ctx context.Context) types.HealthStatus {
	if c.name == "" {
		return types.NewErrorStatus(c.id, c.localizer.Localize("BinaryCheckMissingMessage", "''"), AnchorBinaryMissing)
	}

	path, err := exec.LookPath(c.name)
	if err != nil {
		return types.NewErrorStatus(
			c.id,
			c.localizer.Localize("BinaryCheckMissingMessage", c.name),
			AnchorBinaryMissing,
		).WithDetails(map[string]any{
			"binary": c.name,
			"error":  err.Error(),
		})
	}

	return types.NewHealthyStatus(c.id).WithDetails(map[string]any{
		"binary": c.name,
		"path":   path,
	})
}

// Combine aggregates multiple results into a single status.
// The most severe status wins: error, then warning, then notice, then healthy.
//
// Example:
//
//	overall := health.Combine(results...)
//	if overall.IsError() {
//	    log.Printf("Health check failed: %s", overall.Message)
//	    log.Printf("Details: %+v", overall.Details)
//	}
func Combine(statuses ...types.HealthStatus) types.HealthStatus {
	if len(statuses) == 0 {
		return types.HealthStatus{Status: types.StatusHealthy, Message: "no checks provided"}
	}

	counts := map[string]int{}
	overall := types.StatusHealthy
	var failing []string

	for _, s := range statuses {
		counts[s.Status]++
		overall = types.Worst(overall, s.Status)
		if !s.IsHealthy() {
			source := s.Source
			if source == "" {
				source = "unnamed check"
			}
			failing = append(failing, source)
		}
	}
	sort.Strings(failing)

	if overall == types.StatusHealthy {
		return types.HealthStatus{
			Status:  types.StatusHealthy,
			Message: fmt.Sprintf("all %d check(s) passed", len(statuses)),
		}
	}

	return types.HealthStatus{
		Status:  overall,
		Message: fmt.Sprintf("%d of %d check(s) reported issues", len(failing), len(statuses)),
		Details: map[string]any{
			"total":          len(statuses),
			"healthy":        counts[types.StatusHealthy],
			"notice":         counts[types.StatusNotice],
			"warning":        counts[types.StatusWarning],
			"error":          counts[types.StatusError],
			"failing_checks": failing,
		},
	}
}
