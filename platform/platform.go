// Package platform reports facts about the alternate runtime the process is
// expected to run under: whether it is present and which version is installed.
package platform

import (
	"context"
	"errors"

	"github.com/zero-day-ai/runtimehealth/version"
)

// ErrProbeFailed is returned when the runtime binary exists but its version
// cannot be determined.
var ErrProbeFailed = errors.New("runtime probe failed")

// Info describes the alternate runtime as observed by a Provider.
// Version is only meaningful when Active is true.
type Info struct {
	RuntimeName string
	Active      bool
	Version     version.Version
}

// Provider supplies platform facts. Implementations must return a valid
// Version whenever Active is true.
type Provider interface {
	Detect(ctx context.Context) (Info, error)
}

// Static is a Provider that always reports the same facts.
type Static struct {
	Info Info
}

// Detect returns the configured facts.
func (s Static) Detect(context.Context) (Info, error) {
	return s.Info, nil
}

// Inactive returns a Provider reporting that the named runtime is not in use.
func Inactive(runtimeName string) Static {
	return Static{Info: Info{RuntimeName: runtimeName}}
}

// Active returns a Provider reporting the named runtime at version v.
func Active(runtimeName string, v version.Version) Static {
	return Static{Info: Info{RuntimeName: runtimeName, Active: true, Version: v}}
}
