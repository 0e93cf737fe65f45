package health

import (
	"context"

	"github.com/zero-day-ai/runtimehealth/types"
)

// Check is the capability every health check implements.
//
// ID is the identifier assigned when the check is registered; it becomes the
// Source of every result the check produces. Schedulable reports whether the
// aggregator may re-run the check periodically. Checks that return false are
// evaluated once at startup and whenever a caller explicitly asks.
type Check interface {
	ID() string
	Check(ctx context.Context) types.HealthStatus
	Schedulable() bool
}

// CheckFunc evaluates a health check.
type CheckFunc func(ctx context.Context) types.HealthStatus

type funcCheck struct {
	id          string
	schedulable bool
	fn          CheckFunc
}

// Func adapts a function into a Check.
//
// Example:
//
//	disk := health.Func("DiskSpaceCheck", true, func(ctx context.Context) types.HealthStatus {
//	    return types.NewHealthyStatus("DiskSpaceCheck")
//	})
func Func(id string, schedulable bool, fn CheckFunc) Check {
	return &funcCheck{id: id, schedulable: schedulable, fn: fn}
}

func (f *funcCheck) ID() string        { return f.id }
func (f *funcCheck) Schedulable() bool { return f.schedulable }

func (f *funcCheck) Check(ctx context.Context) types.HealthStatus {
	status := f.fn(ctx)
	if status.Source == "" {
		status.Source = f.id
	}
	return status
}
