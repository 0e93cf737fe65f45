// Package types provides the result types shared by every health check.
//
// A HealthStatus carries the check's source identifier, a status, an optional
// localized message, and an optional help anchor:
//
//	status := types.NewErrorStatus("RuntimeVersionCheck",
//	    "Currently installed Mono version 4.4.0 has a bug ...",
//	    "old-unsupported")
//	if status.IsError() {
//	    // surface to the operator
//	}
//
// # Status Ordering
//
// Statuses are ordered healthy < notice < warning < error. Use Severity to
// rank a status and Worst to pick the more severe of two:
//
//	overall := types.StatusHealthy
//	for _, r := range results {
//	    overall = types.Worst(overall, r.Status)
//	}
package types
