// Package health defines the Check capability and a set of reusable checks.
//
// A check is any value that implements Check: an identifier assigned at
// registration, an evaluation function, and a flag telling the aggregator
// whether the check may be re-run on a schedule.
//
// # Built-in Checks
//
//   - PathCheck: Verify a file or directory exists
//   - EndpointCheck: Verify TCP connectivity to a host:port
//   - BinaryCheck: Verify a binary exists in PATH
//   - Func: Adapt a plain function into a Check
//
// All built-in checks are schedulable and render their messages through a
// localization.Localizer.
//
// # Usage Example
//
//	checks := []health.Check{
//	    health.NewBinaryCheck("ffprobe", localizer),
//	    health.NewPathCheck("/data/media", localizer),
//	    health.NewEndpointCheck("indexer.local", 443, 5*time.Second, localizer),
//	}
//
//	var results []types.HealthStatus
//	for _, c := range checks {
//	    results = append(results, c.Check(ctx))
//	}
//
//	overall := health.Combine(results...)
//
// # Health Status Priority
//
// When combining results with Combine(), the most severe status wins:
//
//   - Error: If any result is an error, the combined result is an error
//   - Warning: If any result is a warning (and none are errors)
//   - Notice: If any result is a notice (and none are worse)
//   - Healthy: If all results are healthy
package health
