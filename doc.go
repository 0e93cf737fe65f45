// Package runtimehealth reports whether the alternate runtime installed on a
// host is a version the application supports.
//
// The repository is organized around a single rule and the plumbing that runs
// it:
//
//   - version: dotted numeric version values and comparison
//   - platform: Providers that detect the runtime (static or by probing its binary)
//   - runtimecheck: the version policy and the Rule that maps a runtime version
//     to Healthy, Notice or Error
//   - health: the Check interface, supporting path/endpoint/binary checks and
//     status aggregation
//   - checkservice: registration, bounded concurrent runs, cron scheduling,
//     OpenTelemetry spans and counters
//   - store: cached non-healthy results in memory, Redis or etcd, plus run
//     events published over Redis
//   - server: the HTTP API (echo) and the grpc.health.v1 service
//   - config: YAML/TOML configuration and logger construction
//
// # Severity
//
// A runtime in a known-defective release, or older than the minimum supported
// version, is an error with help anchor "old-unsupported". A runtime that works
// but sits below the target version is a notice with help anchor
// "upgrade-recommended". Anything at or above the target, or a host that does
// not use the alternate runtime at all, is healthy.
//
// # Getting Started
//
//	rule, err := runtimecheck.NewRule(runtimecheck.Options{
//	    Provider: platform.NewBinaryProber(platform.ProberOptions{
//	        RuntimeName: "Mono",
//	        Binary:      "mono",
//	    }, logger),
//	})
//	if err != nil {
//	    return err
//	}
//	status := rule.Check(ctx)
//	if status.IsError() {
//	    fmt.Println(status.Message)
//	}
//
// # Error Handling
//
// Operations return *Error values carrying an operation name and a Kind.
// Use errors.Is with the sentinel errors and KindOf to branch on the kind:
//
//	cfg, err := config.Load(path)
//	if runtimehealth.KindOf(err) == runtimehealth.KindValidation {
//	    // fix the file
//	}
package runtimehealth
