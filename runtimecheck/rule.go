// Package runtimecheck reports whether the installed alternate runtime is a
// known-good, known-buggy, or deprecated version.
package runtimecheck

import (
	"context"
	"log/slog"

	"github.com/zero-day-ai/runtimehealth/localization"
	"github.com/zero-day-ai/runtimehealth/platform"
	"github.com/zero-day-ai/runtimehealth/types"
)

// CheckID is the identifier the rule registers under unless overridden.
const CheckID = "RuntimeVersionCheck"

// Help anchors.
const (
	AnchorOldUnsupported     = "old-unsupported"
	AnchorUpgradeRecommended = "upgrade-recommended"
	AnchorRuntimeUndetected  = "runtime-undetected"
)

// Message keys resolved through the localizer.
const (
	MessageDefect             = "RuntimeVersionCheckDefectMessage"
	MessageUpgradeRecommended = "RuntimeVersionCheckUpgradeRecommendedMessage"
	MessageUndetected         = "RuntimeVersionCheckUndetectedMessage"
)

// Options configures a Rule.
type Options struct {
	// ID overrides CheckID.
	ID string

	// Policy holds the thresholds. Nil uses DefaultPolicy.
	Policy *Policy

	// Provider reports the runtime facts used by Check. Evaluate does not need it.
	Provider platform.Provider

	// Localizer renders messages. Default: embedded English catalog.
	Localizer localization.Localizer

	// Logger receives debug traces of the observed version.
	Logger *slog.Logger
}

// Rule evaluates the installed runtime version against a Policy.
//
// Rule is safe for concurrent use: Evaluate only reads its input and the
// immutable policy.
type Rule struct {
	id         string
	policy     Policy
	advisories []compiledAdvisory
	provider   platform.Provider
	localizer  localization.Localizer
	logger     *slog.Logger
}

// NewRule validates the policy, compiles its advisories and returns a Rule.
func NewRule(opts Options) (*Rule, error) {
	policy := DefaultPolicy()
	if opts.Policy != nil {
		policy = opts.Policy.clone()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	advisories, err := compileAdvisories(policy.Advisories)
	if err != nil {
		return nil, err
	}

	id := opts.ID
	if id == "" {
		id = CheckID
	}
	localizer := opts.Localizer
	if localizer == nil {
		localizer = localization.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Rule{
		id:         id,
		policy:     policy,
		advisories: advisories,
		provider:   opts.Provider,
		localizer:  localizer,
		logger:     logger.With(slog.String("check", id)),
	}, nil
}

// ID returns the identifier assigned at registration.
func (r *Rule) ID() string { return r.id }

// Schedulable returns false: the installed runtime cannot change while the
// process is running, so the rule only runs at startup or on request.
func (r *Rule) Schedulable() bool { return false }

// Policy returns a copy of the thresholds the rule evaluates.
func (r *Rule) Policy() Policy { return r.policy.clone() }

// Check detects the runtime through the provider and evaluates it.
func (r *Rule) Check(ctx context.Context) types.HealthStatus {
	if r.provider == nil {
		return r.Evaluate(platform.Info{})
	}

	info, err := r.provider.Detect(ctx)
	if err != nil {
		r.logger.Warn("unable to detect runtime version", "error", err)
		name := info.RuntimeName
		if name == "" {
			name = "runtime"
		}
		return types.NewWarningStatus(
			r.id,
			r.localizer.Localize(MessageUndetected, name, err.Error()),
			AnchorRuntimeUndetected,
		).WithDetails(map[string]any{"error": err.Error()})
	}

	return r.Evaluate(info)
}

// Evaluate maps the runtime facts to exactly one result. It never fails.
//
// Precedence, first match wins: inactive runtime, defective release,
// advisories, target, stable, minimum supported, anything older.
func (r *Rule) Evaluate(info platform.Info) types.HealthStatus {
	if !info.Active {
		return types.NewHealthyStatus(r.id)
	}

	v := info.Version
	p := r.policy
	details := map[string]any{
		"runtime": info.RuntimeName,
		"version": v.String(),
	}

	if p.isDefective(v) {
		r.logger.Debug("runtime version is a known defective release", "version", v.String())
		return types.NewErrorStatus(
			r.id,
			r.localizer.Localize(MessageDefect, info.RuntimeName, v),
			AnchorOldUnsupported,
		).WithDetails(withThreshold(details, "defective", v.String()))
	}

	for _, a := range r.advisories {
		matched, err := a.matches(info)
		if err != nil {
			r.logger.Debug("advisory evaluation failed", "advisory", a.ID, "error", err)
			continue
		}
		if !matched {
			continue
		}
		r.logger.Debug("runtime version matched advisory", "advisory", a.ID, "version", v.String())
		details = withThreshold(details, "advisory", a.ID)
		return types.HealthStatus{
			Source:     r.id,
			Status:     a.Status,
			Message:    r.advisoryMessage(a, info),
			HelpAnchor: a.Anchor,
			Details:    details,
		}
	}

	if v.AtLeast(p.Target) {
		r.logger.Debug("runtime version meets target", "target", p.Target.String(), "version", v.String())
		return types.NewHealthyStatus(r.id)
	}

	upgrade := r.localizer.Localize(MessageUpgradeRecommended, info.RuntimeName, v, p.Recommended)
	details["recommended"] = p.Recommended.String()

	if v.AtLeast(p.Stable) {
		r.logger.Debug("runtime version is stable but below target", "stable", p.Stable.String(), "version", v.String())
		return types.NewNoticeStatus(r.id, upgrade, AnchorUpgradeRecommended).
			WithDetails(withThreshold(details, "stable", p.Stable.String()))
	}

	// MinimumSupported and below currently share one outcome; the threshold
	// stays in the details so the two bands remain distinguishable.
	threshold := "unsupported"
	if v.AtLeast(p.MinimumSupported) {
		threshold = "minimum_supported"
	}
	r.logger.Debug("runtime version is outdated", "version", v.String(), "threshold", threshold)
	return types.NewErrorStatus(r.id, upgrade, AnchorOldUnsupported).
		WithDetails(withThreshold(details, threshold, p.MinimumSupported.String()))
}

func (r *Rule) advisoryMessage(a compiledAdvisory, info platform.Info) string {
	if a.Status == types.StatusHealthy {
		return ""
	}
	return r.localizer.Localize(a.MessageKey, info.RuntimeName, info.Version, r.policy.Recommended)
}

func withThreshold(details map[string]any, name, value string) map[string]any {
	details["matched"] = name
	details["threshold"] = value
	return details
}
