package runtimecheck

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zero-day-ai/runtimehealth/version"
)

// ErrInvalidPolicy is returned when thresholds are inconsistent or an
// advisory cannot be compiled.
var ErrInvalidPolicy = errors.New("invalid runtime version policy")

// Reference thresholds.
var (
	// DefectiveVersionA and DefectiveVersionB have a bug that breaks
	// connectivity to indexers and download clients.
	DefectiveVersionA = version.MustParse("4.4.0")
	DefectiveVersionB = version.MustParse("4.4.1")

	// TargetVersion is the lowest version reported healthy.
	TargetVersion = version.MustParse("5.18")

	// StableVersion is the lowest version that is supported but should be
	// upgraded. It equals TargetVersion, so the upgrade-recommended band is
	// currently empty.
	StableVersion = version.MustParse("5.18")

	// MinimumSupportedVersion is the oldest version still considered
	// supported. Versions below it are reported the same way today.
	MinimumSupportedVersion = version.MustParse("5.4")

	// RecommendedVersion is the version named in upgrade messages.
	RecommendedVersion = version.MustParse("5.20")
)

// Policy is the threshold table the rule evaluates.
type Policy struct {
	Defective        []version.Version
	Target           version.Version
	Stable           version.Version
	MinimumSupported version.Version
	Recommended      version.Version
	Advisories       []Advisory
}

// DefaultPolicy returns the reference thresholds with no advisories.
func DefaultPolicy() Policy {
	return Policy{
		Defective:        []version.Version{DefectiveVersionA, DefectiveVersionB},
		Target:           TargetVersion,
		Stable:           StableVersion,
		MinimumSupported: MinimumSupportedVersion,
		Recommended:      RecommendedVersion,
	}
}

// clone returns a copy that shares no slices with p.
func (p Policy) clone() Policy {
	p.Defective = slices.Clone(p.Defective)
	p.Advisories = slices.Clone(p.Advisories)
	return p
}

// Validate checks that the thresholds are ordered
// MinimumSupported <= Stable <= Target <= Recommended.
func (p Policy) Validate() error {
	for i, v := range p.Defective {
		if v.IsZero() {
			return fmt.Errorf("%w: defective version %d is empty", ErrInvalidPolicy, i)
		}
	}

	named := []struct {
		name string
		v    version.Version
	}{
		{"target", p.Target},
		{"stable", p.Stable},
		{"minimum_supported", p.MinimumSupported},
		{"recommended", p.Recommended},
	}
	for _, n := range named {
		if n.v.IsZero() {
			return fmt.Errorf("%w: %s version is required", ErrInvalidPolicy, n.name)
		}
	}

	if p.Target.Less(p.Stable) {
		return fmt.Errorf("%w: stable %s is above target %s", ErrInvalidPolicy, p.Stable, p.Target)
	}
	if p.Stable.Less(p.MinimumSupported) {
		return fmt.Errorf("%w: minimum supported %s is above stable %s", ErrInvalidPolicy, p.MinimumSupported, p.Stable)
	}
	if p.Recommended.Less(p.Target) {
		return fmt.Errorf("%w: recommended %s is below target %s", ErrInvalidPolicy, p.Recommended, p.Target)
	}

	seen := make(map[string]struct{}, len(p.Advisories))
	for _, a := range p.Advisories {
		if err := a.validate(); err != nil {
			return err
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: duplicate advisory %q", ErrInvalidPolicy, a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

// isDefective reports whether v equals one of the known-defective releases.
func (p Policy) isDefective(v version.Version) bool {
	for _, d := range p.Defective {
		if v.Equal(d) {
			return true
		}
	}
	return false
}
