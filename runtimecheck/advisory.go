package runtimecheck

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"

	"github.com/zero-day-ai/runtimehealth/platform"
	"github.com/zero-day-ai/runtimehealth/types"
)

// DefaultAdvisoryMessageKey is used when an advisory names no message key.
const DefaultAdvisoryMessageKey = "RuntimeVersionCheckAdvisoryMessage"

// Advisory flags specific runtime versions ahead of the threshold table.
//
// When is a CEL expression over the variables active (bool), runtime
// (string), version (string), major, minor, build and revision (int).
//
// Example:
//
//	runtimecheck.Advisory{
//	    ID:     "mono-6.0-tls",
//	    When:   "major == 6 && minor == 0",
//	    Status: types.StatusNotice,
//	    Anchor: "upgrade-recommended",
//	}
type Advisory struct {
	ID         string `yaml:"id" toml:"id" json:"id"`
	When       string `yaml:"when" toml:"when" json:"when"`
	Status     string `yaml:"status" toml:"status" json:"status"`
	MessageKey string `yaml:"message_key,omitempty" toml:"message_key" json:"message_key,omitempty"`
	Anchor     string `yaml:"anchor,omitempty" toml:"anchor" json:"anchor,omitempty"`
}

func (a Advisory) validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: advisory id is required", ErrInvalidPolicy)
	}
	if a.When == "" {
		return fmt.Errorf("%w: advisory %q has no condition", ErrInvalidPolicy, a.ID)
	}
	if !types.ValidStatus(a.Status) {
		return fmt.Errorf("%w: advisory %q has unknown status %q", ErrInvalidPolicy, a.ID, a.Status)
	}
	return nil
}

type compiledAdvisory struct {
	Advisory
	program cel.Program
}

func newAdvisoryEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("active", cel.BoolType),
		cel.Variable("runtime", cel.StringType),
		cel.Variable("version", cel.StringType),
		cel.Variable("major", cel.IntType),
		cel.Variable("minor", cel.IntType),
		cel.Variable("build", cel.IntType),
		cel.Variable("revision", cel.IntType),
	)
}

func compileAdvisories(advisories []Advisory) ([]compiledAdvisory, error) {
	if len(advisories) == 0 {
		return nil, nil
	}

	env, err := newAdvisoryEnv()
	if err != nil {
		return nil, fmt.Errorf("create advisory environment: %w", err)
	}

	compiled := make([]compiledAdvisory, 0, len(advisories))
	for _, a := range advisories {
		ast, iss := env.Compile(a.When)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("%w: advisory %q: %v", ErrInvalidPolicy, a.ID, iss.Err())
		}
		if !reflect.DeepEqual(ast.OutputType(), cel.BoolType) {
			return nil, fmt.Errorf("%w: advisory %q must evaluate to bool, got %v", ErrInvalidPolicy, a.ID, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("%w: advisory %q: %v", ErrInvalidPolicy, a.ID, err)
		}
		if a.MessageKey == "" {
			a.MessageKey = DefaultAdvisoryMessageKey
		}
		compiled = append(compiled, compiledAdvisory{Advisory: a, program: prg})
	}
	return compiled, nil
}

// matches evaluates the advisory against info.
func (c compiledAdvisory) matches(info platform.Info) (bool, error) {
	v := info.Version
	out, _, err := c.program.Eval(map[string]any{
		"active":   info.Active,
		"runtime":  info.RuntimeName,
		"version":  v.String(),
		"major":    int64(v.Major()),
		"minor":    int64(v.Minor()),
		"build":    int64(v.Build()),
		"revision": int64(v.Revision()),
	})
	if err != nil {
		return false, err
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("advisory %q returned %T", c.ID, out.Value())
	}
	return matched, nil
}
