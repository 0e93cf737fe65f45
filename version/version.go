// Package version provides a comparable dotted numeric version value.
//
// A Version holds between two and four non-negative components
// (major.minor[.build[.revision]]). Comparison is component-wise and missing
// trailing components compare as zero, so "5.20" equals "5.20.0.0".
// Parsing and ordering are delegated to hashicorp/go-version; this package
// narrows its grammar to plain numeric releases.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// MaxComponents is the largest number of dotted components a Version can hold.
const MaxComponents = 4

// ErrInvalid is returned when a string cannot be parsed as a Version.
var ErrInvalid = errors.New("invalid version")

var zero = goversion.Must(goversion.NewVersion("0"))

// Version is an immutable dotted numeric version.
// The zero value has no components and reports IsZero.
type Version struct {
	parts [MaxComponents]int
	n     int
	sem   *goversion.Version
}

// New builds a Version from explicit components.
func New(components ...int) (Version, error) {
	if len(components) < 2 || len(components) > MaxComponents {
		return Version{}, fmt.Errorf("%w: need 2 to %d components, got %d", ErrInvalid, MaxComponents, len(components))
	}

	fields := make([]string, len(components))
	for i, c := range components {
		if c < 0 {
			return Version{}, fmt.Errorf("%w: negative component %d", ErrInvalid, c)
		}
		fields[i] = strconv.Itoa(c)
	}
	return Parse(strings.Join(fields, "."))
}

// Parse parses a dotted version such as "5.20", "4.4.0" or "v6.12.0.122".
// Pre-release and build metadata suffixes ("5.20-beta", "5.20+abc") are
// rejected.
func Parse(s string) (Version, error) {
	raw := s
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "v")
	s = strings.TrimPrefix(s, "V")
	if s == "" {
		return Version{}, fmt.Errorf("%w: empty string", ErrInvalid)
	}

	sem, err := goversion.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalid, raw, err)
	}
	if sem.Prerelease() != "" || sem.Metadata() != "" {
		return Version{}, fmt.Errorf("%w: %q: pre-release and metadata are not supported", ErrInvalid, raw)
	}

	n := strings.Count(s, ".") + 1
	if n < 2 || n > MaxComponents {
		return Version{}, fmt.Errorf("%w: %q: need 2 to %d components", ErrInvalid, raw, MaxComponents)
	}

	v := Version{n: n, sem: sem}
	for i, seg := range sem.Segments64()[:n] {
		v.parts[i] = int(seg)
	}
	return v, nil
}

// MustParse is like Parse but panics if s is not a valid version.
// It is intended for package-level threshold declarations.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Extract finds the first version-looking token in free-form text, such as
// the output of "mono --version".
//
// Example:
//
//	v, err := version.Extract("Mono JIT compiler version 6.12.0.122 (tarball)")
//	// v.String() == "6.12.0.122"
func Extract(text string) (Version, error) {
	for _, line := range strings.Split(text, "\n") {
		for _, field := range strings.Fields(line) {
			field = strings.TrimPrefix(field, "v")
			field = strings.TrimPrefix(field, "V")

			if !strings.Contains(field, ".") || !containsDigit(field) {
				continue
			}
			candidate := leadingVersion(field)
			if candidate == "" {
				continue
			}
			if v, err := Parse(candidate); err == nil {
				return v, nil
			}
		}
	}
	return Version{}, fmt.Errorf("%w: no version found in output", ErrInvalid)
}

// Components returns a copy of the components that were supplied.
func (v Version) Components() []int {
	out := make([]int, v.n)
	copy(out, v.parts[:v.n])
	return out
}

// Major returns the first component.
func (v Version) Major() int { return v.parts[0] }

// Minor returns the second component.
func (v Version) Minor() int { return v.parts[1] }

// Build returns the third component, or zero when absent.
func (v Version) Build() int { return v.parts[2] }

// Revision returns the fourth component, or zero when absent.
func (v Version) Revision() int { return v.parts[3] }

// IsZero reports whether v was never set.
func (v Version) IsZero() bool { return v.n == 0 }

// Compare returns -1, 0 or 1 depending on whether v is less than, equal to,
// or greater than o.
func (v Version) Compare(o Version) int {
	return v.semantic().Compare(o.semantic())
}

// Equal reports whether v and o have identical components once missing
// trailing components are treated as zero.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// AtLeast reports whether v >= o.
func (v Version) AtLeast(o Version) bool { return v.Compare(o) >= 0 }

// String renders the components that were supplied, e.g. "5.20".
func (v Version) String() string {
	if v.n == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < v.n; i++ {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(v.parts[i]))
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so versions can be read
// straight from YAML, TOML or JSON configuration.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Version) semantic() *goversion.Version {
	if v.sem == nil {
		return zero
	}
	return v.sem
}

func containsDigit(s string) bool {
	for _, c := range s {
		if c >= '0' && c <= '9' {
			return true
		}
	}
	return false
}

// leadingVersion returns the run of digits and dots starting at the first
// digit of s, with any trailing dots removed.
func leadingVersion(s string) string {
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return ""
	}

	end := start
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}

	candidate := strings.TrimRight(s[start:end], ".")
	if !strings.Contains(candidate, ".") {
		return ""
	}
	return candidate
}
