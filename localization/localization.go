// Package localization resolves message templates by fixed identifiers.
//
// Health checks never embed user-facing text directly; they pass a message
// key and the values to interpolate, and a Localizer renders the text for the
// configured language. The English catalog is embedded in the binary and
// additional YAML files can override or translate individual keys.
package localization

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed locales/en.yaml
var defaultMessages []byte

// ErrInvalidCatalog is returned when a language tag or message file cannot be loaded.
var ErrInvalidCatalog = errors.New("invalid message catalog")

// Localizer renders a message template identified by key.
// Implementations must return some text for every key; an unknown key is
// rendered as the key itself.
type Localizer interface {
	Localize(key string, args ...any) string
}

// Options configures a Catalog.
type Options struct {
	// Language is a BCP 47 tag such as "en" or "fr-CA".
	// Default: "en"
	Language string

	// Files are YAML documents mapping message keys to templates. They are
	// applied in order on top of the embedded English catalog.
	Files []string
}

// Catalog is a Localizer backed by golang.org/x/text.
// It is safe for concurrent use once constructed.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
	keys    map[string]struct{}
}

// New builds a catalog for the configured language.
func New(opts Options) (*Catalog, error) {
	tag := language.English
	if opts.Language != "" {
		parsed, err := language.Parse(opts.Language)
		if err != nil {
			return nil, fmt.Errorf("%w: language %q: %v", ErrInvalidCatalog, opts.Language, err)
		}
		tag = parsed
	}

	base, err := parseMessages(defaultMessages)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}

	overrides := make(map[string]string)
	for _, path := range opts.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidCatalog, path, err)
		}
		msgs, err := parseMessages(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for k, v := range msgs {
			overrides[k] = v
		}
	}

	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	keys := make(map[string]struct{}, len(base)+len(overrides))

	// English always carries the embedded text so other languages can fall back to it.
	for k, v := range base {
		if err := builder.SetString(language.English, k, v); err != nil {
			return nil, fmt.Errorf("%w: key %s: %v", ErrInvalidCatalog, k, err)
		}
		keys[k] = struct{}{}
	}
	if tag != language.English {
		for k, v := range base {
			if err := builder.SetString(tag, k, v); err != nil {
				return nil, fmt.Errorf("%w: key %s: %v", ErrInvalidCatalog, k, err)
			}
		}
	}
	for k, v := range overrides {
		if err := builder.SetString(tag, k, v); err != nil {
			return nil, fmt.Errorf("%w: key %s: %v", ErrInvalidCatalog, k, err)
		}
		keys[k] = struct{}{}
	}

	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
		keys:    keys,
	}, nil
}

// Default returns the embedded English catalog.
func Default() *Catalog {
	c, err := New(Options{})
	if err != nil {
		panic(err)
	}
	return c
}

// Language returns the catalog's language tag.
func (c *Catalog) Language() language.Tag {
	return c.tag
}

// Has reports whether key is defined in the catalog.
func (c *Catalog) Has(key string) bool {
	_, ok := c.keys[key]
	return ok
}

// Localize renders the template for key with args.
func (c *Catalog) Localize(key string, args ...any) string {
	if !c.Has(key) {
		return key
	}
	return c.printer.Sprintf(key, args...)
}

func parseMessages(data []byte) (map[string]string, error) {
	msgs := make(map[string]string)
	if err := yaml.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	for k, v := range msgs {
		if k == "" || v == "" {
			return nil, fmt.Errorf("%w: empty key or template for %q", ErrInvalidCatalog, k)
		}
	}
	return msgs, nil
}
