// Package config loads the runtimehealth configuration from YAML or TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	runtimehealth "github.com/zero-day-ai/runtimehealth"
	"github.com/zero-day-ai/runtimehealth/checkservice"
	"github.com/zero-day-ai/runtimehealth/runtimecheck"
	"github.com/zero-day-ai/runtimehealth/store"
	"github.com/zero-day-ai/runtimehealth/version"
)

const (
	DefaultHTTPAddr     = ":8080"
	DefaultGRPCAddr     = ":9090"
	DefaultRuntimeName  = "Mono"
	DefaultRuntimeBin   = "mono"
	DefaultVersionFlag  = "--version"
	DefaultProbeTimeout = "5s"
	DefaultStoreBackend = "memory"
)

// ErrInvalidConfig is runtimehealth.ErrInvalidConfig, re-exported for callers
// that only import this package.
var ErrInvalidConfig = runtimehealth.ErrInvalidConfig

// Config is the root of the configuration file.
type Config struct {
	Log          LogConfig          `yaml:"log" toml:"log"`
	Runtime      RuntimeConfig      `yaml:"runtime" toml:"runtime"`
	Policy       PolicyConfig       `yaml:"policy" toml:"policy"`
	Checks       ChecksConfig       `yaml:"checks" toml:"checks"`
	Service      ServiceConfig      `yaml:"service" toml:"service"`
	Store        StoreConfig        `yaml:"store" toml:"store"`
	Server       ServerConfig       `yaml:"server" toml:"server"`
	Localization LocalizationConfig `yaml:"localization" toml:"localization"`
}

// LogConfig selects the slog level and handler format.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" validate:"oneof=text json"`
}

// RuntimeConfig describes how the installed runtime is detected.
type RuntimeConfig struct {
	Name        string `yaml:"name" toml:"name" validate:"required"`
	Binary      string `yaml:"binary" toml:"binary"`
	VersionFlag string `yaml:"version_flag" toml:"version_flag"`

	// ProbeTimeout bounds one probe run.
	// Format: Go duration string (e.g., "5s")
	ProbeTimeout string `yaml:"probe_timeout" toml:"probe_timeout"`

	// Version pins the runtime version instead of probing Binary.
	// Setting Disabled reports the runtime as not in use.
	Version  string `yaml:"version,omitempty" toml:"version"`
	Disabled bool   `yaml:"disabled,omitempty" toml:"disabled"`
}

// GetProbeTimeout parses ProbeTimeout, falling back to 5s.
func (r RuntimeConfig) GetProbeTimeout() time.Duration {
	d, err := time.ParseDuration(r.ProbeTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// PolicyConfig overrides the version thresholds. Empty fields keep the
// built-in values.
type PolicyConfig struct {
	Defective        []string                `yaml:"defective,omitempty" toml:"defective"`
	Target           string                  `yaml:"target,omitempty" toml:"target"`
	Stable           string                  `yaml:"stable,omitempty" toml:"stable"`
	MinimumSupported string                  `yaml:"minimum_supported,omitempty" toml:"minimum_supported"`
	Recommended      string                  `yaml:"recommended,omitempty" toml:"recommended"`
	Advisories       []runtimecheck.Advisory `yaml:"advisories,omitempty" toml:"advisories"`
}

// Policy builds the runtimecheck policy.
func (p PolicyConfig) Policy() (runtimecheck.Policy, error) {
	policy := runtimecheck.DefaultPolicy()

	if p.Defective != nil {
		policy.Defective = make([]version.Version, 0, len(p.Defective))
		for _, s := range p.Defective {
			v, err := version.Parse(s)
			if err != nil {
				return runtimecheck.Policy{}, fmt.Errorf("policy.defective: %w", err)
			}
			policy.Defective = append(policy.Defective, v)
		}
	}

	overrides := []struct {
		name string
		raw  string
		dst  *version.Version
	}{
		{"target", p.Target, &policy.Target},
		{"stable", p.Stable, &policy.Stable},
		{"minimum_supported", p.MinimumSupported, &policy.MinimumSupported},
		{"recommended", p.Recommended, &policy.Recommended},
	}
	for _, o := range overrides {
		if o.raw == "" {
			continue
		}
		v, err := version.Parse(o.raw)
		if err != nil {
			return runtimecheck.Policy{}, fmt.Errorf("policy.%s: %w", o.name, err)
		}
		*o.dst = v
	}

	policy.Advisories = p.Advisories
	if err := policy.Validate(); err != nil {
		return runtimecheck.Policy{}, err
	}
	return policy, nil
}

// ChecksConfig lists the supporting checks registered next to the runtime
// version rule.
type ChecksConfig struct {
	Paths     []string         `yaml:"paths,omitempty" toml:"paths" validate:"dive,required"`
	Binaries  []string         `yaml:"binaries,omitempty" toml:"binaries" validate:"dive,required"`
	Endpoints []EndpointConfig `yaml:"endpoints,omitempty" toml:"endpoints" validate:"dive"`
}

// EndpointConfig is a TCP endpoint that must accept connections.
type EndpointConfig struct {
	Host    string `yaml:"host" toml:"host" validate:"required"`
	Port    int    `yaml:"port" toml:"port" validate:"min=1,max=65535"`
	Timeout string `yaml:"timeout,omitempty" toml:"timeout"`
}

// GetTimeout parses Timeout, falling back to 3s.
func (e EndpointConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(e.Timeout)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

// ServiceConfig controls scheduling and parallelism of check runs.
type ServiceConfig struct {
	Schedule    string `yaml:"schedule" toml:"schedule" validate:"required"`
	Concurrency int    `yaml:"concurrency" toml:"concurrency" validate:"min=1,max=64"`
}

// StoreConfig selects where non-healthy results are cached.
type StoreConfig struct {
	Backend string      `yaml:"backend" toml:"backend" validate:"oneof=memory redis etcd"`
	Redis   RedisConfig `yaml:"redis" toml:"redis"`
	Etcd    EtcdConfig  `yaml:"etcd" toml:"etcd"`
}

// RedisConfig configures the Redis results hash and event channel.
type RedisConfig struct {
	URL     string `yaml:"url" toml:"url" validate:"required_if=Enabled true"`
	Key     string `yaml:"key,omitempty" toml:"key"`
	Channel string `yaml:"channel,omitempty" toml:"channel"`

	// Publish announces completed runs on Channel.
	Publish bool `yaml:"publish" toml:"publish"`

	Enabled bool `yaml:"-" toml:"-"`
}

// EtcdConfig configures the etcd result store.
type EtcdConfig struct {
	Endpoints []string         `yaml:"endpoints" toml:"endpoints" validate:"required_if=Enabled true"`
	Namespace string           `yaml:"namespace,omitempty" toml:"namespace"`
	TLS       *store.TLSConfig `yaml:"tls,omitempty" toml:"tls"`

	Enabled bool `yaml:"-" toml:"-"`
}

// ServerConfig holds the HTTP and gRPC listen addresses.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr" validate:"required"`
	GRPCAddr string `yaml:"grpc_addr" toml:"grpc_addr"`
}

// LocalizationConfig picks the message language and extra catalog files.
type LocalizationConfig struct {
	Language string   `yaml:"language" toml:"language"`
	Files    []string `yaml:"files,omitempty" toml:"files"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Runtime: RuntimeConfig{
			Name:         DefaultRuntimeName,
			Binary:       DefaultRuntimeBin,
			VersionFlag:  DefaultVersionFlag,
			ProbeTimeout: DefaultProbeTimeout,
		},
		Service: ServiceConfig{
			Schedule:    checkservice.DefaultSchedule,
			Concurrency: checkservice.DefaultConcurrency,
		},
		Store: StoreConfig{
			Backend: DefaultStoreBackend,
			Redis: RedisConfig{
				Key:     store.DefaultRedisKey,
				Channel: store.DefaultRedisChannel,
			},
			Etcd: EtcdConfig{
				Namespace: store.DefaultEtcdNamespace,
			},
		},
		Server: ServerConfig{
			HTTPAddr: DefaultHTTPAddr,
			GRPCAddr: DefaultGRPCAddr,
		},
		Localization: LocalizationConfig{
			Language: "en",
		},
	}
}

// Load returns Default overlaid with the file at path. The format follows
// the extension: .yaml, .yml or .toml. An empty path returns the defaults.
func Load(path string) (Config, error) {
	const op = "config.Load"
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, runtimehealth.NewConfigurationError(op, fmt.Errorf("read config file: %w", err))
		}
		if err := decode(path, data, &cfg); err != nil {
			return cfg, runtimehealth.NewConfigurationError(op, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, runtimehealth.NewValidationError(op, err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
		}
	default:
		return fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, ext)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the policy, schedule and probe
// settings can be built.
func (c *Config) Validate() error {
	c.Store.Redis.Enabled = c.Store.Backend == "redis" || c.Store.Redis.Publish
	c.Store.Etcd.Enabled = c.Store.Backend == "etcd"

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	policy, err := c.Policy.Policy()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	// compiles the advisories
	if _, err := runtimecheck.NewRule(runtimecheck.Options{Policy: &policy}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if _, err := cron.ParseStandard(c.Service.Schedule); err != nil {
		return fmt.Errorf("%w: service.schedule: %v", ErrInvalidConfig, err)
	}

	if c.Runtime.Version != "" {
		if _, err := version.Parse(c.Runtime.Version); err != nil {
			return fmt.Errorf("%w: runtime.version: %v", ErrInvalidConfig, err)
		}
	}
	if c.Runtime.ProbeTimeout != "" {
		if _, err := time.ParseDuration(c.Runtime.ProbeTimeout); err != nil {
			return fmt.Errorf("%w: runtime.probe_timeout: %v", ErrInvalidConfig, err)
		}
	}
	for i, e := range c.Checks.Endpoints {
		if e.Timeout == "" {
			continue
		}
		if _, err := time.ParseDuration(e.Timeout); err != nil {
			return fmt.Errorf("%w: checks.endpoints[%d].timeout: %v", ErrInvalidConfig, i, err)
		}
	}
	return nil
}
