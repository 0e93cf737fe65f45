package main

import (
	"fmt"
	"io"
	"log/slog"

	runtimehealth "github.com/zero-day-ai/runtimehealth"
	"github.com/zero-day-ai/runtimehealth/checkservice"
	"github.com/zero-day-ai/runtimehealth/config"
	"github.com/zero-day-ai/runtimehealth/health"
	"github.com/zero-day-ai/runtimehealth/localization"
	"github.com/zero-day-ai/runtimehealth/platform"
	"github.com/zero-day-ai/runtimehealth/runtimecheck"
	"github.com/zero-day-ai/runtimehealth/store"
	"github.com/zero-day-ai/runtimehealth/version"
)

func newProvider(cfg config.Config, logger *slog.Logger) (platform.Provider, error) {
	rc := cfg.Runtime
	switch {
	case rc.Disabled:
		return platform.Inactive(rc.Name), nil
	case rc.Version != "":
		v, err := version.Parse(rc.Version)
		if err != nil {
			return nil, fmt.Errorf("runtime.version: %w", err)
		}
		return platform.Active(rc.Name, v), nil
	default:
		return platform.NewBinaryProber(platform.ProberOptions{
			RuntimeName: rc.Name,
			Binary:      rc.Binary,
			VersionFlag: rc.VersionFlag,
			Timeout:     rc.GetProbeTimeout(),
		}, logger), nil
	}
}

func newLocalizer(cfg config.Config) (localization.Localizer, error) {
	return localization.New(localization.Options{
		Language: cfg.Localization.Language,
		Files:    cfg.Localization.Files,
	})
}

func newRule(cfg config.Config, provider platform.Provider, loc localization.Localizer, logger *slog.Logger) (*runtimecheck.Rule, error) {
	policy, err := cfg.Policy.Policy()
	if err != nil {
		return nil, err
	}
	return runtimecheck.NewRule(runtimecheck.Options{
		Policy:    &policy,
		Provider:  provider,
		Localizer: loc,
		Logger:    logger,
	})
}

// newChecks returns the runtime version rule followed by the configured
// supporting checks.
func newChecks(cfg config.Config, rule *runtimecheck.Rule, loc localization.Localizer) []health.Check {
	checks := []health.Check{rule}
	for _, p := range cfg.Checks.Paths {
		checks = append(checks, health.NewPathCheck(p, loc))
	}
	for _, b := range cfg.Checks.Binaries {
		checks = append(checks, health.NewBinaryCheck(b, loc))
	}
	for _, e := range cfg.Checks.Endpoints {
		checks = append(checks, health.NewEndpointCheck(e.Host, e.Port, e.GetTimeout(), loc))
	}
	return checks
}

// newStore opens the configured backend. The publisher is nil unless Redis
// publishing is enabled.
func newStore(cfg config.Config, logger *slog.Logger) (store.Store, store.Publisher, error) {
	sc := cfg.Store
	redisOpts := store.RedisOptions{
		URL:     sc.Redis.URL,
		Key:     sc.Redis.Key,
		Channel: sc.Redis.Channel,
	}

	var (
		results   store.Store
		publisher store.Publisher
	)
	switch sc.Backend {
	case "redis":
		r, err := store.NewRedis(redisOpts, logger)
		if err != nil {
			return nil, nil, err
		}
		results = r
		if sc.Redis.Publish {
			publisher = r
		}
	case "etcd":
		e, err := store.NewEtcd(store.EtcdOptions{
			Endpoints: sc.Etcd.Endpoints,
			Namespace: sc.Etcd.Namespace,
			TLS:       sc.Etcd.TLS,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		results = e
	default:
		results = store.NewMemory()
	}

	if publisher == nil && sc.Redis.Publish {
		r, err := store.NewRedis(redisOpts, logger)
		if err != nil {
			_ = results.Close()
			return nil, nil, err
		}
		publisher = r
	}
	return results, publisher, nil
}

type components struct {
	service   *checkservice.Service
	store     store.Store
	publisher store.Publisher
}

// buildComponents wires everything a run needs from cfg. The caller closes
// the returned store and publisher.
func buildComponents(cfg config.Config, logger *slog.Logger, opts checkservice.Options) (*components, error) {
	provider, err := newProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	loc, err := newLocalizer(cfg)
	if err != nil {
		return nil, err
	}
	rule, err := newRule(cfg, provider, loc, logger)
	if err != nil {
		return nil, err
	}

	results, publisher, err := newStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts.Store = results
	opts.Publisher = publisher
	opts.Concurrency = cfg.Service.Concurrency
	opts.Schedule = cfg.Service.Schedule
	opts.Localizer = loc
	opts.Logger = logger
	svc, err := checkservice.New(opts)
	if err != nil {
		_ = results.Close()
		return nil, err
	}
	if err := svc.Register(newChecks(cfg, rule, loc)...); err != nil {
		_ = results.Close()
		return nil, err
	}

	return &components{service: svc, store: results, publisher: publisher}, nil
}

// close releases the store and a separately opened publisher.
func (c *components) close(logger *slog.Logger) {
	if closer, ok := c.publisher.(io.Closer); ok && any(c.publisher) != any(c.store) {
		runtimehealth.CloseWithLog(closer, logger, "event publisher")
	}
	runtimehealth.CloseWithLog(c.store, logger, "result store")
}
