package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	runtimehealth "github.com/zero-day-ai/runtimehealth"
	"github.com/zero-day-ai/runtimehealth/types"
)

// DefaultEtcdNamespace prefixes every key written by Etcd.
const DefaultEtcdNamespace = "runtimehealth"

// EtcdOptions configures the etcd connection.
type EtcdOptions struct {
	Endpoints []string

	// Namespace prefixes keys as /<namespace>/results/<source>.
	Namespace string

	// DialTimeout defaults to 5s.
	DialTimeout time.Duration

	TLS *TLSConfig
}

// Etcd stores one key per check source.
//
// Thread-safety: All methods are safe for concurrent use.
type Etcd struct {
	client    *clientv3.Client
	namespace string
	logger    *slog.Logger
}

// NewEtcd connects to the cluster and verifies connectivity with a read.
func NewEtcd(opts EtcdOptions, logger *slog.Logger) (*Etcd, error) {
	if len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("%w: etcd endpoints cannot be empty", ErrStore)
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultEtcdNamespace
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := clientv3.Config{
		Endpoints:   opts.Endpoints,
		DialTimeout: opts.DialTimeout,
	}
	tlsConfig, err := opts.TLS.ClientConfig()
	if err != nil {
		return nil, err
	}
	clientCfg.TLS = tlsConfig

	cli, err := clientv3.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create etcd client: %v", ErrStore, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if _, err := cli.Get(ctx, "health-check"); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		_ = cli.Close()
		return nil, runtimehealth.NewNetworkError("store.NewEtcd", fmt.Errorf("%w: etcd health check: %v", ErrStore, err))
	}

	return &Etcd{
		client:    cli,
		namespace: strings.Trim(opts.Namespace, "/"),
		logger:    logger.With(slog.String("component", "store.etcd")),
	}, nil
}

// Put writes status under its result key.
func (e *Etcd) Put(ctx context.Context, status types.HealthStatus) error {
	if err := validate(status); err != nil {
		return err
	}
	data, err := encode(status)
	if err != nil {
		return err
	}
	if _, err := e.client.Put(ctx, resultKey(e.namespace, status.Source), string(data)); err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrStore, status.Source, err)
	}
	return nil
}

// Delete removes the result key for source.
func (e *Etcd) Delete(ctx context.Context, source string) error {
	if _, err := e.client.Delete(ctx, resultKey(e.namespace, source)); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStore, source, err)
	}
	return nil
}

// List reads every key under the results prefix.
func (e *Etcd) List(ctx context.Context) ([]types.HealthStatus, error) {
	resp, err := e.client.Get(ctx, resultPrefix(e.namespace), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrStore, err)
	}

	out := make([]types.HealthStatus, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		status, err := decodeStatus(kv.Value)
		if err != nil {
			e.logger.Warn("skipping undecodable result", "key", string(kv.Key), "error", err)
			continue
		}
		out = append(out, status)
	}
	sortBySource(out)
	return out, nil
}

// Close closes the etcd client.
func (e *Etcd) Close() error {
	if err := e.client.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrStore, err)
	}
	return nil
}

// resultPrefix returns /namespace/results/.
func resultPrefix(namespace string) string {
	return fmt.Sprintf("/%s/results/", namespace)
}

func resultKey(namespace, source string) string {
	return resultPrefix(namespace) + source
}
