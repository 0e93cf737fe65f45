// Package store keeps the latest non-healthy result of every health check.
//
// Three backends are provided: Memory for single-process use, Redis for
// sharing results between replicas (with pub/sub for completion events) and
// Etcd for deployments that already run an etcd cluster.
//
// Values are encoded with msgpack. All implementations are safe for
// concurrent use.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zero-day-ai/runtimehealth/types"
)

// ErrStore wraps every backend failure.
var ErrStore = errors.New("result store")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = fmt.Errorf("%w: closed", ErrStore)

// Store persists health results keyed by their source.
type Store interface {
	// Put records status, replacing any previous result from the same source.
	Put(ctx context.Context, status types.HealthStatus) error

	// Delete removes the result recorded for source. Deleting an unknown
	// source is not an error.
	Delete(ctx context.Context, source string) error

	// List returns every recorded result ordered by source.
	List(ctx context.Context) ([]types.HealthStatus, error)

	// Close releases backend resources.
	Close() error
}

// CompletedEvent is announced after every aggregated run.
type CompletedEvent struct {
	ReportID  string    `json:"report_id" msgpack:"report_id"`
	Overall   string    `json:"overall" msgpack:"overall"`
	Count     int       `json:"count" msgpack:"count"`
	Scheduled bool      `json:"scheduled" msgpack:"scheduled"`
	Time      time.Time `json:"time" msgpack:"time"`
}

// Publisher announces completed runs to other processes.
type Publisher interface {
	Publish(ctx context.Context, event CompletedEvent) error
}

func encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrStore, err)
	}
	return data, nil
}

func decodeStatus(data []byte) (types.HealthStatus, error) {
	var status types.HealthStatus
	if err := msgpack.Unmarshal(data, &status); err != nil {
		return types.HealthStatus{}, fmt.Errorf("%w: decode: %v", ErrStore, err)
	}
	return status, nil
}

func sortBySource(statuses []types.HealthStatus) {
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Source < statuses[j].Source
	})
}

func validate(status types.HealthStatus) error {
	if status.Source == "" {
		return fmt.Errorf("%w: status has no source", ErrStore)
	}
	return nil
}
