package store

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	runtimehealth "github.com/zero-day-ai/runtimehealth"
	"github.com/zero-day-ai/runtimehealth/types"
)

// Redis defaults.
const (
	DefaultRedisKey     = "runtimehealth:results"
	DefaultRedisChannel = "runtimehealth:events"
)

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// Key is the hash holding one field per check source.
	Key string

	// Channel receives CompletedEvent messages.
	Channel string

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration
}

// Redis stores results in a single hash and publishes completion events on
// a pub/sub channel.
type Redis struct {
	client  *redis.Client
	key     string
	channel string
	logger  *slog.Logger
}

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(opts RedisOptions, logger *slog.Logger) (*Redis, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Key == "" {
		opts.Key = DefaultRedisKey
	}
	if opts.Channel == "" {
		opts.Channel = DefaultRedisChannel
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 3 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 3 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, runtimehealth.NewConfigurationError("store.NewRedis", fmt.Errorf("%w: parse redis url: %v", ErrStore, err))
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, runtimehealth.NewNetworkError("store.NewRedis", fmt.Errorf("%w: connect to redis: %v", ErrStore, err))
	}

	return &Redis{
		client:  client,
		key:     opts.Key,
		channel: opts.Channel,
		logger:  logger.With(slog.String("component", "store.redis")),
	}, nil
}

// Put encodes status and writes it to the results hash.
func (r *Redis) Put(ctx context.Context, status types.HealthStatus) error {
	if err := validate(status); err != nil {
		return err
	}
	data, err := encode(status)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.key, status.Source, data).Err(); err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrStore, status.Source, err)
	}
	return nil
}

// Delete removes the hash field for source.
func (r *Redis) Delete(ctx context.Context, source string) error {
	if err := r.client.HDel(ctx, r.key, source).Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStore, source, err)
	}
	return nil
}

// List reads the results hash, skipping fields that fail to decode.
func (r *Redis) List(ctx context.Context) ([]types.HealthStatus, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrStore, err)
	}

	out := make([]types.HealthStatus, 0, len(fields))
	for source, raw := range fields {
		status, err := decodeStatus([]byte(raw))
		if err != nil {
			r.logger.Warn("skipping undecodable result", "source", source, "error", err)
			continue
		}
		out = append(out, status)
	}
	sortBySource(out)
	return out, nil
}

// Publish sends event to the configured channel.
func (r *Redis) Publish(ctx context.Context, event CompletedEvent) error {
	data, err := encode(event)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("%w: publish to %s: %v", ErrStore, r.channel, err)
	}
	return nil
}

// Subscribe streams events from the configured channel until ctx is done.
func (r *Redis) Subscribe(ctx context.Context) (<-chan CompletedEvent, error) {
	pubsub := r.client.Subscribe(ctx, r.channel)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: subscribe to %s: %v", ErrStore, r.channel, err)
	}

	events := make(chan CompletedEvent)
	go func() {
		defer close(events)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event CompletedEvent
				if err := msgpack.Unmarshal([]byte(msg.Payload), &event); err != nil {
					r.logger.Warn("dropping malformed event", "error", err)
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%w: close: %v", ErrStore, err)
	}
	return nil
}
