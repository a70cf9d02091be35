package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vehicle-telemetry-monitor/internal/config"
	"vehicle-telemetry-monitor/internal/models"
)

// ErrMiss is returned when no record is cached for a vehicle.
var ErrMiss = errors.New("cache miss")

const keyPrefix = "telemetry:latest:"

// Latest keeps the newest raw record of each vehicle in Redis. Records are
// cached raw and decoded by the reader, like the SQLite store.
type Latest struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLatest connects to Redis. It returns nil when no address is configured.
func NewLatest(ctx context.Context, cfg config.RedisConfig) (*Latest, error) {
	if cfg.Address == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Latest{client: client, ttl: time.Duration(cfg.TTLSeconds) * time.Second}, nil
}

// Key returns the Redis key for a vehicle.
func Key(vehicleID string) string {
	return keyPrefix + vehicleID
}

// maxPutAttempts bounds the optimistic retries of Put when another writer
// changes the key between WATCH and EXEC.
const maxPutAttempts = 5

// ErrConflict is returned when Put keeps losing the race for a key.
var ErrConflict = errors.New("cache write conflict")

// Put stores t if it is not older than the cached record for its vehicle.
// The compare and the write run under WATCH/MULTI, so a concurrent writer
// cannot replace a newer record with an older one.
// A nil receiver is a no-op so callers need not check whether caching is on.
func (l *Latest) Put(ctx context.Context, t models.RawTelemetry) error {
	if l == nil {
		return nil
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	key := Key(t.VehicleID)

	txf := func(tx *redis.Tx) error {
		current, err := get(ctx, tx, key)
		if err == nil && current.Timestamp.After(t.Timestamp) {
			return nil
		}
		if err != nil && !errors.Is(err, ErrMiss) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, l.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxPutAttempts; attempt++ {
		err := l.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrConflict, key)
}

// Get returns the cached record for a vehicle.
func (l *Latest) Get(ctx context.Context, vehicleID string) (*models.RawTelemetry, error) {
	if l == nil {
		return nil, ErrMiss
	}
	return get(ctx, l.client, Key(vehicleID))
}

// getter is the part of redis.Client and redis.Tx that get needs.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func get(ctx context.Context, c getter, key string) (*models.RawTelemetry, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var t models.RawTelemetry
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode cached record: %w", err)
	}
	return &t, nil
}

// Close closes the Redis connection
func (l *Latest) Close() error {
	if l == nil {
		return nil
	}
	return l.client.Close()
}
