// Package redisstore implements state.Store on Redis. The device record is
// a single Hash; it suits deployments that already run Redis and want the
// record to survive process restarts without a relational database.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/pushsync/state"
)

// Compile-time interface check.
var _ state.Store = (*Store)(nil)

// recordKey is the Hash holding the device record.
// The "pushsync:" prefix avoids collisions with other tenants of the
// same Redis instance.
const recordKey = "pushsync:device_state"

// Hash field names.
const (
	fieldDeviceID  = "device_id"
	fieldToken     = "token"
	fieldUserID    = "user_id"
	fieldInterests = "interests"
)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithKeyPrefix prepends a prefix to the record key, so several engines
// can share one Redis instance.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.key = prefix + recordKey }
}

// Store implements state.Store backed by Redis. The caller owns the Redis
// client lifecycle.
type Store struct {
	client redis.Cmdable
	key    string
	logger *slog.Logger

	// mu serializes Synchronize sections for in-process callers. The
	// engine is the only writer, so optimistic WATCH loops are not needed.
	mu sync.Mutex
}

// New creates a Redis-backed store.
func New(client redis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, key: recordKey, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Load implements state.Store.
func (s *Store) Load(ctx context.Context) (state.Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return state.Record{}, fmt.Errorf("pushsync/redis: load record: %w", err)
	}
	return fromFields(fields)
}

// Synchronize implements state.Store. The mutated record replaces the Hash
// in one transactional pipeline.
func (s *Store) Synchronize(ctx context.Context, fn func(r *state.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.Load(ctx)
	if err != nil {
		return err
	}

	if fnErr := fn(&rec); fnErr != nil {
		return fnErr
	}

	fields, err := toFields(rec)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key)
	if len(fields) > 0 {
		pipe.HSet(ctx, s.key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pushsync/redis: save record: %w", err)
	}
	return nil
}

// Close is a no-op; the caller owns the Redis client lifecycle.
func (s *Store) Close() error { return nil }

func fromFields(fields map[string]string) (state.Record, error) {
	rec := state.Record{
		DeviceID: fields[fieldDeviceID],
		Token:    fields[fieldToken],
		UserID:   fields[fieldUserID],
	}
	if raw := fields[fieldInterests]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &rec.Interests); err != nil {
			return state.Record{}, fmt.Errorf("pushsync/redis: decode interests: %w", err)
		}
	}
	return rec, nil
}

func toFields(rec state.Record) (map[string]any, error) {
	if !rec.Registered() && rec.Token == "" && rec.UserID == "" && len(rec.Interests) == 0 {
		return nil, nil
	}

	interests, err := json.Marshal(rec.Interests)
	if err != nil {
		return nil, fmt.Errorf("pushsync/redis: encode interests: %w", err)
	}
	return map[string]any{
		fieldDeviceID:  rec.DeviceID,
		fieldToken:     rec.Token,
		fieldUserID:    rec.UserID,
		fieldInterests: string(interests),
	}, nil
}
