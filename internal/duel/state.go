package duel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultRecordTTL = 2 * time.Hour
	lockTTL          = 5 * time.Second
	lockRetries      = 5
	lockRetryDelay   = 20 * time.Millisecond
)

// unlockScript deletes the lock only if we still own it.
var unlockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisStore keeps duel records in Redis as JSON snapshots and serializes writers
// with a per-duel lock.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a record store backed by Redis.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = defaultRecordTTL
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "duel_store").Logger(),
	}
}

func recordKey(id uuid.UUID) string {
	return fmt.Sprintf("duel:%s", id.String())
}

func lockKey(id uuid.UUID) string {
	return fmt.Sprintf("duel:lock:%s", id.String())
}

// Create stores a new record. It fails if the id is already taken.
func (s *RedisStore) Create(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	ok, err := s.redis.SetNX(ctx, recordKey(rec.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrDuelExists, rec.ID)
	}
	return nil
}

// Get loads a record.
func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	data, err := s.redis.Get(ctx, recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDuelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

// Mutate applies fn under the duel lock and writes the result back.
func (s *RedisStore) Mutate(ctx context.Context, id uuid.UUID, fn func(*Record) error) (*Record, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			s.logger.Warn().Err(err).Str("duel_id", id.String()).Msg("failed to release duel lock")
		}
	}()

	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	if err := s.redis.Set(ctx, recordKey(id), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store record: %w", err)
	}
	return rec, nil
}

// lock acquires the per-duel lock, retrying briefly while another writer holds it.
func (s *RedisStore) lock(ctx context.Context, id uuid.UUID) (func() error, error) {
	key := lockKey(id)
	value := uuid.NewString()

	for attempt := 0; attempt < lockRetries; attempt++ {
		acquired, err := s.redis.SetNX(ctx, key, value, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if acquired {
			return func() error {
				// The caller's ctx may already be cancelled by the time we unlock.
				return unlockScript.Run(context.Background(), s.redis, []string{key}, value).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return nil, ErrLockHeld
}
