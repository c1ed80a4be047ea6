package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/grillhouse/internal/redisx"
)

// CodeStore keeps one-time codes and issuance locks per phone.
// Lookups return "" when no code is stored.
type CodeStore interface {
	// AcquireLock sets the issuance lock if it is absent and reports whether it did.
	AcquireLock(ctx context.Context, phone string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, phone string) error
	SetCode(ctx context.Context, phone, code string, ttl time.Duration) error
	Code(ctx context.Context, phone string) (string, error)
	// TakeCode returns and deletes the stored code in a single step.
	TakeCode(ctx context.Context, phone string) (string, error)
}

// RedisCodeStore is the redis-backed CodeStore.
type RedisCodeStore struct {
	rdb redis.Cmdable
}

// NewRedisCodeStore constructs a RedisCodeStore.
func NewRedisCodeStore(rdb redis.Cmdable) *RedisCodeStore {
	return &RedisCodeStore{rdb: rdb}
}

func (s *RedisCodeStore) AcquireLock(ctx context.Context, phone string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, redisx.Key(redisx.KeyOTPLock, phone), "locked", ttl).Result()
}

func (s *RedisCodeStore) ReleaseLock(ctx context.Context, phone string) error {
	return s.rdb.Del(ctx, redisx.Key(redisx.KeyOTPLock, phone)).Err()
}

func (s *RedisCodeStore) SetCode(ctx context.Context, phone, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, redisx.Key(redisx.KeyOTP, phone), code, ttl).Err()
}

func (s *RedisCodeStore) Code(ctx context.Context, phone string) (string, error) {
	return emptyOnNil(s.rdb.Get(ctx, redisx.Key(redisx.KeyOTP, phone)).Result())
}

func (s *RedisCodeStore) TakeCode(ctx context.Context, phone string) (string, error) {
	return emptyOnNil(s.rdb.GetDel(ctx, redisx.Key(redisx.KeyOTP, phone)).Result())
}

func emptyOnNil(val string, err error) (string, error) {
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}
