package implementation

import (
	"context"
	"errors"
	"fmt"

	"second-brain-client/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "second_brain:client:"

// RedisStorageRepository shares client state between machines through one
// Redis instance. Keys never expire.
type RedisStorageRepository struct {
	rdb *redis.Client
}

func NewRedisStorageRepository(rdb *redis.Client) contract.StorageRepository {
	return &RedisStorageRepository{rdb: rdb}
}

func (r *RedisStorageRepository) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (r *RedisStorageRepository) Save(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStorageRepository) Remove(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *RedisStorageRepository) Close() error {
	return r.rdb.Close()
}
