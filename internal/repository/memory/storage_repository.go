package memory

import (
	"context"

	"second-brain-client/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// StorageRepository keeps client state in process memory. Nothing expires;
// it backs the "memory" storage driver and tests.
type StorageRepository struct {
	cache *cache.Cache
}

var _ contract.StorageRepository = &StorageRepository{}

func NewStorageRepository() *StorageRepository {
	return &StorageRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *StorageRepository) Load(ctx context.Context, key string) ([]byte, error) {
	if x, found := r.cache.Get(key); found {
		stored := x.([]byte)
		out := make([]byte, len(stored))
		copy(out, stored)
		return out, nil
	}
	return nil, nil
}

func (r *StorageRepository) Save(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	r.cache.Set(key, stored, cache.NoExpiration)
	return nil
}

func (r *StorageRepository) Remove(ctx context.Context, key string) error {
	r.cache.Delete(key)
	return nil
}

func (r *StorageRepository) Close() error {
	return nil
}

// Keys lists what is currently stored. Used by tests to assert per-user
// scoping.
func (r *StorageRepository) Keys() []string {
	items := r.cache.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys
}
