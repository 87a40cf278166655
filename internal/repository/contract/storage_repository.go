package contract

import (
	"context"
	"encoding/json"
	"fmt"
)

// StorageRepository is the durable client-state port. Each call is atomic
// at key granularity; there is no multi-key transaction.
type StorageRepository interface {
	// Load returns nil, nil when the key has never been written.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// LoadJSON decodes the value stored under key into out. found is false
// when nothing is stored.
func LoadJSON(ctx context.Context, repo StorageRepository, key string, out interface{}) (bool, error) {
	raw, err := repo.Load(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func SaveJSON(ctx context.Context, repo StorageRepository, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return repo.Save(ctx, key, raw)
}
