package implementation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"second-brain-client/internal/repository/contract"
)

type SQLiteStorageRepository struct {
	db *sql.DB
}

// NewSQLiteStorageRepository runs on an already opened database (see
// pkg/database.NewSQLiteDB) and creates its table if needed.
func NewSQLiteStorageRepository(ctx context.Context, db *sql.DB) (contract.StorageRepository, error) {
	const schema = `CREATE TABLE IF NOT EXISTS client_state (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create client_state table: %w", err)
	}
	return &SQLiteStorageRepository{db: db}, nil
}

func (r *SQLiteStorageRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM client_state WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteStorageRepository) Save(ctx context.Context, key string, value []byte) error {
	query := `INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteStorageRepository) Remove(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM client_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteStorageRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
