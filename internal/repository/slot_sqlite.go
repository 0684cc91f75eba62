package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type sqliteSlotRepo struct {
	db *sql.DB
}

// NewSQLiteSlotRepository returns a SlotRepository backed by a local SQLite
// file, the on-disk stand-in for browser local storage.
func NewSQLiteSlotRepository(db *sql.DB) SlotRepository {
	return &sqliteSlotRepo{db: db}
}

func (r *sqliteSlotRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM player_slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get slot %s: %w", key, err)
	}
	return value, nil
}

func (r *sqliteSlotRepo) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_slots (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("put slot %s: %w", key, err)
	}
	return nil
}

func (r *sqliteSlotRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM player_slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}
