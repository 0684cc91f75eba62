package repository

import (
	"context"

	"github.com/debatequest/platform/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// SlotRepository is a durable key-value slot holding opaque snapshots.
type SlotRepository interface {
	// Get returns the stored value, or nil with no error when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put creates or replaces the value under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// OutboxRow is an unpublished event together with its sequence id.
type OutboxRow struct {
	Seq   int64
	Event domain.Event
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an event for later relay.
	Insert(ctx context.Context, db DBTX, evt domain.Event) error

	// FetchUnpublished returns up to limit events in insertion order.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]OutboxRow, error)

	// MarkPublished deletes relayed events.
	MarkPublished(ctx context.Context, db DBTX, seqs []int64) error
}
