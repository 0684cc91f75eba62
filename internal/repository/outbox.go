package repository

import (
	"context"
	"fmt"

	"github.com/debatequest/platform/internal/domain"
)

type outboxRepo struct{}

// NewOutboxRepository returns a pgx-backed OutboxRepository.
func NewOutboxRepository() OutboxRepository {
	return &outboxRepo{}
}

func (r *outboxRepo) Insert(ctx context.Context, db DBTX, evt domain.Event) error {
	_, err := db.Exec(ctx, `
		INSERT INTO event_outbox
		  (event_id, aggregate_type, aggregate_id, event_type, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		evt.EventID,
		string(evt.AggregateType),
		evt.AggregateID,
		string(evt.EventType),
		evt.Payload,
		evt.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepo) FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]OutboxRow, error) {
	rows, err := db.Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, payload, occurred_at
		FROM event_outbox
		ORDER BY id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished events: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var row OutboxRow
		var aggType, evtType string
		err := rows.Scan(&row.Seq, &row.Event.EventID, &aggType, &row.Event.AggregateID,
			&evtType, &row.Event.Payload, &row.Event.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		row.Event.AggregateType = domain.AggregateType(aggType)
		row.Event.EventType = domain.EventType(evtType)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *outboxRepo) MarkPublished(ctx context.Context, db DBTX, seqs []int64) error {
	if len(seqs) == 0 {
		return nil
	}
	_, err := db.Exec(ctx, `DELETE FROM event_outbox WHERE id = ANY($1)`, seqs)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}
