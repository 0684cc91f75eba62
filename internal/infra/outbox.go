package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/debatequest/platform/internal/repository"
)

// Publisher sends one message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// OutboxPoller relays event_outbox rows to Kafka in insertion order.
type OutboxPoller struct {
	db        repository.DBTX
	repo      repository.OutboxRepository
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(db repository.DBTX, repo repository.OutboxRepository, publisher Publisher, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		db:        db,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start begins polling in a goroutine. Stops when ctx is cancelled.
func (p *OutboxPoller) Start(ctx context.Context) {
	go p.Run(ctx)
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			if _, err := p.Poll(ctx); err != nil {
				p.logger.Error("outbox poll error", "error", err)
			}
		}
	}
}

// Poll relays one batch and returns how many events were published. Relay
// stops at the first failed publish so topic order is preserved.
func (p *OutboxPoller) Poll(ctx context.Context) (int, error) {
	rows, err := p.repo.FetchUnpublished(ctx, p.db, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	published := make([]int64, 0, len(rows))
	for _, row := range rows {
		msg, err := json.Marshal(row.Event)
		if err != nil {
			p.logger.Error("outbox encode failed", "seq_id", row.Seq, "error", err)
			break
		}
		if err := p.publisher.Publish(ctx, row.Event.Topic(), []byte(row.Event.AggregateID), msg); err != nil {
			p.logger.Error("kafka publish failed", "seq_id", row.Seq, "event_id", row.Event.EventID, "error", err)
			break
		}
		published = append(published, row.Seq)
	}

	if err := p.repo.MarkPublished(ctx, p.db, published); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}

	p.logger.Debug("outbox poll complete", "published", len(published), "fetched", len(rows))
	return len(published), nil
}
