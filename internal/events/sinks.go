package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/guard"
	"github.com/debatequest/platform/internal/repository"
)

// Room names used for WebSocket delivery.
const (
	RoomProgress = "progress"
	RoomFinale   = "finale"
)

// Broadcaster pushes a named message to every connection in a room.
type Broadcaster interface {
	Publish(room, event string, data any)
}

// HubSink forwards events to WebSocket clients. Reaction events go to the
// finale room, everything else to the progress room.
type HubSink struct {
	hub Broadcaster
}

// NewHubSink wraps a broadcaster.
func NewHubSink(hub Broadcaster) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Publish(_ context.Context, evt domain.Event) {
	room := RoomProgress
	if evt.AggregateType == domain.AggregateFinale {
		room = RoomFinale
	}
	s.hub.Publish(room, string(evt.EventType), evt)
}

// OutboxSink writes events to the event_outbox table for the relay process.
type OutboxSink struct {
	db     repository.DBTX
	repo   repository.OutboxRepository
	logger *slog.Logger
}

// NewOutboxSink creates an outbox writer over db.
func NewOutboxSink(db repository.DBTX, repo repository.OutboxRepository, logger *slog.Logger) *OutboxSink {
	return &OutboxSink{db: db, repo: repo, logger: logger}
}

func (s *OutboxSink) Publish(ctx context.Context, evt domain.Event) {
	if err := s.repo.Insert(ctx, s.db, evt); err != nil {
		s.logger.Error("outbox insert failed", "event_id", evt.EventID, "event_type", evt.EventType, "error", err)
	}
}

// Producer publishes raw messages to a topic.
type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// KafkaSink publishes events straight to Kafka without an outbox. While a
// topic's circuit is open its events are dropped and logged.
type KafkaSink struct {
	producer Producer
	breaker  *guard.CircuitBreaker
	logger   *slog.Logger
}

// NewKafkaSink wraps a producer. breaker may be nil.
func NewKafkaSink(producer Producer, breaker *guard.CircuitBreaker, logger *slog.Logger) *KafkaSink {
	return &KafkaSink{producer: producer, breaker: breaker, logger: logger}
}

func (s *KafkaSink) Publish(ctx context.Context, evt domain.Event) {
	topic := evt.Topic()
	if s.breaker != nil {
		if res := s.breaker.Check(topic); !res.Allowed {
			s.logger.Warn("kafka publish skipped", "event_id", evt.EventID, "topic", topic, "reason", res.Reason)
			return
		}
	}

	err := Relay(ctx, s.producer, evt)
	if s.breaker != nil {
		if err != nil {
			s.breaker.RecordFailure(topic)
		} else {
			s.breaker.RecordSuccess(topic)
		}
	}
	if err != nil {
		s.logger.Error("kafka publish failed", "event_id", evt.EventID, "topic", topic, "error", err)
	}
}

// Relay encodes evt and sends it to its topic, keyed by aggregate id.
func Relay(ctx context.Context, producer Producer, evt domain.Event) error {
	msg, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return producer.Publish(ctx, evt.Topic(), []byte(evt.AggregateID), msg)
}
