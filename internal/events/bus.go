// Package events fans committed domain events out to push and relay sinks.
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/debatequest/platform/internal/domain"
)

// Subscriber receives every event published on the bus.
type Subscriber interface {
	Publish(ctx context.Context, evt domain.Event)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, evt domain.Event)

func (f SubscriberFunc) Publish(ctx context.Context, evt domain.Event) { f(ctx, evt) }

// Bus delivers events to its subscribers synchronously, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []Subscriber
	logger *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers s for all future events.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
}

// Publish hands evt to every subscriber.
func (b *Bus) Publish(ctx context.Context, evt domain.Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	b.logger.Debug("event published",
		"event_id", evt.EventID,
		"event_type", evt.EventType,
		"aggregate_id", evt.AggregateID,
		"subscribers", len(subs),
	)
	for _, s := range subs {
		s.Publish(ctx, evt)
	}
}
