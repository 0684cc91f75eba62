package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/guard"
	"github.com/debatequest/platform/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeHub struct {
	rooms  []string
	events []string
}

func (h *fakeHub) Publish(room, event string, _ any) {
	h.rooms = append(h.rooms, room)
	h.events = append(h.events, event)
}

type fakeProducer struct {
	topics []string
	keys   []string
	values [][]byte
	calls  int
	err    error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key, value []byte) error {
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, string(key))
	p.values = append(p.values, value)
	return nil
}

type fakeOutbox struct {
	inserted []domain.Event
}

func (o *fakeOutbox) Insert(_ context.Context, _ repository.DBTX, evt domain.Event) error {
	o.inserted = append(o.inserted, evt)
	return nil
}

func (o *fakeOutbox) FetchUnpublished(context.Context, repository.DBTX, int) ([]repository.OutboxRow, error) {
	return nil, nil
}

func (o *fakeOutbox) MarkPublished(context.Context, repository.DBTX, []int64) error { return nil }

func TestBus_FanOutInOrder(t *testing.T) {
	bus := NewBus(testLogger())
	var order []string
	bus.Subscribe(SubscriberFunc(func(_ context.Context, evt domain.Event) {
		order = append(order, "first:"+string(evt.EventType))
	}))
	bus.Subscribe(SubscriberFunc(func(_ context.Context, evt domain.Event) {
		order = append(order, "second:"+string(evt.EventType))
	}))

	bus.Publish(context.Background(), domain.NewLevelCompletedEvent("foundations", "foundations-graduate", "fallacy-fighters"))
	assert.Equal(t, []string{"first:level.completed", "second:level.completed"}, order)
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus(testLogger())
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), domain.NewLevelCompletedEvent("a", "b", ""))
	})
}

func TestHubSink_Rooms(t *testing.T) {
	hub := &fakeHub{}
	sink := NewHubSink(hub)

	sink.Publish(context.Background(), domain.NewActivityCompletedEvent(domain.AttemptRecord{ActivityID: "debate-roles"}))
	sink.Publish(context.Background(), domain.NewReactionEvent("delivery-1", map[string]string{"type": "cheer"}))

	assert.Equal(t, []string{RoomProgress, RoomFinale}, hub.rooms)
	assert.Equal(t, []string{"activity.completed", "finale.reaction"}, hub.events)
}

func TestKafkaSink_TopicAndKey(t *testing.T) {
	prod := &fakeProducer{}
	sink := NewKafkaSink(prod, nil, testLogger())

	evt := domain.NewLevelCompletedEvent("foundations", "foundations-graduate", "fallacy-fighters")
	sink.Publish(context.Background(), evt)

	require.Len(t, prod.topics, 1)
	assert.Equal(t, "debatequest.level.level.completed", prod.topics[0])
	assert.Equal(t, "foundations", prod.keys[0])

	var decoded domain.Event
	require.NoError(t, json.Unmarshal(prod.values[0], &decoded))
	assert.Equal(t, evt.EventID, decoded.EventID)
}

func TestKafkaSink_ErrorIsLogged(t *testing.T) {
	sink := NewKafkaSink(&fakeProducer{err: errors.New("broker down")}, nil, testLogger())
	assert.NotPanics(t, func() {
		sink.Publish(context.Background(), domain.NewLevelCompletedEvent("a", "b", ""))
	})
}

func TestKafkaSink_BreakerStopsRetries(t *testing.T) {
	prod := &fakeProducer{err: errors.New("broker down")}
	breaker := guard.NewCircuitBreaker(2, time.Minute)
	sink := NewKafkaSink(prod, breaker, testLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		sink.Publish(ctx, domain.NewLevelCompletedEvent("foundations", "b", ""))
	}
	assert.Equal(t, 2, prod.calls)
	assert.Equal(t, guard.CircuitOpen, breaker.State("debatequest.level.level.completed"))

	sink.Publish(ctx, domain.NewActivityCompletedEvent(domain.AttemptRecord{ActivityID: "rebuttals"}))
	assert.Equal(t, 3, prod.calls, "other topics have their own circuit")
}

func TestOutboxSink_Inserts(t *testing.T) {
	repo := &fakeOutbox{}
	sink := NewOutboxSink(nil, repo, testLogger())

	evt := domain.NewActivityCompletedEvent(domain.AttemptRecord{ActivityID: "rebuttals", Passed: true})
	sink.Publish(context.Background(), evt)

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, evt.EventID, repo.inserted[0].EventID)
}
