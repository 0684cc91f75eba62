package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventActivityCompleted EventType = "activity.completed"
	EventLevelCompleted    EventType = "level.completed"
	EventAudienceReaction  EventType = "finale.reaction"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateActivity AggregateType = "activity"
	AggregateLevel    AggregateType = "level"
	AggregateFinale   AggregateType = "finale"
)

// Event is published to subscribers after the engine commits a transition.
// It doubles as the payload written to the event_outbox table.
type Event struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// Topic is the Kafka topic the event is relayed to.
func (e Event) Topic() string {
	return "debatequest." + string(e.AggregateType) + "." + string(e.EventType)
}

// LevelCompletedPayload is the body of a LevelCompleted event.
type LevelCompletedPayload struct {
	LevelID       string `json:"levelId"`
	BadgeID       string `json:"badgeId"`
	UnlockedLevel string `json:"unlockedLevel,omitempty"`
}
