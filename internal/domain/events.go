package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewActivityCompletedEvent wraps an attempt record, passed or failed.
func NewActivityCompletedEvent(rec AttemptRecord) Event {
	payload, _ := json.Marshal(rec)
	return Event{
		EventID:       uuid.New(),
		AggregateType: AggregateActivity,
		AggregateID:   rec.ActivityID,
		EventType:     EventActivityCompleted,
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewLevelCompletedEvent announces a newly earned badge and the level it unlocks.
func NewLevelCompletedEvent(levelID, badgeID, unlocked string) Event {
	payload, _ := json.Marshal(LevelCompletedPayload{
		LevelID:       levelID,
		BadgeID:       badgeID,
		UnlockedLevel: unlocked,
	})
	return Event{
		EventID:       uuid.New(),
		AggregateType: AggregateLevel,
		AggregateID:   levelID,
		EventType:     EventLevelCompleted,
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewReactionEvent carries one staged audience reaction during finale delivery.
func NewReactionEvent(deliveryID string, reaction any) Event {
	payload, _ := json.Marshal(reaction)
	return Event{
		EventID:       uuid.New(),
		AggregateType: AggregateFinale,
		AggregateID:   deliveryID,
		EventType:     EventAudienceReaction,
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
