// Package persistence mirrors the player state into a durable key-value slot.
package persistence

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/repository"
)

// DefaultKey is the slot the snapshot is stored under.
const DefaultKey = "debateQuestProgress"

// Adapter serialises PlayerState snapshots to a SlotRepository. It never
// returns errors to the engine: load failures yield the default state and
// save failures are logged and counted.
type Adapter struct {
	slots        repository.SlotRepository
	key          string
	firstLevelID string
	logger       *slog.Logger
	failures     atomic.Int64
}

// NewAdapter creates an adapter for one slot key. firstLevelID seeds the
// default state's unlocked levels.
func NewAdapter(slots repository.SlotRepository, key, firstLevelID string, logger *slog.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{
		slots:        slots,
		key:          key,
		firstLevelID: firstLevelID,
		logger:       logger,
	}
}

// Load reads and decodes the stored snapshot. A missing key or a corrupt
// snapshot returns a fresh default state.
func (a *Adapter) Load(ctx context.Context) *domain.PlayerState {
	raw, err := a.slots.Get(ctx, a.key)
	if err != nil {
		a.report("load", domain.ErrPersistence("read snapshot", err))
		return domain.NewPlayerState(a.firstLevelID)
	}
	if raw == nil {
		a.logger.Info("no saved progress, starting fresh", "key", a.key)
		return domain.NewPlayerState(a.firstLevelID)
	}

	var state domain.PlayerState
	if err := json.Unmarshal(raw, &state); err != nil {
		a.report("load", domain.ErrPersistence("decode snapshot", err))
		return domain.NewPlayerState(a.firstLevelID)
	}
	return &state
}

// Save writes the full snapshot. Errors never reach the caller.
func (a *Adapter) Save(ctx context.Context, state *domain.PlayerState) {
	raw, err := json.Marshal(state)
	if err != nil {
		a.report("save", domain.ErrPersistence("encode snapshot", err))
		return
	}
	if err := a.slots.Put(ctx, a.key, raw); err != nil {
		a.report("save", domain.ErrPersistence("write snapshot", err))
	}
}

// Failures returns how many load or save operations failed since start.
func (a *Adapter) Failures() int64 {
	return a.failures.Load()
}

func (a *Adapter) report(op string, err error) {
	a.failures.Add(1)
	a.logger.Error("progress persistence failed", "op", op, "key", a.key, "error", err)
}
