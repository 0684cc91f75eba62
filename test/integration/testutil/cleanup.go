//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll truncates every table the service writes.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := env.Pool.Exec(ctx, "TRUNCATE player_slots, event_outbox RESTART IDENTITY"); err != nil {
		env.t.Fatalf("truncate: %v", err)
	}
}
