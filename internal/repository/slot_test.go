package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySlot_PutGetDelete(t *testing.T) {
	repo := NewInMemorySlotRepository()
	ctx := context.Background()

	v, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, repo.Put(ctx, "k", []byte(`{"totalXP":10}`)))
	v, err = repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"totalXP":10}`, string(v))

	require.NoError(t, repo.Delete(ctx, "k"))
	v, err = repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestInMemorySlot_ReturnsCopies(t *testing.T) {
	repo := NewInMemorySlotRepository()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, repo.Put(ctx, "k", buf))
	buf[0] = 'z'

	v, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v))
}

func TestSQLiteSlot_Upsert(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "slots.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE player_slots (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	require.NoError(t, err)

	repo := NewSQLiteSlotRepository(db)
	ctx := context.Background()

	v, err := repo.Get(ctx, "debateQuestProgress")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, repo.Put(ctx, "debateQuestProgress", []byte("one")))
	require.NoError(t, repo.Put(ctx, "debateQuestProgress", []byte("two")))

	v, err = repo.Get(ctx, "debateQuestProgress")
	require.NoError(t, err)
	assert.Equal(t, "two", string(v))

	require.NoError(t, repo.Delete(ctx, "debateQuestProgress"))
	v, err = repo.Get(ctx, "debateQuestProgress")
	require.NoError(t, err)
	assert.Nil(t, v)
}
