package infra

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/repository"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Config ---

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "debateQuestProgress", cfg.StateKey)
	assert.Equal(t, 3100, cfg.APIPort)
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 2*time.Second, cfg.ReactionInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/quest")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("KAFKA_ENABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres://u:p@db:5432/quest", cfg.DSN())
	assert.Equal(t, cfg.DSN(), cfg.MigrationURL())
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	assert.True(t, cfg.KafkaEnabled)
}

func TestConfig_DSNFromParts(t *testing.T) {
	cfg := &Config{PGUser: "u", PGPassword: "p", PGHost: "h", PGPort: 5433, PGDatabase: "d"}
	assert.Equal(t, "postgres://u:p@h:5433/d?sslmode=disable", cfg.DSN())
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			StoreDriver:        DriverMemory,
			StateKey:           "k",
			OutboxBatchSize:    10,
			OutboxPollInterval: time.Second,
			ReactionInterval:   time.Second,
		}
	}

	assert.NoError(t, base().Validate())

	c := base()
	c.StoreDriver = "redis"
	assert.ErrorContains(t, c.Validate(), "STORE_DRIVER")

	c = base()
	c.StoreDriver = DriverSQLite
	assert.ErrorContains(t, c.Validate(), "SQLITE_PATH")

	c = base()
	c.StateKey = ""
	assert.ErrorContains(t, c.Validate(), "STATE_KEY")

	c = base()
	c.OutboxBatchSize = 0
	assert.ErrorContains(t, c.Validate(), "OUTBOX_BATCH_SIZE")

	c = base()
	c.ReactionInterval = 0
	assert.ErrorContains(t, c.Validate(), "REACTION_INTERVAL")
}

// --- SQLite + migrations ---

func TestSQLiteMigrationsAndSlots(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "quest.db")
	cfg := &Config{StoreDriver: DriverSQLite, SQLitePath: path}

	require.NoError(t, RunMigrations(cfg, testLogger()))
	require.NoError(t, RunMigrations(cfg, testLogger()), "second run is a no-op")

	db, err := NewSQLiteDB(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	slots := repository.NewSQLiteSlotRepository(db)
	require.NoError(t, slots.Put(ctx, "debateQuestProgress", []byte(`{"totalXP":5}`)))
	v, err := slots.Get(ctx, "debateQuestProgress")
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalXP":5}`, string(v))

	assert.NoError(t, HealthCheck(ctx, PingFunc(db.PingContext)))
}

func TestRunMigrations_MemoryIsNoop(t *testing.T) {
	assert.NoError(t, RunMigrations(&Config{StoreDriver: DriverMemory}, testLogger()))
}

func TestHealthCheck_NilPinger(t *testing.T) {
	assert.NoError(t, HealthCheck(context.Background(), nil))
	assert.Error(t, HealthCheck(context.Background(), PingFunc(func(context.Context) error {
		return errors.New("down")
	})))
}

// --- Kafka ---

func TestKafkaProducer_DisabledIsNoop(t *testing.T) {
	p := NewKafkaProducer("", true, testLogger())
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), "t", nil, []byte("x")))
	assert.NoError(t, p.Close())
}

// --- Outbox poller ---

type stubOutbox struct {
	rows   []repository.OutboxRow
	marked []int64
}

func (s *stubOutbox) Insert(context.Context, repository.DBTX, domain.Event) error { return nil }

func (s *stubOutbox) FetchUnpublished(_ context.Context, _ repository.DBTX, limit int) ([]repository.OutboxRow, error) {
	if limit < len(s.rows) {
		return s.rows[:limit], nil
	}
	return s.rows, nil
}

func (s *stubOutbox) MarkPublished(_ context.Context, _ repository.DBTX, seqs []int64) error {
	s.marked = append(s.marked, seqs...)
	return nil
}

type stubPublisher struct {
	topics []string
	failAt int
}

func (p *stubPublisher) Publish(_ context.Context, topic string, _, _ []byte) error {
	if p.failAt > 0 && len(p.topics)+1 == p.failAt {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	return nil
}

func outboxRows() []repository.OutboxRow {
	return []repository.OutboxRow{
		{Seq: 1, Event: domain.NewActivityCompletedEvent(domain.AttemptRecord{ActivityID: "debate-roles"})},
		{Seq: 2, Event: domain.NewActivityCompletedEvent(domain.AttemptRecord{ActivityID: "debate-rules"})},
		{Seq: 3, Event: domain.NewLevelCompletedEvent("foundations", "foundations-graduate", "fallacy-fighters")},
	}
}

func TestOutboxPoller_RelaysBatch(t *testing.T) {
	repo := &stubOutbox{rows: outboxRows()}
	pub := &stubPublisher{}
	p := NewOutboxPoller(nil, repo, pub, time.Second, 10, testLogger())

	n, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int64{1, 2, 3}, repo.marked)
	assert.Equal(t, []string{
		"debatequest.activity.activity.completed",
		"debatequest.activity.activity.completed",
		"debatequest.level.level.completed",
	}, pub.topics)
}

func TestOutboxPoller_StopsAtFirstFailure(t *testing.T) {
	repo := &stubOutbox{rows: outboxRows()}
	pub := &stubPublisher{failAt: 2}
	p := NewOutboxPoller(nil, repo, pub, time.Second, 10, testLogger())

	n, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, repo.marked)
}

func TestOutboxPoller_EmptyBatch(t *testing.T) {
	repo := &stubOutbox{}
	p := NewOutboxPoller(nil, repo, &stubPublisher{}, time.Second, 10, testLogger())
	n, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, repo.marked)
}

// --- WebSocket hub ---

func TestWSHub_PublishToRoom(t *testing.T) {
	hub := NewWSHub("*", testLogger())
	a := &WSConn{ID: "a", Room: "progress", Send: make(chan []byte, 1)}
	b := &WSConn{ID: "b", Room: "finale", Send: make(chan []byte, 1)}
	hub.Join(a)
	hub.Join(b)
	assert.Equal(t, 2, hub.ConnectionCount())
	assert.Equal(t, 2, hub.RoomCount())

	hub.Publish("progress", "level.completed", map[string]string{"levelId": "foundations"})

	select {
	case raw := <-a.Send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "level.completed", msg.Event)
	default:
		t.Fatal("expected message in progress room")
	}
	assert.Empty(t, b.Send)

	hub.Leave(a)
	hub.Leave(a)
	assert.Equal(t, 1, hub.ConnectionCount())
	_, open := <-a.Send
	assert.False(t, open)

	hub.Shutdown(context.Background())
	assert.Zero(t, hub.ConnectionCount())
}

func TestWSHub_ServeRoom(t *testing.T) {
	hub := NewWSHub("*", testLogger())
	srv := httptest.NewServer(hub.ServeRoom("progress"))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish("progress", "activity.completed", map[string]any{"passed": true})

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg WSMessage
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, "activity.completed", msg.Event)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker("http://localhost:5173, https://quest.example")

	r := httptest.NewRequest("GET", "/events", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(r))

	assert.True(t, originChecker("*")(r))
}
