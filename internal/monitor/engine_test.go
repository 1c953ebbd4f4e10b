package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/chatwatcher/internal/chatid"
	"github.com/leefowlercu/chatwatcher/internal/extract"
	"github.com/leefowlercu/chatwatcher/internal/registry"
	"github.com/leefowlercu/chatwatcher/internal/sink"
	"github.com/leefowlercu/chatwatcher/internal/telegram"
)

// fakeClient is an in-memory telegram.Client with scripted history and
// controllable failure modes.
type fakeClient struct {
	mu        sync.Mutex
	history   map[int64][]telegram.Message // ascending by message id
	connected bool
	handler   telegram.Handler
	warnHook  func(string)

	resolveErr   error
	fetchErr     error
	reconnectErr error
	catchUpErr   error
	pingErr      error
	catchUpHold  chan struct{} // when set, CatchUp blocks until closed

	reconnects int
	catchUps   int
	pings      int

	runDone chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		history:   make(map[int64][]telegram.Message),
		connected: true,
		runDone:   make(chan struct{}),
	}
}

func (c *fakeClient) addMessages(rawID int64, ids ...uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.history[rawID] = append(c.history[rawID], telegram.Message{
			ID:     id,
			ChatID: rawID,
			Date:   time.Now(),
			Text:   fmt.Sprintf("message %d", id),
		})
	}
}

func (c *fakeClient) ListDialogs(ctx context.Context) ([]telegram.RawChat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []telegram.RawChat
	for id := range c.history {
		out = append(out, telegram.RawChat{ID: id, Title: fmt.Sprintf("chat %d", id), Kind: telegram.ChatKindGroup})
	}
	return out, nil
}

func (c *fakeClient) ResolvePeer(ctx context.Context, rawID int64) (telegram.Peer, error) {
	if c.resolveErr != nil {
		return telegram.Peer{}, c.resolveErr
	}
	return telegram.Peer{ID: rawID}, nil
}

func (c *fakeClient) FetchLatest(ctx context.Context, peer telegram.Peer, limit int) ([]telegram.Message, error) {
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.history[peer.ID]
	var out []telegram.Message
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

func (c *fakeClient) FetchSince(ctx context.Context, peer telegram.Peer, minID uint64, limit int) ([]telegram.Message, error) {
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []telegram.Message
	for _, m := range c.history[peer.ID] {
		if m.ID > minID {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (c *fakeClient) Subscribe(h telegram.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnects++
	if c.reconnectErr != nil {
		return c.reconnectErr
	}
	c.connected = true
	return nil
}

func (c *fakeClient) CatchUp(ctx context.Context) error {
	c.mu.Lock()
	c.catchUps++
	hold := c.catchUpHold
	err := c.catchUpErr
	c.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (c *fakeClient) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
	return c.pingErr
}

func (c *fakeClient) SetWarningHook(fn func(reason string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnHook = fn
}

func (c *fakeClient) ClearWarningHook() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnHook = nil
}

func (c *fakeClient) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-c.runDone:
		return nil
	}
}

func (c *fakeClient) Close() error { return nil }

// memSink is an in-memory sink.Writer recording every write.
type memSink struct {
	mu      sync.Mutex
	indexed []string // document keys in write order
	docs    map[string]*sink.Record
	deleted []string
	closed  bool
}

func newMemSink() *memSink {
	return &memSink{docs: make(map[string]*sink.Record)}
}

func (s *memSink) Index(ctx context.Context, rec *sink.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sink.DocKey(rec.ChatID, rec.MessageID)
	s.indexed = append(s.indexed, key)
	s.docs[key] = rec
	return nil
}

func (s *memSink) Delete(ctx context.Context, chatID int64, messageID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sink.DocKey(chatID, messageID)
	s.deleted = append(s.deleted, key)
	delete(s.docs, key)
	return nil
}

func (s *memSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memSink) indexCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.indexed)
}

func (s *memSink) docCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func testTarget(rawID int64, title string) registry.Target {
	return registry.Target{
		ID:    chatid.Normalize(rawID),
		RawID: rawID,
		Title: title,
		Kind:  telegram.ChatKindSupergroup,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestEngine(t *testing.T, client *fakeClient, targets ...registry.Target) *Engine {
	t.Helper()
	cfg := Config{
		HealthFile: filepath.Join(t.TempDir(), "health.json"),
	}
	e, err := New(client, targets, extract.New(), newMemSink(), cfg, WithLogger(quietLogger()))
	require.NoError(t, err)
	return e
}

func TestNewRequiresTargets(t *testing.T) {
	_, err := New(newFakeClient(), nil, extract.New(), newMemSink(), Config{})
	require.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	assert.Equal(t, DefaultStallThreshold, cfg.StallThreshold)
	assert.Equal(t, DefaultPollBatchLimit, cfg.PollBatchLimit)
	assert.Equal(t, DefaultMinResyncInterval, cfg.MinResyncInterval)
	assert.Equal(t, DefaultHealthFile, cfg.HealthFile)

	cfg = Config{PollBatchLimit: -5, PollInterval: -time.Second}
	cfg.applyDefaults()
	assert.Equal(t, DefaultPollBatchLimit, cfg.PollBatchLimit)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
}

func TestInitializeSeedsCursors(t *testing.T) {
	client := newFakeClient()
	client.addMessages(-1001, 10, 20, 30)

	populated := testTarget(-1001, "populated")
	empty := testTarget(-1002, "empty")

	e := newTestEngine(t, client, populated, empty)
	require.NoError(t, e.initialize(context.Background()))

	cur, ok := e.reg.LastSeen(populated.ID)
	require.True(t, ok)
	assert.Equal(t, uint64(30), cur)

	cur, ok = e.reg.LastSeen(empty.ID)
	require.True(t, ok)
	assert.Equal(t, uint64(0), cur)
}

func TestInitializeSeedsZeroOnProbeFailure(t *testing.T) {
	client := newFakeClient()
	client.fetchErr = errors.New("flood wait")

	target := testTarget(-1001, "unreachable")
	e := newTestEngine(t, client, target)
	require.NoError(t, e.initialize(context.Background()))

	cur, ok := e.reg.LastSeen(target.ID)
	require.True(t, ok)
	assert.Equal(t, uint64(0), cur)
}

func TestInitializeFatalWhenReconnectFails(t *testing.T) {
	client := newFakeClient()
	client.connected = false
	client.reconnectErr = errors.New("auth key revoked")

	e := newTestEngine(t, client, testTarget(-1001, "chat"))
	err := e.initialize(context.Background())
	require.Error(t, err)
}

func TestDuplicateDeliveryIsIdempotent(t *testing.T) {
	client := newFakeClient()
	target := testTarget(-1001, "chat")
	store := newMemSink()

	e, err := New(client, []registry.Target{target}, extract.New(), store,
		Config{HealthFile: filepath.Join(t.TempDir(), "health.json")},
		WithLogger(quietLogger()))
	require.NoError(t, err)

	e.reg.Seed(target.ID, 0)

	msg := telegram.Message{ID: 5, ChatID: -1001, Date: time.Now(), Text: "hello"}

	// Push and poll race on the same message; both deliveries land here.
	e.listener.OnNewMessage(context.Background(), msg)
	e.listener.OnNewMessage(context.Background(), msg)

	cur, ok := e.reg.LastSeen(target.ID)
	require.True(t, ok)
	assert.Equal(t, uint64(5), cur, "cursor advances once")

	assert.Equal(t, 2, store.indexCount(), "both deliveries reach the sink")
	assert.Equal(t, 1, store.docCount(), "writes collapse on the document key")
}

func TestUnmonitoredChatIsDiscarded(t *testing.T) {
	client := newFakeClient()
	target := testTarget(-1001, "chat")
	store := newMemSink()

	e, err := New(client, []registry.Target{target}, extract.New(), store,
		Config{HealthFile: filepath.Join(t.TempDir(), "health.json")},
		WithLogger(quietLogger()))
	require.NoError(t, err)

	e.listener.OnNewMessage(context.Background(), telegram.Message{ID: 1, ChatID: -9999, Text: "noise"})
	e.listener.OnMessagesDeleted(context.Background(), -9999, []uint64{1})

	assert.Equal(t, 0, store.indexCount())
	assert.Empty(t, store.deleted)

	_, touched := e.clock.Age()
	assert.False(t, touched, "unattributed events must not reset the staleness clock")
}

func TestDeletionRemovesDocuments(t *testing.T) {
	client := newFakeClient()
	target := testTarget(-1001, "chat")
	store := newMemSink()

	e, err := New(client, []registry.Target{target}, extract.New(), store,
		Config{HealthFile: filepath.Join(t.TempDir(), "health.json")},
		WithLogger(quietLogger()))
	require.NoError(t, err)

	e.reg.Seed(target.ID, 0)
	e.listener.OnNewMessage(context.Background(), telegram.Message{ID: 7, ChatID: -1001, Date: time.Now(), Text: "gone soon"})
	require.Equal(t, 1, store.docCount())

	e.listener.OnMessagesDeleted(context.Background(), -1001, []uint64{7})
	assert.Equal(t, 0, store.docCount())

	cur, ok := e.reg.LastSeen(target.ID)
	require.True(t, ok)
	assert.Equal(t, uint64(7), cur, "deletions leave the cursor alone")
}

func TestRunLifecycle(t *testing.T) {
	client := newFakeClient()
	client.addMessages(-1001, 1, 2, 3)
	target := testTarget(-1001, "chat")

	healthFile := filepath.Join(t.TempDir(), "health.json")
	store := newMemSink()
	e, err := New(client, []registry.Target{target}, extract.New(), store,
		Config{HealthFile: healthFile},
		WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, StateIdle, e.State())

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	require.Eventually(t, func() bool { return e.State() == StateRunning }, 2*time.Second, 10*time.Millisecond)

	close(client.runDone)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}

	assert.Equal(t, StateStopped, e.State())
	assert.True(t, store.closed)

	snap, err := ReadHealthFile(healthFile)
	require.NoError(t, err)
	assert.Equal(t, "stopped", snap.Status)
	assert.Equal(t, 1, snap.MonitoredChats)
}

func TestSnapshotWhileRunning(t *testing.T) {
	client := newFakeClient()
	target := testTarget(-1001, "chat")
	e := newTestEngine(t, client, target)

	snap := e.Snapshot()
	assert.Equal(t, "stopped", snap.Status)
	assert.True(t, snap.Connected)
	assert.Equal(t, 1, snap.MonitoredChats)
	assert.Nil(t, snap.LastEventAgeSeconds)
	assert.Nil(t, snap.LastResync)

	e.clock.Touch()
	snap = e.Snapshot()
	require.NotNil(t, snap.LastEventAgeSeconds)
	assert.GreaterOrEqual(t, *snap.LastEventAgeSeconds, 0.0)
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from  State
		to    State
		valid bool
	}{
		{StateIdle, StateInitializing, true},
		{StateIdle, StateRunning, false},
		{StateInitializing, StateRunning, true},
		{StateInitializing, StateStopped, true},
		{StateRunning, StateStopping, true},
		{StateRunning, StateStopped, false},
		{StateStopping, StateStopped, true},
		{StateStopped, StateInitializing, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_to_%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.from.CanTransitionTo(tt.to))
		})
	}
}
