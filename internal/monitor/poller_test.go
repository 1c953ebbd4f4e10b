package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/chatwatcher/internal/extract"
	"github.com/leefowlercu/chatwatcher/internal/registry"
)

func newTestPoller(client *fakeClient, store *memSink, batch int, targets ...registry.Target) (*Poller, *registry.Registry) {
	reg := registry.New(targets)
	proc := &processor{
		reg:       reg,
		extractor: extract.New(),
		sink:      store,
		logger:    quietLogger(),
	}
	return &Poller{
		client:   client,
		reg:      reg,
		proc:     proc,
		batch:    batch,
		lastPoll: new(atomic.Int64),
		logger:   quietLogger(),
	}, reg
}

func TestPollSweepCatchesUpFromCursor(t *testing.T) {
	client := newFakeClient()
	client.addMessages(-1001, 1, 2, 3, 4, 5)
	target := testTarget(-1001, "chat")

	store := newMemSink()
	p, reg := newTestPoller(client, store, 100, target)
	reg.Seed(target.ID, 2)

	p.tick(context.Background())

	cur, ok := reg.LastSeen(target.ID)
	require.True(t, ok)
	assert.Equal(t, uint64(5), cur)
	assert.Equal(t, 3, store.indexCount(), "only messages above the cursor are fetched")
	assert.NotZero(t, p.lastPoll.Load())
}

func TestPollBatchLimitBoundsEachSweep(t *testing.T) {
	client := newFakeClient()
	ids := make([]uint64, 500)
	for i := range ids {
		ids[i] = uint64(i + 1)
	}
	client.addMessages(-1001, ids...)
	target := testTarget(-1001, "chat")

	store := newMemSink()
	p, reg := newTestPoller(client, store, 200, target)
	reg.Seed(target.ID, 0)

	p.tick(context.Background())
	cur, _ := reg.LastSeen(target.ID)
	assert.Equal(t, uint64(200), cur, "first sweep processes one batch")

	p.tick(context.Background())
	cur, _ = reg.LastSeen(target.ID)
	assert.Equal(t, uint64(400), cur, "second sweep resumes from the new cursor")

	assert.Equal(t, 400, store.indexCount())
}

func TestPollSeedsUnseededChatWithoutIndexing(t *testing.T) {
	client := newFakeClient()
	client.addMessages(-1001, 10, 20, 30)
	target := testTarget(-1001, "chat")

	store := newMemSink()
	p, reg := newTestPoller(client, store, 100, target)

	p.tick(context.Background())

	cur, ok := reg.LastSeen(target.ID)
	require.True(t, ok)
	assert.Equal(t, uint64(30), cur, "baseline is the latest message")
	assert.Equal(t, 0, store.indexCount(), "seeding must not replay backlog")

	// The next sweep picks up only what arrives after the baseline.
	client.addMessages(-1001, 31)
	p.tick(context.Background())
	assert.Equal(t, 1, store.indexCount())
}

func TestPollRecoversAfterTransientErrors(t *testing.T) {
	client := newFakeClient()
	client.addMessages(-1001, 1, 2)
	client.addMessages(-1002, 7, 8)
	a := testTarget(-1001, "a")
	b := testTarget(-1002, "b")

	store := newMemSink()
	p, reg := newTestPoller(client, store, 100, a, b)
	reg.Seed(a.ID, 0)
	reg.Seed(b.ID, 0)

	// First sweep fails wholesale, second succeeds for both chats.
	client.fetchErr = errors.New("temporarily unavailable")
	p.tick(context.Background())
	assert.Equal(t, 0, store.indexCount())

	client.fetchErr = nil
	p.tick(context.Background())
	assert.Equal(t, 4, store.indexCount())
}

func TestPollRespectsCancellation(t *testing.T) {
	client := newFakeClient()
	client.addMessages(-1001, 1, 2, 3)
	target := testTarget(-1001, "chat")

	store := newMemSink()
	p, reg := newTestPoller(client, store, 100, target)
	reg.Seed(target.ID, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.tick(ctx)

	assert.Equal(t, 0, store.indexCount())
}
