package monitor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatchdog(t *testing.T, client *fakeClient, stall time.Duration) (*Watchdog, *eventClock, *ResyncController) {
	t.Helper()
	clock := &eventClock{}
	resync := NewResyncController(client, time.Millisecond, time.Second, quietLogger())
	health := NewHealthReporter(
		filepath.Join(t.TempDir(), "health.json"),
		time.Hour,
		func() HealthSnapshot { return HealthSnapshot{GeneratedAt: time.Now()} },
		quietLogger(),
	)
	return NewWatchdog(resync, health, clock, stall, time.Minute, quietLogger()), clock, resync
}

func backdate(c *eventClock, by time.Duration) {
	c.last.Store(time.Now().Add(-by).UnixNano())
}

func TestWatchdogIdleWhenStreamFresh(t *testing.T) {
	client := newFakeClient()
	w, clock, _ := newTestWatchdog(t, client, time.Hour)
	clock.Touch()

	w.tick(context.Background())

	assert.Equal(t, 0, client.catchUps)
}

func TestWatchdogIdleBeforeFirstEvent(t *testing.T) {
	client := newFakeClient()
	w, _, _ := newTestWatchdog(t, client, time.Hour)

	w.tick(context.Background())

	assert.Equal(t, 0, client.catchUps)
}

func TestWatchdogTriggersOnStall(t *testing.T) {
	client := newFakeClient()
	w, clock, resync := newTestWatchdog(t, client, time.Minute)
	backdate(clock, 2*time.Hour)

	w.tick(context.Background())

	require.Equal(t, 1, client.catchUps)
	st := resync.State()
	assert.Contains(t, st.Reason, "stall threshold")
	assert.Contains(t, st.Reason, "no events for")
}

func TestWatchdogWarningTakesPriorityOverStall(t *testing.T) {
	client := newFakeClient()
	w, clock, resync := newTestWatchdog(t, client, time.Minute)
	backdate(clock, 2*time.Hour)
	w.NotifyWarning("updates gap detected")

	w.tick(context.Background())

	require.Equal(t, 1, client.catchUps, "one resync per tick")
	assert.Contains(t, resync.State().Reason, "transport warning: updates gap detected")
}

func TestWatchdogWarningConsumedOnce(t *testing.T) {
	client := newFakeClient()
	w, clock, _ := newTestWatchdog(t, client, time.Hour)
	clock.Touch()
	w.NotifyWarning("updates gap detected")

	w.tick(context.Background())
	require.Equal(t, 1, client.catchUps)

	// The warning is consumed; a fresh stream stays quiet.
	time.Sleep(2 * time.Millisecond) // let the limiter refill
	clock.Touch()
	w.tick(context.Background())
	assert.Equal(t, 1, client.catchUps)
}

func TestWatchdogLatestWarningWins(t *testing.T) {
	client := newFakeClient()
	w, clock, resync := newTestWatchdog(t, client, time.Hour)
	clock.Touch()
	w.NotifyWarning("first")
	w.NotifyWarning("second")

	w.tick(context.Background())

	assert.Contains(t, resync.State().Reason, "second")
}
