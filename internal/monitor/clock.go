package monitor

import (
	"sync/atomic"
	"time"
)

// eventClock tracks the wall time of the most recent successfully attributed
// upstream event. The watchdog reads it to detect stream staleness; the
// listener and the resync controller reset it.
type eventClock struct {
	last atomic.Int64 // unix nanoseconds; zero means never touched
}

// Touch records the current time as the most recent event.
func (c *eventClock) Touch() {
	c.last.Store(time.Now().UnixNano())
}

// Age returns the elapsed time since the last event. ok is false if the
// clock has never been touched.
func (c *eventClock) Age() (age time.Duration, ok bool) {
	last := c.last.Load()
	if last == 0 {
		return 0, false
	}
	return time.Since(time.Unix(0, last)), true
}
