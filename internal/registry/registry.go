// Package registry holds the canonical set of monitored chats and the
// per-chat ingestion cursors shared by the push and pull paths.
package registry

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/leefowlercu/chatwatcher/internal/chatid"
	"github.com/leefowlercu/chatwatcher/internal/telegram"
)

// Unseeded is the cursor sentinel for a chat whose most recent message has
// not been probed yet.
const Unseeded = math.MaxUint64

// Target is a monitored chat. The set of targets is immutable for the
// lifetime of a monitoring session; picking up config changes requires a
// restart.
type Target struct {
	// ID is the canonical chat id, the sole key for registry and cursor
	// lookups.
	ID uint64

	// RawID is the identifier as it appears in the monitoring config.
	RawID int64

	Title string
	Kind  telegram.ChatKind
}

// Registry maps canonical chat ids to targets and tracks each chat's
// last-seen message id. The target set is fixed at construction, so reads
// need no locking; cursor updates go through per-chat atomics.
type Registry struct {
	targets map[uint64]Target
	cursors map[uint64]*atomic.Uint64
}

// New builds a registry from the configured targets. Targets that normalize
// to the same canonical id collapse to one entry, first wins. All cursors
// start at the Unseeded sentinel.
func New(targets []Target) *Registry {
	r := &Registry{
		targets: make(map[uint64]Target, len(targets)),
		cursors: make(map[uint64]*atomic.Uint64, len(targets)),
	}

	for _, t := range targets {
		if _, ok := r.targets[t.ID]; ok {
			continue
		}
		r.targets[t.ID] = t

		c := new(atomic.Uint64)
		c.Store(Unseeded)
		r.cursors[t.ID] = c
	}

	return r
}

// Lookup resolves a raw chat identifier to its monitored target, if any.
func (r *Registry) Lookup(rawID int64) (Target, bool) {
	t, ok := r.targets[chatid.Normalize(rawID)]
	return t, ok
}

// Get returns the target for a canonical id.
func (r *Registry) Get(id uint64) (Target, bool) {
	t, ok := r.targets[id]
	return t, ok
}

// Seed initializes an unseeded cursor to lastSeen. It is a no-op on a chat
// that already has a cursor value, and reports whether the seed took effect.
func (r *Registry) Seed(id, lastSeen uint64) bool {
	c, ok := r.cursors[id]
	if !ok {
		return false
	}
	return c.CompareAndSwap(Unseeded, lastSeen)
}

// Advance applies the ratchet rule to the chat's cursor: the stored value
// only ever increases. It reports whether msgID became the new high-water
// mark; duplicates and out-of-order low ids return false without error.
// Concurrent callers never lose the higher value.
func (r *Registry) Advance(id, msgID uint64) bool {
	c, ok := r.cursors[id]
	if !ok || msgID == Unseeded {
		return false
	}

	for {
		cur := c.Load()
		if cur != Unseeded && msgID <= cur {
			return false
		}
		if c.CompareAndSwap(cur, msgID) {
			return true
		}
	}
}

// LastSeen returns the chat's cursor value. ok is false for unknown chats
// and for chats still at the Unseeded sentinel.
func (r *Registry) LastSeen(id uint64) (uint64, bool) {
	c, ok := r.cursors[id]
	if !ok {
		return 0, false
	}
	v := c.Load()
	if v == Unseeded {
		return 0, false
	}
	return v, true
}

// IsSeeded reports whether the chat's cursor has been initialized.
func (r *Registry) IsSeeded(id uint64) bool {
	_, ok := r.LastSeen(id)
	return ok
}

// Count returns the number of monitored chats.
func (r *Registry) Count() int {
	return len(r.targets)
}

// Targets returns the monitored chats sorted by title for stable iteration.
func (r *Registry) Targets() []Target {
	out := make([]Target, 0, len(r.targets))
	for _, t := range r.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}
