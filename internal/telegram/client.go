// Package telegram defines the upstream client capability the monitor
// consumes, together with the message model decoded at that boundary. The
// concrete transport lives in the bridge subpackage; the monitor itself never
// depends on a particular wire protocol.
package telegram

import (
	"context"
	"errors"
)

// ErrCatchUpUnsupported is returned by CatchUp when the upstream client has
// no gap-recovery primitive. Callers fall back to a cheap round trip.
var ErrCatchUpUnsupported = errors.New("catch-up not supported by upstream client")

// Handler receives push-path events from the upstream subscription.
// Implementations must tolerate concurrent delivery with history fetches.
type Handler interface {
	// OnNewMessage is invoked for every newly delivered message.
	OnNewMessage(ctx context.Context, msg Message)

	// OnMessagesDeleted is invoked when messages are deleted in a chat.
	// chatID carries the raw chat identifier as known to the upstream.
	OnMessagesDeleted(ctx context.Context, chatID int64, messageIDs []uint64)
}

// Client is the upstream chat-platform capability. All blocking operations
// take a context and honor its cancellation.
type Client interface {
	// ListDialogs returns every dialog visible to the session.
	ListDialogs(ctx context.Context) ([]RawChat, error)

	// ResolvePeer resolves a raw chat identifier to a fetch handle.
	ResolvePeer(ctx context.Context, rawID int64) (Peer, error)

	// FetchLatest returns up to limit most recent messages of the chat,
	// newest first. An empty slice means the chat has no history.
	FetchLatest(ctx context.Context, peer Peer, limit int) ([]Message, error)

	// FetchSince returns up to limit messages with id strictly greater than
	// minID, in ascending id order.
	FetchSince(ctx context.Context, peer Peer, minID uint64, limit int) ([]Message, error)

	// Subscribe registers the push-path handler. Only one handler is active
	// at a time; subscribing replaces the previous one.
	Subscribe(h Handler)

	// IsConnected reports whether the session currently holds a live
	// connection.
	IsConnected() bool

	// Reconnect re-establishes the session connection.
	Reconnect(ctx context.Context) error

	// CatchUp asks the upstream to replay updates missed while the stream
	// was inconsistent. Returns ErrCatchUpUnsupported when the client has no
	// such primitive.
	CatchUp(ctx context.Context) error

	// Ping performs a cheap upstream round trip, used as a liveness probe.
	Ping(ctx context.Context) error

	// SetWarningHook installs a hook invoked when the upstream reports a
	// stream-consistency warning. The hook may be called from any goroutine.
	SetWarningHook(fn func(reason string))

	// ClearWarningHook removes the installed warning hook.
	ClearWarningHook()

	// Run blocks until the session disconnects or ctx is canceled. Push
	// events are delivered to the subscribed handler while Run is active.
	Run(ctx context.Context) error

	// Close releases the session.
	Close() error
}
