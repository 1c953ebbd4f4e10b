package bridge

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/leefowlercu/chatwatcher/internal/telegram"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request method names understood by the bridge process.
const (
	methodListDialogs = "list_dialogs"
	methodResolvePeer = "resolve_peer"
	methodFetchLatest = "fetch_latest"
	methodFetchSince  = "fetch_since"
	methodCatchUp     = "catch_up"
	methodPing        = "ping"
)

// Push event names delivered by the bridge without a request.
const (
	eventNewMessage      = "new_message"
	eventDeletedMessages = "deleted_messages"
	eventStreamWarning   = "stream_warning"
)

// errCodeMethodNotFound is returned by bridges that predate a method. The
// client maps it on catch_up to telegram.ErrCatchUpUnsupported.
const errCodeMethodNotFound = -32601

// request is one client-to-bridge call.
type request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params jsoniter.RawMessage `json:"params,omitempty"`
}

// frame is any bridge-to-client message: a response when ID is set, a push
// event when Event is set.
type frame struct {
	ID     string              `json:"id,omitempty"`
	Result jsoniter.RawMessage `json:"result,omitempty"`
	Error  *wireError          `json:"error,omitempty"`

	Event string              `json:"event,omitempty"`
	Data  jsoniter.RawMessage `json:"data,omitempty"`
}

// wireError is a bridge-reported call failure.
type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *wireError) Error() string {
	return e.Message
}

// Call parameter payloads.

type resolvePeerParams struct {
	ChatID int64 `json:"chat_id"`
}

type fetchLatestParams struct {
	Peer  telegram.Peer `json:"peer"`
	Limit int           `json:"limit"`
}

type fetchSinceParams struct {
	Peer  telegram.Peer `json:"peer"`
	MinID uint64        `json:"min_id"`
	Limit int           `json:"limit"`
}

// Push event payloads.

type deletedMessagesEvent struct {
	ChatID     int64    `json:"chat_id"`
	MessageIDs []uint64 `json:"message_ids"`
}

type streamWarningEvent struct {
	Reason string `json:"reason"`
}
