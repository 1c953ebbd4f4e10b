// Package sink defines the persistence and search surface for ingested
// messages. The engine only writes; the query API only reads. Both paths of
// the dual ingestion pipeline may hand the sink the same message, so every
// write is keyed by the deterministic document key and must be idempotent.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/leefowlercu/chatwatcher/internal/extract"
	"github.com/leefowlercu/chatwatcher/internal/telegram"
)

// Record is one indexed message document.
type Record struct {
	MessageID         uint64            `json:"message_id"`
	ChatID            int64             `json:"chat_id"`
	ChatTitle         string            `json:"chat_title"`
	ChatType          telegram.ChatKind `json:"chat_type"`
	UserID            int64             `json:"user_id,omitempty"`
	Username          string            `json:"username,omitempty"`
	FirstName         string            `json:"first_name,omitempty"`
	IsBot             bool              `json:"is_bot"`
	Timestamp         time.Time         `json:"timestamp"`
	Text              string            `json:"text"`
	RawText           string            `json:"raw_text,omitempty"`
	ReplyToMessageID  uint64            `json:"reply_to_message_id,omitempty"`
	ForwardFromChatID int64             `json:"forward_from_chat_id,omitempty"`
	Entities          []telegram.Entity `json:"entities,omitempty"`
	Media             *telegram.Media   `json:"media,omitempty"`
	Extracted         extract.Data      `json:"extracted_data"`

	// Score is populated on search hits only.
	Score float64 `json:"score,omitempty"`
}

// DocKey returns the deterministic document key for a message. Both
// ingestion paths compute the same key for the same message, which makes
// duplicate writes collapse in the index.
func DocKey(chatID int64, messageID uint64) string {
	return fmt.Sprintf("%d_%d", chatID, messageID)
}

// Writer is the sink surface the ingestion engine depends on.
type Writer interface {
	// Index stores a record under its document key. Indexing the same
	// message twice is a harmless overwrite.
	Index(ctx context.Context, rec *Record) error

	// Delete removes a message document. Deleting an absent document is not
	// an error.
	Delete(ctx context.Context, chatID int64, messageID uint64) error

	// Close releases the sink.
	Close() error
}

// SearchQuery selects messages by keyword with an optional time window.
type SearchQuery struct {
	Keywords string
	Start    *time.Time
	End      *time.Time
	Limit    int
	Offset   int
}

// LatestQuery selects the most recent messages, optionally bounded below.
type LatestQuery struct {
	Begin  *time.Time
	Limit  int
	Offset int
}

// Result is a page of matching records.
type Result struct {
	Total int64    `json:"total"`
	Hits  []Record `json:"hits"`
}

// Querier is the read surface consumed by the HTTP query API.
type Querier interface {
	// Search returns records matching the keywords, newest first.
	Search(ctx context.Context, q SearchQuery) (*Result, error)

	// Latest returns the most recent records, newest first.
	Latest(ctx context.Context, q LatestQuery) (*Result, error)

	// Ping verifies index connectivity.
	Ping(ctx context.Context) error
}

// Store combines the write and read surfaces.
type Store interface {
	Writer
	Querier
}
