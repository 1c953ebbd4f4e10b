package telegram

import "time"

// ChatKind classifies a dialog the way the monitoring config does.
type ChatKind string

const (
	ChatKindGroup      ChatKind = "group"
	ChatKindSupergroup ChatKind = "supergroup"
	ChatKindChannel    ChatKind = "channel"
)

// IsValid reports whether the kind is one of the known dialog classes.
func (k ChatKind) IsValid() bool {
	return k == ChatKindGroup || k == ChatKindSupergroup || k == ChatKindChannel
}

// RawChat is a dialog as listed by the upstream client, prior to any
// identifier normalization.
type RawChat struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Kind     ChatKind `json:"kind"`
	Username string   `json:"username,omitempty"`
}

// Peer is a resolved handle for a chat, used for history fetches.
type Peer struct {
	ID         int64 `json:"id"`
	AccessHash int64 `json:"access_hash,omitempty"`
}

// Sender identifies the author of a message.
type Sender struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	Bot       bool   `json:"bot,omitempty"`
}

// EntityKind tags a message entity variant. Entities are decoded once at the
// client boundary; downstream code switches on the tag instead of probing
// attributes.
type EntityKind string

const (
	EntityURL        EntityKind = "url"
	EntityTextURL    EntityKind = "text_url"
	EntityMention    EntityKind = "mention"
	EntityHashtag    EntityKind = "hashtag"
	EntityCashtag    EntityKind = "cashtag"
	EntityBotCommand EntityKind = "bot_command"
	EntityCode       EntityKind = "code"
	EntityPre        EntityKind = "pre"
	EntityOther      EntityKind = "other"
)

// Entity is a span of message text with special meaning. URL is set only for
// EntityTextURL, UserID only for EntityMention.
type Entity struct {
	Kind   EntityKind `json:"kind"`
	Offset int        `json:"offset"`
	Length int        `json:"length"`
	URL    string     `json:"url,omitempty"`
	UserID int64      `json:"user_id,omitempty"`
}

// MediaKind tags a message media variant.
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaDocument MediaKind = "document"
	MediaOther    MediaKind = "other"
)

// Media describes the attachment of a message, if any. Size and MimeType are
// set only for MediaDocument.
type Media struct {
	Kind     MediaKind `json:"kind"`
	FileID   string    `json:"file_id,omitempty"`
	Size     int64     `json:"size,omitempty"`
	MimeType string    `json:"mime_type,omitempty"`
	Caption  string    `json:"caption,omitempty"`
}

// Message is a single chat message as delivered by the upstream client.
// ChatID carries the raw (possibly marked) chat identifier.
type Message struct {
	ID                uint64    `json:"id"`
	ChatID            int64     `json:"chat_id"`
	Sender            *Sender   `json:"sender,omitempty"`
	Date              time.Time `json:"date"`
	Text              string    `json:"text"`
	ReplyToID         uint64    `json:"reply_to_id,omitempty"`
	ForwardFromChatID int64     `json:"forward_from_chat_id,omitempty"`
	Entities          []Entity  `json:"entities,omitempty"`
	Media             *Media    `json:"media,omitempty"`
}
