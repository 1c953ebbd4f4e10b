package monitor

import (
	"context"
	"log/slog"

	"github.com/leefowlercu/chatwatcher/internal/extract"
	"github.com/leefowlercu/chatwatcher/internal/metrics"
	"github.com/leefowlercu/chatwatcher/internal/registry"
	"github.com/leefowlercu/chatwatcher/internal/sink"
	"github.com/leefowlercu/chatwatcher/internal/telegram"
)

// processor is the shared tail of both ingestion paths: advance the chat
// cursor, run extraction, write the sink. New messages from the push
// listener and from the poller converge here.
type processor struct {
	reg       *registry.Registry
	extractor *extract.Extractor
	sink      sink.Writer
	logger    *slog.Logger
}

// process ingests one message attributed to a monitored chat. The cursor
// ratchet makes duplicate delivery harmless: the cursor advances at most
// once, and the sink write is an idempotent overwrite keyed by the document
// key.
func (p *processor) process(ctx context.Context, target registry.Target, msg telegram.Message, path string) {
	p.reg.Advance(target.ID, msg.ID)

	text := msg.Text
	if text == "" && msg.Media != nil {
		text = msg.Media.Caption
	}

	data := p.extractor.Extract(ctx, text)

	rec := &sink.Record{
		MessageID:         msg.ID,
		ChatID:            msg.ChatID,
		ChatTitle:         target.Title,
		ChatType:          target.Kind,
		Timestamp:         msg.Date,
		Text:              text,
		ReplyToMessageID:  msg.ReplyToID,
		ForwardFromChatID: msg.ForwardFromChatID,
		Entities:          msg.Entities,
		Media:             msg.Media,
		Extracted:         data,
	}
	if msg.Sender != nil {
		rec.UserID = msg.Sender.ID
		rec.Username = msg.Sender.Username
		rec.FirstName = msg.Sender.FirstName
		rec.IsBot = msg.Sender.Bot
	}

	if err := p.sink.Index(ctx, rec); err != nil {
		p.logger.Error("failed to index message",
			"chat", target.Title, "message_id", msg.ID, "path", path, "error", err)
		metrics.SinkErrors.Inc()
		return
	}

	metrics.MessagesIndexed.WithLabelValues(path).Inc()
	p.logger.Debug("indexed message",
		"chat", target.Title, "message_id", msg.ID, "path", path)
}

// Listener is the push-path event handler registered with the upstream
// client. Events from chats outside the registry are discarded without side
// effects; attributed new-message events also reset the staleness clock.
type Listener struct {
	proc   *processor
	reg    *registry.Registry
	clock  *eventClock
	logger *slog.Logger
}

var _ telegram.Handler = (*Listener)(nil)

// OnNewMessage handles a pushed message event.
func (l *Listener) OnNewMessage(ctx context.Context, msg telegram.Message) {
	target, ok := l.reg.Lookup(msg.ChatID)
	if !ok {
		l.logger.Debug("discarding message from unmonitored chat", "chat_id", msg.ChatID)
		metrics.MessagesDiscarded.Inc()
		return
	}

	l.clock.Touch()
	l.proc.process(ctx, target, msg, metrics.PathPush)
}

// OnMessagesDeleted handles a pushed deletion event by removing the
// corresponding documents from the sink. Deletions do not touch cursors.
func (l *Listener) OnMessagesDeleted(ctx context.Context, chatID int64, messageIDs []uint64) {
	target, ok := l.reg.Lookup(chatID)
	if !ok {
		l.logger.Debug("discarding deletion from unmonitored chat", "chat_id", chatID)
		metrics.MessagesDiscarded.Inc()
		return
	}

	for _, id := range messageIDs {
		if err := l.proc.sink.Delete(ctx, chatID, id); err != nil {
			l.logger.Error("failed to delete message document",
				"chat", target.Title, "message_id", id, "error", err)
			metrics.SinkErrors.Inc()
			continue
		}
		metrics.MessagesDeleted.Inc()
	}
}
