// Package push routes newly appended messages to live recipient connections.
package push

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"homegrid/internal/domain"
	"homegrid/internal/hub"
	"homegrid/internal/protocol"
)

// Router delivers message events to the recipient's registered connection.
// Delivery is at-most-once and best-effort: an offline recipient, a full
// send buffer, or a mid-send disconnect all degrade to store-and-forward,
// and never fail the append that triggered the push.
type Router struct {
	registry *hub.Registry
	log      *slog.Logger
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *hub.Registry, log *slog.Logger) *Router {
	return &Router{registry: registry, log: log}
}

// Deliver pushes msg to recipientID's live connection, if any. Events for
// one recipient are enqueued in call order, so a single connection sees
// them in append-completion order.
func (r *Router) Deliver(recipientID string, chatID string, msg domain.Message) {
	event := protocol.MessageEvent{
		BaseMessage: protocol.BaseMessage{
			Type: protocol.TypeMessage,
			Ts:   time.Now().UnixMilli(),
		},
		ChatID:  chatID,
		Message: msg,
	}
	data, err := json.Marshal(event)
	if err != nil {
		r.log.Error("marshal message event", "error", err)
		return
	}

	switch err := r.registry.Deliver(recipientID, data); {
	case err == nil:
	case errors.Is(err, hub.ErrNotConnected):
		// Recipient is offline; the message is already durable in the store.
	case errors.Is(err, hub.ErrBufferFull):
		r.log.Warn("push dropped, send buffer full",
			"recipient_id", recipientID, "chat_id", chatID)
	default:
		r.log.Warn("push delivery failed",
			"recipient_id", recipientID, "chat_id", chatID, "error", err)
	}
}
