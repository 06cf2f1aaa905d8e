package push

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"homegrid/internal/domain"
	"homegrid/internal/hub"
	"homegrid/internal/protocol"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeliverToConnectedRecipient(t *testing.T) {
	registry := hub.NewRegistry()
	conn := registry.NewConnection(nil, 4)
	registry.Register("u2", conn)

	router := NewRouter(registry, discardLogger())
	msg := domain.Message{
		MessageID: "m1", ChatID: "c1", SenderID: "u1",
		Text: "hello", CreatedAt: time.Now().UTC(),
	}
	router.Deliver("u2", "c1", msg)

	var event protocol.MessageEvent
	assert.NoError(t, json.Unmarshal(<-conn.Send, &event))
	assert.Equal(t, protocol.TypeMessage, event.Type)
	assert.Equal(t, "c1", event.ChatID)
	assert.Equal(t, "m1", event.Message.MessageID)
	assert.Equal(t, "hello", event.Message.Text)
}

func TestDeliverToOfflineRecipient(t *testing.T) {
	registry := hub.NewRegistry()
	router := NewRouter(registry, discardLogger())

	// Must not panic or block; the message stays durable in the store.
	router.Deliver("nobody", "c1", domain.Message{MessageID: "m1"})
}

func TestDeliverDropsWhenBufferFull(t *testing.T) {
	registry := hub.NewRegistry()
	conn := registry.NewConnection(nil, 1)
	registry.Register("u2", conn)

	router := NewRouter(registry, discardLogger())
	router.Deliver("u2", "c1", domain.Message{MessageID: "m1"})
	router.Deliver("u2", "c1", domain.Message{MessageID: "m2"})

	// Only the first event fits.
	var event protocol.MessageEvent
	assert.NoError(t, json.Unmarshal(<-conn.Send, &event))
	assert.Equal(t, "m1", event.Message.MessageID)
	assert.Empty(t, conn.Send)
}
