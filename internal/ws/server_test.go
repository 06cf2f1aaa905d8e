package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homegrid/internal/auth"
	"homegrid/internal/config"
	"homegrid/internal/domain"
	"homegrid/internal/hub"
	"homegrid/internal/protocol"
	"homegrid/internal/push"
)

type wsEnv struct {
	url      string
	registry *hub.Registry
	tokens   *auth.TokenIssuer
	router   *push.Router
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	cfg := &config.Config{
		PingInterval:   10 * time.Second,
		WriteTimeout:   5 * time.Second,
		ReadTimeout:    30 * time.Second,
		MaxMessageSize: 65536,
		SendBuffer:     8,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := hub.NewRegistry()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	server := NewServer(cfg, registry, tokens, log)

	e := echo.New()
	e.GET("/ws", server.HandleWebSocket)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	return &wsEnv{
		url:      "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
		registry: registry,
		tokens:   tokens,
		router:   push.NewRouter(registry, log),
	}
}

// dialAndHello connects and completes the identity handshake for userID.
func (env *wsEnv) dialAndHello(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	token, err := env.tokens.Issue(userID)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(env.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	hello := protocol.HelloMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeHello, Ts: time.Now().UnixMilli()},
		Token:       token,
	}
	require.NoError(t, conn.WriteJSON(hello))

	var ack protocol.HelloAckMessage
	require.NoError(t, readFrame(t, conn, &ack))
	require.Equal(t, protocol.TypeHelloAck, ack.Type)
	require.Equal(t, userID, ack.UserID)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn, v interface{}) error {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func TestHandshakeAndPush(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dialAndHello(t, "u1")

	// The ack is written after registration, so the connection is
	// registered by the time dialAndHello returns.
	require.NotNil(t, env.registry.Lookup("u1"))
	env.router.Deliver("u1", "c1", domain.Message{
		MessageID: "m1", ChatID: "c1", SenderID: "u2",
		Text: "hello", CreatedAt: time.Now().UTC(),
	})

	var event protocol.MessageEvent
	require.NoError(t, readFrame(t, conn, &event))
	assert.Equal(t, protocol.TypeMessage, event.Type)
	assert.Equal(t, "c1", event.ChatID)
	assert.Equal(t, "hello", event.Message.Text)
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	env := newWSEnv(t)

	conn, _, err := websocket.DefaultDialer.Dial(env.url, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := protocol.HelloMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeHello, Ts: time.Now().UnixMilli()},
		Token:       "garbage",
	}
	require.NoError(t, conn.WriteJSON(hello))

	var errMsg protocol.ErrorMessage
	require.NoError(t, readFrame(t, conn, &errMsg))
	assert.Equal(t, protocol.TypeError, errMsg.Type)
	assert.Equal(t, protocol.ErrorCodeUnauthorized, errMsg.Code)
}

func TestHandshakeRejectsNonHelloFirstFrame(t *testing.T) {
	env := newWSEnv(t)

	conn, _, err := websocket.DefaultDialer.Dial(env.url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"something"}`)))

	var errMsg protocol.ErrorMessage
	require.NoError(t, readFrame(t, conn, &errMsg))
	assert.Equal(t, protocol.TypeError, errMsg.Type)
	assert.Equal(t, protocol.ErrorCodeHelloRequired, errMsg.Code)
}

func TestSupersessionClosesOlderConnection(t *testing.T) {
	env := newWSEnv(t)

	first := env.dialAndHello(t, "u1")
	second := env.dialAndHello(t, "u1")

	// The first connection receives a close frame once superseded.
	first.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := first.ReadMessage()
	require.Error(t, err)

	// Pushes now reach only the newer connection.
	env.router.Deliver("u1", "c1", domain.Message{MessageID: "m1", ChatID: "c1", Text: "still on"})

	var event protocol.MessageEvent
	require.NoError(t, readFrame(t, second, &event))
	assert.Equal(t, "m1", event.Message.MessageID)
}
