// Package ws provides the WebSocket push channel endpoint.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"homegrid/internal/auth"
	"homegrid/internal/config"
	"homegrid/internal/hub"
	"homegrid/internal/protocol"
)

// Server handles WebSocket connections and their identity binding.
type Server struct {
	cfg      *config.Config
	registry *hub.Registry
	tokens   *auth.TokenIssuer
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, registry *hub.Registry, tokens *auth.TokenIssuer, log *slog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		registry: registry,
		tokens:   tokens,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The REST API already runs with permissive CORS.
				return true
			},
		},
	}
}

// HandleWebSocket upgrades the request and runs the connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return err
	}

	conn := s.registry.NewConnection(ws, s.cfg.SendBuffer)
	ws.SetReadLimit(s.cfg.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads frames from the socket. The first frame must be a hello
// carrying a valid token; it binds the connection to the token's user in
// the registry. Every later frame is only read to keep the pong handler
// running; the push channel is one-directional after the handshake.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.registry.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Debug("websocket read error", "error", err)
			}
			return
		}

		if conn.UserID == "" {
			if !s.handleHello(conn, message) {
				return
			}
		}
	}
}

// handleHello validates the identity announcement. Returns false when the
// connection must be dropped.
func (s *Server) handleHello(conn *hub.Connection, data []byte) bool {
	var msg protocol.HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "malformed frame")
		return false
	}
	if msg.Type != protocol.TypeHello {
		s.sendError(conn, protocol.ErrorCodeHelloRequired, "expected hello message")
		return false
	}

	userID, err := s.tokens.Verify(msg.Token)
	if err != nil {
		s.sendError(conn, protocol.ErrorCodeUnauthorized, "invalid token")
		return false
	}

	s.registry.Register(userID, conn)

	ack := protocol.HelloAckMessage{
		BaseMessage: protocol.BaseMessage{
			Type: protocol.TypeHelloAck,
			Ts:   time.Now().UnixMilli(),
		},
		UserID: userID,
	}
	ackData, _ := json.Marshal(ack)
	if err := conn.WriteMessage(websocket.TextMessage, ackData); err != nil {
		return false
	}

	s.log.Info("push channel bound", "user_id", userID, "conn_id", conn.ID)
	return true
}

// writePump writes queued events to the socket and keeps the connection
// alive with pings. It exits when the registry closes the send channel,
// either on disconnect or on supersession by a newer connection.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				// Mid-send disconnect; the event is dropped, the store
				// remains authoritative.
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) sendError(conn *hub.Connection, code, message string) {
	errMsg := protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type: protocol.TypeError,
			Ts:   time.Now().UnixMilli(),
		},
		Code:    code,
		Message: message,
	}
	data, _ := json.Marshal(errMsg)
	conn.WriteMessage(websocket.TextMessage, data)
}
