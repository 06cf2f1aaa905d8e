package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"homegrid/internal/protocol"
)

// Listener owns one push-channel connection. Incoming message events are
// surfaced on Events as explicit values; disconnect is modeled as the
// channel closing, not as a callback.
type Listener struct {
	conn   *websocket.Conn
	events chan protocol.MessageEvent
}

// Dial connects to the push endpoint, announces identity with the given
// token and starts reading. buffer bounds the event queue; when the
// consumer falls behind, the oldest unread events are dropped.
func Dial(wsURL, token string, buffer int) (*Listener, error) {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	hello := protocol.HelloMessage{
		BaseMessage: protocol.BaseMessage{
			Type: protocol.TypeHello,
			Ts:   time.Now().UnixMilli(),
		},
		Token: token,
	}
	if err := conn.WriteJSON(hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write hello: %w", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read hello_ack: %w", err)
	}
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unmarshal hello_ack: %w", err)
	}
	if base.Type == protocol.TypeError {
		var errMsg protocol.ErrorMessage
		_ = json.Unmarshal(data, &errMsg)
		conn.Close()
		return nil, fmt.Errorf("handshake rejected: %s", errMsg.Message)
	}
	if base.Type != protocol.TypeHelloAck {
		conn.Close()
		return nil, fmt.Errorf("unexpected handshake reply: %s", base.Type)
	}

	l := &Listener{
		conn:   conn,
		events: make(chan protocol.MessageEvent, buffer),
	}
	go l.readLoop()
	return l, nil
}

// Events returns the event stream. It is closed when the connection ends.
func (l *Listener) Events() <-chan protocol.MessageEvent {
	return l.events
}

// Close tears down the connection; Events closes shortly after.
func (l *Listener) Close() error {
	return l.conn.Close()
}

func (l *Listener) readLoop() {
	defer close(l.events)
	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			return
		}
		var base protocol.BaseMessage
		if err := json.Unmarshal(data, &base); err != nil || base.Type != protocol.TypeMessage {
			continue
		}
		var event protocol.MessageEvent
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}
		select {
		case l.events <- event:
		default:
			// Consumer is behind; drop the oldest event to make room so
			// the stream stays live. The store remains authoritative.
			select {
			case <-l.events:
			default:
			}
			select {
			case l.events <- event:
			default:
			}
		}
	}
}
