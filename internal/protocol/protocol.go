// Package protocol defines the WebSocket message protocol between clients
// and the server.
package protocol

import "homegrid/internal/domain"

// Message types from client to server
const (
	TypeHello = "hello"
)

// Message types from server to client
const (
	TypeHelloAck = "hello_ack"
	TypeMessage  = "message"
	TypeError    = "error"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type string `json:"type"`
	Ts   int64  `json:"ts,omitempty"`
}

// HelloMessage is the one-time identity announcement sent by the client
// after the channel opens. Token is the same JWT the REST API accepts.
type HelloMessage struct {
	BaseMessage
	Token string `json:"token"`
}

// HelloAckMessage confirms the identity binding.
type HelloAckMessage struct {
	BaseMessage
	UserID string `json:"user_id"`
}

// MessageEvent pushes a newly appended chat message to its recipient.
type MessageEvent struct {
	BaseMessage
	ChatID  string         `json:"chat_id"`
	Message domain.Message `json:"message"`
}

// ErrorMessage is sent when the handshake or a frame is rejected.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeUnauthorized   = "unauthorized"
	ErrorCodeHelloRequired  = "hello_required"
)
