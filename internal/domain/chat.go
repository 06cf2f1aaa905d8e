package domain

import "time"

// Chat is a two-party conversation. ParticipantIDs always holds exactly
// two user ids; SeenBy is the subset of participants that has acknowledged
// the latest state. Appending a message resets SeenBy to the sender alone.
type Chat struct {
	ChatID         string     `json:"chat_id"`
	ParticipantIDs []string   `json:"participant_ids"`
	SeenBy         []string   `json:"seen_by"`
	LastMessage    string     `json:"last_message,omitempty"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// Messages is populated on point lookups, not on listings.
	Messages []Message `json:"messages,omitempty"`
	// Receiver is the other participant, denormalized for listing views.
	Receiver *User `json:"receiver,omitempty"`
}

// Message belongs to exactly one chat and is immutable once created.
// Seq is the store's insertion order; rendering order follows Seq, never
// wall-clock timestamps.
type Message struct {
	MessageID string    `json:"message_id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	Seq       int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// HasParticipant reports whether userID is one of the chat's two parties.
func (c *Chat) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SeenByUser reports whether userID has the chat's latest state marked read.
func (c *Chat) SeenByUser(userID string) bool {
	for _, id := range c.SeenBy {
		if id == userID {
			return true
		}
	}
	return false
}
