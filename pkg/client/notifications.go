package client

import "sync"

// NotificationCounter is the session-local count of unread conversations.
// It is advisory UI state; the store's seen sets stay authoritative. The
// count never goes below zero.
type NotificationCounter struct {
	mu    sync.Mutex
	count int
}

// Reset sets the count, typically from a fresh chat listing.
func (n *NotificationCounter) Reset(count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if count < 0 {
		count = 0
	}
	n.count = count
}

// Increment records a conversation turning unread.
func (n *NotificationCounter) Increment() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
}

// Decrement records an unread conversation being opened. Clamped at zero.
func (n *NotificationCounter) Decrement() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.count > 0 {
		n.count--
	}
}

// Value returns the current count.
func (n *NotificationCounter) Value() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}
