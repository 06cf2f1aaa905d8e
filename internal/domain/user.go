// Package domain defines the core domain models for the marketplace.
package domain

import "time"

// User represents a registered account. PasswordHash never leaves the
// process; the json tag strips it from every response body.
type User struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
