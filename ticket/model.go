package ticket

import "time"

// Ticket is a server-tracked handle representing an authenticated session.
//
// ExpiresAt is always >= IssuedAt and never decreases across renewals.
type Ticket struct {
	ID           string
	UserID       string
	Username     string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	LastAccessAt time.Time
}
