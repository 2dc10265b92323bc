package ticket

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no ticket exists for the identifier.
	ErrNotFound = errors.New("ticket not found")
	// ErrExpired is returned when the ticket exists but has lapsed.
	ErrExpired = errors.New("ticket expired")
	// ErrExists is returned by Create when the identifier is already taken.
	ErrExists = errors.New("ticket id already exists")
	// ErrBackend wraps store infrastructure failures. These are never
	// credential errors.
	ErrBackend = errors.New("ticket store unavailable")
)

// Store is the narrow persistence contract shared by all ticket backends.
//
// Renew must be atomic with respect to concurrent renewals of the same
// ticket and must keep the stored expiry monotonically non-decreasing.
type Store interface {
	Create(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, ticketID string) (*Ticket, error)
	Renew(ctx context.Context, ticketID string, expiresAt, lastAccessAt time.Time) (*Ticket, error)
	Delete(ctx context.Context, ticketID string) (bool, error)
}
