package rememberme

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("remember-me record not found")
	ErrBackend  = errors.New("remember-me store unavailable")
)

// Record is the durable side of one persistent login. At most one
// record exists per username; issuing replaces it in place.
type Record struct {
	ID        string
	UserID    string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Store persists remember-me records keyed by username. Save is an
// upsert: a second Save for the same username replaces the record.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Read(ctx context.Context, username string) (*Record, error)
	Delete(ctx context.Context, username string) (bool, error)
}
