package otp

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("otp challenge not found")
	ErrCodeMismatch     = errors.New("otp code mismatch")
	ErrAttemptsExceeded = errors.New("otp attempts exceeded")
	ErrDeliveryFailed   = errors.New("otp delivery failed")
	ErrBackend          = errors.New("otp store unavailable")
)

// Challenge is one pending code awaiting validation.
type Challenge struct {
	Code      string
	Attempts  uint16
	ExpiresAt int64
}

// Store persists pending challenges keyed by principal and delivery
// channel.
//
// Consume is the single-use gate: on a code match it deletes the
// challenge and returns nil, on a mismatch it burns one attempt, and
// once maxAttempts is reached it deletes the challenge outright. Both
// the match check and the delete happen atomically with respect to
// concurrent Consume calls.
type Store interface {
	Put(ctx context.Context, key string, challenge *Challenge, ttl time.Duration) error
	Consume(ctx context.Context, key, code string, maxAttempts int) error
	Delete(ctx context.Context, key string) error
}
