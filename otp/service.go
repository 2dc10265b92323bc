package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veridianlabs/authcore/internal"
)

// Service generates, delivers, and validates one-time codes.
//
// Service instances are intended to be configured during initialization
// and then treated as immutable.
type Service struct {
	store       Store
	sender      Sender
	codeDigits  int
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewService(store Store, sender Sender, codeDigits int, ttl time.Duration, maxAttempts int) (*Service, error) {
	if store == nil {
		return nil, errors.New("nil otp store")
	}
	if sender == nil {
		return nil, errors.New("nil otp sender")
	}
	if codeDigits < 4 || codeDigits > 10 {
		return nil, errors.New("otp code digits out of range")
	}
	if ttl <= 0 {
		return nil, errors.New("invalid otp ttl")
	}
	if maxAttempts < 1 {
		return nil, errors.New("invalid otp max attempts")
	}
	return &Service{
		store:       store,
		sender:      sender,
		codeDigits:  codeDigits,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}, nil
}

// challengeKey scopes a pending challenge to its delivery channel, so a
// code sent over one channel never validates against another.
func challengeKey(key string, channel Channel) string {
	return string(channel) + ":" + key
}

// Issue generates a fresh code for key, stores it, and hands it to the
// delivery channel. A newly issued code supersedes any pending one for
// the same key and channel. If delivery fails the stored challenge is
// withdrawn so an unreceived code can never validate.
func (s *Service) Issue(ctx context.Context, key string, channel Channel, destination string) error {
	code, err := internal.NewNumericCode(s.codeDigits)
	if err != nil {
		return err
	}

	challenge := &Challenge{
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl).Unix(),
	}
	if err := s.store.Put(ctx, challengeKey(key, channel), challenge, s.ttl); err != nil {
		return err
	}

	if err := s.sender.Send(ctx, channel, destination, code); err != nil {
		_ = s.store.Delete(ctx, challengeKey(key, channel))
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// Validate consumes the pending challenge for key and channel. nil means
// the code matched and the challenge is spent. ErrCodeMismatch leaves
// the challenge pending with one fewer attempt; ErrNotFound covers
// absent and lapsed challenges alike.
func (s *Service) Validate(ctx context.Context, key string, channel Channel, code string) error {
	if code == "" {
		return ErrCodeMismatch
	}
	return s.store.Consume(ctx, challengeKey(key, channel), code, s.maxAttempts)
}
