package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veridianlabs/authcore/internal"
)

const createRetries = 4

// Service issues, renews, and revokes session tickets over a Store.
//
// Service instances are intended to be configured during initialization and
// then treated as immutable.
type Service struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
}

func NewService(store Store, timeout time.Duration) (*Service, error) {
	if store == nil {
		return nil, errors.New("nil ticket store")
	}
	if timeout <= 0 {
		return nil, errors.New("invalid ticket timeout")
	}
	return &Service{
		store:   store,
		timeout: timeout,
		now:     time.Now,
	}, nil
}

// Create writes a fresh ticket for userID and returns it once the store
// confirms the write. Identifier collisions are retried with a newly
// generated id; the caller never observes a ticket that is not durable.
func (s *Service) Create(ctx context.Context, userID, username string) (*Ticket, error) {
	if userID == "" {
		return nil, errors.New("empty user id")
	}

	for i := 0; i < createRetries; i++ {
		tid, err := internal.NewTicketID()
		if err != nil {
			return nil, err
		}

		now := s.now()
		t := &Ticket{
			ID:           tid.String(),
			UserID:       userID,
			Username:     username,
			IssuedAt:     now,
			ExpiresAt:    now.Add(s.timeout),
			LastAccessAt: now,
		}

		err = s.store.Create(ctx, t)
		if errors.Is(err, ErrExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	return nil, fmt.Errorf("%w: ticket id collisions exhausted", ErrBackend)
}

// Renew extends the ticket by the configured timeout from now. The stored
// expiry never moves backwards. An already-lapsed ticket fails with
// ErrExpired and requires full re-authentication.
func (s *Service) Renew(ctx context.Context, ticketID string) (*Ticket, error) {
	if ticketID == "" {
		return nil, ErrNotFound
	}
	now := s.now()
	return s.store.Renew(ctx, ticketID, now.Add(s.timeout), now)
}

// Lookup returns the live ticket, ErrExpired, or ErrNotFound.
func (s *Service) Lookup(ctx context.Context, ticketID string) (*Ticket, error) {
	if ticketID == "" {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, ticketID)
}

// Revoke deletes the ticket. Revoking an absent ticket returns ErrNotFound.
func (s *Service) Revoke(ctx context.Context, ticketID string) error {
	if ticketID == "" {
		return ErrNotFound
	}
	deleted, err := s.store.Delete(ctx, ticketID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
