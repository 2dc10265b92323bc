package ticket

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process ticket store. Expired entries are swept
// opportunistically on Create, so memory stays bounded to live sessions
// without a background goroutine.
type MemoryStore struct {
	mu      sync.Mutex
	tickets map[string]Ticket
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: make(map[string]Ticket),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, t *Ticket) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.tickets {
		if !existing.ExpiresAt.After(now) {
			delete(s.tickets, id)
		}
	}

	if _, ok := s.tickets[t.ID]; ok {
		return ErrExists
	}
	s.tickets[t.ID] = *t
	return nil
}

func (s *MemoryStore) Get(_ context.Context, ticketID string) (*Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tickets[ticketID]
	if !ok {
		return nil, ErrNotFound
	}
	if !existing.ExpiresAt.After(s.now()) {
		delete(s.tickets, ticketID)
		return nil, ErrExpired
	}

	out := existing
	return &out, nil
}

func (s *MemoryStore) Renew(_ context.Context, ticketID string, expiresAt, lastAccessAt time.Time) (*Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tickets[ticketID]
	if !ok {
		return nil, ErrNotFound
	}
	if !existing.ExpiresAt.After(s.now()) {
		delete(s.tickets, ticketID)
		return nil, ErrExpired
	}

	if expiresAt.After(existing.ExpiresAt) {
		existing.ExpiresAt = expiresAt
	}
	existing.LastAccessAt = lastAccessAt
	s.tickets[ticketID] = existing

	out := existing
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, ticketID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tickets[ticketID]
	delete(s.tickets, ticketID)
	return ok, nil
}
