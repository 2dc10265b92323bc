package rememberme

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process record store. Expired entries are swept
// opportunistically on Save.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, record *Record) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for username, existing := range s.records {
		if !existing.ExpiresAt.After(now) {
			delete(s.records, username)
		}
	}

	s.records[record.Username] = *record
	return nil
}

func (s *MemoryStore) Read(_ context.Context, username string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[username]
	if !ok {
		return nil, ErrNotFound
	}
	if !existing.ExpiresAt.After(s.now()) {
		delete(s.records, username)
		return nil, ErrNotFound
	}

	out := existing
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.records[username]
	delete(s.records, username)
	return ok, nil
}
