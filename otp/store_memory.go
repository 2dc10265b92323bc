package otp

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

// MemoryStore is an in-process challenge store. Expired entries are
// swept opportunistically on Put, so memory stays bounded without a
// background goroutine.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]Challenge),
		now:        time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, key string, challenge *Challenge, _ time.Duration) error {
	now := s.now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, existing := range s.challenges {
		if existing.ExpiresAt <= now {
			delete(s.challenges, k)
		}
	}

	s.challenges[key] = *challenge
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, key, code string, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.challenges[key]
	if !ok {
		return ErrNotFound
	}
	if existing.ExpiresAt <= s.now().Unix() {
		delete(s.challenges, key)
		return ErrNotFound
	}

	if subtle.ConstantTimeCompare([]byte(existing.Code), []byte(code)) != 1 {
		existing.Attempts++
		if int(existing.Attempts) >= maxAttempts {
			delete(s.challenges, key)
			return ErrAttemptsExceeded
		}
		s.challenges[key] = existing
		return ErrCodeMismatch
	}

	delete(s.challenges, key)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, key)
	return nil
}
