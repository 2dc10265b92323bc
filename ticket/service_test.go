package ticket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc, err := NewService(store, 30*time.Minute)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc, store
}

func TestNewServiceRejectsBadArguments(t *testing.T) {
	if _, err := NewService(nil, time.Minute); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewService(NewMemoryStore(), 0); err == nil {
		t.Fatal("expected error for zero timeout")
	}
}

func TestCreateIssuesDurableTicket(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" || created.UserID != "u1" || created.Username != "alice" {
		t.Fatalf("unexpected ticket: %+v", created)
	}
	if created.ExpiresAt.Before(created.IssuedAt) {
		t.Fatal("expiry precedes issuance")
	}

	got, err := svc.Lookup(ctx, created.ID)
	if err != nil {
		t.Fatalf("Lookup after Create failed: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("lookup returned wrong ticket: %+v", got)
	}
}

func TestCreateGeneratesUniqueIDsUnderConcurrency(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const n = 64
	var (
		mu  sync.Mutex
		ids = make(map[string]bool, n)
		wg  sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := svc.Create(ctx, "u1", "alice")
			if err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			mu.Lock()
			ids[created.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != n {
		t.Fatalf("expected %d unique ticket ids, got %d", n, len(ids))
	}
}

func TestRenewExtendsMonotonically(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	renewed, err := svc.Renew(ctx, created.ID)
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if renewed.ExpiresAt.Before(created.ExpiresAt) {
		t.Fatal("renewal moved expiry backwards")
	}

	// A renewal computing an earlier deadline keeps the stored expiry.
	past := time.Now().Add(-time.Hour)
	kept, err := store.Renew(ctx, created.ID, past, time.Now())
	if err != nil {
		t.Fatalf("store Renew failed: %v", err)
	}
	if kept.ExpiresAt.Before(renewed.ExpiresAt) {
		t.Fatal("stored expiry decreased")
	}
}

func TestRenewExpiredTicketFails(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	store.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := svc.Renew(ctx, created.ID); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	// Ticket is gone after the failed renewal observed expiry.
	if _, err := svc.Lookup(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry cleanup, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Revoke(ctx, created.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := svc.Lookup(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after revoke, got %v", err)
	}
	if err := svc.Revoke(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second revoke, got %v", err)
	}
}
