package rememberme

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veridianlabs/authcore/jwt"
)

func newTestManager(t *testing.T) *jwt.Manager {
	t.Helper()
	manager, err := jwt.NewManager(jwt.Config{
		SigningKey: bytes.Repeat([]byte{0x5a}, 32),
		KeyID:      "rm-1",
		Issuer:     "authcore-test",
		DefaultTTL: time.Hour,
	}, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return manager
}

func newTestRememberMe(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc, err := NewService(store, newTestManager(t), 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc, store
}

func TestNewServiceRejectsBadArguments(t *testing.T) {
	manager := newTestManager(t)
	if _, err := NewService(nil, manager, time.Hour); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewService(NewMemoryStore(), nil, time.Hour); err == nil {
		t.Fatal("expected error for nil manager")
	}
	if _, err := NewService(NewMemoryStore(), manager, 0); err == nil {
		t.Fatal("expected error for zero validity")
	}
}

func TestIssueResolveRoundTrip(t *testing.T) {
	svc, _ := newTestRememberMe(t)
	ctx := context.Background()

	compact, record, err := svc.Issue(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if compact == "" || record.ID == "" {
		t.Fatalf("incomplete issue result: token=%q record=%+v", compact, record)
	}

	resolved, err := svc.Resolve(ctx, compact)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.UserID != "u1" || resolved.Username != "alice" || resolved.ID != record.ID {
		t.Fatalf("resolved wrong record: %+v", resolved)
	}
}

func TestIssueSupersedesOutstandingToken(t *testing.T) {
	svc, _ := newTestRememberMe(t)
	ctx := context.Background()

	first, _, err := svc.Issue(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("first Issue failed: %v", err)
	}
	second, _, err := svc.Issue(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("second Issue failed: %v", err)
	}

	if _, err := svc.Resolve(ctx, first); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("superseded token still resolves: %v", err)
	}
	if _, err := svc.Resolve(ctx, second); err != nil {
		t.Fatalf("current token rejected: %v", err)
	}
}

func TestResolveTamperedToken(t *testing.T) {
	svc, _ := newTestRememberMe(t)
	ctx := context.Background()

	compact, _, err := svc.Issue(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tampered := compact[:len(compact)-2] + "xx"
	if _, err := svc.Resolve(ctx, tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := svc.Resolve(ctx, ""); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for empty token, got %v", err)
	}
}

func TestResolveAfterRecordExpiry(t *testing.T) {
	svc, store := newTestRememberMe(t)
	ctx := context.Background()

	compact, _, err := svc.Issue(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	store.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	if _, err := svc.Resolve(ctx, compact); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after record expiry, got %v", err)
	}
}

func TestRenewRotatesToken(t *testing.T) {
	svc, _ := newTestRememberMe(t)
	ctx := context.Background()

	compact, record, err := svc.Issue(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	renewed, renewedRecord, err := svc.Renew(ctx, compact)
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if renewedRecord.ID == record.ID {
		t.Fatal("renewal kept the old token id")
	}
	if _, err := svc.Resolve(ctx, compact); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("old token resolves after renewal: %v", err)
	}
	if _, err := svc.Resolve(ctx, renewed); err != nil {
		t.Fatalf("renewed token rejected: %v", err)
	}
}

func TestRevoke(t *testing.T) {
	svc, _ := newTestRememberMe(t)
	ctx := context.Background()

	compact, _, err := svc.Issue(ctx, "u1", "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := svc.Revoke(ctx, "alice"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := svc.Resolve(ctx, compact); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("token resolves after revoke: %v", err)
	}
	if err := svc.Revoke(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second revoke, got %v", err)
	}
}
