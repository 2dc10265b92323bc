package jwt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
		KeyID:      "k1",
		Issuer:     "authcore-test",
		DefaultTTL: time.Minute,
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testConfig(), NewMemoryRevocations())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short key", func(c *Config) { c.SigningKey = []byte("short") }},
		{"empty kid", func(c *Config) { c.KeyID = " " }},
		{"zero ttl", func(c *Config) { c.DefaultTTL = 0 }},
		{"excessive leeway", func(c *Config) { c.Leeway = 3 * time.Minute }},
		{"short verify key", func(c *Config) { c.VerifyKeys = map[string][]byte{"k0": []byte("x")} }},
		{"empty verify kid", func(c *Config) {
			c.VerifyKeys = map[string][]byte{" ": []byte("0123456789abcdef0123456789abcdef")}
		}},
	}
	for _, tc := range cases {
		cfg := testConfig()
		tc.mutate(&cfg)
		if _, err := NewManager(cfg, nil); err == nil {
			t.Fatalf("%s: expected config error", tc.name)
		}
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	m := newTestManager(t)

	compact, issued, err := m.Sign("alice", "", 0)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if strings.Count(compact, ".") != 2 {
		t.Fatalf("expected compact three-part token, got %q", compact)
	}
	if issued.TokenID == "" || issued.KeyID != "k1" {
		t.Fatalf("unexpected issued claims: %+v", issued)
	}

	claims, err := m.Verify(context.Background(), compact)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("subject mismatch: %q", claims.Subject)
	}
	if claims.TokenID != issued.TokenID {
		t.Fatalf("token id mismatch: %q != %q", claims.TokenID, issued.TokenID)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m := newTestManager(t)

	compact, _, err := m.Sign("alice", "", 0)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	tampered := compact[:len(compact)-2] + "xx"
	if _, err := m.Verify(context.Background(), tampered); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := newTestManager(t)

	compact, _, err := m.Sign("alice", "", time.Millisecond)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := m.Verify(context.Background(), compact); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for expired token, got %v", err)
	}
}

func TestVerifyRejectsRevokedToken(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	compact, issued, err := m.Sign("alice", "", 0)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if _, err := m.Verify(ctx, compact); err != nil {
		t.Fatalf("Verify before revoke failed: %v", err)
	}

	if err := m.Revoke(ctx, issued.TokenID, issued.ExpiresAt); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := m.Verify(ctx, compact); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid after revoke, got %v", err)
	}
}

func TestVerifyAcceptsRotatedKey(t *testing.T) {
	old := newTestManager(t)

	compact, _, err := old.Sign("alice", "", 0)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	cfg := testConfig()
	cfg.SigningKey = []byte("fedcba9876543210fedcba9876543210")
	cfg.KeyID = "k2"
	cfg.VerifyKeys = map[string][]byte{"k1": testConfig().SigningKey}
	rotated, err := NewManager(cfg, NewMemoryRevocations())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	claims, err := rotated.Verify(context.Background(), compact)
	if err != nil {
		t.Fatalf("Verify with rotated key set failed: %v", err)
	}
	if claims.KeyID != "k1" {
		t.Fatalf("expected old kid, got %q", claims.KeyID)
	}
}

func TestVerifyRejectsUnknownKid(t *testing.T) {
	a := newTestManager(t)

	cfg := testConfig()
	cfg.KeyID = "other"
	b, err := NewManager(cfg, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	compact, _, err := b.Sign("alice", "", 0)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if _, err := a.Verify(context.Background(), compact); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown kid, got %v", err)
	}
}
