package authcore

import (
	"context"
	"errors"
	"testing"
)

func loginAlice(t *testing.T, engine *Engine) *AuthResult {
	t.Helper()
	result, err := engine.Authenticate(context.Background(), Credential{
		Principal: "alice",
		Secret:    "Secret1",
		Kind:      CredentialPassword,
	})
	if err != nil {
		t.Fatalf("password login failed: %v", err)
	}
	return result
}

func TestTrustTokenDelegatedLogin(t *testing.T) {
	cfg := loginTestConfig()
	store := newMockCredentialStore(aliceAccount(t, cfg))
	engine, _ := newLoginEngine(t, cfg, store)

	session := loginAlice(t, engine)
	token, err := engine.IssueTrustToken(context.Background(), session.TicketID)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("empty trust token")
	}

	result, err := engine.Authenticate(context.Background(), Credential{
		Principal: "alice",
		Secret:    token,
		Kind:      CredentialTrusted,
	})
	if err != nil {
		t.Fatalf("trusted login failed: %v", err)
	}
	if result.TicketID == session.TicketID {
		t.Fatal("trusted login must issue a fresh ticket")
	}
}

func TestTrustTokenSubjectMismatch(t *testing.T) {
	cfg := loginTestConfig()
	bob := &UserAccount{
		ID:           "u2",
		Username:     "bob",
		PasswordHash: testPasswordHash(t, cfg, "Secret1"),
		Status:       AccountActive,
	}
	store := newMockCredentialStore(aliceAccount(t, cfg), bob)
	engine, _ := newLoginEngine(t, cfg, store)

	session := loginAlice(t, engine)
	token, err := engine.IssueTrustToken(context.Background(), session.TicketID)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// Alice's token must not authenticate bob.
	_, err = engine.Authenticate(context.Background(), Credential{
		Principal: "bob",
		Secret:    token,
		Kind:      CredentialTrusted,
	})
	if !errors.Is(err, ErrInvalidTrustToken) {
		t.Fatalf("expected ErrInvalidTrustToken, got %v", err)
	}
	if store.badPasswordCount("bob") != 1 {
		t.Fatal("mismatched trust token must burn the counter")
	}
}

func TestTrustTokenGarbageRejected(t *testing.T) {
	cfg := loginTestConfig()
	store := newMockCredentialStore(aliceAccount(t, cfg))
	engine, _ := newLoginEngine(t, cfg, store)

	_, err := engine.Authenticate(context.Background(), Credential{
		Principal: "alice",
		Secret:    "not-a-token",
		Kind:      CredentialTrusted,
	})
	if !errors.Is(err, ErrInvalidTrustToken) {
		t.Fatalf("expected ErrInvalidTrustToken, got %v", err)
	}
	if engine.MetricsSnapshot().Counters[MetricTokenRejected] != 1 {
		t.Fatal("rejection metric not recorded")
	}
}

func TestTrustTokenRevocation(t *testing.T) {
	cfg := loginTestConfig()
	store := newMockCredentialStore(aliceAccount(t, cfg))
	engine, _ := newLoginEngine(t, cfg, store)

	session := loginAlice(t, engine)
	token, err := engine.IssueTrustToken(context.Background(), session.TicketID)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if err := engine.RevokeTrustToken(context.Background(), token); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	_, err = engine.Authenticate(context.Background(), Credential{
		Principal: "alice",
		Secret:    token,
		Kind:      CredentialTrusted,
	})
	if !errors.Is(err, ErrInvalidTrustToken) {
		t.Fatalf("revoked token accepted: %v", err)
	}

	if err := engine.RevokeTrustToken(context.Background(), "garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestIssueTrustTokenRequiresLiveTicket(t *testing.T) {
	cfg := loginTestConfig()
	store := newMockCredentialStore(aliceAccount(t, cfg))
	engine, _ := newLoginEngine(t, cfg, store)

	if _, err := engine.IssueTrustToken(context.Background(), "absent"); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound, got %v", err)
	}

	session := loginAlice(t, engine)
	if err := engine.Logout(context.Background(), session.TicketID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := engine.IssueTrustToken(context.Background(), session.TicketID); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound after logout, got %v", err)
	}
}
