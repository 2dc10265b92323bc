package authcore

import (
	"context"
	"errors"
	"testing"
)

func rememberMeTestConfig() Config {
	cfg := loginTestConfig()
	cfg.Login.RememberMeEnabled = true
	return cfg
}

func rememberedLogin(t *testing.T, engine *Engine) *AuthResult {
	t.Helper()
	result, err := engine.Authenticate(context.Background(), Credential{
		Principal:  "alice",
		Secret:     "Secret1",
		Kind:       CredentialPassword,
		RememberMe: true,
	})
	if err != nil {
		t.Fatalf("password login failed: %v", err)
	}
	if result.RememberMeToken == "" {
		t.Fatal("no remember-me token issued")
	}
	return result
}

func TestRememberMeResumeRoundTrip(t *testing.T) {
	cfg := rememberMeTestConfig()
	store := newMockCredentialStore(aliceAccount(t, cfg))
	engine, _ := newLoginEngine(t, cfg, store)

	session := rememberedLogin(t, engine)
	resumed, err := engine.AuthenticateRememberMe(context.Background(), session.RememberMeToken)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if resumed.Principal.UserID != "u1" || resumed.Principal.Username != "alice" {
		t.Fatalf("unexpected principal: %+v", resumed.Principal)
	}
	if resumed.TicketID == "" || resumed.TicketID == session.TicketID {
		t.Fatal("resume must issue a fresh ticket")
	}
	if resumed.RememberMeToken == "" || resumed.RememberMeToken == session.RememberMeToken {
		t.Fatal("resume must rotate the token")
	}
}

func TestRememberMeResumeRotationInvalidatesOldToken(t *testing.T) {
	cfg := rememberMeTestConfig()
	store := newMockCredentialStore(aliceAccount(t, cfg))
	engine, _ := newLoginEngine(t, cfg, store)

	session := rememberedLogin(t, engine)
	resumed, err := engine.AuthenticateRememberMe(context.Background(), session.RememberMeToken)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	if _, err := engine.AuthenticateRememberMe(context.Background(), session.RememberMeToken); !errors.Is(err, ErrRememberMeInvalid) {
		t.Fatalf("rotated-out token accepted: %v", err)
	}
	if _, err := engine.AuthenticateRememberMe(context.Background(), resumed.RememberMeToken); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
}

func TestRememberMeNotIssuedUnlessRequested(t *testing.T) {
	cfg := rememberMeTestConfig()
	store := newMockCredentialStore(aliceAccount(t, cfg))
	engine, _ := newLoginEngine(t, cfg, store)

	result := loginAlice(t, engine)
	if result.RememberMeToken != "" {
		t.Fatal("token issued without RememberMe flag")
	}
}

func TestRememberMeDisabled(t *testing.T) {
	cfg := loginTestConfig()
	store := newMockCredentialStore(aliceAccount(t, cfg))
	engine, _ := newLoginEngine(t, cfg, store)

	result, err := engine.Authenticate(context.Background(), Credential{
		Principal:  "alice",
		Secret:     "Secret1",
		Kind:       CredentialPassword,
		RememberMe: true,
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.RememberMeToken != "" {
		t.Fatal("token issued while the feature is disabled")
	}

	if _, err := engine.AuthenticateRememberMe(context.Background(), "anything"); !errors.Is(err, ErrRememberMeDisabled) {
		t.Fatalf("expected ErrRememberMeDisabled, got %v", err)
	}
	if err := engine.RevokeRememberMe(context.Background(), "alice"); !errors.Is(err, ErrRememberMeDisabled) {
		t.Fatalf("expected ErrRememberMeDisabled, got %v", err)
	}
}

func TestRememberMeRevocation(t *testing.T) {
	cfg := rememberMeTestConfig()
	store := newMockCredentialStore(aliceAccount(t, cfg))
	engine, _ := newLoginEngine(t, cfg, store)

	session := rememberedLogin(t, engine)
	if err := engine.RevokeRememberMe(context.Background(), "alice"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	if _, err := engine.AuthenticateRememberMe(context.Background(), session.RememberMeToken); !errors.Is(err, ErrRememberMeInvalid) {
		t.Fatalf("revoked token accepted: %v", err)
	}
	if err := engine.RevokeRememberMe(context.Background(), "alice"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on second revoke, got %v", err)
	}
}

func TestLogoutWithdrawsRememberMe(t *testing.T) {
	cfg := rememberMeTestConfig()
	store := newMockCredentialStore(aliceAccount(t, cfg))
	engine, _ := newLoginEngine(t, cfg, store)

	session := rememberedLogin(t, engine)
	if err := engine.Logout(context.Background(), session.TicketID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, err := engine.AuthenticateRememberMe(context.Background(), session.RememberMeToken); !errors.Is(err, ErrRememberMeInvalid) {
		t.Fatalf("remember-me survived logout: %v", err)
	}
}

func TestRememberMeResumeBlockedByLockout(t *testing.T) {
	cfg := rememberMeTestConfig()
	store := newMockCredentialStore(aliceAccount(t, cfg))
	engine, _ := newLoginEngine(t, cfg, store)

	session := rememberedLogin(t, engine)

	for i := 0; i < cfg.Policy.MaxBadPasswords; i++ {
		_, _ = engine.Authenticate(context.Background(), Credential{
			Principal: "alice",
			Secret:    "wrong",
			Kind:      CredentialPassword,
		})
	}

	if _, err := engine.AuthenticateRememberMe(context.Background(), session.RememberMeToken); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

func TestRememberMeGarbageToken(t *testing.T) {
	cfg := rememberMeTestConfig()
	store := newMockCredentialStore(aliceAccount(t, cfg))
	engine, _ := newLoginEngine(t, cfg, store)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := engine.AuthenticateRememberMe(context.Background(), token); !errors.Is(err, ErrRememberMeInvalid) {
			t.Fatalf("token %q: expected ErrRememberMeInvalid, got %v", token, err)
		}
	}
}
