package otp

import (
	"context"
	"errors"
	"testing"
	"time"
)

type captureSender struct {
	channel     Channel
	destination string
	code        string
	fail        bool
}

func (c *captureSender) Send(_ context.Context, channel Channel, destination, code string) error {
	if c.fail {
		return errors.New("gateway down")
	}
	c.channel = channel
	c.destination = destination
	c.code = code
	return nil
}

func newTestOtpService(t *testing.T, sender Sender) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc, err := NewService(store, sender, 6, 5*time.Minute, 3)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc, store
}

func TestNewServiceRejectsBadArguments(t *testing.T) {
	store := NewMemoryStore()
	sender := &captureSender{}

	cases := []struct {
		name        string
		store       Store
		sender      Sender
		digits      int
		ttl         time.Duration
		maxAttempts int
	}{
		{"nil store", nil, sender, 6, time.Minute, 3},
		{"nil sender", store, nil, 6, time.Minute, 3},
		{"digits too small", store, sender, 3, time.Minute, 3},
		{"digits too large", store, sender, 11, time.Minute, 3},
		{"zero ttl", store, sender, 6, 0, 3},
		{"zero attempts", store, sender, 6, time.Minute, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewService(tc.store, tc.sender, tc.digits, tc.ttl, tc.maxAttempts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestIssueDeliversAndValidates(t *testing.T) {
	sender := &captureSender{}
	svc, _ := newTestOtpService(t, sender)
	ctx := context.Background()

	if err := svc.Issue(ctx, "u1", ChannelSMS, "+15550100"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if sender.channel != ChannelSMS {
		t.Fatalf("delivered on wrong channel: %q", sender.channel)
	}
	if sender.destination != "+15550100" {
		t.Fatalf("delivered to wrong destination: %q", sender.destination)
	}
	if len(sender.code) != 6 {
		t.Fatalf("expected 6 digit code, got %q", sender.code)
	}

	if err := svc.Validate(ctx, "u1", ChannelSMS, sender.code); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateIsSingleUse(t *testing.T) {
	sender := &captureSender{}
	svc, _ := newTestOtpService(t, sender)
	ctx := context.Background()

	if err := svc.Issue(ctx, "u1", ChannelSMS, "+15550100"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := svc.Validate(ctx, "u1", ChannelSMS, sender.code); err != nil {
		t.Fatalf("first Validate failed: %v", err)
	}
	if err := svc.Validate(ctx, "u1", ChannelSMS, sender.code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on replay, got %v", err)
	}
}

func TestValidateMismatchBurnsAttempts(t *testing.T) {
	sender := &captureSender{}
	svc, _ := newTestOtpService(t, sender)
	ctx := context.Background()

	if err := svc.Issue(ctx, "u1", ChannelSMS, "+15550100"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	wrong := "000000"
	if wrong == sender.code {
		wrong = "000001"
	}

	if err := svc.Validate(ctx, "u1", ChannelSMS, wrong); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}
	if err := svc.Validate(ctx, "u1", ChannelSMS, wrong); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}
	if err := svc.Validate(ctx, "u1", ChannelSMS, wrong); !errors.Is(err, ErrAttemptsExceeded) {
		t.Fatalf("expected ErrAttemptsExceeded, got %v", err)
	}
	// The burned challenge rejects even the right code.
	if err := svc.Validate(ctx, "u1", ChannelSMS, sender.code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after burn, got %v", err)
	}
}

func TestValidateEmptyCode(t *testing.T) {
	sender := &captureSender{}
	svc, _ := newTestOtpService(t, sender)

	if err := svc.Validate(context.Background(), "u1", ChannelSMS, ""); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch for empty code, got %v", err)
	}
}

func TestIssueSupersedesPendingChallenge(t *testing.T) {
	sender := &captureSender{}
	svc, _ := newTestOtpService(t, sender)
	ctx := context.Background()

	if err := svc.Issue(ctx, "u1", ChannelSMS, "+15550100"); err != nil {
		t.Fatalf("first Issue failed: %v", err)
	}
	first := sender.code

	if err := svc.Issue(ctx, "u1", ChannelSMS, "+15550100"); err != nil {
		t.Fatalf("second Issue failed: %v", err)
	}
	second := sender.code

	if first != second {
		if err := svc.Validate(ctx, "u1", ChannelSMS, first); errors.Is(err, nil) {
			t.Fatal("superseded code validated")
		}
	}
	if err := svc.Validate(ctx, "u1", ChannelSMS, second); err != nil {
		t.Fatalf("current code rejected: %v", err)
	}
}

func TestChallengesAreScopedPerChannel(t *testing.T) {
	sender := &captureSender{}
	svc, _ := newTestOtpService(t, sender)
	ctx := context.Background()

	if err := svc.Issue(ctx, "u1", ChannelSMS, "+15550100"); err != nil {
		t.Fatalf("sms Issue failed: %v", err)
	}
	smsCode := sender.code

	// A code delivered over SMS never validates against another channel.
	if err := svc.Validate(ctx, "u1", ChannelEmail, smsCode); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on foreign channel, got %v", err)
	}
	if err := svc.Validate(ctx, "u1", ChannelSMS, smsCode); err != nil {
		t.Fatalf("Validate on issuing channel failed: %v", err)
	}
}

func TestIssueDeliveryFailureWithdrawsChallenge(t *testing.T) {
	sender := &captureSender{fail: true}
	svc, store := newTestOtpService(t, sender)
	ctx := context.Background()

	err := svc.Issue(ctx, "u1", ChannelSMS, "+15550100")
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if err := store.Consume(ctx, challengeKey("u1", ChannelSMS), "123456", 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("challenge survived failed delivery: %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "u1", &Challenge{Code: "123456", ExpiresAt: time.Now().Add(time.Minute).Unix()}, time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	if err := store.Consume(ctx, "u1", "123456", 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}
