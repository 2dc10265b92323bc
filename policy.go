package authcore

import (
	"context"
	"time"
)

// policyEngine enforces password age and lockout policy over a
// CredentialStore. All mutations go through the store so they are
// durable before the calling pipeline step returns.
type policyEngine struct {
	cfg   PolicyConfig
	store CredentialStore
	now   func() time.Time
}

func newPolicyEngine(cfg PolicyConfig, store CredentialStore) *policyEngine {
	return &policyEngine{
		cfg:   cfg,
		store: store,
		now:   time.Now,
	}
}

// Validate runs the pre-verification policy checks. It never mutates
// the account.
func (p *policyEngine) Validate(account *UserAccount) error {
	if p.cfg.PasswordMaxAge > 0 && !account.PasswordChangedAt.IsZero() {
		if p.now().Sub(account.PasswordChangedAt) > p.cfg.PasswordMaxAge {
			return ErrPasswordExpired
		}
	}
	if account.BadPasswordCount >= p.cfg.MaxBadPasswords {
		return ErrAccountLocked
	}
	return nil
}

// ApplySuccess resets the bad-attempt counter and clears a pending
// policy flag after a successful verification.
func (p *policyEngine) ApplySuccess(ctx context.Context, account *UserAccount) error {
	if account.BadPasswordCount == 0 && account.Status == AccountActive {
		return nil
	}

	account.BadPasswordCount = 0
	if account.Status == AccountPendingPolicy {
		account.Status = AccountActive
	}
	return p.store.PersistPolicyState(ctx, account)
}

// ApplyFailure burns one bad-password attempt through the store's
// atomic increment and flips the account to Locked when the counter
// crosses the threshold. The returned bool reports a fresh lockout.
func (p *policyEngine) ApplyFailure(ctx context.Context, account *UserAccount) (bool, error) {
	count, err := p.store.IncrementBadPasswords(ctx, account.ID)
	if err != nil {
		return false, err
	}
	account.BadPasswordCount = count

	if count < p.cfg.MaxBadPasswords {
		return false, nil
	}

	account.Status = AccountLocked
	if err := p.store.PersistPolicyState(ctx, account); err != nil {
		return false, err
	}
	return true, nil
}
