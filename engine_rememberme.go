package authcore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/veridianlabs/authcore/rememberme"
)

// AuthenticateRememberMe resumes a session from a previously issued
// remember-me token. On success the stored record is rotated: a fresh
// token is returned and the presented one stops resolving. Account
// status and password policy are re-checked on every resume, so a
// lockout or expiry that happened since issuance still blocks entry.
//
// AuthenticateRememberMe may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) AuthenticateRememberMe(ctx context.Context, compact string) (*AuthResult, error) {
	if e == nil || e.credentials == nil || e.tickets == nil {
		return nil, ErrEngineNotReady
	}
	if e.rememberMe == nil {
		return nil, ErrRememberMeDisabled
	}

	start := time.Now()
	defer e.observeLatency(MetricAuthenticateLatency, start)

	result, err := e.resumeRememberMe(ctx, compact)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		userID, username := "", ""
		if result != nil {
			userID, username = result.Principal.UserID, result.Principal.Username
		}
		e.recordLogin(ctx, "remember-me", false, userID, username, clientIPFromContext(ctx), err)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.recordLogin(ctx, "remember-me", true, result.Principal.UserID, result.Principal.Username, clientIPFromContext(ctx), nil)
	return result, nil
}

// resumeRememberMe carries the partial result back on failure so the
// audit record can name the account once it is known.
func (e *Engine) resumeRememberMe(ctx context.Context, compact string) (*AuthResult, error) {
	if compact == "" {
		return nil, ErrRememberMeInvalid
	}

	record, err := e.rememberMe.Resolve(ctx, compact)
	if err != nil {
		if errors.Is(err, rememberme.ErrTokenInvalid) {
			e.metricInc(MetricRememberMeRejected)
			return nil, ErrRememberMeInvalid
		}
		e.metricInc(MetricStoreFailure)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	e.metricInc(MetricRememberMeResolved)

	partial := &AuthResult{Principal: Principal{UserID: record.UserID, Username: record.Username}}

	account, err := e.credentials.LoadByPrincipal(ctx, record.Username)
	if err != nil || account == nil {
		if err != nil && !errors.Is(err, ErrUnknownPrincipal) {
			e.metricInc(MetricStoreFailure)
			return partial, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return partial, ErrRememberMeInvalid
	}
	partial.Principal.InstitutionID = account.InstitutionID

	if statusErr := statusError(uint8(account.Status)); statusErr != nil {
		return partial, statusErr
	}
	if err := e.policy.Validate(account); err != nil {
		return partial, err
	}

	t, err := e.tickets.Create(ctx, account.ID, account.Username)
	if err != nil {
		e.metricInc(MetricStoreFailure)
		log.Printf("authcore: remember-me ticket creation failed: %v", err)
		return partial, ErrSessionCreationFailed
	}
	e.metricInc(MetricTicketCreated)

	rotated, _, err := e.rememberMe.Issue(ctx, account.ID, account.Username)
	if err != nil {
		// Session is already established; the client keeps the old
		// token until the next successful resume.
		log.Printf("authcore: remember-me rotation failed: %v", err)
	} else {
		e.metricInc(MetricRememberMeIssued)
	}

	partial.TicketID = t.ID
	partial.TicketExpiresAt = t.ExpiresAt
	partial.RememberMeToken = rotated
	return partial, nil
}

// RevokeRememberMe withdraws the stored remember-me record for username.
// Every outstanding token for that account stops resolving immediately.
// Revoking an account with no stored record returns ErrTokenInvalid.
func (e *Engine) RevokeRememberMe(ctx context.Context, username string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if e.rememberMe == nil {
		return ErrRememberMeDisabled
	}
	if username == "" {
		return ErrEmptyCredentialField
	}

	err := e.rememberMe.Revoke(ctx, username)
	if err != nil {
		if errors.Is(err, rememberme.ErrNotFound) {
			return ErrTokenInvalid
		}
		e.metricInc(MetricStoreFailure)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
