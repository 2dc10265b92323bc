package authcore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/veridianlabs/authcore/internal/flows"
	"github.com/veridianlabs/authcore/otp"
)

// verifyFunc is the kind-specific verification step of one provider
// variant.
type verifyFunc func(ctx context.Context, account *UserAccount, secret string) error

// buildVerifiers assembles the immutable provider dispatch table. Runs
// once at Build; the table is never mutated afterwards.
func (e *Engine) buildVerifiers() map[CredentialKind]verifyFunc {
	verifiers := map[CredentialKind]verifyFunc{
		CredentialPassword: func(_ context.Context, account *UserAccount, secret string) error {
			ok, err := e.passwordHash.Verify(secret, account.PasswordHash)
			if err != nil || !ok {
				return ErrBadCredentials
			}
			return nil
		},
		CredentialTrusted: func(ctx context.Context, account *UserAccount, secret string) error {
			claims, err := e.tokens.Verify(ctx, secret)
			if err != nil {
				e.metricInc(MetricTokenRejected)
				return ErrInvalidTrustToken
			}
			if claims.Subject != account.Username {
				e.metricInc(MetricTokenRejected)
				return ErrInvalidTrustToken
			}
			return nil
		},
	}

	if e.config.Login.MFAEnabled {
		verifiers[CredentialMobileOtp] = func(ctx context.Context, account *UserAccount, secret string) error {
			if err := e.otp.Validate(ctx, account.ID, otp.ChannelSMS, secret); err != nil {
				e.metricInc(MetricOtpRejected)
				if errors.Is(err, otp.ErrBackend) {
					e.metricInc(MetricStoreFailure)
					return err
				}
				return ErrBadOtpCode
			}
			return nil
		}
	} else {
		// MFA disabled treats the otp step as already satisfied.
		verifiers[CredentialMobileOtp] = nil
	}

	return verifiers
}

// Authenticate is the sole login entry point. It dispatches the
// credential to its provider variant and runs the shared pipeline:
// input validation, account load, status check, policy pre-check,
// kind-specific verification, policy post-apply, ticket issuance, and
// a guaranteed-run audit record.
func (e *Engine) Authenticate(ctx context.Context, credential Credential) (*AuthResult, error) {
	if e == nil || e.credentials == nil || e.verifiers == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	defer e.observeLatency(MetricAuthenticateLatency, start)

	verifier, ok := e.verifiers[credential.Kind]
	if !ok {
		e.metricInc(MetricLoginFailure)
		e.recordLogin(ctx, credential.Kind.String(), false, "", credential.Principal, clientIPFromContext(ctx), ErrUnsupportedCredentialKind)
		return nil, ErrUnsupportedCredentialKind
	}

	deps := e.authDeps(credential, verifier)
	outcome, err := flows.RunAuthenticate(ctx, credential.Principal, credential.Secret, deps)
	if err != nil {
		return nil, err
	}

	result := &AuthResult{
		Principal: Principal{
			UserID:        outcome.UserID,
			Username:      outcome.Username,
			InstitutionID: outcome.InstitutionID,
		},
		TicketID:        outcome.TicketID,
		TicketExpiresAt: outcome.TicketExpiresAt,
		RememberMeToken: outcome.RememberMeToken,
	}
	return result, nil
}

func (e *Engine) authDeps(credential Credential, verifier verifyFunc) flows.AuthDeps {
	// loaded is shared across the per-call closures so policy steps
	// mutate the same record the load step produced.
	var loaded *UserAccount

	deps := flows.AuthDeps{
		LoginType:           credential.Kind.String(),
		SecretRequired:      verifier != nil,
		ClientIPFromContext: clientIPFromContext,
		StatusError:         statusError,
		MetricInc:           func(id int) { e.metricInc(MetricID(id)) },
		Warn:                log.Printf,
		Metrics: flows.AuthMetrics{
			Success: int(MetricLoginSuccess),
			Failure: int(MetricLoginFailure),
		},
		Errors: flows.AuthErrors{
			EngineNotReady:        ErrEngineNotReady,
			EmptyCredentialField:  ErrEmptyCredentialField,
			UnknownPrincipal:      ErrUnknownPrincipal,
			BadCredentials:        ErrBadCredentials,
			BadOtpCode:            ErrBadOtpCode,
			InvalidTrustToken:     ErrInvalidTrustToken,
			SessionCreationFailed: ErrSessionCreationFailed,
			AuthenticationFailed:  ErrAuthenticationFailed,
		},
		DeclaredFailures: []error{
			ErrEmptyCredentialField, ErrUnknownPrincipal, ErrAccountLocked,
			ErrAccountDisabled, ErrPolicyPending, ErrPasswordExpired,
			ErrBadCredentials, ErrBadOtpCode, ErrInvalidTrustToken,
			ErrSessionCreationFailed, ErrAuthenticationFailed,
		},
	}

	deps.LoadAccount = func(ctx context.Context, principal string) (flows.AuthAccount, bool, error) {
		account, err := e.credentials.LoadByPrincipal(ctx, principal)
		if err != nil {
			if errors.Is(err, ErrUnknownPrincipal) {
				return flows.AuthAccount{}, false, nil
			}
			e.metricInc(MetricStoreFailure)
			return flows.AuthAccount{}, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if account == nil {
			return flows.AuthAccount{}, false, nil
		}
		loaded = account
		return toFlowAccount(account), true, nil
	}

	deps.PolicyValidate = func(flows.AuthAccount) error {
		return e.policy.Validate(loaded)
	}

	if verifier != nil {
		deps.VerifySecret = func(ctx context.Context, _ flows.AuthAccount, secret string) error {
			return verifier(ctx, loaded, secret)
		}
	}

	deps.ApplySuccess = func(ctx context.Context, _ flows.AuthAccount) error {
		return e.policy.ApplySuccess(ctx, loaded)
	}

	deps.ApplyFailure = func(ctx context.Context, _ flows.AuthAccount) error {
		lockedOut, err := e.policy.ApplyFailure(ctx, loaded)
		if lockedOut {
			e.metricInc(MetricAccountLockedOut)
		}
		return err
	}

	deps.CreateTicket = func(ctx context.Context, userID, username string) (string, time.Time, error) {
		created, err := e.tickets.Create(ctx, userID, username)
		if err != nil {
			e.metricInc(MetricStoreFailure)
			return "", time.Time{}, err
		}
		e.metricInc(MetricTicketCreated)
		return created.ID, created.ExpiresAt, nil
	}

	if e.rememberMe != nil && credential.RememberMe {
		deps.IssueRememberMe = func(ctx context.Context, userID, username string) (string, error) {
			token, _, err := e.rememberMe.Issue(ctx, userID, username)
			if err != nil {
				return "", err
			}
			e.metricInc(MetricRememberMeIssued)
			return token, nil
		}
	}

	deps.EmitAudit = func(ctx context.Context, loginType string, success bool, userID, sourceIP string, err error) {
		username := ""
		if loaded != nil {
			username = loaded.Username
		}
		e.recordLogin(ctx, loginType, success, userID, username, sourceIP, err)
	}

	return deps
}
