package flows

import (
	"context"
	"errors"
	"time"
)

// AuthAccount is a flow-local user model used by the authenticate flow.
type AuthAccount struct {
	UserID           string
	Username         string
	InstitutionID    string
	PasswordHash     string
	Mobile           string
	Status           uint8
	BadPasswordCount int
}

// AuthOutcome is the flow-local authentication response shape.
type AuthOutcome struct {
	UserID          string
	Username        string
	InstitutionID   string
	TicketID        string
	TicketExpiresAt time.Time
	RememberMeToken string
}

// AuthMetrics carries metric IDs needed by the authenticate flow.
type AuthMetrics struct {
	Success int
	Failure int
}

// AuthErrors carries host-level sentinel errors used by the
// authenticate flow.
type AuthErrors struct {
	EngineNotReady        error
	EmptyCredentialField  error
	UnknownPrincipal      error
	BadCredentials        error
	BadOtpCode            error
	InvalidTrustToken     error
	SessionCreationFailed error
	AuthenticationFailed  error
}

// AuthDeps captures authenticate pipeline dependencies. The variant
// specific verification step arrives as VerifySecret; everything before
// and after it is shared across credential kinds.
type AuthDeps struct {
	// LoginType names the credential kind in audit records.
	LoginType string
	// SecretRequired gates the empty-secret input check. Variants whose
	// verification step is disabled by configuration clear it.
	SecretRequired bool

	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string

	LoadAccount    func(context.Context, string) (AuthAccount, bool, error)
	StatusError    func(status uint8) error
	PolicyValidate func(AuthAccount) error

	// VerifySecret is the kind-specific verification step. nil means the
	// step is already satisfied.
	VerifySecret func(context.Context, AuthAccount, string) error

	// ApplySuccess and ApplyFailure persist policy counter updates.
	// ApplyFailure runs only for genuine credential-mismatch failures;
	// status and policy short-circuits never re-increment.
	ApplySuccess func(context.Context, AuthAccount) error
	ApplyFailure func(context.Context, AuthAccount) error

	CreateTicket    func(context.Context, string, string) (string, time.Time, error)
	IssueRememberMe func(context.Context, string, string) (string, error)

	EmitAudit func(ctx context.Context, loginType string, success bool, userID, sourceIP string, err error)
	MetricInc func(int)
	Warn      func(string, ...any)

	// DeclaredFailures lists every sentinel safe to surface to callers.
	// Anything else collapses to Errors.AuthenticationFailed.
	DeclaredFailures []error

	Metrics AuthMetrics
	Errors  AuthErrors
}

func (d *AuthDeps) declared(err error) bool {
	for _, sentinel := range d.DeclaredFailures {
		if sentinel != nil && errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// RunAuthenticate executes the shared authentication pipeline for one
// credential. Metrics, the outward error collapse, and the audit record
// are applied in a deferred block so they run on every exit path,
// including panics inside a dependency.
func RunAuthenticate(ctx context.Context, principal, secret string, deps AuthDeps) (outcome *AuthOutcome, err error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.LoadAccount == nil ||
		deps.StatusError == nil ||
		deps.PolicyValidate == nil ||
		deps.ApplySuccess == nil ||
		deps.ApplyFailure == nil ||
		deps.CreateTicket == nil {
		return nil, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)

	var (
		account AuthAccount
		loaded  bool
	)

	defer func() {
		if r := recover(); r != nil {
			deps.Warn("authcore: authenticate panic recovered: %v", r)
			outcome = nil
			err = deps.Errors.AuthenticationFailed
		}
		if err != nil && !deps.declared(err) {
			deps.Warn("authcore: authenticate internal failure: %v", err)
			err = deps.Errors.AuthenticationFailed
		}
		if err == nil {
			deps.MetricInc(deps.Metrics.Success)
		} else {
			deps.MetricInc(deps.Metrics.Failure)
		}
		userID := ""
		if loaded {
			userID = account.UserID
		}
		deps.EmitAudit(ctx, deps.LoginType, err == nil, userID, ip, err)
	}()

	if principal == "" {
		return nil, deps.Errors.EmptyCredentialField
	}
	if deps.SecretRequired && secret == "" {
		return nil, deps.Errors.EmptyCredentialField
	}

	account, found, err := deps.LoadAccount(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, deps.Errors.UnknownPrincipal
	}
	loaded = true

	if statusErr := deps.StatusError(account.Status); statusErr != nil {
		return nil, statusErr
	}
	if policyErr := deps.PolicyValidate(account); policyErr != nil {
		return nil, policyErr
	}

	if deps.VerifySecret != nil {
		if verifyErr := deps.VerifySecret(ctx, account, secret); verifyErr != nil {
			if deps.credentialMismatch(verifyErr) {
				if applyErr := deps.ApplyFailure(ctx, account); applyErr != nil {
					deps.Warn("authcore: bad-attempt counter update failed: %v", applyErr)
				}
			}
			return nil, verifyErr
		}
	}
	secret = ""

	if applyErr := deps.ApplySuccess(ctx, account); applyErr != nil {
		deps.Warn("authcore: policy state reset failed: %v", applyErr)
	}

	ticketID, ticketExpiresAt, ticketErr := deps.CreateTicket(ctx, account.UserID, account.Username)
	if ticketErr != nil {
		deps.Warn("authcore: ticket creation failed: %v", ticketErr)
		return nil, deps.Errors.SessionCreationFailed
	}

	rememberMeToken := ""
	if deps.IssueRememberMe != nil {
		token, issueErr := deps.IssueRememberMe(ctx, account.UserID, account.Username)
		if issueErr != nil {
			deps.Warn("authcore: remember-me issue failed: %v", issueErr)
		} else {
			rememberMeToken = token
		}
	}

	return &AuthOutcome{
		UserID:          account.UserID,
		Username:        account.Username,
		InstitutionID:   account.InstitutionID,
		TicketID:        ticketID,
		TicketExpiresAt: ticketExpiresAt,
		RememberMeToken: rememberMeToken,
	}, nil
}

// credentialMismatch reports whether err is one of the failures that
// burn a bad-password attempt.
func (d *AuthDeps) credentialMismatch(err error) bool {
	for _, sentinel := range []error{d.Errors.BadCredentials, d.Errors.BadOtpCode, d.Errors.InvalidTrustToken} {
		if sentinel != nil && errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
