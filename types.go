package authcore

import (
	"context"
	"time"
)

// AccountStatus represents the lifecycle state of a user account.
type AccountStatus uint8

const (
	// AccountActive is an exported constant or variable used by the authentication engine.
	AccountActive AccountStatus = iota
	// AccountLocked is an exported constant or variable used by the authentication engine.
	AccountLocked
	// AccountDisabled is an exported constant or variable used by the authentication engine.
	AccountDisabled
	// AccountPendingPolicy is an exported constant or variable used by the authentication engine.
	AccountPendingPolicy
)

// CredentialKind selects the provider variant that verifies a credential.
type CredentialKind uint8

const (
	// CredentialPassword is an exported constant or variable used by the authentication engine.
	CredentialPassword CredentialKind = iota
	// CredentialMobileOtp is an exported constant or variable used by the authentication engine.
	CredentialMobileOtp
	// CredentialTrusted is an exported constant or variable used by the authentication engine.
	CredentialTrusted
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialPassword:
		return "password"
	case CredentialMobileOtp:
		return "mobile-otp"
	case CredentialTrusted:
		return "trusted"
	default:
		return "unknown"
	}
}

// Credential is the input presented by a caller for one login attempt.
// It is transient; the secret is cleared as soon as verification
// completes.
type Credential struct {
	Principal string
	// Secret holds the password, one-time code, or compact trust token
	// depending on Kind.
	Secret string
	Kind   CredentialKind
	// RememberMe requests a persistent login token alongside the session
	// ticket. Honored only when remember-me is enabled in configuration.
	RememberMe bool
}

// UserAccount is the account record returned by [CredentialStore].
// It carries the credential hash, status, and policy counters.
type UserAccount struct {
	ID                string
	Username          string
	InstitutionID     string
	PasswordHash      string
	Mobile            string
	Status            AccountStatus
	BadPasswordCount  int
	PasswordChangedAt time.Time
}

// Principal is the authenticated identity result of a successful login.
type Principal struct {
	UserID        string
	Username      string
	InstitutionID string
}

// AuthResult is returned by [Engine.Authenticate]. It contains the
// authenticated principal, the issued session ticket, and, when
// requested and enabled, a remember-me token for client storage.
type AuthResult struct {
	Principal Principal

	TicketID        string
	TicketExpiresAt time.Time

	RememberMeToken string
}

// CredentialStore is the primary interface that callers must implement
// to integrate authcore with their user database. It covers account
// lookup and the durable policy-state mutations the pipeline performs.
//
// IncrementBadPasswords must be atomic at the backend (INCR,
// UPDATE ... RETURNING, or equivalent): two concurrent wrong-password
// attempts must both count. It returns the post-increment counter value.
type CredentialStore interface {
	LoadByPrincipal(ctx context.Context, principal string) (*UserAccount, error)
	PersistPolicyState(ctx context.Context, account *UserAccount) error
	IncrementBadPasswords(ctx context.Context, userID string) (int, error)
}
