package authcore

import "errors"

var (
	// ErrEmptyCredentialField is an exported constant or variable used by the authentication engine.
	ErrEmptyCredentialField = errors.New("empty credential field")
	// ErrUnknownPrincipal is an exported constant or variable used by the authentication engine.
	ErrUnknownPrincipal = errors.New("unknown principal")
	// ErrAccountLocked is an exported constant or variable used by the authentication engine.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountDisabled is an exported constant or variable used by the authentication engine.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrPolicyPending is an exported constant or variable used by the authentication engine.
	ErrPolicyPending = errors.New("account pending policy action")
	// ErrPasswordExpired is an exported constant or variable used by the authentication engine.
	ErrPasswordExpired = errors.New("password expired")
	// ErrBadCredentials is an exported constant or variable used by the authentication engine.
	ErrBadCredentials = errors.New("bad credentials")
	// ErrBadOtpCode is an exported constant or variable used by the authentication engine.
	ErrBadOtpCode = errors.New("bad otp code")
	// ErrOtpDeliveryFailed is an exported constant or variable used by the authentication engine.
	ErrOtpDeliveryFailed = errors.New("otp delivery failed")
	// ErrInvalidTrustToken is an exported constant or variable used by the authentication engine.
	ErrInvalidTrustToken = errors.New("invalid trust token")
	// ErrTokenInvalid is an exported constant or variable used by the authentication engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrRememberMeInvalid is an exported constant or variable used by the authentication engine.
	ErrRememberMeInvalid = errors.New("invalid remember-me token")
	// ErrRememberMeDisabled is an exported constant or variable used by the authentication engine.
	ErrRememberMeDisabled = errors.New("remember-me disabled")
	// ErrSessionCreationFailed is an exported constant or variable used by the authentication engine.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrTicketNotFound is an exported constant or variable used by the authentication engine.
	ErrTicketNotFound = errors.New("session ticket not found")
	// ErrTicketExpired is an exported constant or variable used by the authentication engine.
	ErrTicketExpired = errors.New("session ticket expired")
	// ErrUnsupportedCredentialKind is an exported constant or variable used by the authentication engine.
	ErrUnsupportedCredentialKind = errors.New("unsupported credential kind")
	// ErrAuthenticationFailed is an exported constant or variable used by the authentication engine.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrMfaDisabled is an exported constant or variable used by the authentication engine.
	ErrMfaDisabled = errors.New("mfa disabled")
	// ErrStoreUnavailable is an exported constant or variable used by the authentication engine.
	ErrStoreUnavailable = errors.New("backing store unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
