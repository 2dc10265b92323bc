package authcore

import (
	"context"
	"errors"
	"time"
)

const (
	resultCodeSuccess               = "success"
	resultCodeEmptyField            = "empty_credential_field"
	resultCodeUnknownPrincipal      = "unknown_principal"
	resultCodeAccountLocked         = "account_locked"
	resultCodeAccountDisabled       = "account_disabled"
	resultCodePolicyPending         = "policy_pending"
	resultCodePasswordExpired       = "password_expired"
	resultCodeBadCredentials        = "bad_credentials"
	resultCodeBadOtpCode            = "bad_otp_code"
	resultCodeOtpDeliveryFailed     = "otp_delivery_failed"
	resultCodeInvalidTrustToken     = "invalid_trust_token"
	resultCodeInvalidToken          = "invalid_token"
	resultCodeRememberMeInvalid     = "remember_me_invalid"
	resultCodeSessionCreationFailed = "session_creation_failed"
	resultCodeUnsupportedKind       = "unsupported_credential_kind"
	resultCodeGenericFailure        = "authentication_failed"
)

// authResultCode maps a pipeline error to the stable result code stored
// in login history. Unrecognized errors record the generic code so
// internal detail never reaches the audit trail.
func authResultCode(err error) string {
	switch {
	case err == nil:
		return resultCodeSuccess
	case errors.Is(err, ErrEmptyCredentialField):
		return resultCodeEmptyField
	case errors.Is(err, ErrUnknownPrincipal):
		return resultCodeUnknownPrincipal
	case errors.Is(err, ErrAccountLocked):
		return resultCodeAccountLocked
	case errors.Is(err, ErrAccountDisabled):
		return resultCodeAccountDisabled
	case errors.Is(err, ErrPolicyPending):
		return resultCodePolicyPending
	case errors.Is(err, ErrPasswordExpired):
		return resultCodePasswordExpired
	case errors.Is(err, ErrBadCredentials):
		return resultCodeBadCredentials
	case errors.Is(err, ErrBadOtpCode):
		return resultCodeBadOtpCode
	case errors.Is(err, ErrOtpDeliveryFailed):
		return resultCodeOtpDeliveryFailed
	case errors.Is(err, ErrInvalidTrustToken):
		return resultCodeInvalidTrustToken
	case errors.Is(err, ErrTokenInvalid):
		return resultCodeInvalidToken
	case errors.Is(err, ErrRememberMeInvalid):
		return resultCodeRememberMeInvalid
	case errors.Is(err, ErrSessionCreationFailed):
		return resultCodeSessionCreationFailed
	case errors.Is(err, ErrUnsupportedCredentialKind):
		return resultCodeUnsupportedKind
	default:
		return resultCodeGenericFailure
	}
}

// recordLogin emits one login-history record through the dispatcher.
// Fire and forget: a full buffer or closed dispatcher never fails the
// caller.
func (e *Engine) recordLogin(ctx context.Context, loginType string, success bool, userID, username, sourceIP string, err error) {
	if e == nil || e.audit == nil {
		return
	}

	e.audit.Record(ctx, LoginRecord{
		Timestamp: time.Now(),
		UserID:    userID,
		Username:  username,
		LoginType: loginType,
		SourceIP:  sourceIP,
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Result:    authResultCode(err),
	})
}
