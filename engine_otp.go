package authcore

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/veridianlabs/authcore/otp"
)

// RequestOtp issues a fresh one-time code for principal and hands it to
// the configured delivery channel (the account's registered mobile
// number). A new request supersedes any pending code for the same
// account.
//
// RequestOtp may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) RequestOtp(ctx context.Context, principal string) error {
	if e == nil || e.credentials == nil {
		return ErrEngineNotReady
	}
	if e.otp == nil {
		return ErrMfaDisabled
	}
	if principal == "" {
		return ErrEmptyCredentialField
	}

	account, err := e.credentials.LoadByPrincipal(ctx, principal)
	if err != nil {
		if errors.Is(err, ErrUnknownPrincipal) {
			return ErrUnknownPrincipal
		}
		e.metricInc(MetricStoreFailure)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if account == nil {
		return ErrUnknownPrincipal
	}

	if statusErr := statusError(uint8(account.Status)); statusErr != nil {
		return statusErr
	}
	if account.Mobile == "" {
		return ErrOtpDeliveryFailed
	}

	if err := e.otp.Issue(ctx, account.ID, otp.ChannelSMS, account.Mobile); err != nil {
		if errors.Is(err, otp.ErrDeliveryFailed) {
			e.metricInc(MetricOtpDeliveryFailed)
			return ErrOtpDeliveryFailed
		}
		e.metricInc(MetricStoreFailure)
		log.Printf("authcore: otp issue failed: %v", err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricOtpIssued)
	return nil
}
