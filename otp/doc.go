// Package otp issues and validates short-lived numeric one-time codes
// delivered out of band, typically over SMS to a registered mobile number.
//
// A challenge is single use. Validation consumes the stored code
// atomically, so a code can never be accepted twice even under
// concurrent validation attempts. Repeated mismatches against the same
// challenge burn it after a configured number of attempts.
package otp
