package internaldefs

import (
	authcore "github.com/veridianlabs/authcore"
)

// CounterDef defines a public type used by authcore APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authcore APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the authentication engine.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful authentication attempts."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed authentication attempts."},
	{ID: authcore.MetricOtpIssued, Name: "authcore_otp_issued_total", Help: "One-time codes issued and delivered."},
	{ID: authcore.MetricOtpDeliveryFailed, Name: "authcore_otp_delivery_failed_total", Help: "One-time codes that could not be delivered."},
	{ID: authcore.MetricOtpRejected, Name: "authcore_otp_rejected_total", Help: "Rejected one-time code verifications."},
	{ID: authcore.MetricTicketCreated, Name: "authcore_ticket_created_total", Help: "Created session tickets."},
	{ID: authcore.MetricTicketRenewed, Name: "authcore_ticket_renewed_total", Help: "Renewed session tickets."},
	{ID: authcore.MetricTicketRevoked, Name: "authcore_ticket_revoked_total", Help: "Revoked session tickets."},
	{ID: authcore.MetricTokenSigned, Name: "authcore_token_signed_total", Help: "Signed trust tokens."},
	{ID: authcore.MetricTokenRejected, Name: "authcore_token_rejected_total", Help: "Rejected trust token verifications."},
	{ID: authcore.MetricTokenRevoked, Name: "authcore_token_revoked_total", Help: "Revoked trust tokens."},
	{ID: authcore.MetricRememberMeIssued, Name: "authcore_remember_me_issued_total", Help: "Issued remember-me tokens."},
	{ID: authcore.MetricRememberMeResolved, Name: "authcore_remember_me_resolved_total", Help: "Resolved remember-me tokens."},
	{ID: authcore.MetricRememberMeRejected, Name: "authcore_remember_me_rejected_total", Help: "Rejected remember-me tokens."},
	{ID: authcore.MetricAccountLockedOut, Name: "authcore_account_locked_out_total", Help: "Accounts locked out by the bad-password policy."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Logout operations."},
	{ID: authcore.MetricStoreFailure, Name: "authcore_store_failure_total", Help: "Backend store failures."},
}

// HistogramDefs is an exported constant or variable used by the authentication engine.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricAuthenticateLatency, Name: "authcore_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the authentication engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the authentication engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
