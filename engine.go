package authcore

import (
	"database/sql"
	"time"

	"github.com/veridianlabs/authcore/internal/flows"
	"github.com/veridianlabs/authcore/jwt"
	"github.com/veridianlabs/authcore/otp"
	"github.com/veridianlabs/authcore/password"
	"github.com/veridianlabs/authcore/rememberme"
	"github.com/veridianlabs/authcore/ticket"
)

// Engine defines a public type used by authcore APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	credentials  CredentialStore
	policy       *policyEngine
	passwordHash *password.Hasher
	tokens       *jwt.Manager
	tickets      *ticket.Service
	otp          *otp.Service
	rememberMe   *rememberme.Service
	audit        *auditDispatcher
	metrics      *Metrics
	verifiers    map[CredentialKind]verifyFunc
	db           *sql.DB
	ownsDB       bool
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.ownsDB && e.db != nil {
		_ = e.db.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeLatency(id MetricID, start time.Time) {
	if e == nil || e.metrics == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// statusError maps a non-active account status to its sentinel.
func statusError(status uint8) error {
	switch AccountStatus(status) {
	case AccountActive:
		return nil
	case AccountLocked:
		return ErrAccountLocked
	case AccountDisabled:
		return ErrAccountDisabled
	case AccountPendingPolicy:
		return ErrPolicyPending
	default:
		return ErrAccountDisabled
	}
}

func toFlowAccount(account *UserAccount) flows.AuthAccount {
	return flows.AuthAccount{
		UserID:           account.ID,
		Username:         account.Username,
		InstitutionID:    account.InstitutionID,
		PasswordHash:     account.PasswordHash,
		Mobile:           account.Mobile,
		Status:           uint8(account.Status),
		BadPasswordCount: account.BadPasswordCount,
	}
}

