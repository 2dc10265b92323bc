package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veridianlabs/authcore/rememberme"
	"github.com/veridianlabs/authcore/ticket"
)

// TicketInfo is the caller-facing view of a live session ticket.
type TicketInfo struct {
	ID           string
	UserID       string
	Username     string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	LastAccessAt time.Time
}

func ticketInfo(t *ticket.Ticket) *TicketInfo {
	return &TicketInfo{
		ID:           t.ID,
		UserID:       t.UserID,
		Username:     t.Username,
		IssuedAt:     t.IssuedAt,
		ExpiresAt:    t.ExpiresAt,
		LastAccessAt: t.LastAccessAt,
	}
}

func (e *Engine) ticketError(err error) error {
	switch {
	case errors.Is(err, ticket.ErrNotFound):
		return ErrTicketNotFound
	case errors.Is(err, ticket.ErrExpired):
		return ErrTicketExpired
	default:
		e.metricInc(MetricStoreFailure)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

// LookupTicket returns the live ticket or ErrTicketNotFound. A ticket
// past its deadline reads as ErrTicketExpired exactly once on backends
// that lazily sweep; afterwards it reads as not found.
func (e *Engine) LookupTicket(ctx context.Context, ticketID string) (*TicketInfo, error) {
	if e == nil || e.tickets == nil {
		return nil, ErrEngineNotReady
	}
	t, err := e.tickets.Lookup(ctx, ticketID)
	if err != nil {
		return nil, e.ticketError(err)
	}
	return ticketInfo(t), nil
}

// RenewTicket extends the session by the configured timeout measured
// from now. The deadline never moves backwards. A lapsed ticket cannot
// be renewed; the caller must re-authenticate.
//
// RenewTicket may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) RenewTicket(ctx context.Context, ticketID string) (*TicketInfo, error) {
	if e == nil || e.tickets == nil {
		return nil, ErrEngineNotReady
	}
	t, err := e.tickets.Renew(ctx, ticketID)
	if err != nil {
		return nil, e.ticketError(err)
	}
	e.metricInc(MetricTicketRenewed)
	return ticketInfo(t), nil
}

// Logout revokes the session ticket and, when remember-me is enabled,
// withdraws the account's stored remember-me record so outstanding
// tokens stop resolving. Logging out an unknown ticket returns
// ErrTicketNotFound without touching remember-me state.
func (e *Engine) Logout(ctx context.Context, ticketID string) error {
	if e == nil || e.tickets == nil {
		return ErrEngineNotReady
	}

	t, err := e.tickets.Lookup(ctx, ticketID)
	if err != nil {
		return e.ticketError(err)
	}

	if err := e.tickets.Revoke(ctx, ticketID); err != nil {
		return e.ticketError(err)
	}
	e.metricInc(MetricTicketRevoked)

	if e.rememberMe != nil && t.Username != "" {
		if err := e.rememberMe.Revoke(ctx, t.Username); err != nil && !errors.Is(err, rememberme.ErrNotFound) {
			e.metricInc(MetricStoreFailure)
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	e.metricInc(MetricLogout)
	e.recordLogin(ctx, "logout", true, t.UserID, t.Username, clientIPFromContext(ctx), nil)
	return nil
}

// IssueTrustToken signs a short-lived trust token bound to the
// ticket's account. The token authenticates as [CredentialTrusted]
// until it expires or is revoked, letting a cooperating service carry
// an already-established identity across a process boundary.
func (e *Engine) IssueTrustToken(ctx context.Context, ticketID string) (string, error) {
	if e == nil || e.tickets == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}

	t, err := e.tickets.Lookup(ctx, ticketID)
	if err != nil {
		return "", e.ticketError(err)
	}

	compact, _, err := e.tokens.Sign(t.Username, "", e.config.Token.TrustTokenTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	e.metricInc(MetricTokenSigned)
	return compact, nil
}

// RevokeTrustToken verifies the compact token and registers its id
// with the revocation registry until the token would have expired on
// its own. A token that does not verify returns ErrTokenInvalid.
func (e *Engine) RevokeTrustToken(ctx context.Context, compact string) error {
	if e == nil || e.tokens == nil {
		return ErrEngineNotReady
	}

	claims, err := e.tokens.Verify(ctx, compact)
	if err != nil {
		return ErrTokenInvalid
	}

	if err := e.tokens.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		e.metricInc(MetricStoreFailure)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	e.metricInc(MetricTokenRevoked)
	return nil
}
