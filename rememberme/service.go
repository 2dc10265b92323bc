package rememberme

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veridianlabs/authcore/jwt"
)

// ErrTokenInvalid reports a token whose signature, expiry, or backing
// record failed verification. Callers treat all three the same way.
var ErrTokenInvalid = errors.New("remember-me token invalid")

// Service issues and resolves persistent login tokens backed by a
// Store and a token signer.
//
// Service instances are intended to be configured during initialization
// and then treated as immutable.
type Service struct {
	store    Store
	tokens   *jwt.Manager
	validity time.Duration
	now      func() time.Time
}

func NewService(store Store, tokens *jwt.Manager, validity time.Duration) (*Service, error) {
	if store == nil {
		return nil, errors.New("nil remember-me store")
	}
	if tokens == nil {
		return nil, errors.New("nil token manager")
	}
	if validity <= 0 {
		return nil, errors.New("invalid remember-me validity")
	}
	return &Service{
		store:    store,
		tokens:   tokens,
		validity: validity,
		now:      time.Now,
	}, nil
}

// Issue signs a fresh token for username and upserts its record. Any
// previously issued token for the same username stops resolving once
// the record is replaced.
func (s *Service) Issue(ctx context.Context, userID, username string) (string, *Record, error) {
	if userID == "" || username == "" {
		return "", nil, errors.New("empty remember-me principal")
	}

	now := s.now()
	record := &Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.validity),
	}

	compact, _, err := s.tokens.Sign(username, record.ID, s.validity)
	if err != nil {
		return "", nil, err
	}
	if err := s.store.Save(ctx, record); err != nil {
		return "", nil, err
	}
	return compact, record, nil
}

// Resolve verifies the compact token and returns the backing record.
// Verification requires both a valid signature and a stored record whose
// id matches the token id, so one store-side delete revokes the token.
func (s *Service) Resolve(ctx context.Context, compact string) (*Record, error) {
	if compact == "" {
		return nil, ErrTokenInvalid
	}

	claims, err := s.tokens.Verify(ctx, compact)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	record, err := s.store.Read(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if record.ID != claims.TokenID {
		return nil, ErrTokenInvalid
	}
	return record, nil
}

// Renew exchanges a still-valid token for a fresh one, extending the
// persistent login without a password round trip.
func (s *Service) Renew(ctx context.Context, compact string) (string, *Record, error) {
	record, err := s.Resolve(ctx, compact)
	if err != nil {
		return "", nil, err
	}
	return s.Issue(ctx, record.UserID, record.Username)
}

// Revoke deletes the record for username. Revoking with no outstanding
// record returns ErrNotFound.
func (s *Service) Revoke(ctx context.Context, username string) error {
	deleted, err := s.store.Delete(ctx, username)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
