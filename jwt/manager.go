package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid is returned by [Manager.Verify] for every verification
// failure. The wrapped cause distinguishes sub-reasons for logging.
var ErrInvalid = errors.New("invalid token")

const minKeyBytes = 32

// Config defines the signing material and validation bounds for a [Manager].
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	// SigningKey is the HMAC-SHA512 key used to sign new tokens.
	SigningKey []byte
	// KeyID identifies SigningKey and is embedded in every token header.
	KeyID string
	// VerifyKeys holds additional verification keys by key id. Rotation is
	// modeled as a new KeyID added alongside the old entries, never as
	// in-place replacement of key material.
	VerifyKeys map[string][]byte
	Issuer     string
	// DefaultTTL applies when Sign is called with a zero TTL.
	DefaultTTL time.Duration
	Leeway     time.Duration
}

// TokenClaims is the decoded claim set of a compact token.
type TokenClaims struct {
	Subject   string
	TokenID   string
	KeyID     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager signs and verifies compact tokens. It is safe for concurrent use.
//
// Manager instances are intended to be configured during initialization and
// then treated as immutable.
type Manager struct {
	config      Config
	verifyKeys  map[string][]byte
	revocations RevocationRegistry
}

// NewManager validates cfg and returns a token manager bound to the given
// revocation registry. A nil registry disables revocation checks.
func NewManager(cfg Config, revocations RevocationRegistry) (*Manager, error) {
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	if len(cfg.SigningKey) < minKeyBytes {
		return nil, fmt.Errorf("signing key must be at least %d bytes", minKeyBytes)
	}
	if cfg.KeyID == "" {
		return nil, errors.New("key id is required")
	}
	if cfg.DefaultTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	verifyKeys := make(map[string][]byte, len(cfg.VerifyKeys)+1)
	for kid, key := range cfg.VerifyKeys {
		if strings.TrimSpace(kid) == "" {
			return nil, errors.New("verify key map contains empty kid")
		}
		if len(key) < minKeyBytes {
			return nil, fmt.Errorf("verify key for kid %q too short", kid)
		}
		verifyKeys[kid] = key
	}
	verifyKeys[cfg.KeyID] = cfg.SigningKey

	return &Manager{
		config:      cfg,
		verifyKeys:  verifyKeys,
		revocations: revocations,
	}, nil
}

// Sign issues a compact token for subject. An empty tokenID draws a fresh
// random identifier; a zero ttl falls back to the configured default.
func (m *Manager) Sign(subject, tokenID string, ttl time.Duration) (string, TokenClaims, error) {
	if subject == "" {
		return "", TokenClaims{}, errors.New("empty subject")
	}
	if tokenID == "" {
		tokenID = uuid.NewString()
	}
	if ttl <= 0 {
		ttl = m.config.DefaultTTL
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        tokenID,
		Issuer:    m.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	token.Header["kid"] = m.config.KeyID

	compact, err := token.SignedString(m.config.SigningKey)
	if err != nil {
		return "", TokenClaims{}, err
	}

	return compact, TokenClaims{
		Subject:   subject,
		TokenID:   tokenID,
		KeyID:     m.config.KeyID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Verify checks signature integrity, time bounds, and the revocation
// registry. Every failure is reported as [ErrInvalid] with the sub-reason
// wrapped for internal logging.
func (m *Manager) Verify(ctx context.Context, compact string) (*TokenClaims, error) {
	if compact == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalid)
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	var kid string
	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(compact, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		kid, _ = t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := m.verifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: malformed claims", ErrInvalid)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing token id", ErrInvalid)
	}

	if m.revocations != nil {
		revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: revocation lookup: %v", ErrInvalid, err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", ErrInvalid)
		}
	}

	decoded := &TokenClaims{
		Subject: claims.Subject,
		TokenID: claims.ID,
		KeyID:   kid,
	}
	if claims.IssuedAt != nil {
		decoded.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		decoded.ExpiresAt = claims.ExpiresAt.Time
	}
	return decoded, nil
}

// Revoke marks tokenID invalid until expiresAt. Entries past their natural
// expiry are garbage-collected by the registry, so the ticket of a token
// that already lapsed needs no entry at all.
func (m *Manager) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if m.revocations == nil {
		return errors.New("no revocation registry configured")
	}
	if tokenID == "" {
		return errors.New("empty token id")
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return m.revocations.Revoke(ctx, tokenID, ttl)
}
