package authcore

import (
	"errors"
	"time"
)

// StoreBackend selects the persistence backend for one store at process
// start.
type StoreBackend int

const (
	// BackendMemory is an exported constant or variable used by the authentication engine.
	BackendMemory StoreBackend = iota
	// BackendRedis is an exported constant or variable used by the authentication engine.
	BackendRedis
	// BackendDatabase is an exported constant or variable used by the authentication engine.
	BackendDatabase
)

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Login      LoginConfig
	Policy     PolicyConfig
	Ticket     TicketConfig
	Token      TokenConfig
	Otp        OtpConfig
	RememberMe RememberMeConfig
	Password   PasswordConfig
	Storage    StorageConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig defines a public type used by authcore APIs.
//
// LoginConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginConfig struct {
	// MFAEnabled gates the mobile-otp verification step. When false, a
	// mobile-otp credential is treated as already satisfied.
	MFAEnabled bool
	// RememberMeEnabled gates remember-me issuance and resolution.
	RememberMeEnabled bool
}

/*
====================================
POLICY CONFIG
====================================
*/

// PolicyConfig defines a public type used by authcore APIs.
//
// PolicyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PolicyConfig struct {
	// MaxBadPasswords is the lockout threshold. Reaching it flips the
	// account status to Locked.
	MaxBadPasswords int
	// PasswordMaxAge bounds password lifetime. Zero disables the expiry
	// check.
	PasswordMaxAge time.Duration
}

/*
====================================
TICKET CONFIG
====================================
*/

// TicketConfig defines a public type used by authcore APIs.
//
// TicketConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TicketConfig struct {
	Timeout     time.Duration
	RedisPrefix string
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by authcore APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	// SigningKey is the process-wide HMAC-SHA512 key. Rotation is modeled
	// as a new KeyID added to VerifyKeys, never in-place replacement.
	SigningKey []byte
	KeyID      string
	VerifyKeys map[string][]byte
	Issuer     string
	// TrustTokenTTL bounds trust tokens issued for delegated re-entry.
	TrustTokenTTL time.Duration
	Leeway        time.Duration
}

/*
====================================
OTP CONFIG
====================================
*/

// OtpConfig defines a public type used by authcore APIs.
//
// OtpConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OtpConfig struct {
	Digits      int
	TTL         time.Duration
	MaxAttempts int
	RedisPrefix string
}

/*
====================================
REMEMBER-ME CONFIG
====================================
*/

// RememberMeConfig defines a public type used by authcore APIs.
//
// RememberMeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RememberMeConfig struct {
	Validity time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by authcore APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig selects the backend per store. Semantics are identical
// across backends; the choice is operational.
type StorageConfig struct {
	Tickets       StoreBackend
	OtpChallenges StoreBackend
	RememberMe    StoreBackend
	Revocations   StoreBackend
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by authcore APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by authcore APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration. Callers set the key
// material and enable optional features, then pass the result to
// [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Login: LoginConfig{
			MFAEnabled:        false,
			RememberMeEnabled: false,
		},
		Policy: PolicyConfig{
			MaxBadPasswords: 5,
			PasswordMaxAge:  0,
		},
		Ticket: TicketConfig{
			Timeout:     30 * time.Minute,
			RedisPrefix: "atk",
		},
		Token: TokenConfig{
			Issuer:        "authcore",
			TrustTokenTTL: 5 * time.Minute,
			Leeway:        30 * time.Second,
		},
		Otp: OtpConfig{
			Digits:      6,
			TTL:         5 * time.Minute,
			MaxAttempts: 5,
			RedisPrefix: "aoc",
		},
		RememberMe: RememberMeConfig{
			Validity: 7 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Storage: StorageConfig{
			Tickets:       BackendMemory,
			OtpChallenges: BackendMemory,
			RememberMe:    BackendMemory,
			Revocations:   BackendMemory,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.SigningKey = cloneBytes(cfg.Token.SigningKey)
	if cfg.Token.VerifyKeys != nil {
		out.Token.VerifyKeys = make(map[string][]byte, len(cfg.Token.VerifyKeys))
		for kid, key := range cfg.Token.VerifyKeys {
			out.Token.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
func (c *Config) Validate() error {
	// Policy
	if c.Policy.MaxBadPasswords <= 0 {
		return errors.New("Policy MaxBadPasswords must be > 0")
	}
	if c.Policy.PasswordMaxAge < 0 {
		return errors.New("Policy PasswordMaxAge must be >= 0")
	}

	// Ticket
	if c.Ticket.Timeout <= 0 {
		return errors.New("Ticket Timeout must be > 0")
	}

	// Token
	if len(c.Token.SigningKey) < 32 {
		return errors.New("Token SigningKey must be >= 32 bytes")
	}
	if c.Token.KeyID == "" {
		return errors.New("Token KeyID is required")
	}
	if c.Token.TrustTokenTTL <= 0 {
		return errors.New("Token TrustTokenTTL must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2 minutes")
	}

	// Otp
	if c.Login.MFAEnabled {
		if c.Otp.Digits < 4 || c.Otp.Digits > 10 {
			return errors.New("Otp Digits must be between 4 and 10")
		}
		if c.Otp.TTL <= 0 {
			return errors.New("Otp TTL must be > 0")
		}
		if c.Otp.MaxAttempts <= 0 {
			return errors.New("Otp MaxAttempts must be > 0")
		}
	}

	// RememberMe
	if c.Login.RememberMeEnabled && c.RememberMe.Validity <= 0 {
		return errors.New("RememberMe Validity must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Storage
	for _, backend := range []StoreBackend{
		c.Storage.Tickets, c.Storage.OtpChallenges, c.Storage.RememberMe, c.Storage.Revocations,
	} {
		switch backend {
		case BackendMemory, BackendRedis, BackendDatabase:
		default:
			return errors.New("Storage backend is invalid")
		}
	}
	if c.Storage.OtpChallenges == BackendDatabase {
		return errors.New("Storage OtpChallenges does not support the database backend")
	}
	if c.Storage.Revocations == BackendDatabase {
		return errors.New("Storage Revocations does not support the database backend")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
