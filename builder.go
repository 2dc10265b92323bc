package authcore

import (
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/veridianlabs/authcore/jwt"
	"github.com/veridianlabs/authcore/otp"
	"github.com/veridianlabs/authcore/password"
	"github.com/veridianlabs/authcore/rememberme"
	"github.com/veridianlabs/authcore/ticket"
)

// Builder defines a public type used by authcore APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client
	db     *sql.DB
	ownsDB bool

	credentials CredentialStore
	otpSender   otp.Sender
	auditSink   AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithDatabase describes the withdatabase operation and its observable behavior.
//
// WithDatabase does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithDatabase(db *sql.DB) *Builder {
	b.db = db
	b.ownsDB = false
	return b
}

// WithDatabaseDSN opens a pgx-backed database/sql pool for the given
// DSN. The Engine closes it on Close.
func (b *Builder) WithDatabaseDSN(dsn string) *Builder {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		// sql.Open only validates the driver name; a bad DSN surfaces on
		// first use. A nil handle fails Build with a clear error.
		return b
	}
	b.db = db
	b.ownsDB = true
	return b
}

// WithCredentialStore describes the withcredentialstore operation and its observable behavior.
//
// WithCredentialStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.credentials = store
	return b
}

// WithOtpSender describes the withotpsender operation and its observable behavior.
//
// WithOtpSender does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithOtpSender(sender otp.Sender) *Builder {
	b.otpSender = sender
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

func (b *Builder) needsRedis(cfg Config) bool {
	backends := []StoreBackend{
		cfg.Storage.Tickets, cfg.Storage.Revocations,
	}
	if cfg.Login.MFAEnabled {
		backends = append(backends, cfg.Storage.OtpChallenges)
	}
	if cfg.Login.RememberMeEnabled {
		backends = append(backends, cfg.Storage.RememberMe)
	}
	for _, backend := range backends {
		if backend == BackendRedis {
			return true
		}
	}
	return false
}

func (b *Builder) needsDatabase(cfg Config) bool {
	if cfg.Storage.Tickets == BackendDatabase {
		return true
	}
	return cfg.Login.RememberMeEnabled && cfg.Storage.RememberMe == BackendDatabase
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.credentials == nil {
		return nil, errors.New("credential store required")
	}
	if b.needsRedis(cfg) && b.redis == nil {
		return nil, errors.New("selected storage backends require a redis client")
	}
	if b.needsDatabase(cfg) && b.db == nil {
		return nil, errors.New("selected storage backends require a database handle")
	}
	if cfg.Login.MFAEnabled && b.otpSender == nil {
		return nil, errors.New("otp sender required when MFA is enabled")
	}

	engine := &Engine{
		config:      cfg,
		credentials: b.credentials,
		policy:      newPolicyEngine(cfg.Policy, b.credentials),
		db:          b.db,
		ownsDB:      b.ownsDB,
	}

	// -------- PASSWORD HASHER --------
	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = hasher

	// -------- TOKEN SIGNING + REVOCATIONS --------
	var revocations jwt.RevocationRegistry
	if cfg.Storage.Revocations == BackendRedis {
		revocations = jwt.NewRedisRevocations(b.redis, "")
	} else {
		revocations = jwt.NewMemoryRevocations()
	}

	tokens, err := jwt.NewManager(jwt.Config{
		SigningKey: cloneBytes(cfg.Token.SigningKey),
		KeyID:      cfg.Token.KeyID,
		VerifyKeys: cfg.Token.VerifyKeys,
		Issuer:     cfg.Token.Issuer,
		DefaultTTL: cfg.Token.TrustTokenTTL,
		Leeway:     cfg.Token.Leeway,
	}, revocations)
	if err != nil {
		return nil, err
	}
	engine.tokens = tokens

	// -------- SESSION TICKETS --------
	var ticketStore ticket.Store
	switch cfg.Storage.Tickets {
	case BackendRedis:
		ticketStore = ticket.NewRedisStore(b.redis, cfg.Ticket.RedisPrefix)
	case BackendDatabase:
		ticketStore = ticket.NewDBStore(b.db)
	default:
		ticketStore = ticket.NewMemoryStore()
	}
	tickets, err := ticket.NewService(ticketStore, cfg.Ticket.Timeout)
	if err != nil {
		return nil, err
	}
	engine.tickets = tickets

	// -------- OTP CHALLENGES --------
	if cfg.Login.MFAEnabled {
		var otpStore otp.Store
		if cfg.Storage.OtpChallenges == BackendRedis {
			otpStore = otp.NewRedisStore(b.redis, cfg.Otp.RedisPrefix)
		} else {
			otpStore = otp.NewMemoryStore()
		}
		otpService, err := otp.NewService(otpStore, b.otpSender, cfg.Otp.Digits, cfg.Otp.TTL, cfg.Otp.MaxAttempts)
		if err != nil {
			return nil, err
		}
		engine.otp = otpService
	}

	// -------- REMEMBER-ME --------
	if cfg.Login.RememberMeEnabled {
		var rmStore rememberme.Store
		switch cfg.Storage.RememberMe {
		case BackendRedis:
			rmStore = rememberme.NewRedisStore(b.redis, "")
		case BackendDatabase:
			rmStore = rememberme.NewDBStore(b.db)
		default:
			rmStore = rememberme.NewMemoryStore()
		}
		rm, err := rememberme.NewService(rmStore, tokens, cfg.RememberMe.Validity)
		if err != nil {
			return nil, err
		}
		engine.rememberMe = rm
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.verifiers = engine.buildVerifiers()

	b.built = true

	return engine, nil
}
