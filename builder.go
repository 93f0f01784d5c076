package sessauth

import (
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/sessauth/internal"
	"github.com/MrEthical07/sessauth/jwt"
	"github.com/MrEthical07/sessauth/password"
	"github.com/MrEthical07/sessauth/session"
)

// Builder assembles an [Engine]. A Builder can build once.
type Builder struct {
	config    Config
	store     UserStore
	auditSink AuditSink
	logger    *slog.Logger
	clock     func() time.Time
	newID     func() string

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the credential store. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.store = store
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. The default discards.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for token timestamps, audit events and
// cookie lifetimes.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithIDGenerator overrides user id generation (uuid v4 by default).
func (b *Builder) WithIDGenerator(newID func() string) *Builder {
	b.newID = newID
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and constructs the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("user store required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clock := b.clock
	if clock == nil {
		clock = time.Now
	}
	newID := b.newID
	if newID == nil {
		newID = uuid.NewString
	}

	hasher, err := password.New(cfg.Password.Config)
	if err != nil {
		return nil, err
	}

	// Verified against when the email is unknown; the plaintext is discarded.
	dummyPlain, err := internal.RandomToken(internal.MinTokenBytes)
	if err != nil {
		return nil, err
	}
	dummyHash, err := hasher.Hash(dummyPlain)
	if err != nil {
		return nil, err
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.TTL,
		Issuer: cfg.JWT.Issuer,
		Leeway: cfg.JWT.Leeway,
		Now:    clock,
	})
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics(cfg.Metrics)

	workers := cfg.Password.MaxConcurrent
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pool := password.NewPool(hasher, workers).WithObserver(func(d time.Duration) {
		metrics.Observe(MetricHashLatency, d)
	})

	engine := &Engine{
		config:    cfg,
		store:     b.store,
		hasher:    pool,
		tokens:    tokens,
		dummyHash: dummyHash,
		cookies: session.CookiePolicy{
			Name:     cfg.Cookie.Name,
			Path:     cfg.Cookie.Path,
			Domain:   cfg.Cookie.Domain,
			Secure:   cfg.Cookie.Secure,
			SameSite: cfg.Cookie.SameSite,
			Now:      clock,
		},
		metrics: metrics,
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		logger:  logger,
		clock:   clock,
		newID:   newID,
	}

	b.built = true
	return engine, nil
}
