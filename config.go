package sessauth

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/MrEthical07/sessauth/password"
)

const (
	// DefaultTokenTTL is the session lifetime when none is configured.
	DefaultTokenTTL = 24 * time.Hour
	// MinProductionSecretBytes is the shortest HS256 secret accepted in
	// production mode.
	MinProductionSecretBytes = 32

	maxLeeway = 2 * time.Minute
)

// Config is the complete engine configuration. Treat it as immutable once
// passed to [Builder.WithConfig].
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	Cookie   CookieConfig
	Metrics  MetricsConfig
	Audit    AuditConfig
	Security SecurityConfig
}

// JWTConfig configures session token signing. Secret is process-wide and is
// never rotated while the engine runs.
type JWTConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Leeway time.Duration
}

// PasswordConfig configures hashing. MaxConcurrent bounds parallel hash and
// verify calls.
type PasswordConfig struct {
	password.Config
	MaxConcurrent  int
	UpgradeOnLogin bool
}

// CookieConfig configures the session cookie.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// MetricsConfig toggles in-process counters and the hash latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// AuditConfig configures asynchronous audit event dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// SecurityConfig holds deployment-level switches.
type SecurityConfig struct {
	ProductionMode bool
	CSRFProtection bool
}

// DefaultConfig returns a development configuration. A secret must still be
// supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			TTL:    DefaultTokenTTL,
			Issuer: "sessauth",
		},
		Password: PasswordConfig{
			Config:         password.DefaultConfig(),
			MaxConcurrent:  runtime.GOMAXPROCS(0),
			UpgradeOnLogin: true,
		},
		Cookie: CookieConfig{
			Name:     "token",
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
		},
		Metrics: MetricsConfig{Enabled: true},
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

// ProductionConfig returns DefaultConfig with production switches on.
func ProductionConfig(secret []byte) Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = cloneBytes(secret)
	cfg.Cookie.Secure = true
	cfg.Security.ProductionMode = true
	cfg.Security.CSRFProtection = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
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

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if len(c.JWT.Secret) == 0 {
		return errors.New("jwt secret is required")
	}
	if c.Security.ProductionMode && len(c.JWT.Secret) < MinProductionSecretBytes {
		return fmt.Errorf("jwt secret must be at least %d bytes in production mode", MinProductionSecretBytes)
	}
	if c.JWT.TTL <= 0 {
		return errors.New("jwt ttl must be positive")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > maxLeeway {
		return fmt.Errorf("jwt leeway must be between 0 and %s", maxLeeway)
	}

	switch c.Password.Algorithm {
	case "", password.AlgorithmBcrypt, password.AlgorithmArgon2id:
	default:
		return fmt.Errorf("unsupported password algorithm %q", c.Password.Algorithm)
	}
	if err := c.Password.Argon2.Validate(); err != nil {
		return err
	}
	if c.Password.MaxConcurrent < 0 {
		return errors.New("password max concurrent must not be negative")
	}

	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("cookie name is required")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("SameSite=None cookies require Secure")
	}
	if c.Security.ProductionMode && !c.Cookie.Secure {
		return errors.New("production mode requires secure cookies")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}

	return nil
}
