package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/sessauth"
	"github.com/MrEthical07/sessauth/password"
	"github.com/MrEthical07/sessauth/session"
)

// Default values for configuration flags.
const (
	defaultHTTPAddr    = "127.0.0.1:8080"
	defaultMetricsAddr = "127.0.0.1:9100"
	defaultLogFormat   = "json"
	defaultStoreDriver = "memory"
)

// Store drivers accepted by store.driver.
const (
	driverMemory   = "memory"
	driverPostgres = "postgres"
	driverRedis    = "redis"
)

// daemonConfig is the flattened daemon configuration. Keys mirror the yaml
// layout, so "jwt.ttl" in a file and --jwt.ttl on the command line set the
// same value. Flags override the file.
type daemonConfig struct {
	HTTPAddr    string
	MetricsAddr string
	LogFormat   string
	LogLevel    string

	JWTSecret     string
	JWTSecretFile string
	JWTTTL        time.Duration
	JWTIssuer     string

	PasswordAlgorithm string
	BcryptCost        int
	MaxConcurrent     int

	CookieName     string
	CookieDomain   string
	CookieSameSite string

	Production bool
	CSRF       bool
	Audit      bool

	StoreDriver string
	StoreDSN    string
	RedisAddr   string
	RedisPrefix string
}

// registerConfigFlags declares every configuration key on fs.
func registerConfigFlags(fs *pflag.FlagSet) {
	fs.String("http.addr", defaultHTTPAddr, "API listen address")
	fs.String("metrics.addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log.format", defaultLogFormat, "log format (json or text)")
	fs.String("log.level", "info", "log level (debug, info, warn, error)")

	fs.String("jwt.secret", "", "HS256 signing secret")
	fs.String("jwt.secret_file", "", "file holding the HS256 signing secret")
	fs.Duration("jwt.ttl", sessauth.DefaultTokenTTL, "session token lifetime")
	fs.String("jwt.issuer", "sessauth", "token issuer claim")

	fs.String("password.algorithm", string(password.AlgorithmBcrypt), "hash algorithm for new passwords (bcrypt or argon2id)")
	fs.Int("password.bcrypt_cost", password.DefaultBcryptCost, "bcrypt work factor")
	fs.Int("password.max_concurrent", 0, "parallel hash operations (0 = GOMAXPROCS)")

	fs.String("cookie.name", "token", "session cookie name")
	fs.String("cookie.domain", "", "session cookie domain")
	fs.String("cookie.same_site", "lax", "session cookie SameSite (lax, strict, none)")

	fs.Bool("security.production", false, "enable production hardening")
	fs.Bool("security.csrf", false, "require a CSRF token on register and login")
	fs.Bool("audit.enabled", false, "log audit events")

	addStoreFlags(fs)
}

func addStoreFlags(fs *pflag.FlagSet) {
	fs.String("store.driver", defaultStoreDriver, "user store (memory, postgres, redis)")
	fs.String("store.dsn", "", "PostgreSQL connection string")
	fs.String("store.redis_addr", "", "Redis address")
	fs.String("store.redis_prefix", "", "Redis key prefix")
}

// loadConfig layers the optional yaml file at path under the flags in fs.
func loadConfig(path string, fs *pflag.FlagSet) (daemonConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return daemonConfig{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return daemonConfig{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
	}

	return daemonConfig{
		HTTPAddr:    k.String("http.addr"),
		MetricsAddr: k.String("metrics.addr"),
		LogFormat:   k.String("log.format"),
		LogLevel:    k.String("log.level"),

		JWTSecret:     k.String("jwt.secret"),
		JWTSecretFile: k.String("jwt.secret_file"),
		JWTTTL:        k.Duration("jwt.ttl"),
		JWTIssuer:     k.String("jwt.issuer"),

		PasswordAlgorithm: k.String("password.algorithm"),
		BcryptCost:        k.Int("password.bcrypt_cost"),
		MaxConcurrent:     k.Int("password.max_concurrent"),

		CookieName:     k.String("cookie.name"),
		CookieDomain:   k.String("cookie.domain"),
		CookieSameSite: k.String("cookie.same_site"),

		Production: k.Bool("security.production"),
		CSRF:       k.Bool("security.csrf"),
		Audit:      k.Bool("audit.enabled"),

		StoreDriver: k.String("store.driver"),
		StoreDSN:    k.String("store.dsn"),
		RedisAddr:   k.String("store.redis_addr"),
		RedisPrefix: k.String("store.redis_prefix"),
	}, nil
}

// Validate checks settings the engine does not see.
func (c daemonConfig) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("log.format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if c.JWTSecret != "" && c.JWTSecretFile != "" {
		return fmt.Errorf("jwt.secret and jwt.secret_file are mutually exclusive")
	}

	switch c.StoreDriver {
	case driverMemory:
	case driverPostgres:
		if c.StoreDSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres driver")
		}
	case driverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.StoreDriver)
	}
	return nil
}

// secret returns the signing secret from jwt.secret or jwt.secret_file.
// Trailing newlines in the file are ignored.
func (c daemonConfig) secret() ([]byte, error) {
	if c.JWTSecretFile == "" {
		return []byte(c.JWTSecret), nil
	}

	b, err := os.ReadFile(c.JWTSecretFile)
	if err != nil {
		return nil, oops.Code("SECRET_READ_FAILED").With("path", c.JWTSecretFile).Wrap(err)
	}
	return bytes.TrimRight(b, "\r\n"), nil
}

// engineConfig maps the daemon settings onto a validated engine config.
func (c daemonConfig) engineConfig() (sessauth.Config, error) {
	secret, err := c.secret()
	if err != nil {
		return sessauth.Config{}, err
	}

	cfg := sessauth.DefaultConfig()
	if c.Production {
		cfg = sessauth.ProductionConfig(secret)
	}
	cfg.JWT.Secret = secret
	cfg.JWT.TTL = c.JWTTTL
	cfg.JWT.Issuer = c.JWTIssuer

	cfg.Password.Algorithm = password.Algorithm(c.PasswordAlgorithm)
	cfg.Password.BcryptCost = c.BcryptCost
	if c.MaxConcurrent > 0 {
		cfg.Password.MaxConcurrent = c.MaxConcurrent
	}

	sameSite, err := session.ParseSameSite(c.CookieSameSite)
	if err != nil {
		return sessauth.Config{}, oops.Code("CONFIG_INVALID").With("key", "cookie.same_site").Wrap(err)
	}
	cfg.Cookie.Name = c.CookieName
	cfg.Cookie.Domain = c.CookieDomain
	cfg.Cookie.SameSite = sameSite
	if sameSite == http.SameSiteNoneMode {
		cfg.Cookie.Secure = true
	}

	cfg.Security.CSRFProtection = cfg.Security.CSRFProtection || c.CSRF
	cfg.Audit.Enabled = c.Audit

	if err := cfg.Validate(); err != nil {
		return sessauth.Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}
