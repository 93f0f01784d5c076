package sessauth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/sessauth/password"
)

// SecurityReport summarises the effective security settings of an engine.
// It never includes the secret.
type SecurityReport struct {
	ProductionMode   bool
	SigningAlgorithm string
	TokenTTL         time.Duration
	Leeway           time.Duration
	SecretBytes      int
	HashAlgorithm    password.Algorithm
	BcryptCost       int
	Argon2           password.Argon2Config
	HashConcurrency  int
	CookieName       string
	CookieSecure     bool
	CookieHTTPOnly   bool
	CookieSameSite   string
	CSRFProtection   bool
	AuditEnabled     bool
	Warnings         []string
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	alg := e.config.Password.Algorithm
	if alg == "" {
		alg = password.AlgorithmBcrypt
	}

	return SecurityReport{
		ProductionMode:   e.config.Security.ProductionMode,
		SigningAlgorithm: "HS256",
		TokenTTL:         e.config.JWT.TTL,
		Leeway:           e.config.JWT.Leeway,
		SecretBytes:      len(e.config.JWT.Secret),
		HashAlgorithm:    alg,
		BcryptCost:       e.config.Password.BcryptCost,
		Argon2:           e.config.Password.Argon2,
		HashConcurrency:  e.config.Password.MaxConcurrent,
		CookieName:       e.cookies.Name,
		CookieSecure:     e.cookies.Secure,
		CookieHTTPOnly:   true,
		CookieSameSite:   sameSiteName(e.cookies.SameSite),
		CSRFProtection:   e.config.Security.CSRFProtection,
		AuditEnabled:     e.config.Audit.Enabled,
		Warnings:         e.config.Lint().Codes(),
	}
}

// LogValue renders the report as a single structured log attribute group.
func (r SecurityReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("production", r.ProductionMode),
		slog.String("signing_alg", r.SigningAlgorithm),
		slog.Duration("token_ttl", r.TokenTTL),
		slog.String("hash_alg", string(r.HashAlgorithm)),
		slog.Int("hash_concurrency", r.HashConcurrency),
		slog.Bool("cookie_secure", r.CookieSecure),
		slog.String("cookie_same_site", r.CookieSameSite),
		slog.Bool("csrf", r.CSRFProtection),
		slog.Any("warnings", r.Warnings),
	)
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteNoneMode:
		return "none"
	case http.SameSiteLaxMode:
		return "lax"
	default:
		return "default"
	}
}
