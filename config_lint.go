package sessauth

import (
	"time"

	"github.com/MrEthical07/sessauth/password"
)

// LintWarning is a non-fatal configuration finding.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	codes := make([]string, len(ws))
	for i, w := range ws {
		codes[i] = w.Code
	}
	return codes
}

// Lint reports settings that are valid but risky.
func (c Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code, msg string) {
		ws = append(ws, LintWarning{Code: code, Message: msg})
	}

	if len(c.JWT.Secret) > 0 && len(c.JWT.Secret) < MinProductionSecretBytes {
		add("secret_short", "jwt secret is shorter than 32 bytes")
	}
	if c.JWT.TTL > 7*24*time.Hour {
		add("ttl_long", "session tokens cannot be revoked; TTL above 7 days widens exposure")
	}
	if c.JWT.TTL > 0 && c.JWT.TTL < time.Minute {
		add("ttl_short", "session TTL below one minute forces constant re-login")
	}
	if c.JWT.Leeway > time.Minute {
		add("leeway_large", "jwt leeway above one minute")
	}

	alg := c.Password.Algorithm
	if alg == "" {
		alg = password.AlgorithmBcrypt
	}
	if alg == password.AlgorithmBcrypt && c.Password.BcryptCost != 0 && c.Password.BcryptCost < password.DefaultBcryptCost {
		add("bcrypt_cost_low", "bcrypt cost below 10")
	}
	if alg == password.AlgorithmArgon2id && c.Password.Argon2.Memory < 64*1024 {
		add("argon2_memory_low", "argon2id memory below 64 MiB")
	}
	if c.Password.MaxConcurrent == 0 {
		add("hash_pool_unbounded", "password max concurrent is 0; defaulting to GOMAXPROCS")
	}

	if !c.Cookie.Secure {
		add("cookie_insecure", "session cookie is sent over plain HTTP")
	}
	if c.Security.ProductionMode && !c.Security.CSRFProtection {
		add("csrf_disabled", "CSRF protection disabled in production mode")
	}
	if c.Audit.Enabled && c.Audit.DropIfFull {
		add("audit_lossy", "audit events are dropped when the buffer is full")
	}

	return ws
}
