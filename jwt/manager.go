package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenMalformed is returned when a token cannot be decoded or its
	// claims are structurally invalid.
	ErrTokenMalformed = errors.New("session token malformed")
	// ErrTokenTampered is returned when the signature does not verify or the
	// token names an algorithm other than HS256.
	ErrTokenTampered = errors.New("session token signature invalid")
	// ErrTokenExpired is returned when a correctly signed token is past its
	// expiry.
	ErrTokenExpired = errors.New("session token expired")
)

const maxLeeway = 2 * time.Minute

// Config configures a [Manager]. Secret is copied at construction.
type Config struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Leeway time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with a single shared secret.
// It is immutable and safe for concurrent use.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return nil, fmt.Errorf("jwt leeway must be between 0 and %s", maxLeeway)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(now),
		jwt.WithStrictDecoding(),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Manager{
		secret: secret,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    now,
		parser: jwt.NewParser(opts...),
	}, nil
}

// TTL returns the default token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs claims with the default TTL.
func (m *Manager) Issue(claims SessionClaims) (string, time.Time, error) {
	return m.IssueWithTTL(claims, m.ttl)
}

// IssueWithTTL signs claims with iat set to now and exp set to now+ttl.
// Registered claims already present on claims are overwritten.
func (m *Manager) IssueWithTTL(claims SessionClaims, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		return "", time.Time{}, errors.New("jwt ttl must be positive")
	}
	if claims.UserID == "" {
		return "", time.Time{}, errors.New("session claims require a user id")
	}

	// NumericDate has second precision; truncate so the returned expiry
	// matches what Verify will read back.
	issuedAt := m.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and then the claims of token. Errors wrap
// exactly one of [ErrTokenMalformed], [ErrTokenTampered] or [ErrTokenExpired].
func (m *Manager) Verify(token string) (*SessionClaims, error) {
	if token == "" {
		return nil, ErrTokenMalformed
	}

	claims := &SessionClaims{}
	parsed, err := m.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrTokenMalformed)
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenTampered, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
