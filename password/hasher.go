package password

import (
	"errors"
	"fmt"
	"strings"
)

// Algorithm names a supported hashing scheme.
type Algorithm string

const (
	// AlgorithmBcrypt selects bcrypt with a tunable cost.
	AlgorithmBcrypt Algorithm = "bcrypt"
	// AlgorithmArgon2id selects Argon2id with tunable memory/time/parallelism.
	AlgorithmArgon2id Algorithm = "argon2id"
)

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is returned when a password exceeds the algorithm limit.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
	// ErrInvalidHash is returned when an encoded hash cannot be parsed.
	ErrInvalidHash = errors.New("invalid password hash")
)

// Hasher hashes and verifies passwords.
//
// Verify returns (false, nil) on a mismatch; a wrong password is a normal
// outcome, not an error. An error means the encoded hash is unusable.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
	NeedsUpgrade(encodedHash string) (bool, error)
}

// Config selects and tunes the hashing algorithm.
type Config struct {
	Algorithm  Algorithm
	BcryptCost int
	Argon2     Argon2Config
}

// DefaultConfig returns bcrypt at cost 10 with OWASP Argon2id parameters
// available for verification and migration.
func DefaultConfig() Config {
	return Config{
		Algorithm:  AlgorithmBcrypt,
		BcryptCost: DefaultBcryptCost,
		Argon2: Argon2Config{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
	}
}

// Adaptive hashes with a primary algorithm and verifies hashes produced by
// any supported algorithm.
type Adaptive struct {
	primary Algorithm
	bcrypt  *Bcrypt
	argon2  *Argon2
}

// New builds an [Adaptive] hasher from cfg.
func New(cfg Config) (*Adaptive, error) {
	b, err := NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	a, err := NewArgon2(cfg.Argon2)
	if err != nil {
		return nil, err
	}

	switch cfg.Algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	case "":
		cfg.Algorithm = AlgorithmBcrypt
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", cfg.Algorithm)
	}

	return &Adaptive{primary: cfg.Algorithm, bcrypt: b, argon2: a}, nil
}

// Algorithm reports the algorithm used for new hashes.
func (h *Adaptive) Algorithm() Algorithm {
	return h.primary
}

// Hash hashes password with the primary algorithm.
func (h *Adaptive) Hash(password string) (string, error) {
	if h.primary == AlgorithmArgon2id {
		return h.argon2.Hash(password)
	}
	return h.bcrypt.Hash(password)
}

// Verify checks password against a hash of any supported algorithm.
func (h *Adaptive) Verify(password, encodedHash string) (bool, error) {
	switch detect(encodedHash) {
	case AlgorithmBcrypt:
		return h.bcrypt.Verify(password, encodedHash)
	case AlgorithmArgon2id:
		return h.argon2.Verify(password, encodedHash)
	default:
		return false, ErrInvalidHash
	}
}

// NeedsUpgrade reports whether encodedHash was produced by a different
// algorithm or with weaker parameters than the primary one.
func (h *Adaptive) NeedsUpgrade(encodedHash string) (bool, error) {
	alg := detect(encodedHash)
	if alg == "" {
		return false, ErrInvalidHash
	}
	if alg != h.primary {
		return true, nil
	}
	if alg == AlgorithmArgon2id {
		return h.argon2.NeedsUpgrade(encodedHash)
	}
	return h.bcrypt.NeedsUpgrade(encodedHash)
}

func detect(encodedHash string) Algorithm {
	switch {
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		return AlgorithmArgon2id
	case isBcryptHash(encodedHash):
		return AlgorithmBcrypt
	default:
		return ""
	}
}
