package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2MinMemoryKB    uint32 = 8 * 1024
	argon2MinTime        uint32 = 1
	argon2MinParallelism uint8  = 1
	argon2MinSaltLength  uint32 = 16
	argon2MinKeyLength   uint32 = 16

	// DefaultArgon2MaxPasswordBytes caps input to keep hashing cost bounded.
	DefaultArgon2MaxPasswordBytes = 1024
)

// Argon2Config tunes Argon2id. Memory is in KiB.
type Argon2Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Validate reports parameters below the accepted floor.
func (c Argon2Config) Validate() error {
	switch {
	case c.Memory < argon2MinMemoryKB:
		return fmt.Errorf("argon2 memory must be >= %d KiB", argon2MinMemoryKB)
	case c.Time < argon2MinTime:
		return errors.New("argon2 time must be >= 1")
	case c.Parallelism < argon2MinParallelism:
		return errors.New("argon2 parallelism must be >= 1")
	case c.SaltLength < argon2MinSaltLength:
		return fmt.Errorf("argon2 salt length must be >= %d", argon2MinSaltLength)
	case c.KeyLength < argon2MinKeyLength:
		return fmt.Errorf("argon2 key length must be >= %d", argon2MinKeyLength)
	}
	return nil
}

// Argon2 hashes passwords with Argon2id and encodes them as PHC strings.
type Argon2 struct {
	cfg Argon2Config
}

// NewArgon2 validates cfg and returns an Argon2id hasher.
func NewArgon2(cfg Argon2Config) (*Argon2, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Argon2{cfg: cfg}, nil
}

// Hash returns a PHC-encoded Argon2id hash of password using a fresh salt.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > DefaultArgon2MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, a.cfg.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, a.cfg.Time, a.cfg.Memory, a.cfg.Parallelism, a.cfg.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.cfg.Memory, a.cfg.Time, a.cfg.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters stored in encodedHash and
// compares in constant time.
func (a *Argon2) Verify(password, encodedHash string) (bool, error) {
	h, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}
	if len(password) > DefaultArgon2MaxPasswordBytes {
		return false, nil
	}

	key := argon2.IDKey([]byte(password), h.salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)
	return subtle.ConstantTimeCompare(key, h.key) == 1, nil
}

// NeedsUpgrade reports whether encodedHash used weaker parameters than a.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	h, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	p := h.params
	return p.Memory < a.cfg.Memory ||
		p.Time < a.cfg.Time ||
		p.Parallelism < a.cfg.Parallelism ||
		p.KeyLength != a.cfg.KeyLength, nil
}

type phcHash struct {
	params Argon2Config
	salt   []byte
	key    []byte
}

func invalidHash(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidHash, reason)
}

func decodePHC(encodedHash string) (*phcHash, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, invalidHash("malformed PHC string")
	}
	if parts[1] != string(AlgorithmArgon2id) {
		return nil, invalidHash("unsupported algorithm")
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, invalidHash("missing version")
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return nil, invalidHash("unsupported version")
	}

	params, err := decodeParams(parts[3])
	if err != nil {
		return nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < int(argon2MinSaltLength) {
		return nil, invalidHash("bad salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, invalidHash("bad key")
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))
	return &phcHash{params: params, salt: salt, key: key}, nil
}

func decodeParams(s string) (Argon2Config, error) {
	var (
		p    Argon2Config
		seen = map[string]bool{}
	)

	for _, field := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(field, "=")
		if !ok || seen[name] {
			return p, invalidHash("bad parameter list")
		}
		seen[name] = true

		switch name {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || uint32(v) < argon2MinMemoryKB {
				return p, invalidHash("bad memory parameter")
			}
			p.Memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || uint32(v) < argon2MinTime {
				return p, invalidHash("bad time parameter")
			}
			p.Time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil || uint8(v) < argon2MinParallelism {
				return p, invalidHash("bad parallelism parameter")
			}
			p.Parallelism = uint8(v)
		default:
			return p, invalidHash("unknown parameter " + name)
		}
	}

	if len(seen) != 3 {
		return p, invalidHash("missing parameters")
	}
	return p, nil
}
