package sessauth

import (
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minPasswordBytes = 8
	maxPasswordBytes = 72
	maxFullNameRunes = 100
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// ValidationError lists per-field problems with a request. It matches
// [ErrInvalidRequest] with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

type validator map[string]string

func (v validator) fail(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

func (v validator) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: v}
}

type registration struct {
	Username  string
	FullName  string
	Email     string
	Password  string
	Birthdate time.Time
}

func validateRegister(req RegisterRequest, now time.Time) (registration, error) {
	v := validator{}
	out := registration{
		Username: strings.TrimSpace(req.Username),
		FullName: strings.TrimSpace(req.FullName),
		Password: req.Password,
	}

	if !usernamePattern.MatchString(out.Username) {
		v.fail("username", "must be 3-32 characters of letters, digits, '_', '.' or '-'")
	}

	if n := utf8.RuneCountInString(out.FullName); n == 0 || n > maxFullNameRunes {
		v.fail("fullName", "must be 1-100 characters")
	}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		v.fail("email", "must be a valid email address")
	}
	out.Email = email

	if n := len(req.Password); n < minPasswordBytes || n > maxPasswordBytes {
		v.fail("password", "must be 8-72 bytes")
	}

	birthdate, err := parseBirthdate(req.Birthdate)
	switch {
	case err != nil:
		v.fail("birthdate", "must be a date in YYYY-MM-DD format")
	case birthdate.After(now):
		v.fail("birthdate", "must not be in the future")
	}
	out.Birthdate = birthdate

	return out, v.err()
}

func validateLogin(req LoginRequest) (LoginRequest, error) {
	v := validator{}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		v.fail("email", "is required")
	}
	if req.Password == "" {
		v.fail("password", "is required")
	}

	return LoginRequest{Email: email, Password: req.Password}, v.err()
}

func normalizeEmail(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || addr.Name != "" {
		return "", false
	}
	return strings.ToLower(addr.Address), true
}

func parseBirthdate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
