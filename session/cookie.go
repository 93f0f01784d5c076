package session

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultCookieName is the session cookie name browsers already hold.
const DefaultCookieName = "token"

// CookiePolicy builds and reads the session cookie.
type CookiePolicy struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	// Now overrides the clock used to derive Max-Age; nil means time.Now.
	Now func() time.Time
}

// DefaultPolicy returns a Lax, HTTP-only policy on "/" named [DefaultCookieName].
func DefaultPolicy(secure bool) CookiePolicy {
	return CookiePolicy{
		Name:     DefaultCookieName,
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (p CookiePolicy) name() string {
	if p.Name == "" {
		return DefaultCookieName
	}
	return p.Name
}

func (p CookiePolicy) path() string {
	if p.Path == "" {
		return "/"
	}
	return p.Path
}

func (p CookiePolicy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Wrap returns a cookie carrying token whose lifetime ends at expiresAt.
func (p CookiePolicy) Wrap(token string, expiresAt time.Time) *http.Cookie {
	maxAge := int(expiresAt.Sub(p.now()).Seconds())
	if maxAge < 1 {
		// MaxAge 0 would mean "session cookie" to net/http; an already expired
		// token should be dropped instead.
		maxAge = -1
	}

	return &http.Cookie{
		Name:     p.name(),
		Value:    token,
		Path:     p.path(),
		Domain:   p.Domain,
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
}

// Clear returns a cookie that instructs the client to discard the session
// cookie immediately.
func (p CookiePolicy) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     p.name(),
		Value:    "",
		Path:     p.path(),
		Domain:   p.Domain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
}

// Read returns the raw session token, or false when the cookie is absent
// or empty.
func (p CookiePolicy) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie(p.name())
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// ParseSameSite maps "lax", "strict", "none" or "" (lax) to http.SameSite.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("unknown same-site mode %q", s)
	}
}
