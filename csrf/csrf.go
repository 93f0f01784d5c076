// Package csrf implements double-submit anti-forgery tokens. The token is
// stored in a script-readable cookie and must be echoed in a request header
// on every state-changing request.
package csrf

import (
	"net/http"

	"github.com/MrEthical07/sessauth/internal"
)

const (
	DefaultCookieName = "_csrf"
	DefaultHeaderName = "X-CSRF-Token"

	tokenBytes = 32
)

// Issuer hands out tokens and enforces them.
type Issuer struct {
	CookieName string
	HeaderName string
	Path       string
	Domain     string
	Secure     bool
	SameSite   http.SameSite
}

// NewIssuer returns an Issuer with default names and a Lax, root-path cookie.
func NewIssuer(secure bool) *Issuer {
	return &Issuer{
		CookieName: DefaultCookieName,
		HeaderName: DefaultHeaderName,
		Path:       "/",
		Secure:     secure,
		SameSite:   http.SameSiteLaxMode,
	}
}

// Token returns the caller's current token, minting and setting a new
// cookie when r carries none.
func (i *Issuer) Token(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(i.CookieName); err == nil && len(c.Value) >= tokenBytes {
		return c.Value, nil
	}

	token, err := internal.RandomToken(tokenBytes)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     i.CookieName,
		Value:    token,
		Path:     i.Path,
		Domain:   i.Domain,
		Secure:   i.Secure,
		HttpOnly: false,
		SameSite: i.SameSite,
	})
	return token, nil
}

// Valid reports whether r may proceed. Safe methods always may.
func (i *Issuer) Valid(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}

	c, err := r.Cookie(i.CookieName)
	if err != nil {
		return false
	}
	return internal.TokensEqual(c.Value, r.Header.Get(i.HeaderName))
}

// Protect rejects unsafe requests whose header token does not match the
// cookie with 403.
func (i *Issuer) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.Valid(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"invalid csrf token"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
