package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/sessauth"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity attached by [Guard].
func IdentityFromContext(ctx context.Context) (sessauth.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(sessauth.Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id sessauth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// Guard denies requests without a valid session cookie. On allow the
// identity is stored in the request context only.
func Guard(engine *sessauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				unauthorized(w)
				return
			}

			token, ok := engine.SessionToken(r)
			if !ok {
				engine.Authenticate(r.Context(), "")
				unauthorized(w)
				return
			}

			decision := engine.Authenticate(r.Context(), token)
			if !decision.Allowed() {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), decision.Identity)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"unauthorized"}` + "\n"))
}
