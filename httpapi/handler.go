// Package httpapi exposes the engine over JSON/HTTP: register, login,
// whoami, logout and the CSRF token endpoint.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/sessauth"
	"github.com/MrEthical07/sessauth/csrf"
	"github.com/MrEthical07/sessauth/internal/logging"
	"github.com/MrEthical07/sessauth/middleware"
)

const (
	msgAccountCreated   = "Account created successfully."
	msgCreationFailed   = "Something went wrong while trying to create the user, try again."
	msgLoggedIn         = "Logged in successfully."
	msgUserNotFound     = "The user does not exist."
	msgPasswordMismatch = "The password does not match."
	msgLoggedOut        = "Logged out successfully."
	msgInvalidRequest   = "invalid request"
	msgInternal         = "internal server error"

	maxBodyBytes = 1 << 20
)

type messageResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type userResponse struct {
	Message string            `json:"message,omitempty"`
	User    sessauth.Identity `json:"user"`
}

type csrfResponse struct {
	CSRF string `json:"csrf"`
}

// Handler serves the authentication endpoints.
type Handler struct {
	engine *sessauth.Engine
	csrf   *csrf.Issuer
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewHandler wires the routes. A nil issuer disables GET /csrf and CSRF
// enforcement; otherwise POST routes are protected when the engine requires
// it.
func NewHandler(engine *sessauth.Engine, issuer *csrf.Issuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	h := &Handler{engine: engine, csrf: issuer, logger: logger, mux: http.NewServeMux()}

	protect := func(next http.Handler) http.Handler { return next }
	if issuer != nil && engine.CSRFRequired() {
		protect = issuer.Protect
	}

	h.mux.Handle("POST /register", protect(http.HandlerFunc(h.register)))
	h.mux.Handle("POST /login", protect(http.HandlerFunc(h.login)))
	h.mux.Handle("GET /whoami", middleware.Guard(engine)(http.HandlerFunc(h.whoami)))
	h.mux.HandleFunc("GET /logout", h.logout)
	if issuer != nil {
		h.mux.HandleFunc("GET /csrf", h.csrfToken)
	}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middleware.RequestMetadata(h.mux).ServeHTTP(w, r)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req sessauth.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.engine.Register(r.Context(), req)
	if err != nil {
		var verr *sessauth.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidRequest, Errors: verr.Fields})
		case errors.Is(err, sessauth.ErrCreationFailed):
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgCreationFailed})
		default:
			h.internalError(w, r, "register", err)
		}
		return
	}

	http.SetCookie(w, h.engine.SessionCookie(res))
	writeJSON(w, http.StatusCreated, userResponse{Message: msgAccountCreated, User: res.Identity})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req sessauth.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var verr *sessauth.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidRequest, Errors: verr.Fields})
		case errors.Is(err, sessauth.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, messageResponse{Message: msgUserNotFound})
		case errors.Is(err, sessauth.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: msgPasswordMismatch})
		default:
			h.internalError(w, r, "login", err)
		}
		return
	}

	http.SetCookie(w, h.engine.SessionCookie(res))
	writeJSON(w, http.StatusOK, userResponse{Message: msgLoggedIn, User: res.Identity})
}

func (h *Handler) whoami(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: id})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.engine.LogoutCookie(r.Context()))
	writeJSON(w, http.StatusResetContent, messageResponse{Message: msgLoggedOut})
}

func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrf.Token(w, r)
	if err != nil {
		h.internalError(w, r, "csrf", err)
		return
	}
	writeJSON(w, http.StatusOK, csrfResponse{CSRF: token})
}

// decode reads a single JSON object and answers 400 itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		h.logger.DebugContext(r.Context(), "rejecting request body", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidRequest})
		return false
	}
	if dec.More() {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgInvalidRequest})
		return false
	}
	return true
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logging.LogError(r.Context(), h.logger.With("operation", op), "request failed", err)
	writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgInternal})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
