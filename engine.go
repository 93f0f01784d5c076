package sessauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/sessauth/internal/flows"
	"github.com/MrEthical07/sessauth/internal/logging"
	"github.com/MrEthical07/sessauth/jwt"
	"github.com/MrEthical07/sessauth/password"
	"github.com/MrEthical07/sessauth/session"
)

// Engine registers, logs in and authenticates users. It holds no mutable
// per-request state and is safe for concurrent use.
type Engine struct {
	config    Config
	store     UserStore
	hasher    *password.Pool
	tokens    *jwt.Manager
	dummyHash string
	cookies   session.CookiePolicy
	metrics   *Metrics
	audit     *auditDispatcher
	logger    *slog.Logger
	clock     func() time.Time
	newID     func() string
}

// Close flushes pending audit events. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return e.metrics.Snapshot()
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// CookiePolicy returns the session cookie policy.
func (e *Engine) CookiePolicy() session.CookiePolicy {
	return e.cookies
}

// CSRFRequired reports whether state-changing endpoints must carry an
// anti-forgery token.
func (e *Engine) CSRFRequired() bool {
	return e != nil && e.config.Security.CSRFProtection
}

func (e *Engine) metricInc(id int) {
	e.metrics.Inc(MetricID(id))
}

func (e *Engine) issue(subject flows.Subject) (flows.Session, error) {
	token, exp, err := e.tokens.Issue(jwt.SessionClaims{
		UserID:   subject.UserID,
		Email:    subject.Email,
		FullName: subject.FullName,
	})
	if err != nil {
		return flows.Session{}, err
	}
	return flows.Session{Token: token, ExpiresAt: exp}, nil
}

// Register validates req, hashes the password, persists the user and issues
// a session for immediate login.
//
// Failures are [ErrInvalidRequest] (a *ValidationError) or
// [ErrCreationFailed]; store errors, including duplicates, never surface
// as anything else.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	in, err := validateRegister(req, e.now())
	if err != nil {
		e.metrics.Inc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, nil)
		return nil, err
	}

	res, err := flows.RunRegister(ctx, flows.RegisterInput{
		Username:  in.Username,
		FullName:  in.FullName,
		Email:     in.Email,
		Password:  in.Password,
		Birthdate: in.Birthdate,
	}, flows.RegisterDeps{
		Now:          e.now,
		NewUserID:    e.newID,
		HashPassword: e.hasher.Hash,
		CreateUser: func(ctx context.Context, u flows.NewUser) error {
			_, err := e.store.CreateUser(ctx, CreateUserInput(u))
			return err
		},
		Issue:     e.issue,
		MetricInc: e.metricInc,
		EmitAudit: e.emitAudit,
		Metrics: flows.RegisterMetrics{
			Success: int(MetricRegisterSuccess),
			Failure: int(MetricRegisterFailure),
		},
		Events: flows.RegisterEvents{
			Success: auditEventRegisterSuccess,
			Failure: auditEventRegisterFailure,
		},
		Errors: flows.RegisterErrors{
			EngineNotReady: ErrEngineNotReady,
			CreationFailed: ErrCreationFailed,
		},
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicateUser) {
			e.logError(ctx, "registration failed", err)
		}
		return nil, err
	}

	return toLoginResult(res.Subject, res.Session), nil
}

// Login checks email and password and issues a session.
//
// Failures are [ErrInvalidRequest], [ErrUserNotFound] or
// [ErrInvalidCredentials]. Anything else is an internal error.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	req, err := validateLogin(LoginRequest{Email: email, Password: plaintext})
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		return nil, err
	}

	res, err := flows.RunLogin(ctx, req.Email, req.Password, flows.LoginDeps{
		UpgradeOnLogin: e.config.Password.UpgradeOnLogin,
		DummyHash:      e.dummyHash,
		GetUserByEmail: func(ctx context.Context, email string) (flows.LoginUser, error) {
			u, err := e.store.GetUserByEmail(ctx, email)
			if err != nil {
				return flows.LoginUser{}, err
			}
			return flows.LoginUser{
				UserID:       u.UserID,
				Email:        u.Email,
				FullName:     u.FullName,
				PasswordHash: u.PasswordHash,
			}, nil
		},
		VerifyPassword:       e.hasher.Verify,
		PasswordNeedsUpgrade: e.hasher.NeedsUpgrade,
		HashPassword:         e.hasher.Hash,
		UpdatePasswordHash:   e.store.UpdatePasswordHash,
		Issue:                e.issue,
		MetricInc:            e.metricInc,
		EmitAudit:            e.emitAudit,
		Logger:               e.logger,
		Metrics: flows.LoginMetrics{
			Success:     int(MetricLoginSuccess),
			Failure:     int(MetricLoginFailure),
			UnknownUser: int(MetricLoginUnknownUser),
			Rehash:      int(MetricPasswordRehash),
		},
		Events: flows.LoginEvents{
			Success: auditEventLoginSuccess,
			Failure: auditEventLoginFailure,
			Rehash:  auditEventPasswordRehash,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			UserNotFound:       ErrUserNotFound,
		},
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) && !errors.Is(err, ErrInvalidCredentials) {
			e.logError(ctx, "login failed", err)
		}
		return nil, err
	}

	return toLoginResult(res.Subject, res.Session), nil
}

// Authenticate verifies a raw session token. An empty token is denied with
// [DenyNoToken] without any verification work.
func (e *Engine) Authenticate(ctx context.Context, token string) Decision {
	if e == nil {
		return Decision{Reason: DenyMalformed}
	}

	res := flows.RunAuthenticate(token, flows.AuthenticateDeps{Verify: e.tokens.Verify})

	var reason DenyReason
	switch res.Failure {
	case flows.AuthFailureNone:
		e.metrics.Inc(MetricAuthAllowed)
		return Decision{Identity: Identity{
			ID:       res.Subject.UserID,
			Email:    res.Subject.Email,
			FullName: res.Subject.FullName,
		}}
	case flows.AuthFailureNoToken:
		e.metrics.Inc(MetricAuthDeniedNoToken)
		return Decision{Reason: DenyNoToken}
	case flows.AuthFailureTampered:
		reason = DenyTampered
		e.metrics.Inc(MetricAuthDeniedTampered)
	case flows.AuthFailureExpired:
		reason = DenyExpired
		e.metrics.Inc(MetricAuthDeniedExpired)
	default:
		reason = DenyMalformed
		e.metrics.Inc(MetricAuthDeniedMalformed)
	}

	e.logger.DebugContext(ctx, "session token rejected", "reason", reason.String(), "error", res.Err)
	e.emitAudit(ctx, auditEventAuthDenied, false, "", ErrUnauthenticated, func() map[string]string {
		return map[string]string{"reason": reason.String()}
	})
	return Decision{Reason: reason}
}

// SessionCookie wraps a login result's token for transport.
func (e *Engine) SessionCookie(res *LoginResult) *http.Cookie {
	return e.cookies.Wrap(res.Token, res.ExpiresAt)
}

// LogoutCookie returns the directive that makes the client drop its session
// cookie. The token itself stays valid until it expires.
func (e *Engine) LogoutCookie(ctx context.Context) *http.Cookie {
	if e != nil {
		e.metrics.Inc(MetricLogout)
		e.emitAudit(ctx, auditEventLogout, true, "", nil, nil)
	}
	return e.cookies.Clear()
}

// SessionToken reads the raw session token from r.
func (e *Engine) SessionToken(r *http.Request) (string, bool) {
	return e.cookies.Read(r)
}

func (e *Engine) logError(ctx context.Context, msg string, err error) {
	logging.LogError(ctx, e.logger, msg, err)
}

func toLoginResult(s flows.Subject, sess flows.Session) *LoginResult {
	return &LoginResult{
		Identity:  Identity{ID: s.UserID, Email: s.Email, FullName: s.FullName},
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	}
}
