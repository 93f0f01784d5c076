package flows

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// LoginUser is the subset of a stored record login needs.
type LoginUser struct {
	UserID       string
	Email        string
	FullName     string
	PasswordHash string
}

type LoginMetrics struct {
	Success     int
	Failure     int
	UnknownUser int
	Rehash      int
}

type LoginEvents struct {
	Success string
	Failure string
	Rehash  string
}

type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	UserNotFound       error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	UpgradeOnLogin bool
	// DummyHash is verified when the email is unknown so both failure paths
	// cost one hash verification.
	DummyHash string

	GetUserByEmail       func(ctx context.Context, email string) (LoginUser, error)
	VerifyPassword       func(ctx context.Context, password, hash string) (bool, error)
	PasswordNeedsUpgrade func(hash string) (bool, error)
	HashPassword         func(ctx context.Context, password string) (string, error)
	UpdatePasswordHash   func(ctx context.Context, userID, hash string) error
	Issue                IssueFunc

	MetricInc func(int)
	EmitAudit AuditFunc
	Logger    *slog.Logger

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// LoginResult is the identity and session of an authenticated user.
type LoginResult struct {
	Subject Subject
	Session Session
}

// RunLogin looks up the user, verifies the password and issues a session.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginResult, error) {
	if deps.GetUserByEmail == nil || deps.VerifyPassword == nil || deps.Issue == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, deps.Errors.UserNotFound) {
			deps.MetricInc(deps.Metrics.Failure)
			wrapped := oops.Code("AUTH_LOGIN_FAILED").With("stage", "lookup").Wrap(err)
			deps.EmitAudit(ctx, deps.Events.Failure, false, "", wrapped, func() map[string]string {
				return map[string]string{"reason": "store_error"}
			})
			return nil, wrapped
		}

		if deps.DummyHash != "" {
			_, _ = deps.VerifyPassword(ctx, password, deps.DummyHash)
		}
		deps.MetricInc(deps.Metrics.Failure)
		deps.MetricInc(deps.Metrics.UnknownUser)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", deps.Errors.UserNotFound, func() map[string]string {
			return map[string]string{"reason": "user_not_found"}
		})
		return nil, deps.Errors.UserNotFound
	}

	ok, err := deps.VerifyPassword(ctx, password, user.PasswordHash)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		deps.MetricInc(deps.Metrics.Failure)
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("stage", "verify").Wrap(err)
	}
	if err != nil || !ok {
		if err != nil {
			deps.Logger.WarnContext(ctx, "stored password hash unusable", "user_id", user.UserID, "error", err)
		}
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, user.UserID, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "password_mismatch"}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	if deps.UpgradeOnLogin {
		rehash(ctx, user, password, deps)
	}

	subject := Subject{UserID: user.UserID, Email: user.Email, FullName: user.FullName}
	session, err := deps.Issue(subject)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("stage", "issue").Wrap(err)
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, user.UserID, nil, nil)

	return &LoginResult{Subject: subject, Session: session}, nil
}

// rehash replaces a hash made with outdated parameters. Failures are logged
// and never fail the login.
func rehash(ctx context.Context, user LoginUser, password string, deps LoginDeps) {
	if deps.PasswordNeedsUpgrade == nil || deps.HashPassword == nil || deps.UpdatePasswordHash == nil {
		return
	}

	needs, err := deps.PasswordNeedsUpgrade(user.PasswordHash)
	if err != nil || !needs {
		return
	}

	upgraded, err := deps.HashPassword(ctx, password)
	if err != nil {
		deps.Logger.WarnContext(ctx, "password rehash failed", "user_id", user.UserID, "error", err)
		return
	}
	if err := deps.UpdatePasswordHash(ctx, user.UserID, upgraded); err != nil {
		deps.Logger.WarnContext(ctx, "password rehash update failed", "user_id", user.UserID, "error", err)
		return
	}

	deps.MetricInc(deps.Metrics.Rehash)
	deps.EmitAudit(ctx, deps.Events.Rehash, true, user.UserID, nil, nil)
}
