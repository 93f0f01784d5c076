package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/oops"
)

// RegisterInput is an already validated registration request.
type RegisterInput struct {
	Username  string
	FullName  string
	Email     string
	Password  string
	Birthdate time.Time
}

// NewUser is what the flow asks the store to persist.
type NewUser struct {
	UserID       string
	Email        string
	Username     string
	PasswordHash string
	FullName     string
	Birthdate    time.Time
	CreatedAt    time.Time
}

type RegisterMetrics struct {
	Success int
	Failure int
}

type RegisterEvents struct {
	Success string
	Failure string
}

type RegisterErrors struct {
	EngineNotReady error
	CreationFailed error
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	Now          func() time.Time
	NewUserID    func() string
	HashPassword func(ctx context.Context, password string) (string, error)
	CreateUser   func(ctx context.Context, user NewUser) error
	Issue        IssueFunc

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

// RegisterResult is the identity and session of a newly created user.
type RegisterResult struct {
	Subject Subject
	Session Session
}

// RunRegister hashes the password, signs the session and then persists the
// user. The token is minted before the insert so that once a record exists
// nothing else can fail.
func RunRegister(ctx context.Context, in RegisterInput, deps RegisterDeps) (*RegisterResult, error) {
	if deps.HashPassword == nil || deps.CreateUser == nil || deps.Issue == nil || deps.NewUserID == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}

	fail := func(userID string, cause error, reason string) error {
		err := oops.
			Code("AUTH_REGISTER_FAILED").
			With("reason", reason).
			Wrap(fmt.Errorf("%w: %w", deps.Errors.CreationFailed, cause))
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, userID, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return err
	}

	hash, err := deps.HashPassword(ctx, in.Password)
	if err != nil {
		return nil, fail("", err, "hash")
	}

	subject := Subject{UserID: deps.NewUserID(), Email: in.Email, FullName: in.FullName}

	session, err := deps.Issue(subject)
	if err != nil {
		return nil, fail(subject.UserID, err, "issue")
	}

	err = deps.CreateUser(ctx, NewUser{
		UserID:       subject.UserID,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Birthdate:    in.Birthdate,
		CreatedAt:    deps.Now().UTC(),
	})
	if err != nil {
		reason := "store"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return nil, fail(subject.UserID, err, reason)
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, subject.UserID, nil, nil)

	return &RegisterResult{Subject: subject, Session: session}, nil
}
