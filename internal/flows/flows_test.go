package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/sessauth/jwt"
)

var (
	errNotReady   = errors.New("not ready")
	errCreation   = errors.New("creation failed")
	errInvalid    = errors.New("invalid credentials")
	errNotFound   = errors.New("not found")
	errDuplicate  = errors.New("duplicate")
	fixedIssuedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

func fakeIssue(s Subject) (Session, error) {
	return Session{Token: "tok-" + s.UserID, ExpiresAt: fixedIssuedAt.Add(time.Hour)}, nil
}

func registerDeps(created *[]NewUser, counts map[int]int) RegisterDeps {
	return RegisterDeps{
		Now:       func() time.Time { return fixedIssuedAt },
		NewUserID: func() string { return "u-1" },
		HashPassword: func(_ context.Context, pw string) (string, error) {
			return "hashed:" + pw, nil
		},
		CreateUser: func(_ context.Context, u NewUser) error {
			*created = append(*created, u)
			return nil
		},
		Issue:     fakeIssue,
		MetricInc: func(id int) { counts[id]++ },
		Metrics:   RegisterMetrics{Success: 1, Failure: 2},
		Errors:    RegisterErrors{EngineNotReady: errNotReady, CreationFailed: errCreation},
	}
}

func TestRunRegisterSuccess(t *testing.T) {
	var created []NewUser
	counts := map[int]int{}

	res, err := RunRegister(context.Background(), RegisterInput{
		Username: "ada", FullName: "Ada", Email: "a@x.com", Password: "secret123",
	}, registerDeps(&created, counts))
	if err != nil {
		t.Fatalf("RunRegister: %v", err)
	}
	if res.Subject != (Subject{UserID: "u-1", Email: "a@x.com", FullName: "Ada"}) {
		t.Fatalf("unexpected subject %+v", res.Subject)
	}
	if res.Session.Token != "tok-u-1" {
		t.Fatalf("unexpected session %+v", res.Session)
	}
	if len(created) != 1 || created[0].PasswordHash != "hashed:secret123" || !created[0].CreatedAt.Equal(fixedIssuedAt) {
		t.Fatalf("unexpected persisted user %+v", created)
	}
	if counts[1] != 1 || counts[2] != 0 {
		t.Fatalf("unexpected metrics %v", counts)
	}
}

func TestRunRegisterIssueFailureLeavesNoRecord(t *testing.T) {
	var created []NewUser
	deps := registerDeps(&created, map[int]int{})
	deps.Issue = func(Subject) (Session, error) { return Session{}, errors.New("sign failed") }

	_, err := RunRegister(context.Background(), RegisterInput{Password: "secret123"}, deps)
	if !errors.Is(err, errCreation) {
		t.Fatalf("expected creation error, got %v", err)
	}
	if len(created) != 0 {
		t.Fatal("no record may be created when issuing fails")
	}
}

func TestRunRegisterStoreFailureWrapsCause(t *testing.T) {
	var created []NewUser
	counts := map[int]int{}
	deps := registerDeps(&created, counts)
	deps.CreateUser = func(context.Context, NewUser) error { return errDuplicate }

	var events []string
	deps.Events = RegisterEvents{Success: "ok", Failure: "fail"}
	deps.EmitAudit = func(_ context.Context, event string, _ bool, _ string, _ error, _ func() map[string]string) {
		events = append(events, event)
	}

	_, err := RunRegister(context.Background(), RegisterInput{Password: "secret123"}, deps)
	if !errors.Is(err, errCreation) || !errors.Is(err, errDuplicate) {
		t.Fatalf("expected creation error wrapping duplicate, got %v", err)
	}
	if counts[2] != 1 || len(events) != 1 || events[0] != "fail" {
		t.Fatalf("failure not recorded: metrics=%v events=%v", counts, events)
	}
}

func TestRunRegisterNotReady(t *testing.T) {
	_, err := RunRegister(context.Background(), RegisterInput{}, RegisterDeps{Errors: RegisterErrors{EngineNotReady: errNotReady}})
	if !errors.Is(err, errNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}
}

type loginFixture struct {
	user         LoginUser
	verifyCalls  []string
	updated      string
	needsUpgrade bool
	counts       map[int]int
}

func (f *loginFixture) deps() LoginDeps {
	return LoginDeps{
		UpgradeOnLogin: true,
		DummyHash:      "dummy",
		GetUserByEmail: func(_ context.Context, email string) (LoginUser, error) {
			if email != f.user.Email {
				return LoginUser{}, errNotFound
			}
			return f.user, nil
		},
		VerifyPassword: func(_ context.Context, pw, hash string) (bool, error) {
			f.verifyCalls = append(f.verifyCalls, hash)
			return hash == "hashed:"+pw, nil
		},
		PasswordNeedsUpgrade: func(string) (bool, error) { return f.needsUpgrade, nil },
		HashPassword: func(_ context.Context, pw string) (string, error) {
			return "rehashed:" + pw, nil
		},
		UpdatePasswordHash: func(_ context.Context, _ string, hash string) error {
			f.updated = hash
			return nil
		},
		Issue:     fakeIssue,
		MetricInc: func(id int) { f.counts[id]++ },
		Metrics:   LoginMetrics{Success: 1, Failure: 2, UnknownUser: 3, Rehash: 4},
		Errors: LoginErrors{
			EngineNotReady:     errNotReady,
			InvalidCredentials: errInvalid,
			UserNotFound:       errNotFound,
		},
	}
}

func newLoginFixture() *loginFixture {
	return &loginFixture{
		user:   LoginUser{UserID: "u-1", Email: "a@x.com", FullName: "Ada", PasswordHash: "hashed:secret123"},
		counts: map[int]int{},
	}
}

func TestRunLoginSuccess(t *testing.T) {
	f := newLoginFixture()
	res, err := RunLogin(context.Background(), "a@x.com", "secret123", f.deps())
	if err != nil {
		t.Fatalf("RunLogin: %v", err)
	}
	if res.Subject.UserID != "u-1" || res.Session.Token != "tok-u-1" {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.updated != "" {
		t.Fatal("no rehash expected")
	}
	if f.counts[1] != 1 {
		t.Fatalf("expected success metric, got %v", f.counts)
	}
}

func TestRunLoginUnknownUserStillVerifies(t *testing.T) {
	f := newLoginFixture()
	_, err := RunLogin(context.Background(), "b@x.com", "secret123", f.deps())
	if !errors.Is(err, errNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(f.verifyCalls) != 1 || f.verifyCalls[0] != "dummy" {
		t.Fatalf("expected one dummy verification, got %v", f.verifyCalls)
	}
	if f.counts[2] != 1 || f.counts[3] != 1 {
		t.Fatalf("unexpected metrics %v", f.counts)
	}
}

func TestRunLoginWrongPassword(t *testing.T) {
	f := newLoginFixture()
	_, err := RunLogin(context.Background(), "a@x.com", "nope-nope", f.deps())
	if !errors.Is(err, errInvalid) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRunLoginUnusableHashIsInvalidCredentials(t *testing.T) {
	f := newLoginFixture()
	deps := f.deps()
	deps.VerifyPassword = func(context.Context, string, string) (bool, error) {
		return false, errors.New("invalid password hash")
	}
	if _, err := RunLogin(context.Background(), "a@x.com", "secret123", deps); !errors.Is(err, errInvalid) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRunLoginStoreErrorIsNotMasked(t *testing.T) {
	f := newLoginFixture()
	deps := f.deps()
	storeErr := errors.New("connection refused")
	deps.GetUserByEmail = func(context.Context, string) (LoginUser, error) { return LoginUser{}, storeErr }

	_, err := RunLogin(context.Background(), "a@x.com", "secret123", deps)
	if !errors.Is(err, storeErr) || errors.Is(err, errNotFound) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestRunLoginRehash(t *testing.T) {
	f := newLoginFixture()
	f.needsUpgrade = true

	if _, err := RunLogin(context.Background(), "a@x.com", "secret123", f.deps()); err != nil {
		t.Fatal(err)
	}
	if f.updated != "rehashed:secret123" {
		t.Fatalf("expected upgraded hash, got %q", f.updated)
	}
	if f.counts[4] != 1 {
		t.Fatalf("expected rehash metric, got %v", f.counts)
	}
}

func TestRunLoginRehashFailureDoesNotFailLogin(t *testing.T) {
	f := newLoginFixture()
	f.needsUpgrade = true
	deps := f.deps()
	deps.UpdatePasswordHash = func(context.Context, string, string) error { return errors.New("write failed") }

	if _, err := RunLogin(context.Background(), "a@x.com", "secret123", deps); err != nil {
		t.Fatalf("login must succeed even if rehash fails: %v", err)
	}
	if f.counts[4] != 0 {
		t.Fatal("failed rehash must not be counted")
	}
}

func TestRunAuthenticate(t *testing.T) {
	claims := &jwt.SessionClaims{UserID: "u-1", Email: "a@x.com", FullName: "Ada"}

	tests := []struct {
		name  string
		token string
		err   error
		want  AuthFailureKind
	}{
		{"empty", "", nil, AuthFailureNoToken},
		{"valid", "t", nil, AuthFailureNone},
		{"tampered", "t", jwt.ErrTokenTampered, AuthFailureTampered},
		{"expired", "t", jwt.ErrTokenExpired, AuthFailureExpired},
		{"malformed", "t", jwt.ErrTokenMalformed, AuthFailureMalformed},
		{"unknown", "t", errors.New("other"), AuthFailureMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			res := RunAuthenticate(tt.token, AuthenticateDeps{Verify: func(string) (*jwt.SessionClaims, error) {
				called = true
				if tt.err != nil {
					return nil, tt.err
				}
				return claims, nil
			}})

			if res.Failure != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, res.Failure)
			}
			if tt.token == "" && called {
				t.Fatal("empty token must not be verified")
			}
			if tt.want == AuthFailureNone && res.Subject.Email != "a@x.com" {
				t.Fatalf("unexpected subject %+v", res.Subject)
			}
		})
	}
}
