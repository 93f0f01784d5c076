package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fixedPolicy(now time.Time) CookiePolicy {
	p := DefaultPolicy(true)
	p.Now = func() time.Time { return now }
	return p
}

func TestWrapSetsSecurityAttributes(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := fixedPolicy(now)

	c := p.Wrap("tok", now.Add(time.Hour))
	if c.Name != "token" || c.Value != "tok" || c.Path != "/" {
		t.Fatalf("unexpected cookie %+v", c)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("missing security attributes: %+v", c)
	}
	if c.MaxAge != 3600 {
		t.Fatalf("expected MaxAge 3600, got %d", c.MaxAge)
	}
	if !c.Expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected Expires to mirror token expiry, got %v", c.Expires)
	}
}

func TestWrapExpiredToken(t *testing.T) {
	now := time.Now()
	c := fixedPolicy(now).Wrap("tok", now.Add(-time.Second))
	if c.MaxAge != -1 {
		t.Fatalf("expected MaxAge -1 for expired token, got %d", c.MaxAge)
	}
}

func TestClearDiscardsCookie(t *testing.T) {
	p := CookiePolicy{Name: "sid", Path: "/app", Domain: "example.com"}
	c := p.Clear()
	if c.Name != "sid" || c.Path != "/app" || c.Domain != "example.com" {
		t.Fatalf("clear cookie must match scope: %+v", c)
	}
	if c.Value != "" || c.MaxAge != -1 || !c.Expires.Equal(time.Unix(0, 0)) {
		t.Fatalf("clear cookie must expire immediately: %+v", c)
	}

	rec := httptest.NewRecorder()
	http.SetCookie(rec, c)
	if got := rec.Header().Get("Set-Cookie"); got == "" {
		t.Fatal("expected Set-Cookie header")
	}
}

func TestRead(t *testing.T) {
	p := DefaultPolicy(false)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := p.Read(r); ok {
		t.Fatal("expected absent cookie")
	}

	r.AddCookie(&http.Cookie{Name: "token", Value: ""})
	if _, ok := p.Read(r); ok {
		t.Fatal("expected empty cookie to read as absent")
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: "abc.def.ghi"})
	tok, ok := p.Read(r)
	if !ok || tok != "abc.def.ghi" {
		t.Fatalf("Read = %q, %v", tok, ok)
	}
}

func TestRoundTripThroughRecorder(t *testing.T) {
	now := time.Now()
	p := fixedPolicy(now)

	rec := httptest.NewRecorder()
	http.SetCookie(rec, p.Wrap("header.payload.sig", now.Add(time.Minute)))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	if tok, ok := p.Read(r); !ok || tok != "header.payload.sig" {
		t.Fatalf("Read = %q, %v", tok, ok)
	}
}

func TestParseSameSite(t *testing.T) {
	cases := map[string]http.SameSite{
		"":       http.SameSiteLaxMode,
		"Lax":    http.SameSiteLaxMode,
		"strict": http.SameSiteStrictMode,
		"NONE":   http.SameSiteNoneMode,
	}
	for in, want := range cases {
		got, err := ParseSameSite(in)
		if err != nil || got != want {
			t.Fatalf("ParseSameSite(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSameSite("sometimes"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
