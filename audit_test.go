package sessauth

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func TestAuditDispatcherDisabledIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestAuditDispatcherDeliversAndFlushesOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 64}, sink)
	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventLoginSuccess})
	}
	d.Close()

	if got := sink.count.Load(); got != 50 {
		t.Fatalf("expected 50 delivered events, got %d", got)
	}

	d.Emit(context.Background(), AuditEvent{})
	if got := sink.count.Load(); got != 50 {
		t.Fatal("events after Close must be ignored")
	}
}

func TestAuditDispatcherDropIfFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &gateSink{gate: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// The worker takes the first event and blocks in the sink; the second
	// fills the buffer; everything after is dropped.
	d.Emit(context.Background(), AuditEvent{})
	time.Sleep(20 * time.Millisecond)
	d.Emit(context.Background(), AuditEvent{})
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{})
	}

	if got := d.Dropped(); got != 5 {
		t.Fatalf("expected 5 dropped events, got %d", got)
	}

	close(sink.gate)
	d.Close()
}

func TestAuditDispatcherBlockingHonorsContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &gateSink{gate: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1}, sink)

	d.Emit(context.Background(), AuditEvent{})
	time.Sleep(20 * time.Millisecond)
	d.Emit(context.Background(), AuditEvent{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	d.Emit(ctx, AuditEvent{})
	if d.Dropped() != 1 {
		t.Fatalf("expected the timed-out event to count as dropped, got %d", d.Dropped())
	}

	close(sink.gate)
	d.Close()
}

func TestEngineEmitsAuditEvents(t *testing.T) {
	cfg := testConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 32}
	sink := NewChannelSink(32)

	e, err := New().WithConfig(cfg).WithUserStore(newFakeStore()).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithUserAgent(WithClientIP(context.Background(), "203.0.113.9"), "test-agent")
	if _, err := e.Register(ctx, validRegistration()); err != nil {
		t.Fatal(err)
	}
	_, _ = e.Login(ctx, "a@x.com", "wrong-pass")
	e.Authenticate(ctx, "garbage")
	e.Close()

	var events []AuditEvent
	for len(sink.Events()) > 0 {
		events = append(events, <-sink.Events())
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	if events[0].EventType != auditEventRegisterSuccess || !events[0].Success || events[0].UserID == "" {
		t.Fatalf("unexpected register event %+v", events[0])
	}
	if events[0].IP != "203.0.113.9" || events[0].UserAgent != "test-agent" {
		t.Fatalf("request metadata missing: %+v", events[0])
	}
	if events[1].EventType != auditEventLoginFailure || events[1].Error != string(auditErrInvalidCredentials) {
		t.Fatalf("unexpected login event %+v", events[1])
	}
	if events[2].EventType != auditEventAuthDenied || events[2].Metadata["reason"] != "malformed" {
		t.Fatalf("unexpected deny event %+v", events[2])
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), AuditEvent{EventType: "logout", Success: true})
	sink.Emit(context.Background(), AuditEvent{EventType: "login_failure", Error: "invalid_credentials"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev AuditEvent
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.EventType != "login_failure" || ev.Error != "invalid_credentials" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	sink.Emit(context.Background(), AuditEvent{EventType: "login_success", Success: true, UserID: "u1"})
	sink.Emit(context.Background(), AuditEvent{EventType: "login_failure", Error: "invalid_credentials"})

	out := buf.String()
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "user_id=u1") {
		t.Fatalf("missing success line: %s", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "error_code=invalid_credentials") {
		t.Fatalf("missing failure line: %s", out)
	}
}
