package flows

import (
	"context"
	"time"
)

// Session is a freshly issued token and its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Subject is the minimal identity projection signed into every token.
type Subject struct {
	UserID   string
	Email    string
	FullName string
}

// IssueFunc signs a session token for subject.
type IssueFunc func(subject Subject) (Session, error)

// AuditFunc emits an audit event. metadata is evaluated lazily.
type AuditFunc func(ctx context.Context, event string, success bool, userID string, err error, metadata func() map[string]string)

func noopAudit(context.Context, string, bool, string, error, func() map[string]string) {}

func noopMetric(int) {}
