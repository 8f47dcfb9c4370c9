// Package notify delivers best-effort messages to the admin, the review chat
// and individual users. Callers send notifications only after the mutation
// they describe has been committed; a delivery failure never undoes it.
package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sourcegraph/conc/pool"
)

// Audience identifies who a notification is addressed to
type Audience string

const (
	AudienceAdmin  Audience = "admin"
	AudienceReview Audience = "review"

	userAudiencePrefix = "user:"
)

// UserAudience addresses a single user
func UserAudience(userID string) Audience {
	return Audience(userAudiencePrefix + userID)
}

// UserID returns the addressed user for user audiences
func (a Audience) UserID() (string, bool) {
	if !strings.HasPrefix(string(a), userAudiencePrefix) {
		return "", false
	}
	return strings.TrimPrefix(string(a), userAudiencePrefix), true
}

// Notification is a message for one audience. Attachment is an opaque
// reference such as a Telegram file id.
type Notification struct {
	Audience   Audience `json:"audience"`
	Text       string   `json:"text"`
	Attachment string   `json:"attachment,omitempty"`
}

// Notifier delivers notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Discard drops every notification
var Discard Notifier = NotifierFunc(func(context.Context, Notification) error { return nil })

// LogNotifier writes notifications to a structured logger
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n at INFO level
func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	attrs := []any{"audience", string(n.Audience), "text", n.Text}
	if n.Attachment != "" {
		attrs = append(attrs, "attachment", n.Attachment)
	}
	l.logger.InfoContext(ctx, "notification", attrs...)
	return nil
}

// Multi fans a notification out to several notifiers concurrently
type Multi struct {
	notifiers []Notifier
}

// NewMulti creates a fan-out notifier
func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

// Notify delivers n to every notifier and joins their errors
func (m *Multi) Notify(ctx context.Context, n Notification) error {
	p := pool.New().WithErrors().WithContext(ctx)
	for _, notifier := range m.notifiers {
		p.Go(func(ctx context.Context) error {
			return notifier.Notify(ctx, n)
		})
	}
	return p.Wait()
}

// Send delivers n and logs a failure instead of returning it
func Send(ctx context.Context, notifier Notifier, logger *slog.Logger, n Notification) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(ctx, n); err != nil {
		logger.WarnContext(ctx, "notification failed", "audience", string(n.Audience), "error", err)
	}
}
