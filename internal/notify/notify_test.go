package notify

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"microtask/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	got  []Notification
	fail error
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.fail
}

func TestAudience_UserID(t *testing.T) {
	id, ok := UserAudience("42").UserID()
	assert.True(t, ok)
	assert.Equal(t, "42", id)

	_, ok = AudienceAdmin.UserID()
	assert.False(t, ok)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	notifier := NewLogNotifier(logging.New(&buf, logging.LevelInfo, logging.FormatJSON))

	err := notifier.Notify(context.Background(), Notification{Audience: AudienceReview, Text: "report", Attachment: "file-1"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"audience":"review"`)
	assert.Contains(t, buf.String(), `"attachment":"file-1"`)
}

func TestMulti_DeliversToAll(t *testing.T) {
	first := &recordingNotifier{}
	second := &recordingNotifier{fail: errors.New("down")}
	third := &recordingNotifier{}

	err := NewMulti(first, second, third).Notify(context.Background(), Notification{Audience: AudienceAdmin, Text: "hi"})

	assert.ErrorContains(t, err, "down")
	for _, r := range []*recordingNotifier{first, second, third} {
		require.Len(t, r.got, 1)
		assert.Equal(t, "hi", r.got[0].Text)
	}
}

func TestSend_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, logging.LevelInfo, logging.FormatJSON)
	failing := &recordingNotifier{fail: errors.New("unreachable")}

	assert.NotPanics(t, func() {
		Send(context.Background(), failing, logger, Notification{Audience: AudienceAdmin, Text: "x"})
		Send(context.Background(), nil, logger, Notification{Audience: AudienceAdmin, Text: "x"})
	})

	assert.Contains(t, buf.String(), "notification failed")
	assert.Contains(t, buf.String(), "unreachable")
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.Notify(context.Background(), Notification{}))
}
