package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type botCall struct {
	method string
	chatID string
	photo  string
}

// fakeBotAPI answers the handful of bot API methods the notifier uses
func fakeBotAPI(t *testing.T) (*httptest.Server, func() []botCall) {
	var mu sync.Mutex
	var calls []botCall

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

		w.Header().Set("Content-Type", "application/json")
		if method == "getMe" {
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bot","username":"bot"}}`)
			return
		}

		mu.Lock()
		calls = append(calls, botCall{method: method, chatID: r.FormValue("chat_id"), photo: r.FormValue("photo")})
		mu.Unlock()
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":%s,"type":"private"}}}`, r.FormValue("chat_id"))
	}))
	t.Cleanup(server.Close)

	return server, func() []botCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]botCall(nil), calls...)
	}
}

func TestTelegramNotifier_Notify(t *testing.T) {
	server, calls := fakeBotAPI(t)
	notifier, err := NewTelegramNotifier("TOKEN", server.URL+"/bot%s/%s", 100, 200)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, notifier.Notify(ctx, Notification{Audience: AudienceAdmin, Text: "withdrawal"}))
	require.NoError(t, notifier.Notify(ctx, Notification{Audience: AudienceReview, Text: "report", Attachment: "photo-file-id"}))
	require.NoError(t, notifier.Notify(ctx, Notification{Audience: UserAudience("42"), Text: "paid"}))

	assert.Equal(t, []botCall{
		{method: "sendMessage", chatID: "100"},
		{method: "sendMessage", chatID: "200"},
		{method: "sendPhoto", chatID: "200", photo: "photo-file-id"},
		{method: "sendMessage", chatID: "42"},
	}, calls())
}

func TestTelegramNotifier_ReviewFallsBackToAdmin(t *testing.T) {
	server, calls := fakeBotAPI(t)
	notifier, err := NewTelegramNotifier("TOKEN", server.URL+"/bot%s/%s", 100, 0)
	require.NoError(t, err)

	require.NoError(t, notifier.Notify(context.Background(), Notification{Audience: AudienceReview, Text: "report"}))
	assert.Equal(t, "100", calls()[0].chatID)
}

func TestTelegramNotifier_RejectsUnroutableAudiences(t *testing.T) {
	server, _ := fakeBotAPI(t)
	notifier, err := NewTelegramNotifier("TOKEN", server.URL+"/bot%s/%s", 0, 0)
	require.NoError(t, err)
	ctx := context.Background()

	tests := []Audience{AudienceAdmin, UserAudience("alice"), Audience("everyone")}
	for _, audience := range tests {
		t.Run(string(audience), func(t *testing.T) {
			assert.Error(t, notifier.Notify(ctx, Notification{Audience: audience, Text: "x"}))
		})
	}
}
