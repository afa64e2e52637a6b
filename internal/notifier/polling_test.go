package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartPolling_FiltersChatAndReplies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		polls   int
		replies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOK/getUpdates":
			mu.Lock()
			polls++
			first := polls == 1
			mu.Unlock()
			if !first {
				time.Sleep(10 * time.Millisecond)
				_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"result":[
				{"update_id":10,"message":{"text":" /status ","chat":{"id":42}}},
				{"update_id":11,"message":{"text":"/force","chat":{"id":7}}},
				{"update_id":12}
			]}`))
		case "/botTOK/sendMessage":
			var body struct {
				ChatID string `json:"chat_id"`
				Text   string `json:"text"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			mu.Lock()
			replies = append(replies, body.Text)
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true}`))
			cancel()
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOK", "42", "")
	tn.BaseURL = srv.URL

	var commands []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		tn.StartPolling(ctx, func(cmd string) string {
			commands = append(commands, cmd)
			return "reply:" + cmd
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}

	assert.Equal(t, []string{"/status"}, commands)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"reply:/status"}, replies)
}
