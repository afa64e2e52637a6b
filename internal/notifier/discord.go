package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DiscordMaxLen is the chunk size used to stay under Discord's 2000
// character message limit.
const DiscordMaxLen = 1900

// DiscordNotifier posts messages to a Discord webhook.
type DiscordNotifier struct {
	WebhookURL string
	Client     *http.Client
	ChunkLen   int
	ChunkPause time.Duration

	mu      sync.Mutex
	pending string // text of the last partial send
	next    int    // first undelivered chunk of pending
}

// NewDiscordNotifier creates a webhook notifier with optional proxy support.
func NewDiscordNotifier(webhookURL, proxyURL string) *DiscordNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &DiscordNotifier{
		WebhookURL: webhookURL,
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
		ChunkLen:   DiscordMaxLen,
		ChunkPause: 200 * time.Millisecond,
	}
}

// Send posts text, split into chunks of at most ChunkLen runes. When the
// previous call failed partway through the same text, delivery resumes at
// the first chunk that did not go out.
func (d *DiscordNotifier) Send(ctx context.Context, text string) error {
	if d.WebhookURL == "" {
		return fmt.Errorf("discord webhook URL not set")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	start := 0
	if d.pending == text {
		start = d.next
	}
	d.pending, d.next = "", 0

	chunks := Chunk(text, d.ChunkLen)
	for i := start; i < len(chunks); i++ {
		if err := d.post(ctx, chunks[i]); err != nil {
			if i > 0 {
				d.pending, d.next = text, i
			}
			return fmt.Errorf("discord chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if i < len(chunks)-1 && d.ChunkPause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.ChunkPause):
			}
		}
	}
	return nil
}

func (d *DiscordNotifier) post(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return fmt.Errorf("discord error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Chunk splits s into pieces of at most n runes. An empty string yields a
// single empty chunk.
func Chunk(s string, n int) []string {
	if n <= 0 {
		return []string{s}
	}
	r := []rune(s)
	if len(r) <= n {
		return []string{s}
	}
	out := make([]string, 0, len(r)/n+1)
	for i := 0; i < len(r); i += n {
		end := i + n
		if end > len(r) {
			end = len(r)
		}
		out = append(out, string(r[i:end]))
	}
	return out
}
