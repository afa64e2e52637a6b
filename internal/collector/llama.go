package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"LPSentinel/internal/logger"
	"LPSentinel/internal/model"
)

const collectorLog = logger.Component("collector")

// DefaultPoolsURL is the public DefiLlama yields endpoint.
const DefaultPoolsURL = "https://yields.llama.fi/pools"

// LlamaSource fetches the pool universe from the DefiLlama yields API with
// bounded retries. Consecutive failed fetches trip a circuit breaker so a
// dead upstream is not hit on every scan.
type LlamaSource struct {
	URL       string
	UserAgent string
	Attempts  int
	Backoff   time.Duration // multiplied by the attempt number
	Client    *http.Client

	breaker *gobreaker.CircuitBreaker
}

// LlamaOptions configures NewLlamaSource. Zero values get defaults.
type LlamaOptions struct {
	URL          string
	UserAgent    string
	ProxyURL     string
	Timeout      time.Duration
	Attempts     int
	Backoff      time.Duration
	BreakerTrips uint32
	BreakerReset time.Duration
}

// NewLlamaSource creates a source with optional proxy support.
func NewLlamaSource(opts LlamaOptions) *LlamaSource {
	if opts.URL == "" {
		opts.URL = DefaultPoolsURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "lp-sentinel/2.0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	if opts.BreakerTrips == 0 {
		opts.BreakerTrips = 3
	}
	if opts.BreakerReset <= 0 {
		opts.BreakerReset = 5 * time.Minute
	}

	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	trips := opts.BreakerTrips
	st := gobreaker.Settings{
		Name:    "pools",
		Timeout: opts.BreakerReset,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trips
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			collectorLog.L().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &LlamaSource{
		URL:       opts.URL,
		UserAgent: opts.UserAgent,
		Attempts:  opts.Attempts,
		Backoff:   opts.Backoff,
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

func (s *LlamaSource) Name() string { return "defillama" }

// FetchPools returns the full universe. An empty universe is an error so
// the caller skips the cycle instead of acting on a bad response.
func (s *LlamaSource) FetchPools(ctx context.Context) ([]model.Pool, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.fetchWithRetry(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("fetch pools: upstream suspended: %w", err)
		}
		return nil, err
	}
	pools := out.([]model.Pool)
	if len(pools) == 0 {
		return nil, ErrEmptyUniverse
	}
	return pools, nil
}

func (s *LlamaSource) fetchWithRetry(ctx context.Context) ([]model.Pool, error) {
	var lastErr error
	for i := 0; i < s.Attempts; i++ {
		pools, err := s.fetchOnce(ctx)
		if err == nil {
			return pools, nil
		}
		lastErr = err
		if i == s.Attempts-1 {
			break
		}
		backoff := s.Backoff * time.Duration(i+1)
		collectorLog.L().Warn().
			Err(err).
			Int("attempt", i+1).
			Int("attempts", s.Attempts).
			Dur("backoff", backoff).
			Msg("pool fetch failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("fetch pools: %d attempts failed: %w", s.Attempts, lastErr)
}

func (s *LlamaSource) fetchOnce(ctx context.Context) ([]model.Pool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}
	pools, err := decodePools(body)
	if err != nil {
		return nil, fmt.Errorf("decode pools: %w", err)
	}
	collectorLog.L().Debug().Int("pools", len(pools)).Msg("pool universe fetched")
	return pools, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
