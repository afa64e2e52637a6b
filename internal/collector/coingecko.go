package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCoinGeckoURL is the public simple-price endpoint.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3/simple/price"

// DefaultCoinGeckoIDs maps pool token symbols to CoinGecko coin IDs.
var DefaultCoinGeckoIDs = map[string]string{
	"ETH":    "ethereum",
	"WETH":   "ethereum",
	"BTC":    "bitcoin",
	"WBTC":   "bitcoin",
	"SOL":    "solana",
	"BNB":    "binancecoin",
	"USDC":   "usd-coin",
	"USDT":   "tether",
	"DAI":    "dai",
	"FRAX":   "frax",
	"CRVUSD": "crvusd",
	"USDE":   "ethena-usde",
}

// CoinGeckoOracle answers 24h price changes from CoinGecko. Answers are
// cached per coin for TTL and outbound calls are rate limited; a throttled,
// failed, or unmapped lookup is reported as unknown.
type CoinGeckoOracle struct {
	URL    string
	IDs    map[string]string
	Client *http.Client

	cache   *ttlCache
	limiter *rate.Limiter
}

// CoinGeckoOptions configures NewCoinGeckoOracle. Zero values get defaults.
type CoinGeckoOptions struct {
	URL       string
	IDs       map[string]string
	ProxyURL  string
	Timeout   time.Duration
	CacheTTL  time.Duration
	RateLimit rate.Limit // requests per second
	Burst     int
	Now       func() time.Time
}

// NewCoinGeckoOracle creates an oracle with optional proxy support.
func NewCoinGeckoOracle(opts CoinGeckoOptions) *CoinGeckoOracle {
	if opts.URL == "" {
		opts.URL = DefaultCoinGeckoURL
	}
	if len(opts.IDs) == 0 {
		opts.IDs = DefaultCoinGeckoIDs
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	if opts.RateLimit <= 0 {
		// Public tier tolerates roughly 10-30 calls per minute.
		opts.RateLimit = rate.Every(6 * time.Second)
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}

	ids := make(map[string]string, len(opts.IDs))
	for sym, id := range opts.IDs {
		ids[strings.ToUpper(sym)] = id
	}

	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	return &CoinGeckoOracle{
		URL: opts.URL,
		IDs: ids,
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		cache:   newTTLCache(opts.CacheTTL, opts.Now),
		limiter: rate.NewLimiter(opts.RateLimit, opts.Burst),
	}
}

// Change24h implements PriceOracle.
func (o *CoinGeckoOracle) Change24h(ctx context.Context, token string) (float64, bool) {
	id, ok := o.IDs[strings.ToUpper(token)]
	if !ok {
		return 0, false
	}
	if v, ok := o.cache.get(id); ok {
		return v, true
	}
	if !o.limiter.Allow() {
		collectorLog.L().Debug().Str("coin", id).Msg("oracle call throttled")
		return 0, false
	}
	v, err := o.fetch(ctx, id)
	if err != nil {
		collectorLog.L().Warn().Err(err).Str("coin", id).Msg("oracle lookup failed")
		return 0, false
	}
	o.cache.set(id, v)
	return v, true
}

func (o *CoinGeckoOracle) fetch(ctx context.Context, id string) (float64, error) {
	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.URL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, fmt.Errorf("rate limited by upstream")
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body map[string]map[string]*float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	change := body[id]["usd_24h_change"]
	if change == nil {
		return 0, fmt.Errorf("no 24h change for %s", id)
	}
	return *change, nil
}
