package collector

import (
	"context"
	"errors"

	"LPSentinel/internal/model"
)

// ErrEmptyUniverse is returned when the upstream answers with no pools.
var ErrEmptyUniverse = errors.New("pool universe is empty")

// PoolSource fetches the current pool universe.
type PoolSource interface {
	FetchPools(ctx context.Context) ([]model.Pool, error)
	Name() string
}

// PriceOracle reports a token's 24h price change in percent. ok is false
// when the change is unknown for any reason.
type PriceOracle interface {
	Change24h(ctx context.Context, token string) (change float64, ok bool)
}

// MockSource returns a fixed, controllable universe for development and
// testing.
type MockSource struct {
	Pools []model.Pool
	Err   error
	Calls int
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchPools(_ context.Context) ([]model.Pool, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Pool, len(m.Pools))
	copy(out, m.Pools)
	return out, nil
}

// StaticOracle serves fixed 24h changes keyed by token symbol.
type StaticOracle map[string]float64

func (s StaticOracle) Change24h(_ context.Context, token string) (float64, bool) {
	v, ok := s[token]
	return v, ok
}
