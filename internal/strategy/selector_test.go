package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LPSentinel/internal/model"
)

func midProfile() model.Profile {
	return model.Profile{
		RecommendN:  5,
		Chains:      []string{"Ethereum", "Arbitrum", "Base"},
		StableHints: DefaultStableHints,
		BaseHints:   DefaultBaseHints,
		Classify:    model.ClassifyStandard,
		Haircut:     0.25,
		Weights:     model.Weights{Yield: 0.6, Volume: 1},
		Tiers: []model.Policy{
			{
				Name: "primary", MinTVL: 100e6, MinVol7d: 25e6, MaxAPY: 30, MaxIL7d: 0.01,
				Categories: []model.Category{model.CategoryStableStable, model.CategoryBaseBase},
			},
			{
				Name: "fallback", MinTVL: 75e6, MinVol7d: 15e6, MaxAPY: 35, MaxIL7d: 0.015,
				Categories: []model.Category{model.CategoryStableStable, model.CategoryBaseBase, model.CategoryStableBase},
			},
		},
	}
}

func pool(id, chain, symbol string, tvl, vol, apy float64) model.Pool {
	return model.Pool{ID: id, Chain: chain, Project: "proj-" + id, Symbol: symbol, TVLUsd: tvl, VolumeUsd7d: vol, APY: apy}
}

func ids(picks []model.Pick) []string {
	out := make([]string, len(picks))
	for i, p := range picks {
		out[i] = p.Pool.ID
	}
	return out
}

func TestAccepts(t *testing.T) {
	s := NewSelector(midProfile())
	primary := s.Tiers[0]

	ok := pool("a", "Ethereum", "USDC-USDT", 200e6, 30e6, 5)
	assert.True(t, s.Accepts(ok, primary))

	wrongChain := ok
	wrongChain.Chain = "Fantom"
	assert.False(t, s.Accepts(wrongChain, primary))

	wrongType := ok
	wrongType.Symbol = "WETH-USDC"
	assert.False(t, s.Accepts(wrongType, primary))

	thin := ok
	thin.TVLUsd = 99e6
	assert.False(t, s.Accepts(thin, primary))

	quiet := ok
	quiet.VolumeUsd7d = 1e6
	assert.False(t, s.Accepts(quiet, primary))

	tooGood := ok
	tooGood.APY = 31
	assert.False(t, s.Accepts(tooGood, primary))

	atCap := ok
	atCap.APY = 30
	assert.True(t, s.Accepts(atCap, primary))

	lossy := ok
	lossy.IL7d = model.Float(0.02)
	assert.False(t, s.Accepts(lossy, primary))

	unknownIL := ok
	unknownIL.IL7d = nil
	assert.True(t, s.Accepts(unknownIL, primary))
}

func TestAccepts_NonFiniteMetrics(t *testing.T) {
	s := NewSelector(midProfile())
	primary := s.Tiers[0]
	ok := pool("a", "Ethereum", "USDC-USDT", 200e6, 30e6, 5)

	nanTVL := ok
	nanTVL.TVLUsd = math.NaN()
	assert.False(t, s.Accepts(nanTVL, primary))

	infVol := ok
	infVol.VolumeUsd7d = math.Inf(1)
	assert.False(t, s.Accepts(infVol, primary))

	// NaN passes every raw comparison; here it reads as zero, same as Score.
	nanIL := ok
	nanIL.IL7d = model.Float(math.NaN())
	assert.True(t, s.Accepts(nanIL, primary))

	overCeiling := ok
	overCeiling.APY = 31
	assert.False(t, s.Accepts(overCeiling, primary))
	nanAPY := ok
	nanAPY.APY = math.NaN()
	assert.Equal(t, s.Accepts(pool("a", "Ethereum", "USDC-USDT", 200e6, 30e6, 0), primary), s.Accepts(nanAPY, primary))
}

func TestSelect_SingleTierTopN(t *testing.T) {
	p := midProfile()
	p.Tiers = p.Tiers[:1]
	p.RecommendN = 2
	s := NewSelector(p)

	universe := []model.Pool{
		pool("low", "Ethereum", "USDC-USDT", 150e6, 30e6, 2),
		pool("high", "Ethereum", "DAI-USDC", 150e6, 30e6, 20),
		pool("mid", "Arbitrum", "USDT-DAI", 150e6, 30e6, 10),
		pool("reject", "Ethereum", "WETH-USDC", 500e6, 90e6, 25),
	}
	picks := s.Select(universe)
	assert.Equal(t, []string{"high", "mid"}, ids(picks))
	assert.Equal(t, "primary", picks[0].Tier)
	assert.Equal(t, model.CategoryStableStable, picks[0].Category)
	assert.Greater(t, picks[0].Score, picks[1].Score)
}

func TestSelect_PrimaryThenFallback(t *testing.T) {
	s := NewSelector(midProfile())
	universe := []model.Pool{
		// Primary and fallback.
		pool("prime", "Ethereum", "USDC-USDT", 300e6, 60e6, 4),
		// Fallback only: stable-base is not in the primary tier.
		pool("fb-a", "Ethereum", "WETH-USDC", 90e6, 20e6, 12),
		pool("fb-b", "Base", "CBETH-USDC", 80e6, 16e6, 25),
		// Fallback only: TVL below primary minimum.
		pool("fb-c", "Arbitrum", "WBTC-WETH", 76e6, 18e6, 3),
		// Neither.
		pool("none", "Ethereum", "ARB-OP", 900e6, 300e6, 5),
	}

	picks := s.Select(universe)
	require.Len(t, picks, 4)
	assert.Equal(t, "prime", picks[0].Pool.ID)
	assert.Equal(t, "primary", picks[0].Tier)

	rest := picks[1:]
	for i := 1; i < len(rest); i++ {
		assert.GreaterOrEqual(t, rest[i-1].Score, rest[i].Score)
	}
	for _, p := range rest {
		assert.Equal(t, "fallback", p.Tier)
	}
	assert.ElementsMatch(t, []string{"fb-a", "fb-b", "fb-c"}, ids(rest))
}

func TestSelect_NoDuplicatesAcrossTiers(t *testing.T) {
	s := NewSelector(midProfile())
	universe := []model.Pool{
		pool("a", "Ethereum", "USDC-USDT", 300e6, 60e6, 4),
		pool("b", "Ethereum", "WETH-WBTC", 300e6, 60e6, 6),
		pool("a", "Ethereum", "USDC-USDT", 300e6, 60e6, 4),
	}
	picks := s.Select(universe)
	assert.Equal(t, []string{"b", "a"}, ids(picks))
}

func TestSelect_NeverExceedsN(t *testing.T) {
	p := midProfile()
	p.RecommendN = 3
	s := NewSelector(p)
	var universe []model.Pool
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		universe = append(universe, pool(id, "Ethereum", "USDC-USDT", 300e6, 60e6, 4))
	}
	picks := s.Select(universe)
	assert.Len(t, picks, 3)
	// Equal scores fall back to ID order.
	assert.Equal(t, []string{"a", "b", "c"}, ids(picks))

	for _, pk := range picks {
		passes := false
		for _, tier := range s.Tiers {
			passes = passes || s.Accepts(pk.Pool, tier)
		}
		assert.True(t, passes)
	}
}

func TestSelect_Deterministic(t *testing.T) {
	s := NewSelector(midProfile())
	universe := []model.Pool{
		pool("x", "Ethereum", "USDC-USDT", 300e6, 60e6, 4),
		pool("y", "Arbitrum", "WETH-USDC", 90e6, 20e6, 12),
		pool("z", "Base", "WETH-WBTC", 120e6, 30e6, 8),
	}
	first := s.Select(universe)
	second := s.Select(universe)
	assert.Equal(t, first, second)
}

func TestSelect_EmptyIsValid(t *testing.T) {
	s := NewSelector(midProfile())
	assert.Empty(t, s.Select(nil))
	assert.Empty(t, s.Select([]model.Pool{pool("a", "Fantom", "USDC-USDT", 1e9, 1e9, 1)}))
}

func TestSelect_SkipsPoolsWithoutID(t *testing.T) {
	s := NewSelector(midProfile())
	picks := s.Select([]model.Pool{pool("", "Ethereum", "USDC-USDT", 300e6, 60e6, 4)})
	assert.Empty(t, picks)
}
