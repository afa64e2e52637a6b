package config

import (
	"sort"
	"time"

	"LPSentinel/internal/model"
	"LPSentinel/internal/strategy"
)

// DefaultPreset is used when neither the file nor the environment names one.
const DefaultPreset = "mid"

var defaultChains = []string{"Ethereum", "Arbitrum", "Optimism", "Base", "Solana", "BSC"}

var presets = map[string]func() model.Profile{
	"stable": stablePreset,
	"mid":    midPreset,
	"short":  shortPreset,
}

// Preset returns a fresh copy of the named profile.
func Preset(name string) (model.Profile, bool) {
	fn, ok := presets[name]
	if !ok {
		return model.Profile{}, false
	}
	return fn(), true
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Stable-stable only, weekly post.
func stablePreset() model.Profile {
	return model.Profile{
		Name:       "stable",
		Label:      "STABLE WEEKLY",
		Mode:       "STABLE-STABLE ONLY",
		RecommendN: 5,
		Chains:     clone(defaultChains),
		StableHints: []string{
			"USDC", "USDT", "DAI", "LUSD", "FRAX", "CRVUSD", "PYUSD", "USDE",
			"USD0", "USDB", "GUSD", "TUSD", "SUSD",
		},
		BaseHints: clone(strategy.DefaultBaseHints),
		Classify:  model.ClassifyStableOnly,
		Haircut:   0.25,
		Weights:   model.Weights{Yield: 0.5, Volume: 0.7},
		Tiers: []model.Policy{{
			Name:       "stable",
			MinTVL:     50_000_000,
			MinVol7d:   3_000_000,
			MaxAPY:     20,
			MaxIL7d:    0.005,
			Categories: []model.Category{model.CategoryStableStable},
		}},
		Tank: model.TankRules{
			MaxTVLDropPct:    20,
			MaxVol7dDropPct:  50,
			MaxIL7d:          0.01,
			MaxNetAPYDropPct: 60,
			MinTVLAbsolute:   20_000_000,
		},
		AutoPost:     true,
		Cadence:      model.Cadence{Every: 7, Unit: "days"},
		ScanInterval: 20 * time.Minute,
	}
}

// Primary tier with a looser fallback, posted every two days.
func midPreset() model.Profile {
	return model.Profile{
		Name:        "mid",
		Label:       "MID-TERM",
		Mode:        "BALANCED / EVERY FEW DAYS",
		RecommendN:  5,
		Chains:      clone(defaultChains),
		StableHints: clone(strategy.DefaultStableHints),
		BaseHints:   clone(strategy.DefaultBaseHints),
		Classify:    model.ClassifyStandard,
		Haircut:     0.25,
		Weights:     model.Weights{Yield: 0.6, Volume: 1.0},
		Tiers: []model.Policy{
			{
				Name:       "primary",
				MinTVL:     100_000_000,
				MinVol7d:   25_000_000,
				MaxAPY:     30,
				MaxIL7d:    0.01,
				Categories: []model.Category{model.CategoryStableStable, model.CategoryBaseBase},
			},
			{
				Name:       "fallback",
				MinTVL:     75_000_000,
				MinVol7d:   15_000_000,
				MaxAPY:     35,
				MaxIL7d:    0.015,
				Categories: []model.Category{model.CategoryStableStable, model.CategoryBaseBase, model.CategoryStableBase},
			},
		},
		Tank: model.TankRules{
			MaxTVLDropPct:    25,
			MaxVol7dDropPct:  40,
			MaxIL7d:          0.02,
			MaxNetAPYDropPct: 50,
		},
		AutoPost:     true,
		Cadence:      model.Cadence{Every: 2, Unit: "days"},
		ScanInterval: 20 * time.Minute,
	}
}

// Higher yield, faster rotation, price divergence on.
func shortPreset() model.Profile {
	return model.Profile{
		Name:        "short",
		Label:       "SHORT-TERM",
		Mode:        "ACTIVE / CHECK DAILY",
		RecommendN:  5,
		Chains:      clone(defaultChains),
		StableHints: []string{"USDC", "USDT", "DAI", "LUSD", "FRAX", "CRVUSD", "USDE"},
		BaseHints:   clone(strategy.DefaultBaseHints),
		Classify:    model.ClassifyStandard,
		Haircut:     0.20,
		Weights:     model.Weights{Yield: 0.7, Volume: 1.0},
		Tiers: []model.Policy{{
			Name:       "short",
			MinTVL:     30_000_000,
			MinVol7d:   20_000_000,
			MaxAPY:     80,
			MaxIL7d:    0.03,
			Categories: []model.Category{model.CategoryStableBase, model.CategoryBaseBase},
		}},
		Tank: model.TankRules{
			MaxTVLDropPct:    20,
			MaxVol7dDropPct:  30,
			MaxIL7d:          0.035,
			MaxNetAPYDropPct: 40,
		},
		Divergence:   model.DivergenceRules{Enabled: true, WarnPct: 8, ExitPct: 12},
		AutoPost:     true,
		Cadence:      model.Cadence{Every: 24, Unit: "hours"},
		ScanInterval: time.Minute,
	}
}

func clone(in []string) []string {
	return append([]string(nil), in...)
}
