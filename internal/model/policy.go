package model

import (
	"fmt"
	"time"
)

// Policy is one tier of selection thresholds. IL values are fractions.
type Policy struct {
	Name       string     `yaml:"name"`
	MinTVL     float64    `yaml:"min_tvl"`
	MinVol7d   float64    `yaml:"min_vol7d"`
	MaxAPY     float64    `yaml:"max_apy"`
	MaxIL7d    float64    `yaml:"max_il7d"`
	Categories []Category `yaml:"allowed_types"`
}

// Allows reports whether c is one of the policy's allowed categories.
func (p Policy) Allows(c Category) bool {
	for _, a := range p.Categories {
		if a == c {
			return true
		}
	}
	return false
}

// TankRules are the health thresholds applied to tracked pools.
// MinTVLAbsolute of zero disables the absolute floor.
type TankRules struct {
	MaxTVLDropPct    float64 `yaml:"max_tvl_drop_pct"`
	MaxVol7dDropPct  float64 `yaml:"max_vol7d_drop_pct"`
	MaxIL7d          float64 `yaml:"max_il7d"`
	MaxNetAPYDropPct float64 `yaml:"max_net_apy_drop_pct"`
	MinTVLAbsolute   float64 `yaml:"min_tvl_absolute"`
}

// Weights are the score coefficients for net yield and volume. TVL always
// carries weight 1.
type Weights struct {
	Yield  float64 `yaml:"yield"`
	Volume float64 `yaml:"volume"`
}

// ClassifyMode selects how strictly symbols are bucketed.
type ClassifyMode string

const (
	ClassifyStandard   ClassifyMode = "standard"
	ClassifyStableOnly ClassifyMode = "stable_only"
)

// Cadence is the minimum interval between scheduled posts.
type Cadence struct {
	Every int    `yaml:"every"`
	Unit  string `yaml:"unit"` // "days" or "hours"
}

// Duration converts the cadence into a time.Duration.
func (c Cadence) Duration() (time.Duration, error) {
	switch c.Unit {
	case "days", "day":
		return time.Duration(c.Every) * 24 * time.Hour, nil
	case "hours", "hour":
		return time.Duration(c.Every) * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown cadence unit %q", c.Unit)
	}
}

func (c Cadence) String() string {
	return fmt.Sprintf("%d %s", c.Every, c.Unit)
}

// DivergenceRules configures the price-divergence signal. Percent values.
type DivergenceRules struct {
	Enabled bool    `yaml:"enabled"`
	WarnPct float64 `yaml:"warn_pct"`
	ExitPct float64 `yaml:"exit_pct"`
}

// Profile bundles everything the engine needs for one running variant.
type Profile struct {
	Name         string          `yaml:"name"`
	Label        string          `yaml:"label"`
	Mode         string          `yaml:"mode"`
	RecommendN   int             `yaml:"recommend_n"`
	Chains       []string        `yaml:"chains"`
	StableHints  []string        `yaml:"stable_hints"`
	BaseHints    []string        `yaml:"base_hints"`
	Classify     ClassifyMode    `yaml:"classify"`
	Haircut      float64         `yaml:"reward_haircut"`
	Weights      Weights         `yaml:"weights"`
	Tiers        []Policy        `yaml:"tiers"`
	Tank         TankRules       `yaml:"tank_rules"`
	Divergence   DivergenceRules `yaml:"price_divergence"`
	AutoPost     bool            `yaml:"auto_post"`
	Cadence      Cadence         `yaml:"cadence"`
	ScanInterval time.Duration   `yaml:"scan_interval"`
}
