package model

import "time"

// Pool is one upstream pool record as delivered by the data source.
// Optional upstream fields are pointers: nil means the field was absent.
type Pool struct {
	ID          string
	Chain       string
	Project     string
	Symbol      string
	TVLUsd      float64
	VolumeUsd7d float64
	APYBase     *float64
	APYReward   *float64
	APY         float64
	IL7d        *float64 // fraction, 0.01 = 1%
}

// PoolSnapshot is a point-in-time projection of a Pool. Two snapshots of
// the same pool taken at different times are compared for degradation.
type PoolSnapshot struct {
	Pool        string    `json:"pool"`
	Chain       string    `json:"chain"`
	Project     string    `json:"project"`
	Symbol      string    `json:"symbol"`
	TVLUsd      float64   `json:"tvl_usd"`
	VolumeUsd7d float64   `json:"volume_usd_7d"`
	IL7d        *float64  `json:"il7d"`
	NetAPY      float64   `json:"net_apy"`
	APY         float64   `json:"apy"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Category is the composition class of a pool derived from its symbol.
type Category string

const (
	CategoryStableStable Category = "stable-stable"
	CategoryStableBase   Category = "stable-base"
	CategoryBaseBase     Category = "base-base"
	CategoryOther        Category = "other"
)

// Pick is a selected pool together with the values it was ranked by.
type Pick struct {
	Pool     Pool
	Score    float64
	NetAPY   float64
	Category Category
	Tier     string // name of the policy that admitted the pool
}

// Float returns a pointer to v. Handy for optional pool fields.
func Float(v float64) *float64 { return &v }
