package strategy

import (
	"math"
	"time"

	"LPSentinel/internal/model"
)

// NetAPY discounts reward yield by haircut. When the pool carries neither a
// base nor a reward yield, the blended APY is used as is.
func NetAPY(p model.Pool, haircut float64) float64 {
	if p.APYBase == nil && p.APYReward == nil {
		return finite(p.APY)
	}
	var base, reward float64
	if p.APYBase != nil {
		base = finite(*p.APYBase)
	}
	if p.APYReward != nil {
		reward = finite(*p.APYReward)
	}
	return base + haircut*reward
}

// Scorer ranks pools. Scores have no absolute meaning.
type Scorer struct {
	Weights model.Weights
	Haircut float64
}

// Score is Yield*net + log10(tvl) + Volume*log10(vol7d), with both
// magnitudes floored at 1 before the logarithm.
func (s Scorer) Score(p model.Pool) float64 {
	return s.Weights.Yield*NetAPY(p, s.Haircut) +
		math.Log10(math.Max(finite(p.TVLUsd), 1)) +
		s.Weights.Volume*math.Log10(math.Max(finite(p.VolumeUsd7d), 1))
}

// Snapshot projects a pool at time at.
func Snapshot(p model.Pool, haircut float64, at time.Time) model.PoolSnapshot {
	var il *float64
	if p.IL7d != nil {
		il = model.Float(*p.IL7d)
	}
	return model.PoolSnapshot{
		Pool:        p.ID,
		Chain:       p.Chain,
		Project:     p.Project,
		Symbol:      p.Symbol,
		TVLUsd:      finite(p.TVLUsd),
		VolumeUsd7d: finite(p.VolumeUsd7d),
		IL7d:        il,
		NetAPY:      NetAPY(p, haircut),
		APY:         finite(p.APY),
		CapturedAt:  at,
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
