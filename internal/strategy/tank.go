package strategy

import (
	"fmt"
	"math"
	"strings"

	"LPSentinel/internal/model"
)

// Check compares a tracked pool's previous snapshot with its current one
// and returns one reason per breached rule. An empty result means healthy.
// Every rule is evaluated. A rule whose threshold is zero is disabled.
func Check(prev, cur model.PoolSnapshot, rules model.TankRules) []string {
	var reasons []string

	if rules.MinTVLAbsolute > 0 && cur.TVLUsd > 0 && cur.TVLUsd < rules.MinTVLAbsolute {
		reasons = append(reasons, fmt.Sprintf("TVL low (%s < %s)", USD(cur.TVLUsd), USD(rules.MinTVLAbsolute)))
	}

	if d, ok := dropPct(prev.TVLUsd, cur.TVLUsd); ok && rules.MaxTVLDropPct > 0 && d >= rules.MaxTVLDropPct {
		reasons = append(reasons, fmt.Sprintf("TVL ↓ %.1f%%", d))
	}

	if d, ok := dropPct(prev.VolumeUsd7d, cur.VolumeUsd7d); ok && rules.MaxVol7dDropPct > 0 && d >= rules.MaxVol7dDropPct {
		reasons = append(reasons, fmt.Sprintf("Vol7d ↓ %.1f%%", d))
	}

	if rules.MaxIL7d > 0 && cur.IL7d != nil && *cur.IL7d > rules.MaxIL7d {
		reasons = append(reasons, fmt.Sprintf("il7d %.2f%%", *cur.IL7d*100))
	}

	if d, ok := dropPct(prev.NetAPY, cur.NetAPY); ok && rules.MaxNetAPYDropPct > 0 && d >= rules.MaxNetAPYDropPct {
		reasons = append(reasons, fmt.Sprintf("net APY ↓ %.1f%%", d))
	}

	return reasons
}

// dropPct is the relative decline from prev to cur in percent. It is only
// defined for a positive baseline.
func dropPct(prev, cur float64) (float64, bool) {
	if prev <= 0 {
		return 0, false
	}
	return (prev - cur) / prev * 100, true
}

// USD renders a dollar amount with thousands separators and no decimals.
func USD(v float64) string {
	neg := v < 0
	s := fmt.Sprintf("%.0f", math.Abs(v))
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
