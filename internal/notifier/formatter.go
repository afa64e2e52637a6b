package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"LPSentinel/internal/model"
	"LPSentinel/internal/strategy"
)

// FormatPicks renders a recommendation post.
func FormatPicks(title, mode string, chains []string, picks []model.Pick, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🟢 **%s — %s**\n", title, now.Format("2006-01-02")))
	if mode != "" {
		b.WriteString(fmt.Sprintf("Mode: %s | Universe: DeFiLlama pools\n", mode))
	}
	if len(chains) > 0 {
		sorted := append([]string(nil), chains...)
		sort.Strings(sorted)
		b.WriteString(fmt.Sprintf("Chains: %s\n", strings.Join(sorted, ", ")))
	}
	b.WriteString("\n")
	for _, p := range picks {
		b.WriteString(fmt.Sprintf("• **%s** | %s | `%s`\n", p.Pool.Project, p.Pool.Chain, p.Pool.Symbol))
		b.WriteString(fmt.Sprintf("  Net~%.2f%% | APY:%.2f%% | TVL:%s | Vol7d:%s | il7d:%s",
			p.NetAPY, p.Pool.APY, strategy.USD(p.Pool.TVLUsd), strategy.USD(p.Pool.VolumeUsd7d), formatIL(p.Pool.IL7d)))
		if p.Tier != "" {
			b.WriteString(fmt.Sprintf(" | %s", p.Tier))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatAlert renders a degradation alert.
func FormatAlert(label string, bad []model.Degradation, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔴 **%s LP ALERT — %s**\n", label, now.Format("2006-01-02 15:04")))
	b.WriteString("One or more recommended pools degraded:\n\n")
	for _, d := range bad {
		s := d.Snapshot
		b.WriteString(fmt.Sprintf("• **%s** | %s | `%s`\n", s.Project, s.Chain, s.Symbol))
		b.WriteString(fmt.Sprintf("  Reasons: %s\n", strings.Join(d.Reasons, ", ")))
		b.WriteString(fmt.Sprintf("  Now: TVL %s | Vol7d %s | net~%.2f%% | il7d:%s\n",
			strategy.USD(s.TVLUsd), strategy.USD(s.VolumeUsd7d), s.NetAPY, formatIL(s.IL7d)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatNoPicks renders the notice sent when no pool passed any policy.
func FormatNoPicks(label string, refresh bool, now time.Time) string {
	if refresh {
		return fmt.Sprintf("⚠️ **%s** — %s\nAuto-refresh found no pools matching filters.", label, now.Format("2006-01-02 15:04"))
	}
	return fmt.Sprintf("⚠️ **%s** — %s\nNo pools matched the filters. Consider lowering min_tvl/min_vol7d.", label, now.Format("2006-01-02"))
}

// FormatError renders the best-effort failure notice. The message part is
// cut at 160 characters.
func FormatError(label, kind string, err error) string {
	msg := []rune(err.Error())
	if len(msg) > 160 {
		msg = msg[:160]
	}
	return fmt.Sprintf("⚠️ %s error: `%s: %s`", label, kind, string(msg))
}

// FormatStatus renders the current monitor state for chat commands.
func FormatStatus(label string, state *model.MonitorState, cadence string, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 %s status | %s\n\n", label, now.Format("2006-01-02 15:04")))
	if state.LastPostAt != nil {
		b.WriteString(fmt.Sprintf("Last post: %s (%s ago)\n", state.LastPostAt.Format("2006-01-02 15:04"),
			now.Sub(*state.LastPostAt).Truncate(time.Minute)))
	} else {
		b.WriteString("Last post: never\n")
	}
	b.WriteString(fmt.Sprintf("Cadence: every %s\n", cadence))
	b.WriteString(fmt.Sprintf("Tracked pools: %d\n", len(state.Current)))
	for _, s := range state.Current {
		b.WriteString(fmt.Sprintf("• %s | %s | %s | TVL %s | net~%.2f%%\n",
			s.Project, s.Chain, s.Symbol, strategy.USD(s.TVLUsd), s.NetAPY))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatIL(il *float64) string {
	if il == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *il*100)
}
