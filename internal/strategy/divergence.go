package strategy

import (
	"fmt"
	"math"
	"strings"

	"LPSentinel/internal/model"
)

// Severity tiers for the price-divergence signal.
type Severity string

const (
	SeverityNone  Severity = ""
	SeverityWatch Severity = "watch"
	SeverityExit  Severity = "exit"
)

// ExtractPair splits a two-token symbol such as "WETH-USDC" or "SOL/USDC".
// Anything other than exactly two non-empty tokens is rejected.
func ExtractPair(symbol string) (string, string, bool) {
	if symbol == "" {
		return "", "", false
	}
	parts := strings.Split(strings.ToUpper(strings.ReplaceAll(symbol, "/", "-")), "-")
	if len(parts) != 2 {
		return "", "", false
	}
	a, b := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// Divergence grades the absolute gap between two 24h price changes.
func Divergence(changeA, changeB float64, rules model.DivergenceRules) (Severity, float64) {
	div := math.Abs(changeA - changeB)
	switch {
	case rules.ExitPct > 0 && div >= rules.ExitPct:
		return SeverityExit, div
	case rules.WarnPct > 0 && div >= rules.WarnPct:
		return SeverityWatch, div
	}
	return SeverityNone, div
}

// DivergenceReason renders a reason string for a non-empty severity.
func DivergenceReason(sev Severity, div float64) string {
	switch sev {
	case SeverityExit:
		return fmt.Sprintf("Price divergence %.1f%% (IL risk)", div)
	case SeverityWatch:
		return fmt.Sprintf("Price divergence %.1f%% (watch)", div)
	}
	return ""
}
