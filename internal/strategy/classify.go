package strategy

import (
	"strings"

	"LPSentinel/internal/model"
)

// Default hint lists used by the presets.
var (
	DefaultStableHints = []string{"USDC", "USDT", "DAI", "LUSD", "FRAX", "CRVUSD", "PYUSD", "USDE"}
	DefaultBaseHints   = []string{"ETH", "WETH", "BTC", "WBTC", "STETH", "CBETH", "SOL", "BNB"}
)

// Classifier buckets pool symbols by counting stable and base token hints.
type Classifier struct {
	StableHints []string
	BaseHints   []string
	Mode        model.ClassifyMode
}

// NewClassifier returns a classifier with upper-cased hint lists.
func NewClassifier(stable, base []string, mode model.ClassifyMode) Classifier {
	return Classifier{
		StableHints: upperAll(stable),
		BaseHints:   upperAll(base),
		Mode:        mode,
	}
}

// Normalize upper-cases a symbol and collapses the separators - / space _ +
// into a single '|'.
func Normalize(symbol string) string {
	parts := strings.FieldsFunc(strings.ToUpper(symbol), func(r rune) bool {
		switch r {
		case '-', '/', ' ', '_', '+', '|':
			return true
		}
		return false
	})
	return strings.Join(parts, "|")
}

// Classify maps a symbol to its composition category.
func (c Classifier) Classify(symbol string) model.Category {
	s := Normalize(symbol)
	if s == "" {
		return model.CategoryOther
	}
	stable := countHints(s, c.StableHints)
	base := countHints(s, c.BaseHints)

	if c.Mode == model.ClassifyStableOnly {
		if stable >= 2 {
			return model.CategoryStableStable
		}
		return model.CategoryOther
	}

	switch {
	case stable >= 2 && base == 0:
		return model.CategoryStableStable
	case stable >= 1 && base >= 1:
		return model.CategoryStableBase
	case base >= 2 && stable == 0:
		return model.CategoryBaseBase
	default:
		return model.CategoryOther
	}
}

// countHints counts distinct hints contained in the normalized symbol.
func countHints(s string, hints []string) int {
	n := 0
	seen := make(map[string]struct{}, len(hints))
	for _, h := range hints {
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		if strings.Contains(s, h) {
			n++
		}
	}
	return n
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToUpper(strings.TrimSpace(s)))
	}
	return out
}
