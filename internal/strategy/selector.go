package strategy

import (
	"sort"

	"LPSentinel/internal/logger"
	"LPSentinel/internal/model"
)

const selectorLog = logger.Component("selector")

// Selector picks up to N pools from a universe by walking policy tiers in
// order. Later tiers only fill slots the earlier ones left open.
type Selector struct {
	Chains     map[string]struct{}
	Classifier Classifier
	Scorer     Scorer
	Tiers      []model.Policy
	N          int
}

// NewSelector builds a Selector from a profile.
func NewSelector(p model.Profile) *Selector {
	chains := make(map[string]struct{}, len(p.Chains))
	for _, c := range p.Chains {
		chains[c] = struct{}{}
	}
	return &Selector{
		Chains:     chains,
		Classifier: NewClassifier(p.StableHints, p.BaseHints, p.Classify),
		Scorer:     Scorer{Weights: p.Weights, Haircut: p.Haircut},
		Tiers:      p.Tiers,
		N:          p.RecommendN,
	}
}

// Accepts is the filter predicate for one pool under one policy. An absent
// IL estimate never disqualifies. Non-finite metrics compare as zero.
func (s *Selector) Accepts(p model.Pool, pol model.Policy) bool {
	if _, ok := s.Chains[p.Chain]; !ok {
		return false
	}
	if !pol.Allows(s.Classifier.Classify(p.Symbol)) {
		return false
	}
	if finite(p.TVLUsd) < pol.MinTVL {
		return false
	}
	if finite(p.VolumeUsd7d) < pol.MinVol7d {
		return false
	}
	if finite(p.APY) > pol.MaxAPY {
		return false
	}
	if p.IL7d != nil && finite(*p.IL7d) > pol.MaxIL7d {
		return false
	}
	return true
}

// Select returns at most N picks ordered by tier, then score descending.
// Pools are identified by ID; a pool admitted by one tier is never added
// again by a later one. An empty result is not an error.
func (s *Selector) Select(universe []model.Pool) []model.Pick {
	if s.N <= 0 {
		return nil
	}
	picks := make([]model.Pick, 0, s.N)
	taken := make(map[string]struct{})

	for _, tier := range s.Tiers {
		if len(picks) >= s.N {
			break
		}
		cands := make([]model.Pick, 0)
		for _, p := range universe {
			if p.ID == "" {
				continue
			}
			if _, dup := taken[p.ID]; dup {
				continue
			}
			if !s.Accepts(p, tier) {
				continue
			}
			cands = append(cands, model.Pick{
				Pool:     p,
				Score:    s.Scorer.Score(p),
				NetAPY:   NetAPY(p, s.Scorer.Haircut),
				Category: s.Classifier.Classify(p.Symbol),
				Tier:     tier.Name,
			})
		}
		sort.SliceStable(cands, func(i, j int) bool {
			if cands[i].Score != cands[j].Score {
				return cands[i].Score > cands[j].Score
			}
			return cands[i].Pool.ID < cands[j].Pool.ID
		})

		added := 0
		for _, c := range cands {
			if len(picks) >= s.N {
				break
			}
			if _, dup := taken[c.Pool.ID]; dup {
				continue
			}
			taken[c.Pool.ID] = struct{}{}
			picks = append(picks, c)
			added++
		}
		selectorLog.L().Debug().
			Str("tier", tier.Name).
			Int("candidates", len(cands)).
			Int("added", added).
			Msg("tier evaluated")
	}

	selectorLog.L().Info().
		Int("universe", len(universe)).
		Int("picked", len(picks)).
		Int("limit", s.N).
		Msg("selection complete")
	return picks
}
