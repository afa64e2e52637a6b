package collector

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"LPSentinel/internal/model"
)

// llamaPool is the upstream shape. Every field is kept raw because the
// upstream occasionally ships strings, nulls or garbage in them.
type llamaPool struct {
	Pool        json.RawMessage `json:"pool"`
	Chain       json.RawMessage `json:"chain"`
	Project     json.RawMessage `json:"project"`
	Symbol      json.RawMessage `json:"symbol"`
	TVLUsd      json.RawMessage `json:"tvlUsd"`
	VolumeUsd7d json.RawMessage `json:"volumeUsd7d"`
	APYBase     json.RawMessage `json:"apyBase"`
	APYReward   json.RawMessage `json:"apyReward"`
	APY         json.RawMessage `json:"apy"`
	IL7d        json.RawMessage `json:"il7d"`
}

type llamaResponse struct {
	Status string            `json:"status"`
	Data   []json.RawMessage `json:"data"`
}

// decodePools parses a /pools response body into model pools. Only a broken
// envelope is an error; records that are not objects or carry no ID are
// skipped.
func decodePools(body []byte) ([]model.Pool, error) {
	var resp llamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	pools := make([]model.Pool, 0, len(resp.Data))
	skipped := 0
	for _, raw := range resp.Data {
		var lp llamaPool
		if err := json.Unmarshal(raw, &lp); err != nil {
			skipped++
			continue
		}
		p := lp.toModel()
		if p.ID == "" {
			skipped++
			continue
		}
		pools = append(pools, p)
	}
	if skipped > 0 {
		collectorLog.L().Warn().Int("skipped", skipped).Int("kept", len(pools)).Msg("malformed pool records skipped")
	}
	return pools, nil
}

func (lp llamaPool) toModel() model.Pool {
	p := model.Pool{
		ID:          strings.TrimSpace(text(lp.Pool)),
		Chain:       text(lp.Chain),
		Project:     text(lp.Project),
		Symbol:      text(lp.Symbol),
		TVLUsd:      num(lp.TVLUsd),
		VolumeUsd7d: num(lp.VolumeUsd7d),
		APY:         num(lp.APY),
	}
	// A present but non-numeric yield field still counts as present.
	if present(lp.APYBase) {
		p.APYBase = model.Float(num(lp.APYBase))
	}
	if present(lp.APYReward) {
		p.APYReward = model.Float(num(lp.APYReward))
	}
	// Upstream reports il7d in percent; the engine works in fractions.
	// A non-numeric IL is unknown, not zero.
	if v, ok := number(lp.IL7d); ok {
		p.IL7d = model.Float(v / 100)
	}
	return p
}

// present reports whether a raw field exists and is not null.
func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// text returns the string value of raw, or "" for null and non-strings.
func text(raw json.RawMessage) string {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v
}

// num returns the numeric value of raw, or 0 for anything non-numeric.
func num(raw json.RawMessage) float64 {
	v, _ := number(raw)
	return v
}

// number parses a JSON number. Strings and other types are rejected, as
// are NaN and infinities.
func number(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	switch raw[0] {
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
	default:
		return 0, false
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
