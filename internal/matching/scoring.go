package matching

import (
	"math"

	"consultant-match-go/internal/config"
)

// NormalizeScore maps a raw similarity onto the bounded integer match
// score: round(raw*100), capped at the configured ceiling, clamped to
// [0,100]. The mapping is monotonic, so normalization never reorders
// results relative to their raw similarities. NaN and infinite raw values
// fall back to the configured default.
func NormalizeScore(raw float64, cfg config.MatchingConfig) int {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		raw = cfg.DefaultRawSimilarity
	}

	score := int(math.Round(raw * 100))

	ceiling := cfg.ScoreCap
	if ceiling <= 0 {
		ceiling = 100
	}
	if score > ceiling {
		score = ceiling
	}
	if score < 0 {
		score = 0
	}
	return score
}
