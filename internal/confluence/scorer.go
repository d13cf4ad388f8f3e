package confluence

import (
	"sort"

	"market-opportunity-scanner/internal/analysis"
)

// Result is the weighted multi-timeframe agreement verdict for one
// symbol.
type Result struct {
	Direction      string   `json:"direction"`
	Score          float64  `json:"score"` // 0-1 share of the dominant direction
	AgreementCount int      `json:"agreement_count"`
	TimeframeCount int      `json:"timeframe_count"`
	Usable         bool     `json:"usable"`
	IsStrong       bool     `json:"is_strong"`
	StrongSignals  []string `json:"strong_signals,omitempty"`
	Conflicts      []string `json:"conflicts,omitempty"`
}

// Scorer weighs per-timeframe verdicts into a single confluence
// result. Higher timeframes carry more weight.
type Scorer struct {
	weights       map[string]float64
	strongThresh  float64
	minTimeframes int
}

// NewScorer creates a confluence scorer. The weights are assumed to
// be validated at startup (they must sum to 1.0 over the configured
// timeframes).
func NewScorer(weights map[string]float64, strongThresh float64, minTimeframes int) *Scorer {
	if strongThresh <= 0 {
		strongThresh = 0.8
	}
	if minTimeframes <= 0 {
		minTimeframes = 2
	}
	return &Scorer{
		weights:       weights,
		strongThresh:  strongThresh,
		minTimeframes: minTimeframes,
	}
}

// Score reduces the per-timeframe analyses to a confluence verdict.
// Fewer usable timeframes than the minimum yields an unusable result
// and the symbol is skipped for the cycle.
func (s *Scorer) Score(analyses map[string]analysis.TimeframeAnalysis) Result {
	result := Result{Direction: analysis.DirectionNeutral}

	usable := make([]string, 0, len(analyses))
	for tf, a := range analyses {
		if a.Usable {
			usable = append(usable, tf)
		}
	}
	sort.Strings(usable)

	result.TimeframeCount = len(usable)
	if len(usable) < s.minTimeframes {
		return result
	}
	result.Usable = true

	// Weighted vote with neutral as a first-class bucket. A weak
	// directional lean against heavy neutral mass stays NEUTRAL.
	var bullish, bearish, neutral float64
	for _, tf := range usable {
		a := analyses[tf]
		contribution := s.weights[tf] * a.Strength
		switch a.Direction {
		case analysis.DirectionBullish:
			bullish += contribution
		case analysis.DirectionBearish:
			bearish += contribution
		default:
			neutral += contribution
		}
	}
	total := bullish + bearish + neutral
	if total == 0 {
		return result
	}

	dominant := analysis.DirectionNeutral
	best := neutral
	if bullish > bearish && bullish > neutral {
		dominant = analysis.DirectionBullish
		best = bullish
	} else if bearish > bullish && bearish > neutral {
		dominant = analysis.DirectionBearish
		best = bearish
	}

	result.Direction = dominant
	result.Score = best / total
	result.IsStrong = result.Score >= s.strongThresh

	for _, tf := range usable {
		a := analyses[tf]
		switch {
		case a.Direction == dominant:
			result.AgreementCount++
			if a.Strength >= s.strongThresh {
				result.StrongSignals = append(result.StrongSignals, tf)
			}
		case a.Direction != analysis.DirectionNeutral && a.Strength > 0.3:
			result.Conflicts = append(result.Conflicts, tf)
		}
	}

	return result
}
