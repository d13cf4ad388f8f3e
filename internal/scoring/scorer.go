package scoring

import (
	"math"

	"market-opportunity-scanner/internal/analysis"
	"market-opportunity-scanner/internal/confluence"
)

// Component caps. The components sum to at most 100.
const (
	maxGapScore        = 22.0
	maxTrendlineScore  = 18.0
	maxPatternScore    = 22.0
	maxVolumeScore     = 12.0
	maxMomentumScore   = 8.0
	maxConfluenceScore = 18.0
)

// Classification buckets for a scored opportunity
const (
	ClassStrong   = "STRONG"
	ClassModerate = "MODERATE"
	ClassWeak     = "WEAK"
)

// Breakdown itemizes the composite score by component.
type Breakdown struct {
	Gap        float64 `json:"gap"`
	Trendline  float64 `json:"trendline"`
	Pattern    float64 `json:"pattern"`
	Volume     float64 `json:"volume"`
	Momentum   float64 `json:"momentum"`
	Confluence float64 `json:"confluence"`
	Total      float64 `json:"total"`
}

// Scorer converts detector output on the primary timeframe plus the
// confluence verdict into a 0-100 opportunity score.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the composite score from the primary timeframe's
// analysis and the multi-timeframe confluence result.
func (s *Scorer) Score(primary analysis.TimeframeAnalysis, conf confluence.Result) Breakdown {
	b := Breakdown{
		Gap:        s.gapScore(primary.Gaps),
		Trendline:  s.trendlineScore(primary.Trendlines),
		Pattern:    s.patternScore(primary),
		Volume:     s.volumeScore(primary.Volume),
		Momentum:   s.momentumScore(primary.Momentum),
		Confluence: s.confluenceScore(conf),
	}
	b.Total = math.Min(b.Gap+b.Trendline+b.Pattern+b.Volume+b.Momentum+b.Confluence, 100)
	return b
}

// Classify maps a composite score to its signal class.
func Classify(score float64) string {
	switch {
	case score >= 80:
		return ClassStrong
	case score >= 60:
		return ClassModerate
	default:
		return ClassWeak
	}
}

func (s *Scorer) gapScore(gaps []analysis.GapZone) float64 {
	var score float64
	for _, gap := range gaps {
		if gap.Filled || !gap.Active {
			continue
		}
		contribution := gap.Strength * 1.8
		if gap.VolumeConfirmed {
			contribution *= 1.5
		}
		if gap.NearPrice {
			contribution *= 2
		}
		score += contribution
	}
	return math.Min(score, maxGapScore)
}

func (s *Scorer) trendlineScore(tl *analysis.Trendlines) float64 {
	if tl == nil {
		return 0
	}
	if tl.ResistanceBreak || tl.SupportBreak {
		return maxTrendlineScore
	}
	// Well-fitted lines score on quality even without a break
	avgR2 := (tl.ResistanceR2 + tl.SupportR2) / 2
	return math.Min(avgR2*9, maxTrendlineScore)
}

func (s *Scorer) patternScore(primary analysis.TimeframeAnalysis) float64 {
	var score float64
	for _, p := range primary.Patterns {
		if p.Confidence <= 70 {
			continue
		}
		score += p.Strength * 1.8 * (p.Confidence / 100)
	}
	return math.Min(score, maxPatternScore)
}

func (s *Scorer) volumeScore(v analysis.VolumeProfile) float64 {
	if !v.Spike {
		return 0
	}
	return math.Min(v.Ratio*2.4, maxVolumeScore)
}

func (s *Scorer) momentumScore(momentum float64) float64 {
	return math.Min(math.Abs(momentum)*80, maxMomentumScore)
}

func (s *Scorer) confluenceScore(conf confluence.Result) float64 {
	if !conf.Usable {
		return 0
	}

	score := conf.Score * 9

	// Agreement bonus, with an extra kick when every timeframe lines up
	if conf.AgreementCount >= 2 && conf.TimeframeCount >= 2 {
		agreementRatio := float64(conf.AgreementCount) / float64(conf.TimeframeCount)
		score += agreementRatio * 9
		if conf.AgreementCount == conf.TimeframeCount && conf.TimeframeCount >= 3 {
			score += 4
		}
	}
	score += 2.5 * float64(len(conf.StrongSignals))
	score -= 1.8 * float64(len(conf.Conflicts))

	return math.Max(0, math.Min(score, maxConfluenceScore))
}
