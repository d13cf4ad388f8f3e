package analysis

import (
	"market-opportunity-scanner/internal/exchange"
	"market-opportunity-scanner/internal/patterns"
)

// Direction of a timeframe verdict
const (
	DirectionBullish = "BULLISH"
	DirectionBearish = "BEARISH"
	DirectionNeutral = "NEUTRAL"
)

// TimeframeAnalysis is the full analysis of one symbol on one
// timeframe, with the directional verdict and the raw detector
// results that produced it.
type TimeframeAnalysis struct {
	Timeframe   string                     `json:"timeframe"`
	CandleCount int                        `json:"candle_count"`
	Usable      bool                       `json:"usable"`
	Direction   string                     `json:"direction"`
	Strength    float64                    `json:"strength"` // 0-1
	Gaps        []GapZone                  `json:"gaps,omitempty"`
	Trendlines  *Trendlines                `json:"trendlines,omitempty"`
	Volume      VolumeProfile              `json:"volume"`
	Patterns    []patterns.DetectedPattern `json:"patterns,omitempty"`
	Momentum    float64                    `json:"momentum"`
	LastClose   float64                    `json:"last_close"`
}

// TimeframeAnalyzer runs all detectors on a single timeframe and
// reduces their findings to a directional vote.
type TimeframeAnalyzer struct {
	gaps      *GapDetector
	trend     *TrendlineAnalyzer
	volume    *VolumeAnalyzer
	patterns  *patterns.PatternDetector
	minCandle int
}

// NewTimeframeAnalyzer wires the individual detectors together.
func NewTimeframeAnalyzer(gaps *GapDetector, trend *TrendlineAnalyzer, volume *VolumeAnalyzer, pat *patterns.PatternDetector) *TimeframeAnalyzer {
	return &TimeframeAnalyzer{
		gaps:      gaps,
		trend:     trend,
		volume:    volume,
		patterns:  pat,
		minCandle: 20,
	}
}

// Analyze runs every detector over the candle series and votes on a
// direction. Series shorter than 20 candles produce an unusable
// neutral result rather than an error.
func (ta *TimeframeAnalyzer) Analyze(timeframe string, candles []exchange.Kline, currentPrice float64) TimeframeAnalysis {
	result := TimeframeAnalysis{
		Timeframe:   timeframe,
		CandleCount: len(candles),
		Direction:   DirectionNeutral,
	}
	if len(candles) < ta.minCandle {
		return result
	}
	result.Usable = true
	result.LastClose = candles[len(candles)-1].Close

	result.Gaps = ta.gaps.Detect(candles, currentPrice)
	result.Trendlines = ta.trend.Analyze(candles)
	result.Volume = ta.volume.Analyze(candles)
	result.Patterns = ta.patterns.Detect(candles)
	if m, ok := Momentum(candles); ok {
		result.Momentum = m
	}

	result.Direction, result.Strength = ta.vote(result, candles)
	return result
}

// vote tallies directional evidence from each detector. A simple
// majority (>50% of votes) sets the direction; anything weaker is
// neutral at half the winning ratio.
func (ta *TimeframeAnalyzer) vote(result TimeframeAnalysis, candles []exchange.Kline) (string, float64) {
	var bullish, bearish int

	for _, gap := range result.Gaps {
		if gap.Filled || !gap.Active || gap.Strength <= 5 {
			continue
		}
		if gap.Type == BullishGap {
			bullish++
		} else {
			bearish++
		}
	}

	if tl := result.Trendlines; tl != nil {
		if tl.ResistanceBreak {
			bullish++
		}
		if tl.SupportBreak {
			bearish++
		}
	}

	for _, p := range result.Patterns {
		if p.Confidence <= 70 {
			continue
		}
		if p.Direction == patterns.Bullish {
			bullish++
		} else {
			bearish++
		}
	}

	// A volume spike votes with the short-term price direction
	if result.Volume.Spike && len(candles) >= 6 {
		now := candles[len(candles)-1].Close
		back := candles[len(candles)-6].Close
		if now > back {
			bullish++
		} else if now < back {
			bearish++
		}
	}

	total := bullish + bearish
	if total == 0 {
		return DirectionNeutral, 0
	}

	bullRatio := float64(bullish) / float64(total)
	bearRatio := float64(bearish) / float64(total)

	switch {
	case bullRatio > 0.5:
		return DirectionBullish, bullRatio
	case bearRatio > 0.5:
		return DirectionBearish, bearRatio
	default:
		return DirectionNeutral, maxF(bullRatio, bearRatio) * 0.5
	}
}
