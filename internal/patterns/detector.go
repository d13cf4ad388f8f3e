package patterns

import (
	"market-opportunity-scanner/internal/exchange"
)

// PatternType represents a chart pattern shape
type PatternType string

const (
	// Reversal patterns
	DoubleTop        PatternType = "double_top"
	DoubleBottom     PatternType = "double_bottom"
	TripleTop        PatternType = "triple_top"
	TripleBottom     PatternType = "triple_bottom"
	HeadAndShoulders PatternType = "head_and_shoulders"

	// Continuation patterns
	BullFlag PatternType = "bull_flag"
	BearFlag PatternType = "bear_flag"
)

// Direction is the expected resolution of the pattern
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
)

// DetectedPattern represents a recognized chart pattern
type DetectedPattern struct {
	Type         PatternType `json:"type"`
	Direction    Direction   `json:"direction"`
	Strength     float64     `json:"strength"`   // 0-10
	Confidence   float64     `json:"confidence"` // 0-100
	Target       float64     `json:"target,omitempty"`
	Invalidation float64     `json:"invalidation,omitempty"`
	Neckline     float64     `json:"neckline,omitempty"`
}

// PatternDetector detects multi-candle chart patterns
type PatternDetector struct {
	tolerance float64 // Relative height tolerance for matching peaks
	lookback  int
}

// NewPatternDetector creates a detector with the given peak height
// tolerance. Non-positive values fall back to 1%.
func NewPatternDetector(tolerance float64) *PatternDetector {
	if tolerance <= 0 {
		tolerance = 0.01
	}
	return &PatternDetector{
		tolerance: tolerance,
		lookback:  50,
	}
}

// Detect scans the most recent candles for reversal and continuation
// patterns.
func (pd *PatternDetector) Detect(candles []exchange.Kline) []DetectedPattern {
	if len(candles) < 15 {
		return nil
	}

	recent := candles
	if len(recent) > pd.lookback {
		recent = recent[len(recent)-pd.lookback:]
	}

	highs := make([]float64, len(recent))
	lows := make([]float64, len(recent))
	for i, c := range recent {
		highs[i] = c.High
		lows[i] = c.Low
	}

	peaks := findPeaks(highs, 3)
	troughs := findTroughs(lows, 3)

	var patterns []DetectedPattern
	patterns = append(patterns, pd.detectTops(highs, lows, peaks)...)
	patterns = append(patterns, pd.detectBottoms(highs, lows, troughs)...)
	patterns = append(patterns, pd.detectHeadAndShoulders(highs, peaks)...)
	patterns = append(patterns, pd.detectFlags(recent)...)

	return patterns
}
