package analysis

import (
	"math"

	"market-opportunity-scanner/internal/exchange"
)

// Trendlines holds fitted support and resistance lines for a window
// of candles, projected to the most recent candle.
type Trendlines struct {
	ResistanceLevel float64 `json:"resistance_level"`
	ResistanceSlope float64 `json:"resistance_slope"`
	ResistanceR2    float64 `json:"resistance_r2"`
	SupportLevel    float64 `json:"support_level"`
	SupportSlope    float64 `json:"support_slope"`
	SupportR2       float64 `json:"support_r2"`
	ResistanceBreak bool    `json:"resistance_break"`
	SupportBreak    bool    `json:"support_break"`
}

// TrendlineAnalyzer fits linear trendlines over a fixed lookback
type TrendlineAnalyzer struct {
	window int
}

// NewTrendlineAnalyzer creates an analyzer with the given lookback
// window. Non-positive windows fall back to 20 candles.
func NewTrendlineAnalyzer(window int) *TrendlineAnalyzer {
	if window <= 0 {
		window = 20
	}
	return &TrendlineAnalyzer{window: window}
}

// Analyze fits least-squares lines through the highs and lows of the
// last window candles. Returns nil when there is not enough data or
// the fit is degenerate.
func (ta *TrendlineAnalyzer) Analyze(candles []exchange.Kline) *Trendlines {
	if len(candles) < ta.window {
		return nil
	}

	recent := candles[len(candles)-ta.window:]
	highs := make([]float64, ta.window)
	lows := make([]float64, ta.window)
	for i, c := range recent {
		if c.High <= 0 || c.Low <= 0 || math.IsNaN(c.High) || math.IsNaN(c.Low) {
			return nil
		}
		highs[i] = c.High
		lows[i] = c.Low
	}

	resSlope, resIntercept, resR2, ok := linearFit(highs)
	if !ok {
		return nil
	}
	supSlope, supIntercept, supR2, ok := linearFit(lows)
	if !ok {
		return nil
	}

	lastX := float64(ta.window - 1)
	tl := &Trendlines{
		ResistanceLevel: resSlope*lastX + resIntercept,
		ResistanceSlope: resSlope,
		ResistanceR2:    resR2,
		SupportLevel:    supSlope*lastX + supIntercept,
		SupportSlope:    supSlope,
		SupportR2:       supR2,
	}

	// Breaks require a 1% margin past the projected level
	close := recent[len(recent)-1].Close
	tl.ResistanceBreak = close > tl.ResistanceLevel*1.01
	tl.SupportBreak = close < tl.SupportLevel*0.99

	return tl
}

// linearFit performs ordinary least squares on y against x = 0..n-1.
// Returns slope, intercept, and r-squared.
func linearFit(y []float64) (slope, intercept, r2 float64, ok bool) {
	n := float64(len(y))
	if n < 2 {
		return 0, 0, 0, false
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0, 0, false
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for i, v := range y {
		fit := slope*float64(i) + intercept
		ssTot += (v - meanY) * (v - meanY)
		ssRes += (v - fit) * (v - fit)
	}
	if ssTot == 0 {
		// Flat series fits perfectly
		return slope, intercept, 1.0, true
	}
	r2 = 1 - ssRes/ssTot
	if math.IsNaN(slope) || math.IsNaN(intercept) || math.IsNaN(r2) {
		return 0, 0, 0, false
	}
	return slope, intercept, r2, true
}
