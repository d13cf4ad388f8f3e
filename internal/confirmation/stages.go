package confirmation

import (
	"time"

	"market-opportunity-scanner/internal/analysis"
	"market-opportunity-scanner/internal/exchange"
)

// volumeWindow is the SMA window used for confirmation volume ratios.
const volumeWindow = 10

// stageSpec describes the candle quality bar for one confirmation
// stage. Stages get progressively stricter: later stages demand
// larger bodies, more volume, and deeper follow-through.
type stageSpec struct {
	delay            time.Duration
	passFraction     float64 // Fraction of checks that must pass
	minBodyRatio     float64
	minVolumeRatio   float64
	maxWickRatio     float64 // 0 disables the wick check
	beyondMargin     float64 // Required close distance past the signal price
	continuation     float64 // Required gain vs prior candle; -1 disables
	strictContinue   bool    // Continuation must meet the margin, not just direction
	checkOpposite    bool    // At most one opposite candle in the last five
}

var stageSpecs = [4]stageSpec{
	{delay: 0, passFraction: 0.60, minBodyRatio: 0.6, minVolumeRatio: 1.2, continuation: -1},
	{delay: 5 * time.Minute, passFraction: 0.80, minBodyRatio: 0.7, minVolumeRatio: 1.5, maxWickRatio: 0.3, continuation: -1},
	{delay: 10 * time.Minute, passFraction: 0.85, minBodyRatio: 0.8, minVolumeRatio: 2.0, maxWickRatio: 0.2, beyondMargin: 0.01, continuation: 0},
	{delay: 15 * time.Minute, passFraction: 0.90, minBodyRatio: 0.9, minVolumeRatio: 3.0, maxWickRatio: 0.15, beyondMargin: 0.02, continuation: 0.005, strictContinue: true, checkOpposite: true},
}

// CheckResult records a single named check within a stage.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// StageResult is the outcome of evaluating one confirmation stage.
type StageResult struct {
	Stage        int           `json:"stage"`
	Evaluated    bool          `json:"evaluated"`
	Passed       bool          `json:"passed"`
	ChecksPassed int           `json:"checks_passed"`
	ChecksTotal  int           `json:"checks_total"`
	Confidence   float64       `json:"confidence"` // 0-100, checks passed over total
	Checks       []CheckResult `json:"checks,omitempty"`
	CandleTime   time.Time     `json:"candle_time,omitempty"`
	EvaluatedAt  time.Time     `json:"evaluated_at,omitempty"`
}

// evaluateStage runs stage's checks against the fast-timeframe candle
// series. Returns ok=false when no candle past the stage delay exists
// yet, leaving the stage pending.
func evaluateStage(stage int, signal Signal, candles []exchange.Kline, now time.Time) (StageResult, bool) {
	spec := stageSpecs[stage]
	result := StageResult{Stage: stage + 1}

	cutoff := signal.Time.Add(spec.delay)
	idx := -1
	for i, c := range candles {
		if c.Time().After(cutoff) {
			idx = i
		}
	}
	if idx < 0 {
		return result, false
	}

	candle := candles[idx]
	bullish := signal.Direction == analysis.DirectionBullish

	var checks []CheckResult
	add := func(name string, passed bool) {
		checks = append(checks, CheckResult{Name: name, Passed: passed})
	}

	if bullish {
		add("direction_color", candle.IsBullish())
	} else {
		add("direction_color", candle.IsBearish())
	}

	add("body_ratio", candle.BodyRatio() > spec.minBodyRatio)
	add("volume_ratio", volumeRatio(candles, idx) > spec.minVolumeRatio)

	if bullish {
		add("price_beyond_signal", candle.Close > signal.Price*(1+spec.beyondMargin))
	} else {
		add("price_beyond_signal", candle.Close < signal.Price*(1-spec.beyondMargin))
	}

	if spec.maxWickRatio > 0 {
		add("wick_control", candle.UpperWickRatio() < spec.maxWickRatio && candle.LowerWickRatio() < spec.maxWickRatio)
	}

	if spec.continuation >= 0 {
		add("trend_continuation", continues(candles, idx, bullish, spec))
	}

	if spec.checkOpposite {
		add("opposite_candles", oppositeCount(candles, idx, signal, bullish) <= 1)
	}

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	result.Evaluated = true
	result.Checks = checks
	result.ChecksPassed = passed
	result.ChecksTotal = len(checks)
	result.Confidence = float64(passed) / float64(len(checks)) * 100
	result.Passed = float64(passed)/float64(len(checks)) >= spec.passFraction
	result.CandleTime = candle.Time()
	result.EvaluatedAt = now

	return result, true
}

// volumeRatio compares the candle's volume to the SMA of the window
// before it. Short history reads as neutral.
func volumeRatio(candles []exchange.Kline, idx int) float64 {
	if idx < volumeWindow {
		return 1.0
	}
	var sum float64
	for i := idx - volumeWindow; i < idx; i++ {
		sum += candles[i].Volume
	}
	avg := sum / volumeWindow
	if avg <= 0 {
		return 1.0
	}
	return candles[idx].Volume / avg
}

// continues checks follow-through against the prior candle. The first
// candle in the series gets the benefit of the doubt.
func continues(candles []exchange.Kline, idx int, bullish bool, spec stageSpec) bool {
	if idx == 0 {
		return true
	}
	prev := candles[idx-1].Close
	if prev <= 0 {
		return true
	}
	change := (candles[idx].Close - prev) / prev
	if !bullish {
		change = -change
	}
	if spec.strictContinue {
		return change >= spec.continuation
	}
	return change > 0
}

// oppositeCount counts candles colored against the signal among the
// last five candles since the signal fired, up to and including the
// evaluated one.
func oppositeCount(candles []exchange.Kline, idx int, signal Signal, bullish bool) int {
	count := 0
	seen := 0
	for i := idx; i >= 0 && seen < 5; i-- {
		if !candles[i].Time().After(signal.Time) {
			break
		}
		seen++
		if bullish && candles[i].IsBearish() {
			count++
		}
		if !bullish && candles[i].IsBullish() {
			count++
		}
	}
	return count
}
