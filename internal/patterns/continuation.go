package patterns

import (
	"math"

	"market-opportunity-scanner/internal/exchange"
)

// detectFlags looks for a sharp directional move followed by a tight
// consolidation. The move spans 10 candles and the consolidation the
// 5 after it.
func (pd *PatternDetector) detectFlags(candles []exchange.Kline) []DetectedPattern {
	const (
		moveSpan = 10
		flagSpan = 5
		minMove  = 0.05
		maxRange = 0.03
	)

	var patterns []DetectedPattern

	for i := 0; i+moveSpan+flagSpan <= len(candles); i++ {
		start := candles[i].Close
		end := candles[i+moveSpan-1].Close
		if start <= 0 {
			continue
		}
		move := (end - start) / start
		if math.Abs(move) <= minMove {
			continue
		}

		// Consolidation range after the impulse
		high := candles[i+moveSpan].High
		low := candles[i+moveSpan].Low
		for j := i + moveSpan + 1; j < i+moveSpan+flagSpan; j++ {
			if candles[j].High > high {
				high = candles[j].High
			}
			if candles[j].Low < low {
				low = candles[j].Low
			}
		}
		if end <= 0 {
			continue
		}
		flagRange := (high - low) / end
		if flagRange >= maxRange {
			continue
		}

		pattern := DetectedPattern{
			Strength:   math.Min(math.Abs(move)*50, 10),
			Confidence: math.Min((1-flagRange)*70, 85),
			// Measured move: the flagpole projected from its end
			Target: end + move*start,
		}
		if move > 0 {
			pattern.Type = BullFlag
			pattern.Direction = Bullish
		} else {
			pattern.Type = BearFlag
			pattern.Direction = Bearish
		}
		patterns = append(patterns, pattern)
	}

	return patterns
}
