package patterns

import "math"

// detectTops finds double and triple tops: two or three peaks of
// near-equal height separated by a meaningful retracement.
func (pd *PatternDetector) detectTops(highs, lows []float64, peaks []int) []DetectedPattern {
	var patterns []DetectedPattern

	for i := 0; i+1 < len(peaks); i++ {
		p1, p2 := peaks[i], peaks[i+1]
		h1, h2 := highs[p1], highs[p2]

		diff := math.Abs(h1-h2) / math.Max(h1, h2)
		if diff >= pd.tolerance {
			continue
		}

		trough, ok := minBetween(lows, p1, p2)
		if !ok {
			continue
		}
		peak := math.Max(h1, h2)
		retracement := (peak - trough) / peak
		if retracement <= 0.1 {
			continue
		}

		patternType := DoubleTop
		// A third matching peak promotes the pattern to a triple top
		if i+2 < len(peaks) {
			h3 := highs[peaks[i+2]]
			if math.Abs(h2-h3)/math.Max(h2, h3) < pd.tolerance {
				patternType = TripleTop
			}
		}

		patterns = append(patterns, DetectedPattern{
			Type:         patternType,
			Direction:    Bearish,
			Strength:     math.Min((1-diff+retracement)*5, 10),
			Confidence:   math.Min((1-diff)*100, 95),
			Invalidation: peak * 1.02,
			Target:       trough - (peak - trough),
		})
	}

	return patterns
}

// detectBottoms mirrors detectTops for double and triple bottoms.
func (pd *PatternDetector) detectBottoms(highs, lows []float64, troughs []int) []DetectedPattern {
	var patterns []DetectedPattern

	for i := 0; i+1 < len(troughs); i++ {
		t1, t2 := troughs[i], troughs[i+1]
		l1, l2 := lows[t1], lows[t2]

		diff := math.Abs(l1-l2) / math.Max(l1, l2)
		if diff >= pd.tolerance {
			continue
		}

		peak, ok := maxBetween(highs, t1, t2)
		if !ok {
			continue
		}
		trough := math.Min(l1, l2)
		if trough <= 0 {
			continue
		}
		retracement := (peak - trough) / trough
		if retracement <= 0.1 {
			continue
		}

		patternType := DoubleBottom
		if i+2 < len(troughs) {
			l3 := lows[troughs[i+2]]
			if math.Abs(l2-l3)/math.Max(l2, l3) < pd.tolerance {
				patternType = TripleBottom
			}
		}

		patterns = append(patterns, DetectedPattern{
			Type:         patternType,
			Direction:    Bullish,
			Strength:     math.Min((1-diff+retracement)*5, 10),
			Confidence:   math.Min((1-diff)*100, 95),
			Invalidation: trough * 0.98,
			Target:       peak + (peak - trough),
		})
	}

	return patterns
}

// detectHeadAndShoulders looks for three consecutive peaks where the
// middle one dominates and the shoulders are near-equal.
func (pd *PatternDetector) detectHeadAndShoulders(highs []float64, peaks []int) []DetectedPattern {
	var patterns []DetectedPattern

	for i := 0; i+2 < len(peaks); i++ {
		left := highs[peaks[i]]
		head := highs[peaks[i+1]]
		right := highs[peaks[i+2]]

		if head <= left || head <= right {
			continue
		}

		shoulderDiff := math.Abs(left-right) / math.Max(left, right)
		if shoulderDiff >= pd.tolerance*2 {
			continue
		}

		patterns = append(patterns, DetectedPattern{
			Type:       HeadAndShoulders,
			Direction:  Bearish,
			Strength:   math.Min((1-shoulderDiff+0.5)*5, 10),
			Confidence: math.Min((1-shoulderDiff)*80, 90),
			Neckline:   math.Min(left, right) * 0.95,
		})
	}

	return patterns
}
