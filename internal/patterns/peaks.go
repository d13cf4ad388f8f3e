package patterns

// findPeaks returns indices of local maxima. A peak must be at least
// as high as every value within minDistance on both sides and sit
// above the series mean by 1%.
func findPeaks(values []float64, minDistance int) []int {
	return findExtrema(values, minDistance, true)
}

// findTroughs returns indices of local minima, mirrored from findPeaks.
func findTroughs(values []float64, minDistance int) []int {
	return findExtrema(values, minDistance, false)
}

func findExtrema(values []float64, minDistance int, peaks bool) []int {
	if len(values) == 0 {
		return nil
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var out []int
	for i := minDistance; i < len(values)-minDistance; i++ {
		candidate := values[i]

		if peaks && candidate <= mean*1.01 {
			continue
		}
		if !peaks && candidate >= mean*0.99 {
			continue
		}

		extreme := true
		for j := i - minDistance; j <= i+minDistance; j++ {
			if j == i {
				continue
			}
			if peaks && values[j] > candidate {
				extreme = false
				break
			}
			if !peaks && values[j] < candidate {
				extreme = false
				break
			}
		}
		if extreme {
			out = append(out, i)
		}
	}
	return out
}

// minBetween returns the smallest value in values[from+1:to].
func minBetween(values []float64, from, to int) (float64, bool) {
	if to-from < 2 {
		return 0, false
	}
	low := values[from+1]
	for i := from + 2; i < to; i++ {
		if values[i] < low {
			low = values[i]
		}
	}
	return low, true
}

// maxBetween returns the largest value in values[from+1:to].
func maxBetween(values []float64, from, to int) (float64, bool) {
	if to-from < 2 {
		return 0, false
	}
	high := values[from+1]
	for i := from + 2; i < to; i++ {
		if values[i] > high {
			high = values[i]
		}
	}
	return high, true
}
