package analysis

import (
	"testing"

	"market-opportunity-scanner/internal/exchange"
)

// TestDetectBullishGap tests detection of a bullish fair value gap
func TestDetectBullishGap(t *testing.T) {
	detector := NewGapDetector(0.005, 0.02, 1.5, 20, 50)

	candles := []exchange.Kline{
		// Candle 1: High at 100
		{Open: 95, High: 100, Low: 94, Close: 98, Volume: 100},
		// Candle 2: Displacement candle
		{Open: 98, High: 106, Low: 97, Close: 105, Volume: 300},
		// Candle 3: Low at 102, gap between 100 and 102
		{Open: 105, High: 108, Low: 102, Close: 106, Volume: 120},
	}

	gaps := detector.Detect(candles, 101)

	if len(gaps) != 1 {
		t.Fatalf("Expected 1 gap, got %d", len(gaps))
	}

	gap := gaps[0]

	if gap.Type != BullishGap {
		t.Errorf("Expected BullishGap, got %s", gap.Type)
	}
	if gap.Bottom != 100 {
		t.Errorf("Expected Bottom 100, got %f", gap.Bottom)
	}
	if gap.Top != 102 {
		t.Errorf("Expected Top 102, got %f", gap.Top)
	}
	if gap.Filled {
		t.Error("Gap should not be filled without later candles")
	}
	if !gap.Active {
		t.Error("Fresh gap should be active")
	}
	// Price 101 sits at the gap center
	if !gap.NearPrice {
		t.Error("Gap center at 101 should be near price 101")
	}
}

// TestDetectBearishGap tests detection of a bearish fair value gap
func TestDetectBearishGap(t *testing.T) {
	detector := NewGapDetector(0.005, 0.02, 1.5, 20, 50)

	candles := []exchange.Kline{
		// Candle 1: Low at 100
		{Open: 105, High: 106, Low: 100, Close: 102, Volume: 100},
		{Open: 102, High: 103, Low: 95, Close: 96, Volume: 250},
		// Candle 3: High at 98, gap between 98 and 100
		{Open: 96, High: 98, Low: 92, Close: 94, Volume: 120},
	}

	gaps := detector.Detect(candles, 200)

	if len(gaps) != 1 {
		t.Fatalf("Expected 1 gap, got %d", len(gaps))
	}

	gap := gaps[0]

	if gap.Type != BearishGap {
		t.Errorf("Expected BearishGap, got %s", gap.Type)
	}
	if gap.Top != 100 {
		t.Errorf("Expected Top 100, got %f", gap.Top)
	}
	if gap.Bottom != 98 {
		t.Errorf("Expected Bottom 98, got %f", gap.Bottom)
	}
	if gap.NearPrice {
		t.Error("Price 200 should not be near a gap centered at 99")
	}
}

// TestGapBelowThreshold verifies that sub-threshold gaps are ignored
func TestGapBelowThreshold(t *testing.T) {
	detector := NewGapDetector(0.005, 0.02, 1.5, 20, 50)

	// Gap of 0.2 on a base of 100 is 0.2%, under the 0.5% floor
	candles := []exchange.Kline{
		{Open: 95, High: 100, Low: 94, Close: 98, Volume: 100},
		{Open: 98, High: 101, Low: 97, Close: 100.5, Volume: 200},
		{Open: 100.5, High: 102, Low: 100.2, Close: 101, Volume: 120},
	}

	gaps := detector.Detect(candles, 100)

	if len(gaps) != 0 {
		t.Errorf("Expected no gaps below threshold, got %d", len(gaps))
	}
}

// TestGapFilledBySpanningCandle verifies fill detection when a later
// candle trades through the whole zone
func TestGapFilledBySpanningCandle(t *testing.T) {
	detector := NewGapDetector(0.005, 0.02, 1.5, 20, 50)

	candles := []exchange.Kline{
		{Open: 95, High: 100, Low: 94, Close: 98, Volume: 100},
		{Open: 98, High: 106, Low: 97, Close: 105, Volume: 300},
		{Open: 105, High: 108, Low: 102, Close: 106, Volume: 120},
		// Retrace candle spans the 100-102 zone entirely
		{Open: 106, High: 107, Low: 99, Close: 100, Volume: 150},
	}

	gaps := detector.Detect(candles, 101)

	if len(gaps) != 1 {
		t.Fatalf("Expected 1 gap, got %d", len(gaps))
	}
	if !gaps[0].Filled {
		t.Error("Gap should be filled by the spanning candle")
	}
}

// TestGapFilledByMajorityOverlap verifies that covering more than 70%
// of the zone counts as a fill even without spanning it
func TestGapFilledByMajorityOverlap(t *testing.T) {
	detector := NewGapDetector(0.005, 0.02, 1.5, 20, 50)

	candles := []exchange.Kline{
		{Open: 95, High: 100, Low: 94, Close: 98, Volume: 100},
		{Open: 98, High: 106, Low: 97, Close: 105, Volume: 300},
		{Open: 105, High: 108, Low: 102, Close: 106, Volume: 120},
		// Dips to 100.2, covering 1.8 of the 2.0 zone (90%)
		{Open: 106, High: 107, Low: 100.2, Close: 104, Volume: 150},
	}

	gaps := detector.Detect(candles, 101)

	if len(gaps) != 1 {
		t.Fatalf("Expected 1 gap, got %d", len(gaps))
	}
	if !gaps[0].Filled {
		t.Error("Gap should be filled at 90% overlap")
	}
}

// TestGapPartialOverlapNotFilled verifies that a shallow touch leaves
// the gap open
func TestGapPartialOverlapNotFilled(t *testing.T) {
	detector := NewGapDetector(0.005, 0.02, 1.5, 20, 50)

	candles := []exchange.Kline{
		{Open: 95, High: 100, Low: 94, Close: 98, Volume: 100},
		{Open: 98, High: 106, Low: 97, Close: 105, Volume: 300},
		{Open: 105, High: 108, Low: 102, Close: 106, Volume: 120},
		// Dips to 101.5, covering only 0.5 of the 2.0 zone (25%)
		{Open: 106, High: 107, Low: 101.5, Close: 105, Volume: 150},
	}

	gaps := detector.Detect(candles, 101)

	if len(gaps) != 1 {
		t.Fatalf("Expected 1 gap, got %d", len(gaps))
	}
	if gaps[0].Filled {
		t.Error("Gap should remain open at 25% overlap")
	}
}

// TestUnfilledGapsSortFirst verifies the result ordering
func TestUnfilledGapsSortFirst(t *testing.T) {
	detector := NewGapDetector(0.005, 0.02, 1.5, 20, 50)

	candles := []exchange.Kline{
		// First gap: 100 to 102, later filled
		{Open: 95, High: 100, Low: 94, Close: 98, Volume: 100},
		{Open: 98, High: 106, Low: 97, Close: 105, Volume: 300},
		{Open: 105, High: 108, Low: 102, Close: 106, Volume: 120},
		{Open: 106, High: 107, Low: 99, Close: 100, Volume: 150},
		// Second gap: 107 to 110, stays open
		{Open: 100, High: 107, Low: 99, Close: 106, Volume: 100},
		{Open: 106, High: 112, Low: 105, Close: 111, Volume: 400},
		{Open: 111, High: 115, Low: 110, Close: 114, Volume: 120},
	}

	gaps := detector.Detect(candles, 108)

	if len(gaps) < 2 {
		t.Fatalf("Expected at least 2 gaps, got %d", len(gaps))
	}
	if gaps[0].Filled {
		t.Error("First gap in the result should be unfilled")
	}
	for i := 1; i < len(gaps); i++ {
		if !gaps[i-1].Filled && gaps[i].Filled {
			continue
		}
		if gaps[i-1].Filled && !gaps[i].Filled {
			t.Error("Filled gap ordered before an unfilled one")
		}
	}
}

// TestGapStrengthCap verifies the 15-point strength ceiling
func TestGapStrengthCap(t *testing.T) {
	detector := NewGapDetector(0.005, 0.02, 1.5, 3, 50)

	// Huge gap with confirming volume on the displacement candle
	candles := []exchange.Kline{
		{Open: 95, High: 100, Low: 94, Close: 98, Volume: 100},
		{Open: 98, High: 100, Low: 94, Close: 99, Volume: 100},
		{Open: 95, High: 100, Low: 94, Close: 98, Volume: 100},
		{Open: 95, High: 100, Low: 94, Close: 98, Volume: 100},
		{Open: 98, High: 130, Low: 97, Close: 128, Volume: 1000},
		{Open: 128, High: 135, Low: 125, Close: 132, Volume: 120},
	}

	gaps := detector.Detect(candles, 112.5)

	if len(gaps) == 0 {
		t.Fatal("Expected a gap")
	}
	for _, gap := range gaps {
		if gap.Strength > 15 {
			t.Errorf("Gap strength %f exceeds the 15 cap", gap.Strength)
		}
	}
}

// TestGapAgeFromConfirmingCandle verifies the age counts candles since
// the third candle of the pattern, and that old gaps go inactive
func TestGapAgeFromConfirmingCandle(t *testing.T) {
	detector := NewGapDetector(0.005, 0.02, 1.5, 20, 5)

	candles := []exchange.Kline{
		{Open: 95, High: 100, Low: 94, Close: 98, Volume: 100},
		{Open: 98, High: 106, Low: 97, Close: 105, Volume: 300},
		{Open: 105, High: 108, Low: 102, Close: 106, Volume: 120},
	}
	// Drift sideways above the zone without filling it
	for i := 0; i < 7; i++ {
		candles = append(candles, exchange.Kline{Open: 106, High: 108, Low: 104, Close: 107, Volume: 110})
	}

	gaps := detector.Detect(candles, 101)

	if len(gaps) != 1 {
		t.Fatalf("Expected 1 gap, got %d", len(gaps))
	}
	if gaps[0].Age != 8 {
		t.Errorf("Expected age 8 from the confirming candle, got %d", gaps[0].Age)
	}
	if gaps[0].Active {
		t.Error("Gap aged past the maximum should be inactive")
	}
	if gaps[0].Filled {
		t.Error("Gap should still be unfilled")
	}
}

// TestTooFewCandles verifies the three-candle minimum
func TestTooFewCandles(t *testing.T) {
	detector := NewGapDetector(0.005, 0.02, 1.5, 20, 50)

	candles := []exchange.Kline{
		{Open: 95, High: 100, Low: 94, Close: 98},
		{Open: 98, High: 106, Low: 97, Close: 105},
	}

	if gaps := detector.Detect(candles, 100); gaps != nil {
		t.Errorf("Expected nil for short series, got %d gaps", len(gaps))
	}
}
