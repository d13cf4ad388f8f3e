package analysis

import (
	"testing"

	"market-opportunity-scanner/internal/exchange"
	"market-opportunity-scanner/internal/patterns"
)

func newTestAnalyzer() *TimeframeAnalyzer {
	return NewTimeframeAnalyzer(
		NewGapDetector(0.005, 0.02, 1.5, 20, 50),
		NewTrendlineAnalyzer(20),
		NewVolumeAnalyzer(20, 2.0),
		patterns.NewPatternDetector(0.01),
	)
}

// TestBullishVerdict verifies the vote on a surging series: gap up,
// resistance break, and a volume spike all point the same way
func TestBullishVerdict(t *testing.T) {
	analyzer := newTestAnalyzer()

	candles := make([]exchange.Kline, 30)
	for i := 0; i < 30; i++ {
		mid := 100 + float64(i)
		candles[i] = exchange.Kline{
			Open:   mid - 0.5,
			High:   mid + 2,
			Low:    mid - 2,
			Close:  mid,
			Volume: 100,
		}
	}
	// Displacement candle with confirming volume, then a surge candle
	// gapping over candle 27's high
	candles[28].Volume = 400
	candles[29] = exchange.Kline{
		Open: 136, High: 141, Low: 135, Close: 140, Volume: 400,
	}

	result := analyzer.Analyze("1h", candles, 140)

	if !result.Usable {
		t.Fatal("30 candles should be usable")
	}
	if result.Direction != DirectionBullish {
		t.Errorf("Expected BULLISH verdict, got %s", result.Direction)
	}
	if result.Strength != 1.0 {
		t.Errorf("Unanimous votes should give strength 1.0, got %f", result.Strength)
	}
	if result.LastClose != 140 {
		t.Errorf("Expected last close 140, got %f", result.LastClose)
	}
}

// TestNeutralVerdict verifies that a quiet flat series votes neutral
func TestNeutralVerdict(t *testing.T) {
	analyzer := newTestAnalyzer()

	candles := make([]exchange.Kline, 30)
	for i := range candles {
		candles[i] = exchange.Kline{
			Open: 100, High: 101, Low: 99, Close: 100, Volume: 100,
		}
	}

	result := analyzer.Analyze("1h", candles, 100)

	if !result.Usable {
		t.Fatal("30 candles should be usable")
	}
	if result.Direction != DirectionNeutral {
		t.Errorf("Expected NEUTRAL verdict, got %s", result.Direction)
	}
	if result.Strength != 0 {
		t.Errorf("Expected strength 0 with no votes, got %f", result.Strength)
	}
}

// TestStaleGapDoesNotVote verifies aged-out gaps carry no directional
// weight even while unfilled
func TestStaleGapDoesNotVote(t *testing.T) {
	analyzer := newTestAnalyzer()

	candles := make([]exchange.Kline, 30)
	for i := range candles {
		candles[i] = exchange.Kline{Open: 100, High: 101, Low: 99, Close: 100, Volume: 100}
	}

	result := TimeframeAnalysis{
		Gaps: []GapZone{{Type: BullishGap, Strength: 10, Age: 80, Active: false}},
	}
	direction, strength := analyzer.vote(result, candles)

	if direction != DirectionNeutral {
		t.Errorf("Expected NEUTRAL with only a stale gap, got %s", direction)
	}
	if strength != 0 {
		t.Errorf("Expected strength 0, got %f", strength)
	}
}

// TestShortSeriesUnusable verifies the 20-candle floor
func TestShortSeriesUnusable(t *testing.T) {
	analyzer := newTestAnalyzer()

	candles := make([]exchange.Kline, 19)
	for i := range candles {
		candles[i] = exchange.Kline{Open: 100, High: 101, Low: 99, Close: 100}
	}

	result := analyzer.Analyze("15m", candles, 100)

	if result.Usable {
		t.Error("19 candles should not be usable")
	}
	if result.Direction != DirectionNeutral {
		t.Errorf("Unusable series should read NEUTRAL, got %s", result.Direction)
	}
}
