package analysis

import (
	"math"
	"testing"

	"market-opportunity-scanner/internal/exchange"
)

func volumeCandles(n int, baseVolume float64) []exchange.Kline {
	candles := make([]exchange.Kline, n)
	for i := 0; i < n; i++ {
		candles[i] = exchange.Kline{
			Open: 100, High: 101, Low: 99, Close: 100,
			Volume: baseVolume,
		}
	}
	return candles
}

// TestVolumeSpike verifies spike detection past the 2x multiple
func TestVolumeSpike(t *testing.T) {
	analyzer := NewVolumeAnalyzer(20, 2.0)

	candles := volumeCandles(21, 100)
	candles[20].Volume = 300

	profile := analyzer.Analyze(candles)

	if !profile.Spike {
		t.Error("3x average volume should register a spike")
	}
	if math.Abs(profile.Ratio-3.0) > 1e-9 {
		t.Errorf("Expected ratio 3.0, got %f", profile.Ratio)
	}
}

// TestVolumeNoSpike verifies the quiet case
func TestVolumeNoSpike(t *testing.T) {
	analyzer := NewVolumeAnalyzer(20, 2.0)

	candles := volumeCandles(21, 100)
	candles[20].Volume = 150

	profile := analyzer.Analyze(candles)

	if profile.Spike {
		t.Error("1.5x average volume should not register a spike")
	}
}

// TestVolumeShortSeries verifies the neutral fallback
func TestVolumeShortSeries(t *testing.T) {
	analyzer := NewVolumeAnalyzer(20, 2.0)

	profile := analyzer.Analyze(volumeCandles(10, 100))

	if profile.Spike {
		t.Error("Short series should not spike")
	}
	if profile.Ratio != 1.0 {
		t.Errorf("Expected neutral ratio 1.0, got %f", profile.Ratio)
	}
}

// TestMomentum verifies the five-over-five comparison
func TestMomentum(t *testing.T) {
	candles := make([]exchange.Kline, 10)
	for i := 0; i < 5; i++ {
		candles[i] = exchange.Kline{Close: 100}
	}
	for i := 5; i < 10; i++ {
		candles[i] = exchange.Kline{Close: 110}
	}

	m, ok := Momentum(candles)
	if !ok {
		t.Fatal("Expected momentum for 10 candles")
	}
	if math.Abs(m-0.10) > 1e-9 {
		t.Errorf("Expected momentum 0.10, got %f", m)
	}
}

// TestMomentumInsufficientData verifies the short-series guard
func TestMomentumInsufficientData(t *testing.T) {
	candles := make([]exchange.Kline, 9)
	for i := range candles {
		candles[i] = exchange.Kline{Close: 100}
	}
	if _, ok := Momentum(candles); ok {
		t.Error("Expected no momentum for 9 candles")
	}
}
