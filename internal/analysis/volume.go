package analysis

import (
	"market-opportunity-scanner/internal/exchange"
)

// VolumeProfile summarizes the latest candle's volume against its
// rolling average.
type VolumeProfile struct {
	Spike bool    `json:"spike"`
	Ratio float64 `json:"ratio"`
}

// VolumeAnalyzer detects volume spikes against a rolling average
type VolumeAnalyzer struct {
	window    int
	spikeMult float64
}

// NewVolumeAnalyzer creates a volume analyzer. Non-positive arguments
// fall back to a 20-candle window and a 2x spike multiple.
func NewVolumeAnalyzer(window int, spikeMult float64) *VolumeAnalyzer {
	if window <= 0 {
		window = 20
	}
	if spikeMult <= 0 {
		spikeMult = 2.0
	}
	return &VolumeAnalyzer{window: window, spikeMult: spikeMult}
}

// Analyze compares the latest candle's volume to the rolling average
// of the preceding window. Short series return a neutral profile.
func (va *VolumeAnalyzer) Analyze(candles []exchange.Kline) VolumeProfile {
	if len(candles) <= va.window {
		return VolumeProfile{Spike: false, Ratio: 1.0}
	}

	last := len(candles) - 1
	var sum float64
	for i := last - va.window; i < last; i++ {
		sum += candles[i].Volume
	}
	avg := sum / float64(va.window)
	if avg <= 0 {
		return VolumeProfile{Spike: false, Ratio: 1.0}
	}

	ratio := candles[last].Volume / avg
	return VolumeProfile{
		Spike: ratio > va.spikeMult,
		Ratio: ratio,
	}
}
