package analysis

import (
	"sort"

	"market-opportunity-scanner/internal/exchange"
)

// GapType represents the direction of a fair value gap
type GapType string

const (
	BullishGap GapType = "bullish"
	BearishGap GapType = "bearish"
)

// GapZone represents a detected fair value gap in price action
type GapZone struct {
	Type            GapType `json:"type"`
	Top             float64 `json:"top"`
	Bottom          float64 `json:"bottom"`
	Size            float64 `json:"size"` // Gap size as a fraction of the reference price
	CandleIndex     int     `json:"candle_index"`
	Age             int     `json:"age"` // Candles elapsed since the gap formed
	Filled          bool    `json:"filled"`
	Active          bool    `json:"active"`
	VolumeStrength  float64 `json:"volume_strength"`
	VolumeConfirmed bool    `json:"volume_confirmed"`
	NearPrice       bool    `json:"near_price"`
	Strength        float64 `json:"strength"` // 0-15 composite strength
}

// Center returns the midpoint of the gap zone.
func (g GapZone) Center() float64 {
	return (g.Top + g.Bottom) / 2
}

// GapDetector detects fair value gaps in candle series
type GapDetector struct {
	minGapSize    float64 // Minimum gap as fraction of reference price
	proximity     float64 // Near-price threshold as fraction of gap center
	volumeConfirm float64 // Volume ratio treated as confirmation
	volumePeriod  int     // Rolling volume average window
	maxAge        int     // Candles before a gap goes inactive
}

// NewGapDetector creates a gap detector with the given thresholds.
// Non-positive arguments fall back to defaults.
func NewGapDetector(minGapSize, proximity, volumeConfirm float64, volumePeriod, maxAge int) *GapDetector {
	if minGapSize <= 0 {
		minGapSize = 0.005
	}
	if proximity <= 0 {
		proximity = 0.02
	}
	if volumeConfirm <= 0 {
		volumeConfirm = 1.5
	}
	if volumePeriod <= 0 {
		volumePeriod = 20
	}
	if maxAge <= 0 {
		maxAge = 50
	}
	return &GapDetector{
		minGapSize:    minGapSize,
		proximity:     proximity,
		volumeConfirm: volumeConfirm,
		volumePeriod:  volumePeriod,
		maxAge:        maxAge,
	}
}

// Detect scans the candle series for fair value gaps. currentPrice is
// used for the near-price strength bonus. Unfilled gaps sort before
// filled ones, strongest first within each group.
func (gd *GapDetector) Detect(candles []exchange.Kline, currentPrice float64) []GapZone {
	if len(candles) < 3 {
		return nil
	}

	var gaps []GapZone

	for i := 0; i < len(candles)-2; i++ {
		c1 := candles[i]
		c3 := candles[i+2]

		// Bullish gap: third candle's low clears the first candle's high
		if c3.Low > c1.High && c1.High > 0 {
			size := (c3.Low - c1.High) / c1.High
			if size > gd.minGapSize {
				gaps = append(gaps, gd.buildGap(candles, BullishGap, c3.Low, c1.High, size, i, currentPrice))
			}
		}

		// Bearish gap: third candle's high stays under the first candle's low
		if c1.Low > c3.High && c1.Low > 0 {
			size := (c1.Low - c3.High) / c1.Low
			if size > gd.minGapSize {
				gaps = append(gaps, gd.buildGap(candles, BearishGap, c1.Low, c3.High, size, i, currentPrice))
			}
		}
	}

	sort.SliceStable(gaps, func(a, b int) bool {
		if gaps[a].Filled != gaps[b].Filled {
			return !gaps[a].Filled
		}
		return gaps[a].Strength > gaps[b].Strength
	})

	return gaps
}

func (gd *GapDetector) buildGap(candles []exchange.Kline, gapType GapType, top, bottom, size float64, index int, currentPrice float64) GapZone {
	gap := GapZone{
		Type:        gapType,
		Top:         top,
		Bottom:      bottom,
		Size:        size,
		CandleIndex: index,
		Age:         len(candles) - (index + 2), // measured from the confirming candle
	}
	gap.Active = gap.Age <= gd.maxAge

	// Volume of the displacement candle against its trailing average
	gap.VolumeStrength = gd.volumeRatio(candles, index+1)
	gap.VolumeConfirmed = gap.VolumeStrength > gd.volumeConfirm

	center := gap.Center()
	if center > 0 && currentPrice > 0 {
		gap.NearPrice = abs(currentPrice-center)/center < gd.proximity
	}

	gap.Filled = gd.isFilled(candles, gap, index)
	gap.Strength = gd.strength(gap)

	return gap
}

// volumeRatio compares the candle's volume to the rolling average of
// the candles before it. Returns 1.0 when there is not enough history.
func (gd *GapDetector) volumeRatio(candles []exchange.Kline, index int) float64 {
	if index < gd.volumePeriod {
		return 1.0
	}
	var sum float64
	for i := index - gd.volumePeriod; i < index; i++ {
		sum += candles[i].Volume
	}
	avg := sum / float64(gd.volumePeriod)
	if avg <= 0 {
		return 1.0
	}
	return candles[index].Volume / avg
}

// isFilled reports whether any later candle traded back through the
// gap. A candle that spans the whole zone, or overlaps more than 70%
// of it, counts as a fill.
func (gd *GapDetector) isFilled(candles []exchange.Kline, gap GapZone, index int) bool {
	gapRange := gap.Top - gap.Bottom
	if gapRange <= 0 {
		return true
	}

	for i := index + 3; i < len(candles); i++ {
		c := candles[i]
		if c.Low <= gap.Bottom && c.High >= gap.Top {
			return true
		}
		overlap := minF(c.High, gap.Top) - maxF(c.Low, gap.Bottom)
		if overlap > 0.7*gapRange {
			return true
		}
	}
	return false
}

func (gd *GapDetector) strength(gap GapZone) float64 {
	strength := gap.Size * 100
	if strength > 10 {
		strength = 10
	}
	if gap.VolumeConfirmed {
		strength *= 1.5
	}
	if gap.NearPrice {
		strength *= 1.3
	}
	if strength > 15 {
		strength = 15
	}
	return strength
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
