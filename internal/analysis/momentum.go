package analysis

import (
	"market-opportunity-scanner/internal/exchange"
)

// Momentum measures the relative change between the mean close of the
// last five candles and the five before them. Positive values mean
// rising momentum. Returns 0 with ok=false when there is not enough
// data or the baseline is degenerate.
func Momentum(candles []exchange.Kline) (float64, bool) {
	if len(candles) < 10 {
		return 0, false
	}

	last := len(candles)
	var recent, prior float64
	for i := last - 5; i < last; i++ {
		recent += candles[i].Close
	}
	for i := last - 10; i < last-5; i++ {
		prior += candles[i].Close
	}
	recent /= 5
	prior /= 5

	if prior <= 0 {
		return 0, false
	}
	return (recent - prior) / prior, true
}
