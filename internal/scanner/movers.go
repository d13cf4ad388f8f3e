package scanner

import (
	"sort"
	"strings"

	"market-opportunity-scanner/internal/exchange"
)

// selectSymbols builds the watch list for a scan cycle. Static mode
// uses the configured symbol list; the mover modes rank the 24hr
// tickers by price change.
func (s *Scanner) selectSymbols() ([]string, error) {
	if s.config.ScanType == "static" || s.config.ScanType == "" {
		return s.limitSymbols(s.config.StaticSymbols), nil
	}

	tickers, err := s.source.Get24hrTickers()
	if err != nil {
		return nil, err
	}

	eligible := make([]exchange.Ticker24hr, 0, len(tickers))
	for _, t := range tickers {
		if s.eligibleTicker(t) {
			eligible = append(eligible, t)
		}
	}

	switch s.config.ScanType {
	case "gainers":
		sort.Slice(eligible, func(i, j int) bool {
			return eligible[i].PriceChangePercent > eligible[j].PriceChangePercent
		})
	case "losers":
		sort.Slice(eligible, func(i, j int) bool {
			return eligible[i].PriceChangePercent < eligible[j].PriceChangePercent
		})
	case "mixed":
		// Strongest absolute movers in either direction
		sort.Slice(eligible, func(i, j int) bool {
			return absF(eligible[i].PriceChangePercent) > absF(eligible[j].PriceChangePercent)
		})
	default:
		return s.limitSymbols(s.config.StaticSymbols), nil
	}

	symbols := make([]string, 0, len(eligible))
	for _, t := range eligible {
		symbols = append(symbols, t.Symbol)
	}
	return s.limitSymbols(symbols), nil
}

// eligibleTicker filters out non-USDT pairs, stablecoin bases, and
// symbols outside the volume and price bounds.
func (s *Scanner) eligibleTicker(t exchange.Ticker24hr) bool {
	if !strings.HasSuffix(t.Symbol, "USDT") {
		return false
	}
	base := strings.TrimSuffix(t.Symbol, "USDT")
	for _, excluded := range s.config.ExcludeBases {
		if base == excluded {
			return false
		}
	}
	if t.QuoteVolume < s.config.MinVolumeUSDT {
		return false
	}
	if t.LastPrice < s.config.MinPrice || t.LastPrice > s.config.MaxPrice {
		return false
	}
	return true
}

func (s *Scanner) limitSymbols(symbols []string) []string {
	if s.config.MaxSymbols > 0 && len(symbols) > s.config.MaxSymbols {
		return symbols[:s.config.MaxSymbols]
	}
	return symbols
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
