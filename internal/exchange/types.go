package exchange

import "time"

// Kline represents a single OHLCV candle. Candles are immutable once
// returned by a source and ordered by OpenTime, strictly increasing.
type Kline struct {
	OpenTime  int64   `json:"openTime"`
	Open      float64 `json:"open,string"`
	High      float64 `json:"high,string"`
	Low       float64 `json:"low,string"`
	Close     float64 `json:"close,string"`
	Volume    float64 `json:"volume,string"`
	CloseTime int64   `json:"closeTime"`
}

// Time returns the candle open time as a time.Time.
func (k Kline) Time() time.Time {
	return time.UnixMilli(k.OpenTime)
}

// IsBullish reports whether the candle closed above its open.
func (k Kline) IsBullish() bool {
	return k.Close > k.Open
}

// IsBearish reports whether the candle closed below its open.
func (k Kline) IsBearish() bool {
	return k.Close < k.Open
}

// BodyRatio returns the candle body size divided by its total range,
// a measure of directional conviction. Zero-range candles yield 0.
func (k Kline) BodyRatio() float64 {
	totalRange := k.High - k.Low
	if totalRange <= 0 {
		return 0
	}
	body := k.Close - k.Open
	if body < 0 {
		body = -body
	}
	return body / totalRange
}

// UpperWickRatio returns the upper wick as a fraction of total range.
func (k Kline) UpperWickRatio() float64 {
	totalRange := k.High - k.Low
	if totalRange <= 0 {
		return 0
	}
	top := k.Open
	if k.Close > top {
		top = k.Close
	}
	return (k.High - top) / totalRange
}

// LowerWickRatio returns the lower wick as a fraction of total range.
func (k Kline) LowerWickRatio() float64 {
	totalRange := k.High - k.Low
	if totalRange <= 0 {
		return 0
	}
	bottom := k.Open
	if k.Close < bottom {
		bottom = k.Close
	}
	return (bottom - k.Low) / totalRange
}

// Ticker24hr represents 24hr ticker price change statistics
type Ticker24hr struct {
	Symbol             string  `json:"symbol"`
	PriceChange        float64 `json:"priceChange,string"`
	PriceChangePercent float64 `json:"priceChangePercent,string"`
	LastPrice          float64 `json:"lastPrice,string"`
	HighPrice          float64 `json:"highPrice,string"`
	LowPrice           float64 `json:"lowPrice,string"`
	Volume             float64 `json:"volume,string"`
	QuoteVolume        float64 `json:"quoteVolume,string"`
	OpenTime           int64   `json:"openTime"`
	CloseTime          int64   `json:"closeTime"`
}
