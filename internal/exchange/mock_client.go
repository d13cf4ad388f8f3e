package exchange

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// MockClient provides simulated market data for development/testing
type MockClient struct {
	prices     map[string]float64
	lastUpdate time.Time
	mu         sync.RWMutex // Protects prices map and lastUpdate
}

// NewMockClient creates a new mock client
func NewMockClient() *MockClient {
	mc := &MockClient{
		lastUpdate: time.Now(),
	}

	// Realistic base prices for common pairs
	mc.prices = map[string]float64{
		"BTCUSDT":  104500.00,
		"ETHUSDT":  3900.00,
		"BNBUSDT":  710.00,
		"SOLUSDT":  220.00,
		"XRPUSDT":  2.35,
		"ADAUSDT":  1.05,
		"DOGEUSDT": 0.40,
		"AVAXUSDT": 50.00,
		"DOTUSDT":  9.50,
		"LINKUSDT": 28.00,
	}

	return mc
}

// updatePrices adds small random variations to simulate market movement
func (mc *MockClient) updatePrices() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if time.Since(mc.lastUpdate) < time.Second {
		return
	}

	for symbol, price := range mc.prices {
		// Random walk: -0.5% to +0.5% change
		change := (rand.Float64() - 0.5) * 0.01
		mc.prices[symbol] = price * (1 + change)
	}
	mc.lastUpdate = time.Now()
}

// GetKlines returns simulated candlestick data
func (mc *MockClient) GetKlines(symbol, interval string, limit int) ([]Kline, error) {
	mc.updatePrices()

	mc.mu.RLock()
	basePrice, ok := mc.prices[symbol]
	mc.mu.RUnlock()
	if !ok {
		basePrice = 100.0
	}

	intervalDuration := IntervalDuration(interval)

	now := time.Now().Truncate(intervalDuration)
	klines := make([]Kline, limit)

	// Oldest candle first; a slow sine wave plus noise gives the
	// detectors something trend-like to chew on.
	price := basePrice
	for i := 0; i < limit; i++ {
		openTime := now.Add(-time.Duration(limit-1-i) * intervalDuration)

		wave := math.Sin(float64(openTime.Unix()/int64(intervalDuration.Seconds()))*0.3) * 0.004
		drift := (rand.Float64() - 0.5) * 0.006
		open := price
		close := open * (1 + wave + drift)
		high := math.Max(open, close) * (1 + rand.Float64()*0.002)
		low := math.Min(open, close) * (1 - rand.Float64()*0.002)
		volume := basePrice * (800 + rand.Float64()*400)

		klines[i] = Kline{
			OpenTime:  openTime.UnixMilli(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
			CloseTime: openTime.Add(intervalDuration).UnixMilli() - 1,
		}
		price = close
	}

	return klines, nil
}

// Get24hrTickers returns simulated ticker statistics
func (mc *MockClient) Get24hrTickers() ([]Ticker24hr, error) {
	mc.updatePrices()

	mc.mu.RLock()
	defer mc.mu.RUnlock()

	tickers := make([]Ticker24hr, 0, len(mc.prices))
	now := time.Now()
	for symbol, price := range mc.prices {
		changePct := (rand.Float64() - 0.5) * 10 // -5% to +5%
		tickers = append(tickers, Ticker24hr{
			Symbol:             symbol,
			PriceChange:        price * changePct / 100,
			PriceChangePercent: changePct,
			LastPrice:          price,
			HighPrice:          price * 1.03,
			LowPrice:           price * 0.97,
			Volume:             price * 10000,
			QuoteVolume:        price * price * 100,
			OpenTime:           now.Add(-24 * time.Hour).UnixMilli(),
			CloseTime:          now.UnixMilli(),
		})
	}

	return tickers, nil
}

// GetCurrentPrice returns the simulated price for a symbol
func (mc *MockClient) GetCurrentPrice(symbol string) (float64, error) {
	mc.updatePrices()

	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if price, ok := mc.prices[symbol]; ok {
		return price, nil
	}
	return 100.0, nil
}

// IntervalDuration converts an interval string to its duration.
// Unknown intervals default to one minute.
func IntervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return time.Minute
	}
}
