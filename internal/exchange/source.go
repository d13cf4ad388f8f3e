package exchange

// CandleSource defines the market data operations the analysis core
// consumes. Concrete exchange adapters implement it; the scanner is
// polymorphic over the implementation.
type CandleSource interface {
	GetKlines(symbol, interval string, limit int) ([]Kline, error)
	Get24hrTickers() ([]Ticker24hr, error)
	GetCurrentPrice(symbol string) (float64, error)
}

// Ensure both Client and MockClient implement CandleSource
var _ CandleSource = (*Client)(nil)
var _ CandleSource = (*MockClient)(nil)
