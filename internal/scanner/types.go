package scanner

import (
	"time"

	"market-opportunity-scanner/internal/analysis"
	"market-opportunity-scanner/internal/confluence"
	"market-opportunity-scanner/internal/scoring"
)

// Opportunity is a fully scored symbol from one scan cycle.
type Opportunity struct {
	Symbol         string                                `json:"symbol"`
	Direction      string                                `json:"direction"`
	Score          float64                               `json:"score"`
	Classification string                                `json:"classification"`
	Price          float64                               `json:"price"`
	Breakdown      scoring.Breakdown                     `json:"breakdown"`
	Confluence     confluence.Result                     `json:"confluence"`
	Timeframes     map[string]analysis.TimeframeAnalysis `json:"timeframes"`
	Recommendation string                                `json:"recommendation"`
	Timestamp      time.Time                             `json:"timestamp"`
}

// ScanResult aggregates one scan cycle.
type ScanResult struct {
	ScanID         string        `json:"scan_id"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration"`
	SymbolsScanned int           `json:"symbols_scanned"`
	SymbolsSkipped int           `json:"symbols_skipped"`
	SignalsFired   int           `json:"signals_fired"`
	Opportunities  []Opportunity `json:"opportunities"`
}

// Config holds the scan loop configuration.
type Config struct {
	Enabled          bool
	ScanInterval     time.Duration
	ScanType         string // static, gainers, losers, mixed
	MaxSymbols       int
	WorkerCount      int
	CacheTTL         time.Duration
	MinScore         float64
	EmitRejected     bool
	MinVolumeUSDT    float64
	MinPrice         float64
	MaxPrice         float64
	StaticSymbols    []string
	ExcludeBases     []string
	Timeframes       []string
	TimeframeLimits  map[string]int
	PrimaryTimeframe string
}
