package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ExchangeConfig     ExchangeConfig     `json:"exchange"`
	ScannerConfig      ScannerConfig      `json:"scanner"`
	AnalysisConfig     AnalysisConfig     `json:"analysis"`
	ConfluenceConfig   ConfluenceConfig   `json:"confluence"`
	ConfirmationConfig ConfirmationConfig `json:"confirmation"`
	ServerConfig       ServerConfig       `json:"server"`
	StorageConfig      StorageConfig      `json:"storage"`
	LoggingConfig      LoggingConfig      `json:"logging"`
}

// ExchangeConfig holds market data source settings
type ExchangeConfig struct {
	BaseURL  string `json:"base_url"`
	MockMode bool   `json:"mock_mode"` // Use simulated data when the exchange is unavailable
}

// ScannerConfig controls the periodic scan loop
type ScannerConfig struct {
	Enabled       bool     `json:"enabled"`
	ScanInterval  int      `json:"scan_interval"`   // Seconds between scans
	ScanType      string   `json:"scan_type"`       // static, gainers, losers, mixed
	MaxSymbols    int      `json:"max_symbols"`     // Max symbols per scan
	WorkerCount   int      `json:"worker_count"`    // Concurrent worker count
	CacheTTL      int      `json:"cache_ttl"`       // Candle cache TTL in seconds
	MinScore      float64  `json:"min_score"`       // Minimum opportunity score to fire a signal
	MinVolumeUSDT float64  `json:"min_volume_usdt"` // Minimum 24h quote volume for movers
	MinPrice      float64  `json:"min_price"`
	MaxPrice      float64  `json:"max_price"`
	StaticSymbols []string `json:"static_symbols"`
	ExcludeBases  []string `json:"exclude_bases"` // Stablecoin bases excluded from scans
}

// AnalysisConfig holds detector thresholds
type AnalysisConfig struct {
	FVGThreshold     float64 `json:"fvg_threshold"`      // Minimum gap size (fraction)
	FVGProximity     float64 `json:"fvg_proximity"`      // Near-price proximity (fraction)
	FVGVolumeConfirm float64 `json:"fvg_volume_confirm"` // Volume ratio for confirmation
	FVGMaxAge        int     `json:"fvg_max_age"`        // Candles before a gap goes inactive
	PatternTolerance float64 `json:"pattern_tolerance"`  // Peak/trough height tolerance (fraction)
	VolumeAvgPeriod  int     `json:"volume_avg_period"`  // Rolling average window
	TrendlinePeriod  int     `json:"trendline_period"`   // Candles for regression
}

// ConfluenceConfig holds the multi-timeframe confluence settings
type ConfluenceConfig struct {
	Timeframes       []string           `json:"timeframes"`
	Weights          map[string]float64 `json:"weights"`
	PrimaryTimeframe string             `json:"primary_timeframe"`
	ConfluenceThresh float64            `json:"confluence_threshold"`
	StrongThresh     float64            `json:"strong_threshold"`
	MinTimeframes    int                `json:"min_timeframes"`
	TimeframeLimits  map[string]int     `json:"timeframe_limits"` // Candle counts per timeframe
}

// ConfirmationConfig holds the staged confirmation settings
type ConfirmationConfig struct {
	Timeframe       string `json:"timeframe"`        // Fast confirmation timeframe
	CandleLimit     int    `json:"candle_limit"`     // Candles fetched per check
	CooldownMinutes int    `json:"cooldown_minutes"` // Per-symbol signal cooldown
	EmitRejected    bool   `json:"emit_rejected"`    // Forward REJECTED records for audit
}

// ServerConfig holds the status API settings
type ServerConfig struct {
	Enabled   bool   `json:"enabled"`
	Port      int    `json:"port"`
	JWTSecret string `json:"jwt_secret"`
}

// StorageConfig holds optional persistence settings
type StorageConfig struct {
	PostgresEnabled bool   `json:"postgres_enabled"`
	PostgresDSN     string `json:"postgres_dsn"`
	RedisEnabled    bool   `json:"redis_enabled"`
	RedisAddr       string `json:"redis_addr"`
	RedisPassword   string `json:"redis_password"`
	RedisDB         int    `json:"redis_db"`
}

type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Output     string `json:"output"`      // stdout, stderr, or file path
	JSONFormat bool   `json:"json_format"` // Output as JSON
}

// Load reads config.json if present, then applies defaults and
// environment variable overrides (overrides take precedence).
func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		// No config file: run the scanner and API with defaults
		cfg = &Config{}
		cfg.ScannerConfig.Enabled = true
		cfg.ServerConfig.Enabled = true
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ExchangeConfig.BaseURL == "" {
		cfg.ExchangeConfig.BaseURL = "https://api.binance.com"
	}

	if cfg.ScannerConfig.ScanInterval <= 0 {
		cfg.ScannerConfig.ScanInterval = 30
	}
	if cfg.ScannerConfig.ScanType == "" {
		cfg.ScannerConfig.ScanType = "static"
	}
	if cfg.ScannerConfig.MaxSymbols <= 0 {
		cfg.ScannerConfig.MaxSymbols = 15
	}
	if cfg.ScannerConfig.WorkerCount <= 0 {
		cfg.ScannerConfig.WorkerCount = 5
	}
	if cfg.ScannerConfig.CacheTTL <= 0 {
		cfg.ScannerConfig.CacheTTL = 60
	}
	if cfg.ScannerConfig.MinScore <= 0 {
		cfg.ScannerConfig.MinScore = 60
	}
	if cfg.ScannerConfig.MinVolumeUSDT <= 0 {
		cfg.ScannerConfig.MinVolumeUSDT = 1_000_000
	}
	if cfg.ScannerConfig.MinPrice <= 0 {
		cfg.ScannerConfig.MinPrice = 0.0001
	}
	if cfg.ScannerConfig.MaxPrice <= 0 {
		cfg.ScannerConfig.MaxPrice = 100_000
	}
	if len(cfg.ScannerConfig.StaticSymbols) == 0 {
		cfg.ScannerConfig.StaticSymbols = []string{
			"BTCUSDT", "ETHUSDT", "BNBUSDT", "XRPUSDT", "ADAUSDT",
			"SOLUSDT", "AVAXUSDT", "DOTUSDT", "LINKUSDT", "DOGEUSDT",
		}
	}
	if len(cfg.ScannerConfig.ExcludeBases) == 0 {
		cfg.ScannerConfig.ExcludeBases = []string{"USDT", "BUSD", "USDC", "DAI", "TUSD"}
	}

	if cfg.AnalysisConfig.FVGThreshold <= 0 {
		cfg.AnalysisConfig.FVGThreshold = 0.005
	}
	if cfg.AnalysisConfig.FVGProximity <= 0 {
		cfg.AnalysisConfig.FVGProximity = 0.02
	}
	if cfg.AnalysisConfig.FVGVolumeConfirm <= 0 {
		cfg.AnalysisConfig.FVGVolumeConfirm = 1.5
	}
	if cfg.AnalysisConfig.FVGMaxAge <= 0 {
		cfg.AnalysisConfig.FVGMaxAge = 50
	}
	if cfg.AnalysisConfig.PatternTolerance <= 0 {
		cfg.AnalysisConfig.PatternTolerance = 0.01
	}
	if cfg.AnalysisConfig.VolumeAvgPeriod <= 0 {
		cfg.AnalysisConfig.VolumeAvgPeriod = 20
	}
	if cfg.AnalysisConfig.TrendlinePeriod <= 0 {
		cfg.AnalysisConfig.TrendlinePeriod = 20
	}

	if len(cfg.ConfluenceConfig.Timeframes) == 0 {
		cfg.ConfluenceConfig.Timeframes = []string{"15m", "1h", "4h", "1d"}
	}
	if len(cfg.ConfluenceConfig.Weights) == 0 {
		cfg.ConfluenceConfig.Weights = map[string]float64{
			"1d":  0.35,
			"4h":  0.30,
			"1h":  0.25,
			"15m": 0.10,
		}
	}
	if cfg.ConfluenceConfig.PrimaryTimeframe == "" {
		cfg.ConfluenceConfig.PrimaryTimeframe = "1h"
	}
	if cfg.ConfluenceConfig.ConfluenceThresh <= 0 {
		cfg.ConfluenceConfig.ConfluenceThresh = 0.6
	}
	if cfg.ConfluenceConfig.StrongThresh <= 0 {
		cfg.ConfluenceConfig.StrongThresh = 0.8
	}
	if cfg.ConfluenceConfig.MinTimeframes <= 0 {
		cfg.ConfluenceConfig.MinTimeframes = 2
	}
	if len(cfg.ConfluenceConfig.TimeframeLimits) == 0 {
		cfg.ConfluenceConfig.TimeframeLimits = map[string]int{
			"15m": 100, "1h": 100, "4h": 60, "1d": 30,
		}
	}

	if cfg.ConfirmationConfig.Timeframe == "" {
		cfg.ConfirmationConfig.Timeframe = "5m"
	}
	if cfg.ConfirmationConfig.CandleLimit <= 0 {
		cfg.ConfirmationConfig.CandleLimit = 100
	}
	if cfg.ConfirmationConfig.CooldownMinutes <= 0 {
		cfg.ConfirmationConfig.CooldownMinutes = 30
	}

	if cfg.ServerConfig.Port <= 0 {
		cfg.ServerConfig.Port = 8080
	}

	if cfg.LoggingConfig.Level == "" {
		cfg.LoggingConfig.Level = "info"
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.ExchangeConfig.BaseURL = getEnvOrDefault("EXCHANGE_BASE_URL", cfg.ExchangeConfig.BaseURL)
	if v := os.Getenv("MOCK_MODE"); v != "" {
		cfg.ExchangeConfig.MockMode = v == "true"
	}

	if v := os.Getenv("SCANNER_ENABLED"); v != "" {
		cfg.ScannerConfig.Enabled = v == "true"
	}
	cfg.ScannerConfig.ScanInterval = getEnvIntOrDefault("SCAN_INTERVAL", cfg.ScannerConfig.ScanInterval)
	cfg.ScannerConfig.ScanType = getEnvOrDefault("SCAN_TYPE", cfg.ScannerConfig.ScanType)
	cfg.ScannerConfig.WorkerCount = getEnvIntOrDefault("SCAN_WORKERS", cfg.ScannerConfig.WorkerCount)

	if v := os.Getenv("SERVER_ENABLED"); v != "" {
		cfg.ServerConfig.Enabled = v == "true"
	}
	cfg.ServerConfig.Port = getEnvIntOrDefault("SERVER_PORT", cfg.ServerConfig.Port)
	cfg.ServerConfig.JWTSecret = getEnvOrDefault("JWT_SECRET", cfg.ServerConfig.JWTSecret)

	cfg.StorageConfig.PostgresDSN = getEnvOrDefault("POSTGRES_DSN", cfg.StorageConfig.PostgresDSN)
	if cfg.StorageConfig.PostgresDSN != "" {
		cfg.StorageConfig.PostgresEnabled = true
	}
	cfg.StorageConfig.RedisAddr = getEnvOrDefault("REDIS_ADDR", cfg.StorageConfig.RedisAddr)
	if cfg.StorageConfig.RedisAddr != "" {
		cfg.StorageConfig.RedisEnabled = true
	}
	cfg.StorageConfig.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", cfg.StorageConfig.RedisPassword)

	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
}

// Validate enforces the startup invariants. Violations are fatal at
// startup and never checked again at runtime.
func (c *Config) Validate() error {
	var weightSum float64
	for _, tf := range c.ConfluenceConfig.Timeframes {
		w, ok := c.ConfluenceConfig.Weights[tf]
		if !ok {
			return fmt.Errorf("timeframe %s has no configured weight", tf)
		}
		weightSum += w
	}
	if math.Abs(weightSum-1.0) > 1e-6 {
		return fmt.Errorf("timeframe weights must sum to 1.0, got %.6f", weightSum)
	}

	if !containsString(c.ConfluenceConfig.Timeframes, c.ConfluenceConfig.PrimaryTimeframe) {
		return fmt.Errorf("primary timeframe %s not in configured timeframe set",
			c.ConfluenceConfig.PrimaryTimeframe)
	}

	if c.ConfirmationConfig.Timeframe == "" {
		return fmt.Errorf("confirmation timeframe is required")
	}

	if c.ConfluenceConfig.MinTimeframes > len(c.ConfluenceConfig.Timeframes) {
		return fmt.Errorf("min_timeframes %d exceeds configured timeframe count %d",
			c.ConfluenceConfig.MinTimeframes, len(c.ConfluenceConfig.Timeframes))
	}

	if c.ScannerConfig.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive")
	}

	return nil
}

// ScanIntervalDuration returns the scan interval as a duration.
func (c *Config) ScanIntervalDuration() time.Duration {
	return time.Duration(c.ScannerConfig.ScanInterval) * time.Second
}

// CooldownWindow returns the per-symbol cooldown as a duration.
func (c *Config) CooldownWindow() time.Duration {
	return time.Duration(c.ConfirmationConfig.CooldownMinutes) * time.Minute
}

// GenerateSampleConfig writes a fully populated configuration file to
// use as a starting point.
func GenerateSampleConfig(filename string) error {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.ScannerConfig.Enabled = true
	cfg.ServerConfig.Enabled = true
	cfg.ExchangeConfig.MockMode = true
	cfg.ConfirmationConfig.EmitRejected = true

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sample config: %w", err)
	}
	return os.WriteFile(filename, data, 0o644)
}

func containsString(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
