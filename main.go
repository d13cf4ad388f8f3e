package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"market-opportunity-scanner/config"
	"market-opportunity-scanner/internal/analysis"
	"market-opportunity-scanner/internal/api"
	"market-opportunity-scanner/internal/confirmation"
	"market-opportunity-scanner/internal/confluence"
	"market-opportunity-scanner/internal/events"
	"market-opportunity-scanner/internal/exchange"
	"market-opportunity-scanner/internal/logging"
	"market-opportunity-scanner/internal/patterns"
	"market-opportunity-scanner/internal/scanner"
	"market-opportunity-scanner/internal/scoring"
	"market-opportunity-scanner/internal/storage"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:      cfg.LoggingConfig.Level,
		Output:     cfg.LoggingConfig.Output,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
	})

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger.Info().
		Str("scan_type", cfg.ScannerConfig.ScanType).
		Strs("timeframes", cfg.ConfluenceConfig.Timeframes).
		Bool("mock_mode", cfg.ExchangeConfig.MockMode).
		Msg("Starting market opportunity scanner")

	var source exchange.CandleSource
	if cfg.ExchangeConfig.MockMode {
		source = exchange.NewMockClient()
		logger.Warn().Msg("Running with simulated market data")
	} else {
		source = exchange.NewClient(cfg.ExchangeConfig.BaseURL)
	}

	eventBus := events.NewEventBus()

	analyzer := analysis.NewTimeframeAnalyzer(
		analysis.NewGapDetector(
			cfg.AnalysisConfig.FVGThreshold,
			cfg.AnalysisConfig.FVGProximity,
			cfg.AnalysisConfig.FVGVolumeConfirm,
			cfg.AnalysisConfig.VolumeAvgPeriod,
			cfg.AnalysisConfig.FVGMaxAge,
		),
		analysis.NewTrendlineAnalyzer(cfg.AnalysisConfig.TrendlinePeriod),
		analysis.NewVolumeAnalyzer(cfg.AnalysisConfig.VolumeAvgPeriod, 2.0),
		patterns.NewPatternDetector(cfg.AnalysisConfig.PatternTolerance),
	)

	confluenceScorer := confluence.NewScorer(
		cfg.ConfluenceConfig.Weights,
		cfg.ConfluenceConfig.StrongThresh,
		cfg.ConfluenceConfig.MinTimeframes,
	)

	confirmEngine := confirmation.NewEngine(
		source,
		cfg.ConfirmationConfig.Timeframe,
		cfg.ConfirmationConfig.CandleLimit,
		logging.Component(logger, "confirmation"),
	)

	var cooldown confirmation.CooldownStore
	if cfg.StorageConfig.RedisEnabled {
		redisCooldown := storage.NewRedisCooldown(
			cfg.StorageConfig.RedisAddr,
			cfg.StorageConfig.RedisPassword,
			cfg.StorageConfig.RedisDB,
			cfg.CooldownWindow(),
			logging.Component(logger, "redis"),
		)
		defer redisCooldown.Close()
		cooldown = redisCooldown
	} else {
		cooldown = confirmation.NewCooldownTracker(cfg.CooldownWindow())
	}

	var store scanner.RecordStore
	if cfg.StorageConfig.PostgresEnabled {
		repo, err := storage.NewSignalRepository(
			context.Background(),
			cfg.StorageConfig.PostgresDSN,
			logging.Component(logger, "postgres"),
		)
		if err != nil {
			logger.Error().Err(err).Msg("Signal repository unavailable, running without persistence")
		} else {
			defer repo.Close()
			store = repo
		}
	}

	sc := scanner.NewScanner(
		source,
		analyzer,
		confluenceScorer,
		scoring.NewScorer(),
		confirmEngine,
		cooldown,
		eventBus,
		store,
		scanner.Config{
			Enabled:          cfg.ScannerConfig.Enabled,
			ScanInterval:     cfg.ScanIntervalDuration(),
			ScanType:         cfg.ScannerConfig.ScanType,
			MaxSymbols:       cfg.ScannerConfig.MaxSymbols,
			WorkerCount:      cfg.ScannerConfig.WorkerCount,
			CacheTTL:         time.Duration(cfg.ScannerConfig.CacheTTL) * time.Second,
			MinScore:         cfg.ScannerConfig.MinScore,
			EmitRejected:     cfg.ConfirmationConfig.EmitRejected,
			MinVolumeUSDT:    cfg.ScannerConfig.MinVolumeUSDT,
			MinPrice:         cfg.ScannerConfig.MinPrice,
			MaxPrice:         cfg.ScannerConfig.MaxPrice,
			StaticSymbols:    cfg.ScannerConfig.StaticSymbols,
			ExcludeBases:     cfg.ScannerConfig.ExcludeBases,
			Timeframes:       cfg.ConfluenceConfig.Timeframes,
			TimeframeLimits:  cfg.ConfluenceConfig.TimeframeLimits,
			PrimaryTimeframe: cfg.ConfluenceConfig.PrimaryTimeframe,
		},
		logging.Component(logger, "scanner"),
	)
	sc.Start()

	var server *api.Server
	if cfg.ServerConfig.Enabled {
		server = api.NewServer(api.Config{
			Port:      cfg.ServerConfig.Port,
			JWTSecret: cfg.ServerConfig.JWTSecret,
		}, sc, eventBus, logging.Component(logger, "api"))
		server.Start()
	}

	waitForShutdown(logger)

	sc.Stop()
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			logger.Warn().Err(err).Msg("API server shutdown failed")
		}
	}

	logger.Info().Msg("Shutdown complete")
}

func waitForShutdown(logger zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("Shutting down")
}
