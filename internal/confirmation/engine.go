package confirmation

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"market-opportunity-scanner/internal/exchange"
)

// Engine drives pending records through their confirmation stages
// using fast-timeframe candles. Each stage is evaluated as soon as
// its delay elapses; no stage result short-circuits the rest, so a
// rejected record still carries evidence from all four stages.
type Engine struct {
	source      exchange.CandleSource
	timeframe   string
	candleLimit int
	now         func() time.Time
	logger      zerolog.Logger
}

// NewEngine creates a confirmation engine reading candles on the
// given fast timeframe.
func NewEngine(source exchange.CandleSource, timeframe string, candleLimit int, logger zerolog.Logger) *Engine {
	if timeframe == "" {
		timeframe = "5m"
	}
	if candleLimit <= 0 {
		candleLimit = 100
	}
	return &Engine{
		source:      source,
		timeframe:   timeframe,
		candleLimit: candleLimit,
		now:         time.Now,
		logger:      logger,
	}
}

// SetClock overrides the engine clock, for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Check evaluates every eligible stage of the record and settles it
// once all four stages have been attempted. Returns true when the
// record changed.
func (e *Engine) Check(record *Record) (bool, error) {
	if record.Terminal() {
		return false, nil
	}

	now := e.now()
	eligible := record.EligibleStages(now)
	if len(eligible) == 0 {
		return false, nil
	}

	candles, err := e.source.GetKlines(record.Signal.Symbol, e.timeframe, e.candleLimit)
	if err != nil {
		return false, fmt.Errorf("confirmation candles for %s: %w", record.Signal.Symbol, err)
	}

	changed := false
	for _, stage := range eligible {
		result, ok := evaluateStage(stage, record.Signal, candles, now)
		if !ok {
			// Candle past the stage delay has not closed yet
			continue
		}
		record.Stages[stage] = result
		changed = true

		e.logger.Debug().
			Str("symbol", record.Signal.Symbol).
			Int("stage", result.Stage).
			Bool("passed", result.Passed).
			Float64("confidence", result.Confidence).
			Msg("Confirmation stage evaluated")
	}

	if changed {
		record.finalize(now)
		if record.Terminal() {
			e.logger.Info().
				Str("symbol", record.Signal.Symbol).
				Str("status", string(record.Status)).
				Float64("combined_confidence", record.CombinedConfidence).
				Msg("Confirmation record settled")
		}
	}

	return changed, nil
}

// EvaluateWithCandles runs the same stage evaluation against a
// caller-supplied candle series, for offline replays and tests.
func (e *Engine) EvaluateWithCandles(record *Record, candles []exchange.Kline) bool {
	if record.Terminal() {
		return false
	}

	now := e.now()
	changed := false
	for _, stage := range record.EligibleStages(now) {
		result, ok := evaluateStage(stage, record.Signal, candles, now)
		if !ok {
			continue
		}
		record.Stages[stage] = result
		changed = true
	}
	if changed {
		record.finalize(now)
	}
	return changed
}
