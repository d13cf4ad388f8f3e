package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"market-opportunity-scanner/internal/analysis"
	"market-opportunity-scanner/internal/confirmation"
	"market-opportunity-scanner/internal/confluence"
	"market-opportunity-scanner/internal/events"
	"market-opportunity-scanner/internal/exchange"
	"market-opportunity-scanner/internal/scoring"
)

// maxRecordHistory bounds the retained settled records.
const maxRecordHistory = 200

// RecordStore persists signals and confirmation outcomes. Persistence
// is optional; a nil store is skipped.
type RecordStore interface {
	SaveRecord(ctx context.Context, record *confirmation.Record) error
	UpdateRecord(ctx context.Context, record *confirmation.Record) error
}

// Scanner orchestrates the scan cycle: symbol selection, per-timeframe
// analysis, confluence, scoring, signal emission, and confirmation
// tracking.
type Scanner struct {
	source   exchange.CandleSource
	analyzer *analysis.TimeframeAnalyzer
	conf     *confluence.Scorer
	scorer   *scoring.Scorer
	confirm  *confirmation.Engine
	cooldown confirmation.CooldownStore
	cache    *CandleCache
	bus      *events.EventBus
	store    RecordStore
	config   Config
	logger   zerolog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup

	mu         sync.RWMutex
	lastResult *ScanResult
	pending    []*confirmation.Record
	settled    []*confirmation.Record
}

// NewScanner wires the scan pipeline together. store may be nil.
func NewScanner(
	source exchange.CandleSource,
	analyzer *analysis.TimeframeAnalyzer,
	conf *confluence.Scorer,
	scorer *scoring.Scorer,
	confirm *confirmation.Engine,
	cooldown confirmation.CooldownStore,
	bus *events.EventBus,
	store RecordStore,
	config Config,
	logger zerolog.Logger,
) *Scanner {
	return &Scanner{
		source:   source,
		analyzer: analyzer,
		conf:     conf,
		scorer:   scorer,
		confirm:  confirm,
		cooldown: cooldown,
		cache:    NewCandleCache(config.CacheTTL),
		bus:      bus,
		store:    store,
		config:   config,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background scan loop.
func (s *Scanner) Start() {
	if !s.config.Enabled {
		s.logger.Info().Msg("Scanner is disabled")
		return
	}

	s.wg.Add(1)
	go s.runScanLoop()
	s.logger.Info().
		Str("scan_type", s.config.ScanType).
		Dur("interval", s.config.ScanInterval).
		Msg("Scanner started")
}

// Stop gracefully shuts down the scan loop.
func (s *Scanner) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info().Msg("Scanner stopped")
}

func (s *Scanner) runScanLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.ScanInterval)
	defer ticker.Stop()

	s.scan()

	for {
		select {
		case <-ticker.C:
			s.checkPendingRecords()
			s.scan()
		case <-s.stopChan:
			return
		}
	}
}

// Scan executes a single scan cycle, for manual triggering.
func (s *Scanner) Scan() {
	s.scan()
}

func (s *Scanner) scan() {
	startTime := time.Now()
	scanID := uuid.NewString()

	s.bus.Publish(events.Event{
		Type: events.EventScanStarted,
		Data: map[string]interface{}{"scan_id": scanID},
	})

	symbols, err := s.selectSymbols()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Symbol selection failed, skipping cycle")
		s.bus.PublishError("scanner", "symbol selection failed", err)
		return
	}

	opportunityChan := make(chan *Opportunity, len(symbols))
	symbolChan := make(chan string, len(symbols))
	var workers sync.WaitGroup

	for i := 0; i < s.config.WorkerCount; i++ {
		workers.Add(1)
		go s.worker(symbolChan, opportunityChan, &workers)
	}

	for _, symbol := range symbols {
		symbolChan <- symbol
	}
	close(symbolChan)

	go func() {
		workers.Wait()
		close(opportunityChan)
	}()

	var opportunities []Opportunity
	skipped := 0
	for opp := range opportunityChan {
		if opp == nil {
			skipped++
			continue
		}
		opportunities = append(opportunities, *opp)
	}

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].Score > opportunities[j].Score
	})

	signals := s.fireSignals(opportunities)

	result := &ScanResult{
		ScanID:         scanID,
		StartTime:      startTime,
		EndTime:        time.Now(),
		Duration:       time.Since(startTime),
		SymbolsScanned: len(symbols),
		SymbolsSkipped: skipped,
		SignalsFired:   signals,
		Opportunities:  opportunities,
	}

	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()

	s.bus.Publish(events.Event{
		Type: events.EventScanCompleted,
		Data: map[string]interface{}{
			"scan_id":       scanID,
			"duration_ms":   result.Duration.Milliseconds(),
			"symbols":       len(symbols),
			"opportunities": len(opportunities),
			"signals":       signals,
		},
	})

	s.logger.Info().
		Str("scan_id", scanID).
		Dur("duration", result.Duration).
		Int("symbols", len(symbols)).
		Int("opportunities", len(opportunities)).
		Int("signals", signals).
		Msg("Scan completed")
}

func (s *Scanner) worker(symbolChan <-chan string, opportunityChan chan<- *Opportunity, wg *sync.WaitGroup) {
	defer wg.Done()

	for symbol := range symbolChan {
		opp, err := s.scanSymbol(symbol)
		if err != nil {
			s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Symbol scan failed")
			opportunityChan <- nil
			continue
		}
		opportunityChan <- opp
	}
}

// scanSymbol runs the full analysis pipeline on one symbol. Returns
// nil without error when the symbol lacks enough usable timeframes
// or scores neutral.
func (s *Scanner) scanSymbol(symbol string) (*Opportunity, error) {
	currentPrice, err := s.source.GetCurrentPrice(symbol)
	if err != nil {
		return nil, fmt.Errorf("price for %s: %w", symbol, err)
	}

	analyses := make(map[string]analysis.TimeframeAnalysis, len(s.config.Timeframes))
	var mu sync.Mutex
	var tfWait sync.WaitGroup

	for _, tf := range s.config.Timeframes {
		tfWait.Add(1)
		go func(timeframe string) {
			defer tfWait.Done()

			candles, err := s.fetchCandles(symbol, timeframe)
			if err != nil {
				s.logger.Debug().Err(err).
					Str("symbol", symbol).
					Str("timeframe", timeframe).
					Msg("Candle fetch failed")
				candles = nil
			}
			result := s.analyzer.Analyze(timeframe, candles, currentPrice)

			mu.Lock()
			analyses[timeframe] = result
			mu.Unlock()
		}(tf)
	}
	tfWait.Wait()

	conf := s.conf.Score(analyses)
	if !conf.Usable {
		return nil, nil
	}

	primary := analyses[s.config.PrimaryTimeframe]
	breakdown := s.scorer.Score(primary, conf)

	direction := conf.Direction
	if direction == analysis.DirectionNeutral {
		return nil, nil
	}

	opp := &Opportunity{
		Symbol:         symbol,
		Direction:      direction,
		Score:          breakdown.Total,
		Classification: scoring.Classify(breakdown.Total),
		Price:          currentPrice,
		Breakdown:      breakdown,
		Confluence:     conf,
		Timeframes:     analyses,
		Timestamp:      time.Now(),
	}
	opp.Recommendation = recommendation(opp)

	s.bus.Publish(events.Event{
		Type: events.EventOpportunityScored,
		Data: map[string]interface{}{
			"symbol":    symbol,
			"direction": direction,
			"score":     breakdown.Total,
		},
	})

	return opp, nil
}

// fetchCandles returns candles from the cache or the source.
func (s *Scanner) fetchCandles(symbol, timeframe string) ([]exchange.Kline, error) {
	key := symbol + "_" + timeframe
	if cached := s.cache.Get(key); cached != nil {
		return cached, nil
	}

	limit, ok := s.config.TimeframeLimits[timeframe]
	if !ok {
		limit = 100
	}
	candles, err := s.source.GetKlines(symbol, timeframe, limit)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, candles)
	return candles, nil
}

// fireSignals promotes qualifying opportunities to signals, honoring
// the per-symbol cooldown, and opens confirmation records for them.
func (s *Scanner) fireSignals(opportunities []Opportunity) int {
	fired := 0
	for _, opp := range opportunities {
		if opp.Score < s.config.MinScore {
			continue
		}
		if s.cooldown.Active(opp.Symbol) {
			s.bus.PublishSuppressed(opp.Symbol, opp.Score)
			s.logger.Debug().
				Str("symbol", opp.Symbol).
				Float64("score", opp.Score).
				Msg("Signal suppressed by cooldown")
			continue
		}

		signal := confirmation.Signal{
			Symbol:         opp.Symbol,
			Direction:      opp.Direction,
			Price:          opp.Price,
			Time:           opp.Timestamp,
			Score:          opp.Score,
			Classification: opp.Classification,
			Breakdown:      opp.Breakdown,
		}
		record := confirmation.NewRecord(signal)

		s.cooldown.Touch(opp.Symbol)

		s.mu.Lock()
		s.pending = append(s.pending, record)
		s.mu.Unlock()

		if s.store != nil {
			if err := s.store.SaveRecord(context.Background(), record); err != nil {
				s.logger.Warn().Err(err).Str("symbol", opp.Symbol).Msg("Record persist failed")
			}
		}

		s.bus.PublishSignal(opp.Symbol, opp.Direction, opp.Classification, opp.Score, opp.Price)
		s.logger.Info().
			Str("symbol", opp.Symbol).
			Str("direction", opp.Direction).
			Str("class", opp.Classification).
			Float64("score", opp.Score).
			Msg("Signal generated")
		fired++
	}
	return fired
}

// checkPendingRecords advances every pending confirmation record
// whose next stage delay has elapsed.
func (s *Scanner) checkPendingRecords() {
	s.mu.Lock()
	pending := make([]*confirmation.Record, len(s.pending))
	copy(pending, s.pending)
	s.mu.Unlock()

	var stillPending []*confirmation.Record
	var newlySettled []*confirmation.Record

	for _, record := range pending {
		// Evaluate a working copy so readers holding snapshots never
		// observe a half-updated record, then publish the result back
		// under the lock.
		work := record.Snapshot()

		var seen [4]bool
		for i, stage := range work.Stages {
			seen[i] = stage.Evaluated
		}

		changed, err := s.confirm.Check(&work)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", work.Signal.Symbol).Msg("Confirmation check failed")
		}
		if changed {
			s.mu.Lock()
			*record = work
			s.mu.Unlock()

			for i, stage := range work.Stages {
				if stage.Evaluated && !seen[i] {
					s.bus.PublishStage(work.Signal.Symbol, stage.Stage, stage.Passed, stage.Confidence)
				}
			}
			if s.store != nil {
				if err := s.store.UpdateRecord(context.Background(), &work); err != nil {
					s.logger.Warn().Err(err).Str("symbol", work.Signal.Symbol).Msg("Record update failed")
				}
			}
		}
		if work.Terminal() {
			newlySettled = append(newlySettled, record)
		} else {
			stillPending = append(stillPending, record)
		}
	}

	s.mu.Lock()
	s.pending = stillPending
	s.settled = append(s.settled, newlySettled...)
	if len(s.settled) > maxRecordHistory {
		s.settled = s.settled[len(s.settled)-maxRecordHistory:]
	}
	s.mu.Unlock()

	for _, record := range newlySettled {
		confirmed := record.Status == confirmation.StatusConfirmed
		if !confirmed && !s.config.EmitRejected {
			continue
		}
		s.bus.PublishOutcome(
			record.Signal.Symbol,
			record.Signal.Direction,
			record.Signal.Price,
			record.Signal.Time,
			confirmed,
			record.CombinedConfidence,
			record.Stages,
		)
	}
}

// GetLastResult returns the most recent scan result.
func (s *Scanner) GetLastResult() *ScanResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// PendingRecords returns deep copies of the open confirmation
// records, decoupled from the scanner's ongoing evaluation.
func (s *Scanner) PendingRecords() []confirmation.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]confirmation.Record, len(s.pending))
	for i, r := range s.pending {
		out[i] = r.Snapshot()
	}
	return out
}

// SettledRecords returns deep copies of recently settled records,
// newest last.
func (s *Scanner) SettledRecords() []confirmation.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]confirmation.Record, len(s.settled))
	for i, r := range s.settled {
		out[i] = r.Snapshot()
	}
	return out
}

// recommendation renders a one-line human summary of the opportunity.
func recommendation(opp *Opportunity) string {
	return fmt.Sprintf("%s %s opportunity on %s: score %.1f, %d/%d timeframes agree",
		opp.Classification, opp.Direction, opp.Symbol,
		opp.Score, opp.Confluence.AgreementCount, opp.Confluence.TimeframeCount)
}
