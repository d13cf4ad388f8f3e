package confirmation

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"market-opportunity-scanner/internal/exchange"
)

func newTestEngine() *Engine {
	return NewEngine(nil, "5m", 100, zerolog.Nop())
}

// strongPath returns history plus four progressively stronger green
// candles, one per stage window, that clear every stage's bar for a
// bullish signal at price 100.
func strongPath() []exchange.Kline {
	candles := history(12)
	return append(candles,
		candleAt(1, 100.5, 102.1, 100.3, 102, 200),
		candleAt(6, 102, 104.2, 101.9, 104, 300),
		candleAt(11, 104.1, 106.1, 104, 106, 400),
		candleAt(16, 106.55, 109.05, 106.5, 109, 900),
	)
}

// advance evaluates the record at a series of clock offsets, showing
// the engine only the candles that exist by each offset.
func advance(e *Engine, record *Record, candles []exchange.Kline, minutes ...int) {
	for _, m := range minutes {
		at := signalTime.Add(time.Duration(m) * time.Minute)
		visible := make([]exchange.Kline, 0, len(candles))
		for _, c := range candles {
			if !c.Time().After(at) {
				visible = append(visible, c)
			}
		}
		e.SetClock(func() time.Time { return at })
		e.EvaluateWithCandles(record, visible)
	}
}

// TestFullConfirmation walks a strong signal through all four stages
func TestFullConfirmation(t *testing.T) {
	engine := newTestEngine()
	record := NewRecord(bullishSignal())
	candles := strongPath()

	advance(engine, record, candles, 2, 7, 12, 17)

	if record.Status != StatusConfirmed {
		for _, s := range record.Stages {
			t.Logf("stage %d: evaluated=%v passed=%v confidence=%f", s.Stage, s.Evaluated, s.Passed, s.Confidence)
		}
		t.Fatalf("Expected CONFIRMED, got %s", record.Status)
	}
	if record.CombinedConfidence != 100 {
		t.Errorf("Expected combined confidence 100, got %f", record.CombinedConfidence)
	}
	if record.CompletedAt == nil {
		t.Error("Settled record should carry a completion time")
	}
}

// TestNoTerminalStateBeforeAllStages verifies a record cannot settle
// before every stage delay has elapsed
func TestNoTerminalStateBeforeAllStages(t *testing.T) {
	engine := newTestEngine()
	record := NewRecord(bullishSignal())
	candles := strongPath()

	// Minute 12: stages 3 and 4 cannot have candles yet
	advance(engine, record, candles[:15], 2, 7, 12)

	if record.Terminal() {
		t.Fatal("Record settled before all four stages were attempted")
	}
	if !record.Stages[0].Evaluated || !record.Stages[1].Evaluated {
		t.Error("Stages 1 and 2 should be evaluated by minute 12")
	}
	if record.Stages[3].Evaluated {
		t.Error("Stage 4 must not be evaluated before its 15-minute delay")
	}
}

// TestMidwayEligibility verifies per-stage gating at minute 12: only
// the stages whose candles exist are attempted
func TestMidwayEligibility(t *testing.T) {
	record := NewRecord(bullishSignal())

	eligible := record.EligibleStages(signalTime.Add(12 * time.Minute))

	// Delays 0, 5, and 10 minutes have elapsed by minute 12
	if len(eligible) != 3 {
		t.Fatalf("Expected stages 1-3 delay-eligible at minute 12, got %v", eligible)
	}

	// But with candles only through minute 12, stage 3 has no candle
	// opening after its cutoff, so it stays unevaluated
	engine := newTestEngine()
	candles := strongPath()[:15] // history + candles at +1, +6, +11
	engine.SetClock(func() time.Time { return signalTime.Add(12 * time.Minute) })
	engine.EvaluateWithCandles(record, candles)

	if !record.Stages[0].Evaluated || !record.Stages[1].Evaluated {
		t.Error("Stages 1 and 2 should evaluate at minute 12")
	}
	if !record.Stages[2].Evaluated {
		t.Error("Stage 3 has a candle opening at +11, past its +10 cutoff")
	}
	if record.Stages[3].Evaluated {
		t.Error("Stage 4 must wait for its delay")
	}
}

// TestRejectionKeepsEvidence verifies a failed stage rejects the
// record while retaining every stage's checks
func TestRejectionKeepsEvidence(t *testing.T) {
	engine := newTestEngine()
	record := NewRecord(bullishSignal())

	candles := history(12)
	candles = append(candles,
		candleAt(1, 100.5, 102.1, 100.3, 102, 200),
		candleAt(6, 102, 104.2, 101.9, 104, 300),
		// Weak red probe torpedoes stage 3
		candleAt(11, 104, 104.2, 103.4, 103.5, 100),
		candleAt(16, 103.55, 106.05, 103.5, 106, 900),
	)

	advance(engine, record, candles, 2, 7, 12, 17)

	if record.Status != StatusRejected {
		t.Fatalf("Expected REJECTED, got %s", record.Status)
	}
	if record.Stages[2].Passed {
		t.Error("Stage 3 should have failed")
	}
	for i, s := range record.Stages {
		if !s.Evaluated {
			t.Errorf("Stage %d should still be evaluated after rejection", i+1)
		}
		if len(s.Checks) == 0 {
			t.Errorf("Stage %d should retain its check evidence", i+1)
		}
	}
	// Combined confidence averages all four stages even on rejection
	want := (record.Stages[0].Confidence + record.Stages[1].Confidence +
		record.Stages[2].Confidence + record.Stages[3].Confidence) / 4
	if record.CombinedConfidence != want {
		t.Errorf("Expected combined %f, got %f", want, record.CombinedConfidence)
	}
}

// TestCombinedConfidenceMean verifies the documented arithmetic:
// stage confidences averaging 80 with one failed stage reject
func TestCombinedConfidenceMean(t *testing.T) {
	record := NewRecord(bullishSignal())
	record.Stages[0] = StageResult{Stage: 1, Evaluated: true, Passed: true, Confidence: 100}
	record.Stages[1] = StageResult{Stage: 2, Evaluated: true, Passed: true, Confidence: 80}
	record.Stages[2] = StageResult{Stage: 3, Evaluated: true, Passed: false, Confidence: 50}
	record.Stages[3] = StageResult{Stage: 4, Evaluated: true, Passed: true, Confidence: 90}

	record.finalize(signalTime.Add(25 * time.Minute))

	if record.CombinedConfidence != 80 {
		t.Errorf("Expected combined confidence 80, got %f", record.CombinedConfidence)
	}
	if record.Status != StatusRejected {
		t.Errorf("One failing stage should reject, got %s", record.Status)
	}
}

// TestSnapshotIsolation verifies a snapshot is not affected by later
// mutation of the original record
func TestSnapshotIsolation(t *testing.T) {
	record := NewRecord(Signal{Symbol: "BTCUSDT", Direction: "BULLISH", Time: time.Now()})
	record.Stages[0] = StageResult{
		Stage:     1,
		Evaluated: true,
		Passed:    true,
		Checks:    []CheckResult{{Name: "candle_direction", Passed: true}},
	}

	snap := record.Snapshot()

	record.Stages[0].Checks[0].Passed = false
	record.Stages[1].Evaluated = true
	record.Status = StatusRejected
	completed := time.Now()
	record.CompletedAt = &completed

	if !snap.Stages[0].Checks[0].Passed {
		t.Error("Snapshot check mutated through the original's slice")
	}
	if snap.Stages[1].Evaluated {
		t.Error("Snapshot stage mutated through the original")
	}
	if snap.Status != StatusPending {
		t.Errorf("Expected snapshot to stay PENDING, got %s", snap.Status)
	}
	if snap.CompletedAt != nil {
		t.Error("Snapshot should not see the original's completion time")
	}
}

// TestNextStage verifies the bookkeeping pointer advances past
// evaluated stages
func TestNextStage(t *testing.T) {
	record := NewRecord(bullishSignal())

	if record.NextStage() != 1 {
		t.Errorf("Fresh record should point at stage 1, got %d", record.NextStage())
	}

	record.Stages[0].Evaluated = true
	record.Stages[1].Evaluated = true
	if record.NextStage() != 3 {
		t.Errorf("Expected next stage 3, got %d", record.NextStage())
	}

	record.Stages[2].Evaluated = true
	record.Stages[3].Evaluated = true
	if record.NextStage() != 0 {
		t.Errorf("Fully attempted record should return 0, got %d", record.NextStage())
	}
}

// TestRecommendationBuckets verifies the outcome summary thresholds
func TestRecommendationBuckets(t *testing.T) {
	cases := []struct {
		status     Status
		confidence float64
		prefix     string
	}{
		{StatusConfirmed, 92, "STRONG BULLISH"},
		{StatusConfirmed, 65, "CONFIRMED BULLISH"},
		{StatusRejected, 55, "WEAK BULLISH"},
		{StatusRejected, 20, "REJECTED BULLISH"},
	}

	for _, tc := range cases {
		record := NewRecord(bullishSignal())
		record.Status = tc.status
		record.CombinedConfidence = tc.confidence

		got := record.Recommendation()
		if len(got) < len(tc.prefix) || got[:len(tc.prefix)] != tc.prefix {
			t.Errorf("Confidence %.0f %s: expected prefix %q, got %q",
				tc.confidence, tc.status, tc.prefix, got)
		}
	}
}
