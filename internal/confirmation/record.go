package confirmation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"market-opportunity-scanner/internal/scoring"
)

// Status of a confirmation record
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
)

// Signal is the opportunity handed to the confirmation pipeline.
type Signal struct {
	ID             string            `json:"id"`
	Symbol         string            `json:"symbol"`
	Direction      string            `json:"direction"`
	Price          float64           `json:"price"`
	Time           time.Time         `json:"time"`
	Score          float64           `json:"score"`
	Classification string            `json:"classification"`
	Breakdown      scoring.Breakdown `json:"breakdown"`
}

// Record tracks a signal through the four confirmation stages. It
// stays PENDING until every stage has been attempted, then settles to
// CONFIRMED or REJECTED. Rejected records keep their stage evidence.
type Record struct {
	ID                 string         `json:"id"`
	Signal             Signal         `json:"signal"`
	Status             Status         `json:"status"`
	Stages             [4]StageResult `json:"stages"`
	CombinedConfidence float64        `json:"combined_confidence"`
	CreatedAt          time.Time      `json:"created_at"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
}

// NewRecord opens a pending confirmation record for a signal.
func NewRecord(signal Signal) *Record {
	if signal.ID == "" {
		signal.ID = uuid.NewString()
	}
	r := &Record{
		ID:        uuid.NewString(),
		Signal:    signal,
		Status:    StatusPending,
		CreatedAt: signal.Time,
	}
	for i := range r.Stages {
		r.Stages[i].Stage = i + 1
	}
	return r
}

// EligibleStages returns the indices of stages whose delay has
// elapsed but which have not been evaluated yet.
func (r *Record) EligibleStages(now time.Time) []int {
	if r.Status != StatusPending {
		return nil
	}
	var eligible []int
	for i, spec := range stageSpecs {
		if r.Stages[i].Evaluated {
			continue
		}
		if !now.Before(r.Signal.Time.Add(spec.delay)) {
			eligible = append(eligible, i)
		}
	}
	return eligible
}

// finalize settles the record once all four stages have been
// attempted. Confirmation requires every stage to pass; the combined
// confidence is the mean of the four stage confidences either way.
func (r *Record) finalize(now time.Time) {
	for _, s := range r.Stages {
		if !s.Evaluated {
			return
		}
	}

	allPassed := true
	var sum float64
	for _, s := range r.Stages {
		sum += s.Confidence
		if !s.Passed {
			allPassed = false
		}
	}
	r.CombinedConfidence = sum / float64(len(r.Stages))

	if allPassed {
		r.Status = StatusConfirmed
	} else {
		r.Status = StatusRejected
	}
	completed := now
	r.CompletedAt = &completed
}

// Snapshot returns a deep copy of the record, safe to hand to other
// goroutines while the original keeps being evaluated.
func (r *Record) Snapshot() Record {
	out := *r
	for i, s := range r.Stages {
		if len(s.Checks) > 0 {
			checks := make([]CheckResult, len(s.Checks))
			copy(checks, s.Checks)
			out.Stages[i].Checks = checks
		}
	}
	if r.CompletedAt != nil {
		completed := *r.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}

// Terminal reports whether the record has settled.
func (r *Record) Terminal() bool {
	return r.Status != StatusPending
}

// NextStage returns the 1-based number of the first unevaluated
// stage, or 0 once every stage has been attempted.
func (r *Record) NextStage() int {
	for i, s := range r.Stages {
		if !s.Evaluated {
			return i + 1
		}
	}
	return 0
}

// Recommendation renders a one-line human summary of the confirmation
// outcome.
func (r *Record) Recommendation() string {
	confirmed := r.Status == StatusConfirmed
	switch {
	case confirmed && r.CombinedConfidence >= 80:
		return fmt.Sprintf("STRONG %s - High confidence confirmation (%.1f%%)",
			r.Signal.Direction, r.CombinedConfidence)
	case confirmed && r.CombinedConfidence >= 60:
		return fmt.Sprintf("CONFIRMED %s - Moderate confidence (%.1f%%)",
			r.Signal.Direction, r.CombinedConfidence)
	case !confirmed && r.CombinedConfidence >= 40:
		return fmt.Sprintf("WEAK %s - Low confirmation (%.1f%%)",
			r.Signal.Direction, r.CombinedConfidence)
	default:
		return fmt.Sprintf("REJECTED %s - No confirmation (%.1f%%)",
			r.Signal.Direction, r.CombinedConfidence)
	}
}
