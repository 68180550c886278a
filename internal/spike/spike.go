// Package spike detects spending spikes by comparing the average of the most
// recent amounts against an earlier baseline. Windows are call-order counts
// over the recorded history, not calendar windows: "recent 7" means the last
// seven scored amounts regardless of when they happened. A Detector belongs
// to one user session and is not safe for concurrent use.
package spike

import (
	"math"

	"github.com/finnut/finnut/internal/domain"
)

const (
	// minObservations gates spike assessment; with fewer recorded amounts
	// every transaction scores 0.
	minObservations = 10

	recentWindow   = 7
	baselineWindow = 30

	// flagThreshold marks a spike worth reporting (>= 50% increase).
	flagThreshold = 0.5
)

// Flag explains why a spike result was reported.
type Flag struct {
	Reason string  `json:"reason"`
	Score  float64 `json:"score"`
}

// Result is the outcome of one Detect call. Score is the spike ratio of the
// last scored transaction in the call; it is signed, and negative when recent
// spending dropped below the baseline.
type Result struct {
	Score float64 `json:"spike_score"`
	Flags []Flag  `json:"spike_flags"`
}

// Detector accumulates scored amounts in call order.
type Detector struct {
	history []int64
}

// NewDetector returns an empty Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Score appends one amount and returns its spike ratio: the relative change
// of the mean of the last 7 amounts against the mean of the 30 amounts
// before them. Early in the history the baseline shrinks to whatever
// precedes the recent window; with under 10 observations, an empty baseline,
// or a zero baseline mean the ratio is 0.
func (d *Detector) Score(amount int64) float64 {
	d.history = append(d.history, amount)

	n := len(d.history)
	if n < minObservations {
		return 0.0
	}

	recent := d.history[n-recentWindow:]
	var baseline []int64
	if n >= recentWindow+baselineWindow {
		baseline = d.history[n-recentWindow-baselineWindow : n-recentWindow]
	} else {
		baseline = d.history[:n-recentWindow]
	}

	if len(baseline) == 0 {
		return 0.0
	}

	avgRecent := mean(recent)
	avgBaseline := mean(baseline)
	if avgBaseline == 0 {
		return 0.0
	}

	return round2((avgRecent - avgBaseline) / avgBaseline)
}

// Detect scores a batch of transactions. Entries without a positive amount
// are skipped silently. The call's result is the ratio of the last scored
// transaction (recency dominates; no averaging), flagged when it crosses
// the spike threshold.
func (d *Detector) Detect(txs []domain.Transaction) Result {
	scored := false
	score := 0.0

	for _, tx := range txs {
		if tx.Amount <= 0 {
			continue
		}
		score = d.Score(tx.Amount)
		scored = true
	}

	if !scored {
		return Result{Score: 0.0, Flags: []Flag{}}
	}

	flags := []Flag{}
	if score >= flagThreshold {
		flags = append(flags, Flag{Reason: "spike_ratio>=0.5", Score: score})
	}
	return Result{Score: score, Flags: flags}
}

func mean(vals []int64) float64 {
	sum := int64(0)
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
