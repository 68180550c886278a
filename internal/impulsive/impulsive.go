// Package impulsive scores impulsive-spending behavior from a rolling
// transaction history. A Detector instance belongs to exactly one user
// session; it keeps every scored (timestamp, amount) pair for the lifetime
// of the instance and is not safe for concurrent use.
package impulsive

import (
	"math"
	"time"

	"github.com/finnut/finnut/internal/domain"
)

const (
	// Weights of the three behavioral flags in the per-transaction score.
	weightFrequency = 0.4
	weightNight     = 0.3
	weightSmall     = 0.3

	// A per-transaction score at or above this is recorded as a flag.
	flagThreshold = 0.7

	// Purchases at or below this amount count toward the small-amount flag.
	smallAmountWon = 10000
)

// Flag records one transaction whose score crossed the flag threshold.
type Flag struct {
	Timestamp time.Time `json:"timestamp"`
	Amount    int64     `json:"amount"`
	Merchant  string    `json:"merchant"`
	Score     float64   `json:"score"`
}

// Result is the outcome of one Detect call: the mean per-transaction score
// over the call's scored transactions and the flags raised during the call.
// History persists across calls but flags do not accumulate in the result.
type Result struct {
	Score float64 `json:"impulsive_score"`
	Flags []Flag  `json:"impulsive_flags"`
}

type entry struct {
	ts     time.Time
	amount int64
}

// Detector accumulates scored transactions. Create one per user session;
// the zero value is usable but NewDetector is the conventional constructor.
type Detector struct {
	history []entry
}

// NewDetector returns an empty Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Score appends one transaction to the history and returns its impulsive
// score. The three flags are computed against the history as it stands
// after the append, so the current transaction counts toward its own
// frequency and small-amount windows.
func (d *Detector) Score(ts time.Time, amount int64) float64 {
	d.history = append(d.history, entry{ts: ts, amount: amount})

	// Night purchase: 21:00 through 02:59 local time.
	night := 0.0
	if h := ts.Hour(); h >= 21 || h <= 2 {
		night = 1.0
	}

	// Frequency: at least 2 history entries inside the trailing 24 hours.
	recent := 0
	for _, e := range d.history {
		if ts.Sub(e.ts) <= 24*time.Hour {
			recent++
		}
	}
	freq := 0.0
	if recent >= 2 {
		freq = 1.0
	}

	// Small-amount habit: at least 3 all-time entries of 10,000 won or less.
	smallCount := 0
	for _, e := range d.history {
		if e.amount <= smallAmountWon {
			smallCount++
		}
	}
	small := 0.0
	if smallCount >= 3 {
		small = 1.0
	}

	return round2(weightFrequency*freq + weightNight*night + weightSmall*small)
}

// Detect scores a batch of transactions against the detector's history.
// Transactions without a valid timestamp or a positive amount are skipped
// silently: they are neither scored nor appended. A batch with nothing
// scorable yields the zero Result.
func (d *Detector) Detect(txs []domain.Transaction) Result {
	var (
		scores []float64
		flags  []Flag
	)

	for _, tx := range txs {
		if !tx.Scorable() {
			continue
		}

		s := d.Score(tx.Timestamp, tx.Amount)
		scores = append(scores, s)

		if s >= flagThreshold {
			flags = append(flags, Flag{
				Timestamp: tx.Timestamp,
				Amount:    tx.Amount,
				Merchant:  tx.Merchant,
				Score:     s,
			})
		}
	}

	if len(scores) == 0 {
		return Result{Score: 0.0, Flags: []Flag{}}
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	if flags == nil {
		flags = []Flag{}
	}
	return Result{Score: round2(sum / float64(len(scores))), Flags: flags}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
