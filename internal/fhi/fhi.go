// Package fhi fuses the impulsive and spike sub-scores into the Financial
// Health Index, a bounded 0-100 wellness score. Two scoring strategies share
// the same contract: the closed-form rule formula and delegation to an
// external trained predictor ("ml" mode).
package fhi

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/finnut/finnut/internal/domain"
	"github.com/finnut/finnut/internal/features"
	"github.com/finnut/finnut/internal/impulsive"
	"github.com/finnut/finnut/internal/spike"
)

// Mode selects the scoring strategy.
type Mode string

const (
	ModeRule Mode = "rule"
	ModeML   Mode = "ml"
)

// ErrNoPredictor is returned when ml mode is requested without a loaded
// scoring model. The caller decides how to handle it; the calculator never
// falls back to rule mode on its own.
var ErrNoPredictor = errors.New("fhi: ml mode requested but no predictor is configured")

// Predictor is the external scoring capability consumed in ml mode: given a
// feature mapping it returns an unclamped real-valued prediction. The
// implementation is expensive to construct and shared read-only; see
// internal/mlmodel.
type Predictor interface {
	Predict(features map[string]float64) (float64, error)
}

// Result is the outcome of one FHI computation. Both sub-detector results
// are always populated regardless of which mode produced the score.
type Result struct {
	FHI       float64          `json:"fhi"`
	Impulsive impulsive.Result `json:"impulsive"`
	Spike     spike.Result     `json:"spike"`
	Mode      Mode             `json:"mode"`
}

// Comparison reports rule and ml mode run over the same batch, for
// evaluating the trained model against the formula.
type Comparison struct {
	Rule Result  `json:"rule"`
	ML   Result  `json:"ml"`
	Diff float64 `json:"diff"` // ml minus rule
}

// Score is the closed-form rule formula. Inputs are assumed pre-clamped
// (impulsive to [0,1], spike floored at 0); the output is clamped to [0,100]
// and rounded to 2 decimals.
func Score(impulsiveScore, spikeScore float64) float64 {
	s := 100 - (impulsiveScore*40 + spikeScore*30)
	return round2(math.Max(s, 0))
}

// Compute scores a transaction batch with fresh detector instances. Use
// ComputeWithDetectors to carry per-session history across calls.
func Compute(txs []domain.Transaction, mode Mode, predictor Predictor) (Result, error) {
	return ComputeWithDetectors(txs, impulsive.NewDetector(), spike.NewDetector(), mode, predictor)
}

// ComputeWithDetectors scores a transaction batch against caller-owned
// detectors. An empty batch is a defined zero result, not an error; the only
// error condition is ml mode without a working predictor.
func ComputeWithDetectors(txs []domain.Transaction, imp *impulsive.Detector, spk *spike.Detector, mode Mode, predictor Predictor) (Result, error) {
	if len(txs) == 0 {
		return Result{
			FHI:       0.0,
			Impulsive: impulsive.Result{Score: 0.0, Flags: []impulsive.Flag{}},
			Spike:     spike.Result{Score: 0.0, Flags: []spike.Flag{}},
			Mode:      mode,
		}, nil
	}

	// Both detectors always run, whichever mode scores, so their outputs
	// stay observable alongside an ml prediction.
	impResult := imp.Detect(txs)
	spkResult := spk.Detect(txs)

	impScore := clamp(impResult.Score, 0, 1)
	spkScore := math.Max(0, spkResult.Score) // a spending decrease never raises the index

	result := Result{Impulsive: impResult, Spike: spkResult, Mode: mode}

	switch mode {
	case ModeML:
		if predictor == nil {
			return Result{}, ErrNoPredictor
		}
		feats := features.Build(txs, time.Time{})
		pred, err := predictor.Predict(feats)
		if err != nil {
			return Result{}, fmt.Errorf("ComputeWithDetectors: predict: %w", err)
		}
		result.FHI = round2(clamp(pred, 0, 100))
	default:
		result.FHI = Score(impScore, spkScore)
	}

	return result, nil
}

// Compare runs rule and ml mode over the same batch with independent fresh
// detectors and reports the difference between the two scores.
func Compare(txs []domain.Transaction, predictor Predictor) (Comparison, error) {
	rule, err := Compute(txs, ModeRule, predictor)
	if err != nil {
		return Comparison{}, err
	}
	ml, err := Compute(txs, ModeML, predictor)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{Rule: rule, ML: ml, Diff: round2(ml.FHI - rule.FHI)}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
