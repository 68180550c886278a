package fhi

import (
	"errors"
	"testing"
	"time"

	"github.com/finnut/finnut/internal/domain"
)

type stubPredictor struct {
	val float64
	err error
}

func (s *stubPredictor) Predict(features map[string]float64) (float64, error) {
	return s.val, s.err
}

func tx(day, hour int, amount int64) domain.Transaction {
	return domain.Transaction{
		Timestamp: time.Date(2024, 11, day, hour, 0, 0, 0, time.Local),
		Amount:    amount,
		Merchant:  "테스트가게",
		Category:  "기타",
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		impulsive float64
		spike     float64
		want      float64
	}{
		{"all calm", 0, 0, 100},
		{"moderate", 0.5, 0.2, 74},
		{"maxed sub-scores", 1, 1, 30},
		{"floor at zero", 1, 3, 0},
		{"impulsive only", 0.3, 0, 88},
		{"rounding", 0.333, 0.111, 83.35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.impulsive, tt.spike); got != tt.want {
				t.Errorf("Score(%v, %v) = %v, want %v", tt.impulsive, tt.spike, got, tt.want)
			}
		})
	}
}

func TestComputeEmptyBatch(t *testing.T) {
	for _, mode := range []Mode{ModeRule, ModeML} {
		t.Run(string(mode), func(t *testing.T) {
			// An empty batch short-circuits before the predictor check, so
			// even ml mode without a predictor succeeds.
			got, err := Compute(nil, mode, nil)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if got.FHI != 0.0 {
				t.Errorf("FHI = %v, want 0.0", got.FHI)
			}
			if got.Mode != mode {
				t.Errorf("Mode = %q, want %q", got.Mode, mode)
			}
			if got.Impulsive.Flags == nil || got.Spike.Flags == nil {
				t.Error("expected non-nil empty flag slices")
			}
		})
	}
}

func TestComputeRuleMode(t *testing.T) {
	t.Run("single calm transaction scores 100", func(t *testing.T) {
		got, err := Compute([]domain.Transaction{tx(1, 14, 50000)}, ModeRule, nil)
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		if got.FHI != 100 {
			t.Errorf("FHI = %v, want 100", got.FHI)
		}
		if got.Mode != ModeRule {
			t.Errorf("Mode = %q, want rule", got.Mode)
		}
	})

	t.Run("night purchase lowers the index", func(t *testing.T) {
		got, err := Compute([]domain.Transaction{tx(1, 23, 50000)}, ModeRule, nil)
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		// Impulsive 0.3, spike 0: 100 - 0.3*40 = 88.
		if got.FHI != 88 {
			t.Errorf("FHI = %v, want 88", got.FHI)
		}
		if got.Impulsive.Score != 0.3 {
			t.Errorf("Impulsive.Score = %v, want 0.3", got.Impulsive.Score)
		}
	})
}

func TestComputeMLMode(t *testing.T) {
	batch := []domain.Transaction{tx(1, 14, 50000)}

	t.Run("nil predictor", func(t *testing.T) {
		_, err := Compute(batch, ModeML, nil)
		if !errors.Is(err, ErrNoPredictor) {
			t.Errorf("Compute() error = %v, want ErrNoPredictor", err)
		}
	})

	t.Run("prediction is used as the index", func(t *testing.T) {
		got, err := Compute(batch, ModeML, &stubPredictor{val: 42.5})
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		if got.FHI != 42.5 {
			t.Errorf("FHI = %v, want 42.5", got.FHI)
		}
		if got.Mode != ModeML {
			t.Errorf("Mode = %q, want ml", got.Mode)
		}
	})

	t.Run("prediction above 100 is clamped", func(t *testing.T) {
		got, err := Compute(batch, ModeML, &stubPredictor{val: 150})
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		if got.FHI != 100 {
			t.Errorf("FHI = %v, want 100", got.FHI)
		}
	})

	t.Run("negative prediction is clamped to 0", func(t *testing.T) {
		got, err := Compute(batch, ModeML, &stubPredictor{val: -5})
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		if got.FHI != 0 {
			t.Errorf("FHI = %v, want 0", got.FHI)
		}
	})

	t.Run("predictor error propagates", func(t *testing.T) {
		wantErr := errors.New("model exploded")
		_, err := Compute(batch, ModeML, &stubPredictor{err: wantErr})
		if !errors.Is(err, wantErr) {
			t.Errorf("Compute() error = %v, want wrapped %v", err, wantErr)
		}
	})

	t.Run("detector results are still populated", func(t *testing.T) {
		got, err := Compute([]domain.Transaction{tx(1, 23, 5000)}, ModeML, &stubPredictor{val: 50})
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		if got.Impulsive.Score != 0.3 {
			t.Errorf("Impulsive.Score = %v, want 0.3 alongside ml score", got.Impulsive.Score)
		}
	})
}

func TestCompare(t *testing.T) {
	batch := []domain.Transaction{tx(1, 14, 50000)}

	cmp, err := Compare(batch, &stubPredictor{val: 80})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if cmp.Rule.FHI != 100 {
		t.Errorf("Rule.FHI = %v, want 100", cmp.Rule.FHI)
	}
	if cmp.ML.FHI != 80 {
		t.Errorf("ML.FHI = %v, want 80", cmp.ML.FHI)
	}
	if cmp.Diff != -20 {
		t.Errorf("Diff = %v, want -20", cmp.Diff)
	}
}

func TestCompareWithoutPredictor(t *testing.T) {
	_, err := Compare([]domain.Transaction{tx(1, 14, 50000)}, nil)
	if !errors.Is(err, ErrNoPredictor) {
		t.Errorf("Compare() error = %v, want ErrNoPredictor", err)
	}
}
