package impulsive

import (
	"testing"
	"time"

	"github.com/finnut/finnut/internal/domain"
)

func ts(day, hour, min int) time.Time {
	return time.Date(2024, 11, day, hour, min, 0, 0, time.Local)
}

func TestScore(t *testing.T) {
	t.Run("single daytime purchase scores 0", func(t *testing.T) {
		d := NewDetector()
		if got := d.Score(ts(1, 14, 0), 50000); got != 0.0 {
			t.Errorf("Score() = %v, want 0.0", got)
		}
	})

	t.Run("single night purchase scores 0.3", func(t *testing.T) {
		d := NewDetector()
		if got := d.Score(ts(1, 23, 30), 50000); got != 0.3 {
			t.Errorf("Score() = %v, want 0.3", got)
		}
	})

	t.Run("early morning counts as night", func(t *testing.T) {
		d := NewDetector()
		if got := d.Score(ts(1, 2, 59), 50000); got != 0.3 {
			t.Errorf("Score() = %v, want 0.3", got)
		}
	})

	t.Run("3am is not night", func(t *testing.T) {
		d := NewDetector()
		if got := d.Score(ts(1, 3, 0), 50000); got != 0.0 {
			t.Errorf("Score() = %v, want 0.0", got)
		}
	})

	t.Run("second purchase within 24h raises the frequency flag", func(t *testing.T) {
		d := NewDetector()
		d.Score(ts(1, 10, 0), 50000)
		if got := d.Score(ts(1, 14, 0), 50000); got != 0.4 {
			t.Errorf("Score() = %v, want 0.4", got)
		}
	})

	t.Run("purchase 25h later does not raise frequency", func(t *testing.T) {
		d := NewDetector()
		d.Score(ts(1, 10, 0), 50000)
		if got := d.Score(ts(2, 11, 0), 50000); got != 0.0 {
			t.Errorf("Score() = %v, want 0.0", got)
		}
	})

	t.Run("third small purchase raises the small-amount flag", func(t *testing.T) {
		d := NewDetector()
		d.Score(ts(1, 10, 0), 5000)
		d.Score(ts(5, 10, 0), 8000)
		// Frequency also fires (history spans days but this call is within
		// 24h of the previous one), so 0.4 + 0.3.
		got := d.Score(ts(5, 12, 0), 10000)
		if got != 0.7 {
			t.Errorf("Score() = %v, want 0.7", got)
		}
	})

	t.Run("all three flags together", func(t *testing.T) {
		d := NewDetector()
		d.Score(ts(1, 22, 0), 3000)
		d.Score(ts(1, 23, 0), 4000)
		if got := d.Score(ts(2, 1, 0), 5000); got != 1.0 {
			t.Errorf("Score() = %v, want 1.0", got)
		}
	})
}

func TestDetect(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		d := NewDetector()
		got := d.Detect(nil)
		if got.Score != 0.0 {
			t.Errorf("Score = %v, want 0.0", got.Score)
		}
		if got.Flags == nil || len(got.Flags) != 0 {
			t.Errorf("Flags = %v, want empty non-nil slice", got.Flags)
		}
	})

	t.Run("unscorable transactions are skipped", func(t *testing.T) {
		d := NewDetector()
		got := d.Detect([]domain.Transaction{
			{Timestamp: time.Time{}, Amount: 5000},
			{Timestamp: ts(1, 23, 0), Amount: 0},
			{Timestamp: ts(1, 23, 0), Amount: -100},
		})
		if got.Score != 0.0 || len(got.Flags) != 0 {
			t.Errorf("Detect() = %+v, want zero result", got)
		}
	})

	t.Run("result is the mean of per-transaction scores", func(t *testing.T) {
		d := NewDetector()
		got := d.Detect([]domain.Transaction{
			{Timestamp: ts(1, 23, 0), Amount: 50000}, // 0.3 night
			{Timestamp: ts(1, 23, 30), Amount: 50000}, // 0.3 + 0.4 freq
		})
		if got.Score != 0.5 {
			t.Errorf("Score = %v, want 0.5", got.Score)
		}
	})

	t.Run("flags carry transaction details", func(t *testing.T) {
		d := NewDetector()
		got := d.Detect([]domain.Transaction{
			{Timestamp: ts(1, 22, 0), Amount: 3000, Merchant: "GS25"},
			{Timestamp: ts(1, 22, 30), Amount: 4000, Merchant: "CU"},
			{Timestamp: ts(1, 23, 0), Amount: 5000, Merchant: "세븐일레븐"},
		})
		// Third transaction scores 1.0 (night + frequency + small).
		if len(got.Flags) == 0 {
			t.Fatal("Detect() raised no flags, want at least one")
		}
		last := got.Flags[len(got.Flags)-1]
		if last.Merchant != "세븐일레븐" || last.Amount != 5000 || last.Score != 1.0 {
			t.Errorf("flag = %+v, want 세븐일레븐/5000/1.0", last)
		}
	})

	t.Run("history persists across calls", func(t *testing.T) {
		d := NewDetector()
		d.Detect([]domain.Transaction{{Timestamp: ts(1, 10, 0), Amount: 50000}})
		got := d.Detect([]domain.Transaction{{Timestamp: ts(1, 12, 0), Amount: 50000}})
		// Frequency fires only because the first call's entry is remembered.
		if got.Score != 0.4 {
			t.Errorf("Score = %v, want 0.4", got.Score)
		}
	})

	t.Run("fresh detectors are deterministic", func(t *testing.T) {
		batch := []domain.Transaction{
			{Timestamp: ts(1, 23, 0), Amount: 3000},
			{Timestamp: ts(1, 23, 10), Amount: 4000},
			{Timestamp: ts(1, 23, 20), Amount: 5000},
		}
		a := NewDetector().Detect(batch)
		b := NewDetector().Detect(batch)
		if a.Score != b.Score || len(a.Flags) != len(b.Flags) {
			t.Errorf("same batch on fresh detectors diverged: %+v vs %+v", a, b)
		}
	})
}
