package features

import (
	"testing"
	"time"

	"github.com/finnut/finnut/internal/domain"
)

var asof = time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC)

func tx(daysBefore int, amount int64, category string) domain.Transaction {
	return domain.Transaction{
		Timestamp: asof.AddDate(0, 0, -daysBefore),
		Amount:    amount,
		Category:  category,
	}
}

func TestBuild(t *testing.T) {
	t.Run("empty batch yields empty map", func(t *testing.T) {
		got := Build(nil, asof)
		if len(got) != 0 {
			t.Errorf("Build() = %v, want empty map", got)
		}
	})

	t.Run("unusable transactions yield empty map", func(t *testing.T) {
		got := Build([]domain.Transaction{
			{Timestamp: time.Time{}, Amount: 5000},
			{Timestamp: asof, Amount: 0},
			{Timestamp: asof, Amount: -100},
		}, asof)
		if len(got) != 0 {
			t.Errorf("Build() = %v, want empty map", got)
		}
	})

	t.Run("single transaction", func(t *testing.T) {
		got := Build([]domain.Transaction{tx(0, 10000, "카페")}, asof)

		want := map[string]float64{
			"spend_sum_7d":              10000,
			"spend_mean_30d":            10000,
			"tx_count_7d":               1,
			"tx_count_30d":              1,
			"unique_category_count_30d": 1,
			"cat_ratio_카페":              1,
		}
		assertFeatures(t, got, want)
	})

	t.Run("old transaction drops out of the short window", func(t *testing.T) {
		got := Build([]domain.Transaction{
			tx(0, 6000, "카페"),
			tx(10, 2000, "식비"),
		}, asof)

		want := map[string]float64{
			"spend_sum_7d":              6000,
			"spend_mean_30d":            4000,
			"tx_count_7d":               1,
			"tx_count_30d":              2,
			"unique_category_count_30d": 2,
			"cat_ratio_카페":              0.75,
			"cat_ratio_식비":              0.25,
		}
		assertFeatures(t, got, want)
	})

	t.Run("transaction outside the long window is ignored", func(t *testing.T) {
		got := Build([]domain.Transaction{
			tx(0, 6000, "카페"),
			tx(40, 999999, "쇼핑"),
		}, asof)

		if got["tx_count_30d"] != 1 {
			t.Errorf("tx_count_30d = %v, want 1", got["tx_count_30d"])
		}
		if _, ok := got["cat_ratio_쇼핑"]; ok {
			t.Error("cat_ratio_쇼핑 present, want absent for out-of-window category")
		}
	})

	t.Run("zero asof means latest transaction timestamp", func(t *testing.T) {
		got := Build([]domain.Transaction{
			tx(0, 6000, "카페"),
			tx(10, 2000, "식비"),
		}, time.Time{})

		// Latest tx is at asof, so the result matches the explicit-asof case.
		if got["spend_sum_7d"] != 6000 {
			t.Errorf("spend_sum_7d = %v, want 6000", got["spend_sum_7d"])
		}
		if got["tx_count_30d"] != 2 {
			t.Errorf("tx_count_30d = %v, want 2", got["tx_count_30d"])
		}
	})

	t.Run("missing category maps to unknown", func(t *testing.T) {
		got := Build([]domain.Transaction{tx(0, 5000, "")}, asof)
		if got["cat_ratio_unknown"] != 1 {
			t.Errorf("cat_ratio_unknown = %v, want 1", got["cat_ratio_unknown"])
		}
	})
}

func assertFeatures(t *testing.T, got, want map[string]float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("Build() returned %d features, want %d: %v", len(got), len(want), got)
	}
	for name, w := range want {
		if g, ok := got[name]; !ok || g != w {
			t.Errorf("feature %q = %v, want %v", name, g, w)
		}
	}
}
