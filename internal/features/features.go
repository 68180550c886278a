// Package features builds the feature mapping consumed by the ml scoring
// backend. The same builder runs at serving time (fhi ml mode) and in the
// batch export workflow, so training and serving feature sets are identical
// by construction.
package features

import (
	"fmt"
	"time"

	"github.com/finnut/finnut/internal/domain"
)

const (
	shortWindow = 7 * 24 * time.Hour
	longWindow  = 30 * 24 * time.Hour
)

// Build derives window-aggregate features from a transaction batch relative
// to asof. A zero asof means "the latest transaction timestamp in the batch".
// Unlike the detectors these windows ARE calendar windows. Transactions
// without a valid timestamp or positive amount are ignored; a batch with
// nothing usable yields an empty map.
//
// Emitted keys:
//
//	spend_sum_7d, spend_mean_30d, tx_count_7d, tx_count_30d,
//	unique_category_count_30d, cat_ratio_<category>
func Build(txs []domain.Transaction, asof time.Time) map[string]float64 {
	type obs struct {
		ts       time.Time
		amount   float64
		category string
	}

	var usable []obs
	for _, tx := range txs {
		if tx.Timestamp.IsZero() || tx.Amount <= 0 {
			continue
		}
		cat := tx.Category
		if cat == "" {
			cat = "unknown"
		}
		usable = append(usable, obs{ts: tx.Timestamp, amount: float64(tx.Amount), category: cat})
	}
	if len(usable) == 0 {
		return map[string]float64{}
	}

	if asof.IsZero() {
		for _, o := range usable {
			if o.ts.After(asof) {
				asof = o.ts
			}
		}
	}

	shortCutoff := asof.Add(-shortWindow)
	longCutoff := asof.Add(-longWindow)

	var (
		sum7     float64
		count7   float64
		sum30    float64
		count30  float64
		catSpend = make(map[string]float64)
	)

	for _, o := range usable {
		if !o.ts.Before(shortCutoff) {
			sum7 += o.amount
			count7++
		}
		if !o.ts.Before(longCutoff) {
			sum30 += o.amount
			count30++
			catSpend[o.category] += o.amount
		}
	}

	mean30 := 0.0
	if count30 > 0 {
		mean30 = sum30 / count30
	}

	feats := map[string]float64{
		"spend_sum_7d":              sum7,
		"spend_mean_30d":            mean30,
		"tx_count_7d":               count7,
		"tx_count_30d":              count30,
		"unique_category_count_30d": float64(len(catSpend)),
	}

	total30 := 0.0
	for _, s := range catSpend {
		total30 += s
	}
	for cat, s := range catSpend {
		ratio := 0.0
		if total30 > 0 {
			ratio = s / total30
		}
		feats[fmt.Sprintf("cat_ratio_%s", cat)] = ratio
	}

	return feats
}
