package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"sort"
	"strconv"
	"time"

	bq "github.com/finnut/finnut/internal/bigquery"
	"github.com/finnut/finnut/internal/domain"
	"github.com/finnut/finnut/internal/features"
	"github.com/finnut/finnut/internal/gcsstore"
	infraBQ "github.com/finnut/finnut/internal/infra/bigquery"
	"github.com/finnut/finnut/internal/logger"
)

// export-features rebuilds the ml feature mapping for one user from the
// transaction log and writes it to the feature_values table, optionally
// mirroring a CSV to GCS for the offline training job.
func main() {
	var (
		userID = flag.String("user", "", "User ID to export features for (required)")
		start  = flag.String("start", "", "Start date YYYY-MM-DD (default: 30 days before end)")
		end    = flag.String("end", "", "End date YYYY-MM-DD (default: today)")
		gcsURI = flag.String("gcs-uri", "", "Optional gs:// URI for a CSV copy of the export")
		dryRun = flag.Bool("dry-run", false, "Build and print features without writing anywhere")
	)
	flag.Parse()

	log := logger.New()

	if *userID == "" {
		log.Fatal().Msg("Error: -user is required")
	}

	endDate := time.Now().UTC()
	if *end != "" {
		var err error
		endDate, err = time.Parse("2006-01-02", *end)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid -end date")
		}
	}
	startDate := endDate.AddDate(0, 0, -30)
	if *start != "" {
		var err error
		startDate, err = time.Parse("2006-01-02", *start)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid -start date")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	rows, err := repo.QueryTransactionsByDateRange(ctx, *userID, startDate, endDate)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query transaction log")
	}

	log.Info().
		Str("user_id", *userID).
		Str("start", startDate.Format("2006-01-02")).
		Str("end", endDate.Format("2006-01-02")).
		Int("tx_count", len(rows)).
		Msg("Building features from transaction log")

	feats := buildFeatures(rows, endDate)
	if len(feats) == 0 {
		log.Warn().Str("user_id", *userID).Msg("No usable transactions in range; nothing to export")
		return
	}

	names := make([]string, 0, len(feats))
	for name := range feats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%-32s %.4f\n", name, feats[name])
	}

	if *dryRun {
		log.Info().Int("feature_count", len(feats)).Msg("[DRY RUN] Skipping writes")
		return
	}

	now := time.Now()
	featureRows := make([]*bq.FeatureValueRow, 0, len(feats))
	for _, name := range names {
		featureRows = append(featureRows, &bq.FeatureValueRow{
			UserID:      *userID,
			AsOfTS:      endDate,
			FeatureName: name,
			Value:       feats[name],
			CreatedTS:   now,
		})
	}

	if err := repo.InsertFeatureValues(ctx, featureRows); err != nil {
		log.Fatal().Err(err).Msg("Failed to insert feature values")
	}

	log.Info().Int("feature_count", len(featureRows)).Msg("Feature values exported")

	if *gcsURI != "" {
		data, err := featuresCSV(names, feats)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to encode feature CSV")
		}
		store := gcsstore.NewClient()
		if err := store.Write(ctx, *gcsURI, "text/csv", data); err != nil {
			log.Fatal().Err(err).Msg("Failed to upload feature CSV")
		}
		log.Info().Str("gcs_uri", *gcsURI).Msg("Feature CSV uploaded")
	}
}

func buildFeatures(rows []*bq.TransactionLogRow, asof time.Time) map[string]float64 {
	txs := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, row.ToDomain())
	}
	return features.Build(txs, asof)
}

// featuresCSV renders the mapping as a two-column CSV in feature-name order.
func featuresCSV(names []string, feats map[string]float64) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"feature_name", "value"}); err != nil {
		return nil, fmt.Errorf("featuresCSV: %w", err)
	}
	for _, name := range names {
		record := []string{name, strconv.FormatFloat(feats[name], 'f', -1, 64)}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("featuresCSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("featuresCSV: %w", err)
	}

	return buf.Bytes(), nil
}
