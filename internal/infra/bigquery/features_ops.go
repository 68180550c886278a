package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	bq "github.com/finnut/finnut/internal/bigquery"
)

// InsertFeatureValues inserts a batch of FeatureValueRow via the shared client.
func (r *Repository) InsertFeatureValues(ctx context.Context, rows []*bq.FeatureValueRow) error {
	return InsertFeatureValuesWithClient(ctx, r.client, rows)
}

// InsertFeatureValuesWithClient inserts exported feature values into the
// feature_values table using the provided BigQuery client.
func InsertFeatureValuesWithClient(ctx context.Context, client *bigquery.Client, rows []*bq.FeatureValueRow) error {
	if len(rows) == 0 {
		return nil
	}

	inserter := client.DatasetInProject(projectID, datasetID).Table(featureValuesTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertFeatureValues: inserting rows: %w", err)
	}

	return nil
}
