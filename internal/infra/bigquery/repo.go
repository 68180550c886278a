// Package bigquery implements the repository interfaces from
// internal/bigquery on top of Google BigQuery. Each repository holds a
// shared client; package-level functions without a client exist for one-off
// tooling and create a throwaway client per call.
package bigquery

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"

	bq "github.com/finnut/finnut/internal/bigquery"
)

// Re-export interfaces from the shared package so callers can depend on a
// single import.
type TransactionLogRepository = bq.TransactionLogRepository
type ScholarshipRepository = bq.ScholarshipRepository
type FeatureRepository = bq.FeatureRepository

var (
	projectID = envOr("FINNUT_BQ_PROJECT", "finnut-dev")
	datasetID = envOr("FINNUT_BQ_DATASET", "finnut")
)

const (
	transactionLogTable = "transaction_log"
	snapshotsTable      = "fhi_snapshots"
	scholarshipsTable   = "scholarships"
	featureValuesTable  = "feature_values"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Repository is the concrete BigQuery-backed implementation of all three
// repository interfaces. It holds a shared client to avoid creating a new
// connection for each operation.
type Repository struct {
	client *bigquery.Client
}

// NewRepository creates a Repository with a shared BigQuery client.
func NewRepository(ctx context.Context) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{client: client}, nil
}

// Close closes the BigQuery client connection. This should be called when
// the repository is no longer needed to release resources.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
