package bigquery

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/finnut/finnut/internal/domain"
)

// TransactionLogRepository provides an interface for transaction-log and
// FHI-snapshot database operations.
type TransactionLogRepository interface {
	// InsertTransactions inserts a batch of TransactionLogRow into the database.
	InsertTransactions(ctx context.Context, rows []*TransactionLogRow) error

	// QueryTransactionsByDateRange queries a user's transactions within the
	// specified date range, ordered by transaction timestamp.
	QueryTransactionsByDateRange(ctx context.Context, userID string, startDate, endDate time.Time) ([]*TransactionLogRow, error)

	// InsertSnapshot inserts a single FHISnapshotRow into the database.
	InsertSnapshot(ctx context.Context, row *FHISnapshotRow) error

	// ListSnapshots retrieves the most recent snapshots for a user.
	ListSnapshots(ctx context.Context, userID string, limit int) ([]*FHISnapshotRow, error)
}

// ScholarshipRepository provides an interface for scholarship-listing
// database operations.
type ScholarshipRepository interface {
	// UpsertScholarships inserts or replaces scholarship listings keyed by policy_key.
	UpsertScholarships(ctx context.Context, rows []*ScholarshipRow) error

	// ListScholarships retrieves listings matching the filter, ordered by
	// status (진행중, 예정, 마감, then the rest) and end date.
	ListScholarships(ctx context.Context, filter ScholarshipFilter) ([]*ScholarshipRow, error)

	// GetScholarship retrieves one listing by its ID.
	GetScholarship(ctx context.Context, scholarshipID string) (*ScholarshipRow, error)
}

// FeatureRepository provides an interface for exported feature values.
type FeatureRepository interface {
	// InsertFeatureValues inserts a batch of FeatureValueRow into the database.
	InsertFeatureValues(ctx context.Context, rows []*FeatureValueRow) error
}

// TransactionLogRow represents one normalized push transaction in BigQuery.
type TransactionLogRow struct {
	TransactionID string    `bigquery:"transaction_id"`
	UserID        string    `bigquery:"user_id"`
	TxTS          time.Time `bigquery:"tx_ts"`
	Amount        int64     `bigquery:"amount"`
	Merchant      string    `bigquery:"merchant"`
	Category      string    `bigquery:"category"`
	Source        string    `bigquery:"source"`
	PaymentMethod string    `bigquery:"payment_method"`
	RawText       string    `bigquery:"raw_text"`
	CreatedTS     time.Time `bigquery:"created_ts"`
}

// ToDomain converts a stored row back into the pipeline's transaction record.
func (r *TransactionLogRow) ToDomain() domain.Transaction {
	return domain.Transaction{
		Timestamp:     r.TxTS,
		Amount:        r.Amount,
		Merchant:      r.Merchant,
		Category:      r.Category,
		Source:        domain.Source(r.Source),
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		RawText:       r.RawText,
	}
}

// RowFromTransaction maps a normalized transaction into a log row.
// TransactionID and CreatedTS are the caller's to fill.
func RowFromTransaction(userID string, tx domain.Transaction) *TransactionLogRow {
	return &TransactionLogRow{
		UserID:        userID,
		TxTS:          tx.Timestamp,
		Amount:        tx.Amount,
		Merchant:      tx.Merchant,
		Category:      tx.Category,
		Source:        string(tx.Source),
		PaymentMethod: string(tx.PaymentMethod),
		RawText:       tx.RawText,
	}
}

// FHISnapshotRow represents one scored FHI result in BigQuery.
type FHISnapshotRow struct {
	SnapshotID     string    `bigquery:"snapshot_id"`
	UserID         string    `bigquery:"user_id"`
	FHI            float64   `bigquery:"fhi"`
	ImpulsiveScore float64   `bigquery:"impulsive_score"`
	SpikeScore     float64   `bigquery:"spike_score"`
	Mode           string    `bigquery:"mode"`
	TxCount        int64     `bigquery:"tx_count"`
	CreatedTS      time.Time `bigquery:"created_ts"`
}

// ScholarshipRow represents one scholarship listing in BigQuery. The listing
// dataset is unrelated to the scoring pipeline; it is served read-mostly by
// the API and refreshed by an external collector.
type ScholarshipRow struct {
	ScholarshipID string             `bigquery:"scholarship_id"`
	PolicyKey     string             `bigquery:"policy_key"`
	Name          string             `bigquery:"name"`
	Type          string             `bigquery:"type"`
	Period        string             `bigquery:"period"`
	StartDate     bigquery.NullDate  `bigquery:"start_date"`
	EndDate       bigquery.NullDate  `bigquery:"end_date"`
	Status        string             `bigquery:"status"`
	Link          string             `bigquery:"link"`
	Condition     string             `bigquery:"condition"`
	Benefit       string             `bigquery:"benefit"`
	SourceUDDI    string             `bigquery:"source_uddi"`
	FetchedAt     time.Time          `bigquery:"fetched_at"`
	RawJSON       bigquery.NullJSON  `bigquery:"raw_json"`
}

// ScholarshipFilter defines filtering criteria for listing scholarships.
type ScholarshipFilter struct {
	// Query matches name or type by substring.
	Query string

	// Status filters by exact status (진행중, 예정, 마감, 정보없음).
	Status string

	// Limit caps the number of results (default 50, max 200).
	Limit int

	// Offset for pagination.
	Offset int
}

// FeatureValueRow represents one exported feature value in BigQuery,
// long format: one row per (user, as-of, feature name).
type FeatureValueRow struct {
	UserID      string    `bigquery:"user_id"`
	AsOfTS      time.Time `bigquery:"asof_ts"`
	FeatureName string    `bigquery:"feature_name"`
	Value       float64   `bigquery:"value"`
	CreatedTS   time.Time `bigquery:"created_ts"`
}
