package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	bq "github.com/finnut/finnut/internal/bigquery"
)

// InsertTransactions inserts a batch of TransactionLogRow via the shared client.
func (r *Repository) InsertTransactions(ctx context.Context, rows []*bq.TransactionLogRow) error {
	return InsertTransactionsWithClient(ctx, r.client, rows)
}

// InsertTransactionsWithClient inserts a batch of TransactionLogRow into
// the transaction_log table using the provided BigQuery client.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, rows []*bq.TransactionLogRow) error {
	if len(rows) == 0 {
		return nil
	}

	inserter := client.DatasetInProject(projectID, datasetID).Table(transactionLogTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}

	return nil
}

// QueryTransactionsByDateRange queries a user's transactions within the date
// range via the shared client.
func (r *Repository) QueryTransactionsByDateRange(ctx context.Context, userID string, startDate, endDate time.Time) ([]*bq.TransactionLogRow, error) {
	return QueryTransactionsByDateRangeWithClient(ctx, r.client, userID, startDate, endDate)
}

// QueryTransactionsByDateRangeWithClient queries transactions for one user
// within [startDate, endDate], ordered by transaction timestamp ascending so
// replaying them through the detectors reproduces the original call order.
func QueryTransactionsByDateRangeWithClient(ctx context.Context, client *bigquery.Client, userID string, startDate, endDate time.Time) ([]*bq.TransactionLogRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			tx_ts,
			amount,
			merchant,
			category,
			source,
			payment_method,
			raw_text,
			created_ts
		FROM %s.%s
		WHERE user_id = @user_id
		  AND tx_ts >= @start_ts
		  AND tx_ts <= @end_ts
		ORDER BY tx_ts ASC
	`, datasetID, transactionLogTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_ts", Value: startDate},
		{Name: "end_ts", Value: endDate},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: running query: %w", err)
	}

	var rows []*bq.TransactionLogRow
	for {
		var row bq.TransactionLogRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: iterating rows: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

// InsertSnapshot inserts a single FHISnapshotRow via the shared client.
func (r *Repository) InsertSnapshot(ctx context.Context, row *bq.FHISnapshotRow) error {
	return InsertSnapshotWithClient(ctx, r.client, row)
}

// InsertSnapshotWithClient inserts a single FHISnapshotRow into the
// fhi_snapshots table using the provided BigQuery client.
func InsertSnapshotWithClient(ctx context.Context, client *bigquery.Client, row *bq.FHISnapshotRow) error {
	inserter := client.DatasetInProject(projectID, datasetID).Table(snapshotsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertSnapshot: inserting row: %w", err)
	}
	return nil
}

// ListSnapshots retrieves the most recent snapshots for a user via the
// shared client.
func (r *Repository) ListSnapshots(ctx context.Context, userID string, limit int) ([]*bq.FHISnapshotRow, error) {
	return ListSnapshotsWithClient(ctx, r.client, userID, limit)
}

// ListSnapshotsWithClient retrieves a user's snapshots newest first.
func ListSnapshotsWithClient(ctx context.Context, client *bigquery.Client, userID string, limit int) ([]*bq.FHISnapshotRow, error) {
	if limit <= 0 {
		limit = 50
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			snapshot_id,
			user_id,
			fhi,
			impulsive_score,
			spike_score,
			mode,
			tx_count,
			created_ts
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY created_ts DESC
		LIMIT @limit
	`, datasetID, snapshotsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "limit", Value: int64(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListSnapshots: running query: %w", err)
	}

	var rows []*bq.FHISnapshotRow
	for {
		var row bq.FHISnapshotRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListSnapshots: iterating rows: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
