package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	bq "github.com/finnut/finnut/internal/bigquery"
)

// UpsertScholarships inserts or replaces listings keyed by policy_key via
// the shared client.
func (r *Repository) UpsertScholarships(ctx context.Context, rows []*bq.ScholarshipRow) error {
	return UpsertScholarshipsWithClient(ctx, r.client, rows)
}

// UpsertScholarshipsWithClient merges listings into the scholarships table,
// matching on policy_key. Existing listings are refreshed in place so the
// collector can re-run without producing duplicates.
func UpsertScholarshipsWithClient(ctx context.Context, client *bigquery.Client, rows []*bq.ScholarshipRow) error {
	if len(rows) == 0 {
		return nil
	}

	q := client.Query(fmt.Sprintf(`
		MERGE %s.%s t
		USING (
			SELECT
				@scholarship_id AS scholarship_id,
				@policy_key AS policy_key,
				@name AS name,
				@type AS type,
				@period AS period,
				@start_date AS start_date,
				@end_date AS end_date,
				@status AS status,
				@link AS link,
				@condition AS condition,
				@benefit AS benefit,
				@source_uddi AS source_uddi,
				@fetched_at AS fetched_at
		) s
		ON t.policy_key = s.policy_key
		WHEN MATCHED THEN UPDATE SET
			name = s.name,
			type = s.type,
			period = s.period,
			start_date = s.start_date,
			end_date = s.end_date,
			status = s.status,
			link = s.link,
			condition = s.condition,
			benefit = s.benefit,
			source_uddi = s.source_uddi,
			fetched_at = s.fetched_at
		WHEN NOT MATCHED THEN INSERT (
			scholarship_id, policy_key, name, type, period, start_date,
			end_date, status, link, condition, benefit, source_uddi, fetched_at
		) VALUES (
			s.scholarship_id, s.policy_key, s.name, s.type, s.period, s.start_date,
			s.end_date, s.status, s.link, s.condition, s.benefit, s.source_uddi, s.fetched_at
		)
	`, datasetID, scholarshipsTable))

	for _, row := range rows {
		q.Parameters = []bigquery.QueryParameter{
			{Name: "scholarship_id", Value: row.ScholarshipID},
			{Name: "policy_key", Value: row.PolicyKey},
			{Name: "name", Value: row.Name},
			{Name: "type", Value: row.Type},
			{Name: "period", Value: row.Period},
			{Name: "start_date", Value: row.StartDate},
			{Name: "end_date", Value: row.EndDate},
			{Name: "status", Value: row.Status},
			{Name: "link", Value: row.Link},
			{Name: "condition", Value: row.Condition},
			{Name: "benefit", Value: row.Benefit},
			{Name: "source_uddi", Value: row.SourceUDDI},
			{Name: "fetched_at", Value: row.FetchedAt},
		}

		job, err := q.Run(ctx)
		if err != nil {
			return fmt.Errorf("UpsertScholarships: running merge for %q: %w", row.PolicyKey, err)
		}
		status, err := job.Wait(ctx)
		if err != nil {
			return fmt.Errorf("UpsertScholarships: waiting for job for %q: %w", row.PolicyKey, err)
		}
		if err := status.Err(); err != nil {
			return fmt.Errorf("UpsertScholarships: job error for %q: %w", row.PolicyKey, err)
		}
	}

	return nil
}

// ListScholarships retrieves listings matching the filter via the shared client.
func (r *Repository) ListScholarships(ctx context.Context, filter bq.ScholarshipFilter) ([]*bq.ScholarshipRow, error) {
	return ListScholarshipsWithClient(ctx, r.client, filter)
}

// ListScholarshipsWithClient retrieves listings ordered with in-progress
// (진행중) first, then upcoming (예정), closed (마감), everything else, and
// within each status by end date descending.
func ListScholarshipsWithClient(ctx context.Context, client *bigquery.Client, filter bq.ScholarshipFilter) ([]*bq.ScholarshipRow, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	where := "WHERE TRUE"
	params := []bigquery.QueryParameter{}

	if filter.Query != "" {
		where += " AND (STRPOS(name, @q) > 0 OR STRPOS(type, @q) > 0)"
		params = append(params, bigquery.QueryParameter{Name: "q", Value: filter.Query})
	}
	if filter.Status != "" {
		where += " AND status = @status"
		params = append(params, bigquery.QueryParameter{Name: "status", Value: filter.Status})
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			scholarship_id,
			policy_key,
			name,
			type,
			period,
			start_date,
			end_date,
			status,
			link,
			condition,
			benefit,
			source_uddi,
			fetched_at,
			raw_json
		FROM %s.%s
		%s
		ORDER BY
			CASE status
				WHEN '진행중' THEN 1
				WHEN '예정' THEN 2
				WHEN '마감' THEN 3
				ELSE 4
			END,
			end_date DESC
		LIMIT @limit OFFSET @offset
	`, datasetID, scholarshipsTable, where))

	q.Parameters = append(params,
		bigquery.QueryParameter{Name: "limit", Value: int64(limit)},
		bigquery.QueryParameter{Name: "offset", Value: int64(offset)},
	)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListScholarships: running query: %w", err)
	}

	var rows []*bq.ScholarshipRow
	for {
		var row bq.ScholarshipRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListScholarships: iterating rows: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

// GetScholarship retrieves one listing by ID via the shared client.
func (r *Repository) GetScholarship(ctx context.Context, scholarshipID string) (*bq.ScholarshipRow, error) {
	return GetScholarshipWithClient(ctx, r.client, scholarshipID)
}

// GetScholarshipWithClient retrieves one listing by ID, or nil when absent.
func GetScholarshipWithClient(ctx context.Context, client *bigquery.Client, scholarshipID string) (*bq.ScholarshipRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			scholarship_id,
			policy_key,
			name,
			type,
			period,
			start_date,
			end_date,
			status,
			link,
			condition,
			benefit,
			source_uddi,
			fetched_at,
			raw_json
		FROM %s.%s
		WHERE scholarship_id = @scholarship_id
		LIMIT 1
	`, datasetID, scholarshipsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "scholarship_id", Value: scholarshipID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetScholarship: running query: %w", err)
	}

	var row bq.ScholarshipRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetScholarship: reading row: %w", err)
	}

	return &row, nil
}
