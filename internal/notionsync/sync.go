// Package notionsync mirrors the scholarship listing dataset into a Notion
// database so listings can be browsed and annotated outside the API. The
// sync is a full reconciliation: pages whose policy key no longer exists in
// BigQuery are archived, the rest are created or refreshed in place.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	bq "github.com/finnut/finnut/internal/bigquery"
	"github.com/finnut/finnut/internal/logger"
)

// SyncScholarships reconciles all scholarship listings into the Notion
// database identified by notionDBID. With dryRun set, every write is logged
// instead of executed.
func SyncScholarships(ctx context.Context, repo bq.ScholarshipRepository, notionClient NotionService, notionDBID string, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().Bool("dry_run", dryRun).Msg("Starting scholarship sync to Notion")

	rows, err := repo.ListScholarships(ctx, bq.ScholarshipFilter{Limit: 200})
	if err != nil {
		return fmt.Errorf("SyncScholarships: querying listings: %w", err)
	}

	log.Info().Int("listing_count", len(rows)).Msg("Retrieved scholarship listings")

	valid := make(map[string]bool, len(rows))
	for _, row := range rows {
		valid[row.PolicyKey] = true
	}

	pages, err := queryAllPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("SyncScholarships: querying Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	// Archive pages whose listing disappeared (or that never carried a key).
	pageByKey := make(map[string]string, len(pages))
	var archived int
	for _, page := range pages {
		key := extractPolicyKey(page)
		if key != "" && valid[key] {
			pageByKey[key] = string(page.ID)
			continue
		}

		if dryRun {
			log.Info().Str("policy_key", key).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
			archived++
			continue
		}
		if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale page")
			continue
		}
		archived++
	}

	var created, updated int
	for _, row := range rows {
		props := ScholarshipToNotionProperties(row)

		if pageID, exists := pageByKey[row.PolicyKey]; exists {
			if dryRun {
				log.Info().Str("policy_key", row.PolicyKey).Msg("[DRY RUN] Would update Notion page")
				updated++
				continue
			}
			if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("policy_key", row.PolicyKey).Msg("Failed to update page")
				continue
			}
			updated++
			continue
		}

		if dryRun {
			log.Info().Str("policy_key", row.PolicyKey).Msg("[DRY RUN] Would create Notion page")
			created++
			continue
		}
		if _, err := notionClient.CreatePage(ctx, notionDBID, props); err != nil {
			log.Warn().Err(err).Str("policy_key", row.PolicyKey).Msg("Failed to create page")
			continue
		}
		created++
	}

	log.Info().
		Int("created", created).
		Int("updated", updated).
		Int("archived", archived).
		Msg("Scholarship sync completed")

	return nil
}

// queryAllPages pages through the whole Notion database.
func queryAllPages(ctx context.Context, notionClient NotionService, notionDBID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page

	req := &notionapi.DatabaseQueryRequest{PageSize: 100}
	for {
		resp, err := notionClient.QueryDatabase(ctx, notionDBID, req)
		if err != nil {
			return nil, err
		}

		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			return pages, nil
		}
		req.StartCursor = resp.NextCursor
	}
}
