package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/finnut/finnut/internal/infra/bigquery"
	"github.com/finnut/finnut/internal/logger"
	"github.com/finnut/finnut/internal/notionsync"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	notionToken := flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (required, or set NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", os.Getenv("NOTION_DB_ID"), "Notion database ID (required, or set NOTION_DB_ID)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	// Initialize BigQuery repository
	repo, err := bigquery.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	// Sync scholarship listings
	if err := notionsync.SyncScholarships(ctx, repo, notionClient, *notionDBID, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
