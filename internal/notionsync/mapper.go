package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	bq "github.com/finnut/finnut/internal/bigquery"
)

// ScholarshipToNotionProperties converts a scholarship listing row into the
// property set of the Notion Scholarships database. The policy key is the
// title property and the idempotency key for the sync.
func ScholarshipToNotionProperties(row *bq.ScholarshipRow) notionapi.Properties {
	props := notionapi.Properties{
		"Policy Key": notionapi.TitleProperty{
			Title: []notionapi.RichText{richText(row.PolicyKey)},
		},
	}

	if row.Name != "" {
		props["Name"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{richText(row.Name)},
		}
	}

	if row.Type != "" {
		props["Type"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: row.Type},
		}
	}

	if row.Status != "" {
		props["Status"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: row.Status},
		}
	}

	if row.Period != "" {
		props["Period"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{richText(row.Period)},
		}
	}

	if row.EndDate.Valid {
		end := notionapi.Date(row.EndDate.Date.In(time.UTC))
		props["End Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &end},
		}
	}

	if row.Link != "" {
		props["Link"] = notionapi.URLProperty{URL: row.Link}
	}

	if row.Condition != "" {
		props["Condition"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{richText(row.Condition)},
		}
	}

	if row.Benefit != "" {
		props["Benefit"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{richText(row.Benefit)},
		}
	}

	return props
}

func richText(content string) notionapi.RichText {
	return notionapi.RichText{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: content},
	}
}

// extractPolicyKey pulls the Policy Key title text out of an existing Notion
// page, or "" when the page has none.
func extractPolicyKey(page notionapi.Page) string {
	prop, ok := page.Properties["Policy Key"]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}
	return title.Title[0].PlainText
}
