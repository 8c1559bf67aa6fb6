package azdevops

import (
	"context"
	"fmt"

	"github.com/Afrawles/weekreport/internal/report"
)

// resolveDetails fetches the fields of ids in one batch, then the titles of
// their parents in a second batch, and joins the two. Parents outside this
// call are rendered as "#<id>".
func (c *Client) resolveDetails(ctx context.Context, sess *session, ids []int) ([]report.WorkItem, error) {
	if len(ids) == 0 {
		return []report.WorkItem{}, nil
	}

	details, err := postJSON[batchResponse](ctx, c, sess, endpointBatch, batchRequest{
		IDs:    ids,
		Fields: detailFields,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch work item details: %w", err)
	}

	parentIDs := collectParentIDs(details.Value)

	parentTitles := make(map[int]string, len(parentIDs))
	if len(parentIDs) > 0 {
		parents, err := postJSON[batchResponse](ctx, c, sess, endpointBatch, batchRequest{
			IDs:    parentIDs,
			Fields: parentFields,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch parent work items: %w", err)
		}
		for _, p := range parents.Value {
			parentTitles[p.ID] = p.Fields.Title
		}
	}

	items := make([]report.WorkItem, 0, len(details.Value))
	for _, wi := range details.Value {
		items = append(items, toRecord(wi, parentTitles))
	}
	return items, nil
}

// collectParentIDs returns the distinct non-zero parent ids in first-seen order.
func collectParentIDs(items []workItem) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, wi := range items {
		p := wi.Fields.Parent
		if p == 0 || seen[p] {
			continue
		}
		seen[p] = true
		ids = append(ids, p)
	}
	return ids
}

func toRecord(wi workItem, parentTitles map[int]string) report.WorkItem {
	return report.WorkItem{
		ID:               wi.ID,
		Project:          wi.Fields.TeamProject,
		TaskName:         wi.Fields.Title,
		ParentUserStory:  parentLabel(wi.Fields.Parent, parentTitles),
		OriginalEstimate: float64(wi.Fields.OriginalEstimate),
		CompletedWork:    float64(wi.Fields.CompletedWork),
	}
}

func parentLabel(parent int, titles map[int]string) string {
	if parent == 0 {
		return ""
	}
	if title := titles[parent]; title != "" {
		return title
	}
	return fmt.Sprintf("#%d", parent)
}
