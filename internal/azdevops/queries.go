package azdevops

import (
	"context"
	"fmt"

	"github.com/Afrawles/weekreport/internal/report"
)

const wiqlDateLayout = "2006-01-02"

func createdTasksQuery(r report.DateRange) string {
	return fmt.Sprintf(`Select [System.Id], [System.Title], [System.State], [System.AssignedTo], [Microsoft.VSTS.Scheduling.OriginalEstimate], [System.TeamProject]
From WorkItems
Where [System.CreatedDate] >= '%s'
AND [System.CreatedDate] < '%s'
AND [System.WorkItemType] = 'Task'
AND [System.AssignedTo] = @Me
ORDER BY [System.CreatedDate] DESC`, r.StartDate, r.EndDate)
}

func closedTasksQuery(r report.DateRange) string {
	return fmt.Sprintf(`Select [System.Id], [System.Title], [System.State], [System.AssignedTo], [Microsoft.VSTS.Scheduling.CompletedWork], [System.TeamProject]
From WorkItems
Where [Microsoft.VSTS.Common.ClosedDate] >= '%s'
AND [Microsoft.VSTS.Common.ClosedDate] < '%s'
AND [System.WorkItemType] = 'Task'
AND [System.State] = 'Closed'
AND [System.AssignedTo] = @Me
ORDER BY [Microsoft.VSTS.Common.ClosedDate] DESC`, r.StartDate, r.EndDate)
}

func closedBugsQuery(r report.DateRange) string {
	return fmt.Sprintf(`Select [System.Id], [System.Title], [System.State], [System.AssignedTo], [Microsoft.VSTS.Scheduling.CompletedWork], [System.TeamProject]
From WorkItems
Where [Microsoft.VSTS.Common.ResolvedDate] >= '%s'
AND [Microsoft.VSTS.Common.ResolvedDate] < '%s'
AND [System.WorkItemType] = 'Bug'
AND [System.State] IN ('Resolved', 'Closed')
AND [System.AssignedTo] = @Me
ORDER BY [Microsoft.VSTS.Common.ResolvedDate] DESC`, r.StartDate, r.EndDate)
}

// activeTasksQuery selects New or Active tasks changed during the month
// before today.
func activeTasksQuery(start, end string) string {
	return fmt.Sprintf(`Select [System.Id], [System.Title], [System.State], [System.AssignedTo], [Microsoft.VSTS.Scheduling.OriginalEstimate], [System.TeamProject]
From WorkItems
Where [System.WorkItemType] = 'Task'
AND ([System.State] = 'New' OR [System.State] = 'Active')
AND [System.AssignedTo] = @Me
AND [System.ChangedDate] >= '%s'
AND [System.ChangedDate] <= '%s'
ORDER BY [System.ChangedDate] DESC`, start, end)
}

func (c *Client) CreatedTasks(ctx context.Context, s report.Settings, r report.DateRange) ([]report.WorkItem, error) {
	return c.fetchCategory(ctx, s, report.CategoryCreatedTasks, createdTasksQuery(r))
}

func (c *Client) ClosedTasks(ctx context.Context, s report.Settings, r report.DateRange) ([]report.WorkItem, error) {
	return c.fetchCategory(ctx, s, report.CategoryClosedTasks, closedTasksQuery(r))
}

func (c *Client) ClosedBugs(ctx context.Context, s report.Settings, r report.DateRange) ([]report.WorkItem, error) {
	return c.fetchCategory(ctx, s, report.CategoryClosedBugs, closedBugsQuery(r))
}

func (c *Client) ActiveTasks(ctx context.Context, s report.Settings) ([]report.WorkItem, error) {
	today := c.now().UTC()
	start := today.AddDate(0, -1, 0)
	query := activeTasksQuery(start.Format(wiqlDateLayout), today.Format(wiqlDateLayout))
	return c.fetchCategory(ctx, s, report.CategoryActiveTasks, query)
}

// fetchCategory runs query and resolves the returned ids within one session.
func (c *Client) fetchCategory(ctx context.Context, s report.Settings, category report.Category, query string) ([]report.WorkItem, error) {
	sess := c.newSession(s)
	defer sess.close()

	result, err := postJSON[wiqlResponse](ctx, c, sess, endpointWIQL, wiqlRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", category, err)
	}

	if len(result.WorkItems) == 0 {
		return []report.WorkItem{}, nil
	}

	ids := make([]int, 0, len(result.WorkItems))
	for _, ref := range result.WorkItems {
		ids = append(ids, ref.ID)
	}

	items, err := c.resolveDetails(ctx, sess, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", category, err)
	}

	c.metrics.WorkItemsTotal.WithLabelValues(string(category)).Add(float64(len(items)))
	c.logger.Debug("resolved work items", "category", category, "count", len(items))
	return items, nil
}
