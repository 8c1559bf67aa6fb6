package report

import (
	"context"
	"errors"
	"strings"
)

// ErrMissingToken is returned when a caller omits the access token.
var ErrMissingToken = errors.New("settings are required: missing access token")

// Settings carries the caller's credentials for a single request. It is never stored.
type Settings struct {
	Token        string `json:"token" yaml:"-"`
	Organization string `json:"organization" yaml:"organization"`
}

// Validate rejects settings that cannot reach the remote service.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

// DateRange is a closed-open interval [StartDate, EndDate) of ISO calendar dates.
type DateRange struct {
	StartDate string `json:"startDate" yaml:"start_date"`
	EndDate   string `json:"endDate" yaml:"end_date"`
}

// WorkItem is a work item enriched with its parent's title.
type WorkItem struct {
	ID               int     `json:"id" yaml:"id"`
	Project          string  `json:"project" yaml:"project"`
	TaskName         string  `json:"taskName" yaml:"task_name"`
	ParentUserStory  string  `json:"parentUserStory" yaml:"parent_user_story"`
	OriginalEstimate float64 `json:"originalEstimate" yaml:"original_estimate"`
	CompletedWork    float64 `json:"completedWork" yaml:"completed_work"`
}

// WeekTasks holds one ordered list per report category.
type WeekTasks struct {
	CreatedTasks []WorkItem `json:"createdTasks" yaml:"created_tasks"`
	ClosedTasks  []WorkItem `json:"closedTasks" yaml:"closed_tasks"`
	ClosedBugs   []WorkItem `json:"closedBugs" yaml:"closed_bugs"`
	ActiveTasks  []WorkItem `json:"activeTasks" yaml:"active_tasks"`
}

// Category identifies one report bucket.
type Category string

const (
	CategoryClosedTasks  Category = "closed tasks"
	CategoryClosedBugs   Category = "closed bugs"
	CategoryCreatedTasks Category = "created tasks"
	CategoryActiveTasks  Category = "active tasks"
)

// Categories lists the buckets in report order.
var Categories = []Category{
	CategoryClosedTasks,
	CategoryClosedBugs,
	CategoryCreatedTasks,
	CategoryActiveTasks,
}

// Items returns the list held for a category.
func (w WeekTasks) Items(c Category) []WorkItem {
	switch c {
	case CategoryClosedTasks:
		return w.ClosedTasks
	case CategoryClosedBugs:
		return w.ClosedBugs
	case CategoryCreatedTasks:
		return w.CreatedTasks
	case CategoryActiveTasks:
		return w.ActiveTasks
	}
	return nil
}

// Total is the number of items across all categories.
func (w WeekTasks) Total() int {
	return len(w.CreatedTasks) + len(w.ClosedTasks) + len(w.ClosedBugs) + len(w.ActiveTasks)
}

// WorkItemSource fetches the four categories of a user's weekly activity.
type WorkItemSource interface {
	Name() string
	CreatedTasks(ctx context.Context, s Settings, r DateRange) ([]WorkItem, error)
	ClosedTasks(ctx context.Context, s Settings, r DateRange) ([]WorkItem, error)
	ClosedBugs(ctx context.Context, s Settings, r DateRange) ([]WorkItem, error)
	ActiveTasks(ctx context.Context, s Settings) ([]WorkItem, error)
}
