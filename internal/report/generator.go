package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

type Generator struct {
	Source WorkItemSource
	Logger *slog.Logger
}

func NewGenerator(src WorkItemSource, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{Source: src, Logger: logger}
}

// FetchWeek runs the four category queries concurrently and returns them only
// when all four succeed.
func (g *Generator) FetchWeek(ctx context.Context, s Settings, r DateRange) (WeekTasks, error) {
	started := time.Now()
	g.Logger.Debug("fetching tasks",
		"source", g.Source.Name(),
		"start", r.StartDate,
		"end", r.EndDate,
	)

	var created, closed, bugs, active []WorkItem
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() (err error) {
		created, err = g.Source.CreatedTasks(ctx, s, r)
		return wrapCategory(CategoryCreatedTasks, err)
	})
	eg.Go(func() (err error) {
		closed, err = g.Source.ClosedTasks(ctx, s, r)
		return wrapCategory(CategoryClosedTasks, err)
	})
	eg.Go(func() (err error) {
		bugs, err = g.Source.ClosedBugs(ctx, s, r)
		return wrapCategory(CategoryClosedBugs, err)
	})
	eg.Go(func() (err error) {
		active, err = g.Source.ActiveTasks(ctx, s)
		return wrapCategory(CategoryActiveTasks, err)
	})

	if err := eg.Wait(); err != nil {
		return WeekTasks{}, err
	}

	week := WeekTasks{
		CreatedTasks: nonNil(created),
		ClosedTasks:  nonNil(closed),
		ClosedBugs:   nonNil(bugs),
		ActiveTasks:  nonNil(active),
	}

	g.Logger.Info("fetched tasks",
		"source", g.Source.Name(),
		"created", len(week.CreatedTasks),
		"closed", len(week.ClosedTasks),
		"bugs", len(week.ClosedBugs),
		"active", len(week.ActiveTasks),
		"duration", time.Since(started),
	)
	return week, nil
}

// Statistics summarises counts and hours per category and project.
func (g *Generator) Statistics(week WeekTasks) map[string]any {
	stats := make(map[string]any)

	byCategory := make(map[string]int)
	byProject := make(map[string]int)

	var estimate, completed float64
	for _, c := range Categories {
		items := week.Items(c)
		byCategory[string(c)] = len(items)
		for _, item := range items {
			byProject[projectName(item)]++
			estimate += item.OriginalEstimate
			completed += item.CompletedWork
		}
	}

	stats["total"] = week.Total()
	stats["completed"] = len(week.ClosedTasks) + len(week.ClosedBugs)
	stats["by_category"] = byCategory
	stats["by_project"] = byProject
	stats["original_estimate"] = estimate
	stats["completed_work"] = completed
	return stats
}

func wrapCategory(c Category, err error) error {
	if err != nil {
		return fmt.Errorf("fetch %s: %w", c, err)
	}
	return nil
}

func nonNil(items []WorkItem) []WorkItem {
	if items == nil {
		return []WorkItem{}
	}
	return items
}

func projectName(item WorkItem) string {
	if item.Project == "" {
		return "Unknown"
	}
	return item.Project
}
