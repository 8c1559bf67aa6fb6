package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

type CSVExporter struct {
	OutputDir string
}

func NewCSVExporter(outputDir string) *CSVExporter {
	return &CSVExporter{OutputDir: outputDir}
}

// Export writes a task list and a per-project dashboard. It returns the file
// names it created.
func (e *CSVExporter) Export(week WeekTasks, r DateRange) ([]string, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")

	taskList, err := e.exportTaskList(week, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to export task list: %w", err)
	}

	dashboard, err := e.exportDashboard(week, timestamp, r)
	if err != nil {
		return nil, fmt.Errorf("failed to export dashboard: %w", err)
	}

	return []string{taskList, dashboard}, nil
}

func (e *CSVExporter) exportTaskList(week WeekTasks, timestamp string) (string, error) {
	filename := filepath.Join(e.OutputDir, fmt.Sprintf("summary_%s_task_list.csv", timestamp))
	file, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{
		"#",
		"Category",
		"ID",
		"Task Name",
		"Project Name",
		"Parent User Story",
		"Original Estimate",
		"Completed Work",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	n := 0
	for _, c := range Categories {
		for _, item := range week.Items(c) {
			n++
			row := []string{
				fmt.Sprintf("%d", n),
				string(c),
				fmt.Sprintf("%d", item.ID),
				item.TaskName,
				projectName(item),
				item.ParentUserStory,
				formatHours(item.OriginalEstimate),
				formatHours(item.CompletedWork),
			}
			if err := writer.Write(row); err != nil {
				return "", err
			}
		}
	}

	writer.Flush()
	return filename, writer.Error()
}

func (e *CSVExporter) exportDashboard(week WeekTasks, timestamp string, r DateRange) (string, error) {
	filename := filepath.Join(e.OutputDir, fmt.Sprintf("summary_%s_dashboard.csv", timestamp))
	file, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	projectNames, counts := countByProject(week)

	rows := [][]string{
		{"Date From:", r.StartDate},
		{"Date to:", r.EndDate},
		{""},
	}

	header := []string{"", "Category"}
	header = append(header, projectNames...)
	header = append(header, "Total")
	rows = append(rows, header)

	columnTotals := make(map[string]int)
	for _, c := range Categories {
		row := []string{"", string(c)}
		total := 0
		for _, project := range projectNames {
			n := counts[project][c]
			row = append(row, fmt.Sprintf("%d", n))
			columnTotals[project] += n
			total += n
		}
		row = append(row, fmt.Sprintf("%d", total))
		rows = append(rows, row)
	}

	totalsRow := []string{"", "Total"}
	for _, project := range projectNames {
		totalsRow = append(totalsRow, fmt.Sprintf("%d", columnTotals[project]))
	}
	totalsRow = append(totalsRow, fmt.Sprintf("%d", week.Total()))
	rows = append(rows, totalsRow)

	if err := writer.WriteAll(rows); err != nil {
		return "", err
	}
	return filename, nil
}

// countByProject returns the sorted project names and item counts per project
// and category.
func countByProject(week WeekTasks) ([]string, map[string]map[Category]int) {
	counts := make(map[string]map[Category]int)
	var projectNames []string

	for _, c := range Categories {
		for _, item := range week.Items(c) {
			project := projectName(item)
			if counts[project] == nil {
				counts[project] = make(map[Category]int)
				projectNames = append(projectNames, project)
			}
			counts[project][c]++
		}
	}

	sort.Strings(projectNames)
	return projectNames, counts
}

func formatHours(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
