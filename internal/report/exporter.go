package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed "templates"
var templateFS embed.FS

type Exporter struct {
	OutputDir string
}

func NewExporter(outputDir string) *Exporter {
	return &Exporter{OutputDir: outputDir}
}

func (e *Exporter) ExportJSON(week WeekTasks, filename string) error {
	data, err := json.MarshalIndent(week, "", "\t")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(e.OutputDir, filename), data, 0644)
}

func (e *Exporter) ExportYAML(week WeekTasks, filename string) error {
	data, err := yaml.Marshal(week)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return os.WriteFile(filepath.Join(e.OutputDir, filename), data, 0644)
}

// ExportText writes the plain-text weekly report.
func (e *Exporter) ExportText(week WeekTasks, filename string) error {
	return os.WriteFile(filepath.Join(e.OutputDir, filename), []byte(FormatReport(week)), 0644)
}

type categorySection struct {
	Name     string
	Heading  string
	Items    []WorkItem
	Estimate float64
	Done     float64
}

type projectGroup struct {
	ProjectName string
	Count       int
}

func (e *Exporter) ExportHTML(week WeekTasks, stats map[string]any, filename, author string, r DateRange) error {
	funcMap := template.FuncMap{
		"title": cases.Title(language.English).String,
		"hours": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	}
	tmpl, err := template.New("report.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/report.tmpl")
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	outputPath := filepath.Join(e.OutputDir, filename)
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create HTML file: %w", err)
	}
	defer f.Close()

	var sections []categorySection
	for _, c := range Categories {
		items := week.Items(c)
		if len(items) == 0 {
			continue
		}
		section := categorySection{Name: string(c), Heading: sectionHeaders[c], Items: items}
		for _, item := range items {
			section.Estimate += item.OriginalEstimate
			section.Done += item.CompletedWork
		}
		sections = append(sections, section)
	}

	var projects []projectGroup
	if byProject, ok := stats["by_project"].(map[string]int); ok {
		for name, count := range byProject {
			projects = append(projects, projectGroup{ProjectName: name, Count: count})
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].ProjectName < projects[j].ProjectName
	})

	data := map[string]any{
		"Date":        time.Now().Format("2006-01-02 15:04:05"),
		"Range":       r,
		"Sections":    sections,
		"Projects":    projects,
		"Stats":       stats,
		"SubmittedBy": author,
	}

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}

	return nil
}
