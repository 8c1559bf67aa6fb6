package weekreport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Afrawles/weekreport/internal/azdevops"
	"github.com/Afrawles/weekreport/internal/config"
	"github.com/Afrawles/weekreport/internal/report"
)

type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Generator *report.Generator
	Exporter  *report.Exporter
}

// Result describes one generated report.
type Result struct {
	Week  report.WeekTasks
	Stats map[string]any
	Text  string
	Files []string
}

// New wires the Azure DevOps client, generator and exporters from cfg. Logs
// go to logOut as JSON.
func New(cfg *config.Config, logOut io.Writer) (*Application, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if logOut == nil {
		logOut = os.Stderr
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	client := azdevops.NewClient(
		azdevops.WithBaseURL(cfg.Azure.BaseURL),
		azdevops.WithAPIVersion(cfg.Azure.APIVersion),
		azdevops.WithTimeout(cfg.Azure.Timeout),
		azdevops.WithRateLimit(cfg.Azure.RateLimit, cfg.Azure.Burst),
		azdevops.WithLogger(logger),
	)
	logger.Debug("source initialized", "source", client.Name(), "base_url", cfg.Azure.BaseURL)

	return &Application{
		Config:    cfg,
		Logger:    logger,
		Generator: report.NewGenerator(client, logger),
		Exporter:  report.NewExporter(cfg.Output.Directory),
	}, nil
}

// Settings returns the credentials configured for CLI use.
func (app *Application) Settings() report.Settings {
	return report.Settings{
		Token:        app.Config.Azure.Token,
		Organization: app.Config.Azure.Organization,
	}
}

// GenerateReport fetches the week and writes every configured output format.
// Export failures are logged and skipped; a fetch failure aborts.
func (app *Application) GenerateReport(ctx context.Context, s report.Settings, r report.DateRange) (*Result, error) {
	app.Logger.Info("generating report",
		"organization", s.Organization,
		"start", r.StartDate,
		"end", r.EndDate,
	)

	week, err := app.Generator.FetchWeek(ctx, s, r)
	if err != nil {
		app.Logger.Error("failed to generate report", "error", err)
		return nil, err
	}

	if week.Total() == 0 {
		app.Logger.Warn("no work items found for this period")
	}

	if err := os.MkdirAll(app.Config.Output.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &Result{
		Week:  week,
		Stats: app.Generator.Statistics(week),
		Text:  report.FormatReport(week),
	}

	timestamp := time.Now().Format("20060102_150405")
	base := fmt.Sprintf("weekreport_%s_%s", r.StartDate, timestamp)

	for _, format := range app.Config.Output.Format {
		files, err := app.export(strings.ToLower(strings.TrimSpace(format)), base, result, r)
		if err != nil {
			app.Logger.Error("failed to export report", "format", format, "error", err)
			continue
		}
		for _, f := range files {
			app.Logger.Info("report exported", "format", format, "file", f)
		}
		result.Files = append(result.Files, files...)
	}

	app.Logger.Info("report generation complete",
		"total", result.Stats["total"],
		"completed", result.Stats["completed"],
	)
	return result, nil
}

func (app *Application) export(format, base string, res *Result, r report.DateRange) ([]string, error) {
	dir := app.Config.Output.Directory

	switch format {
	case "text":
		name := base + ".txt"
		return []string{filepath.Join(dir, name)}, app.Exporter.ExportText(res.Week, name)
	case "json":
		name := base + ".json"
		return []string{filepath.Join(dir, name)}, app.Exporter.ExportJSON(res.Week, name)
	case "yaml":
		name := base + ".yaml"
		return []string{filepath.Join(dir, name)}, app.Exporter.ExportYAML(res.Week, name)
	case "html":
		name := base + ".html"
		return []string{filepath.Join(dir, name)}, app.Exporter.ExportHTML(res.Week, res.Stats, name, app.Config.Author, r)
	case "csv":
		return report.NewCSVExporter(dir).Export(res.Week, r)
	case "xlsx":
		name, err := report.NewExcelExporter(dir).Export(res.Week, r)
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
