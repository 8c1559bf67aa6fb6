package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Afrawles/weekreport/internal/config"
	"github.com/Afrawles/weekreport/internal/report"
	"github.com/Afrawles/weekreport/internal/weekreport"
)

var (
	configPath   string
	organization string
	token        string
	logLevel     string
	startDate    string
	endDate      string
	period       string
	output       string
	formats      string
	author       string
)

var rootCmd = &cobra.Command{
	Use:   "weekreport",
	Short: "Generate weekly work item reports from Azure DevOps",
	Long: `WeekReport collects the tasks you created, closed and are working on, plus
the bugs you resolved, and prints them as a weekly report.`,
	SilenceUsage: true,
	RunE:         generateReport,
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "weekreport.yaml", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&organization, "org", "", "Azure DevOps organization")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Azure DevOps personal access token")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.Flags().StringVarP(&startDate, "start", "s", "", "Start date (YYYY-MM-DD)")
	rootCmd.Flags().StringVarP(&endDate, "end", "e", "", "End date, exclusive (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&period, "period", "this-week", "Period: this-week, last-week, this-month, last-month")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Output directory")
	rootCmd.Flags().StringVarP(&formats, "format", "f", "", "Comma-separated output formats: text, json, yaml, html, csv, xlsx")
	rootCmd.Flags().StringVar(&author, "author", "", "Report author")
}

// loadConfig reads the config file and environment, then applies flags that
// were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("org") {
		cfg.Azure.Organization = organization
	}
	if flags.Changed("token") {
		cfg.Azure.Token = token
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("output") {
		cfg.Output.Directory = output
	}
	if flags.Changed("format") {
		cfg.Output.Format = parseCommaList(formats)
	}
	if flags.Changed("author") {
		cfg.Author = author
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveRange(now time.Time) (report.DateRange, error) {
	if startDate != "" {
		return report.ParseRange(startDate, endDate)
	}
	return report.PeriodRange(period, now)
}

func generateReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateSource(); err != nil {
		return err
	}

	rng, err := resolveRange(time.Now())
	if err != nil {
		return err
	}

	app, err := weekreport.New(cfg, os.Stderr)
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "Generating report for %s (%s to %s)\n", cfg.Azure.Organization, rng.StartDate, rng.EndDate)

	bar := newSpinner(errOut, "Fetching work items")
	res, err := app.GenerateReport(cmd.Context(), app.Settings(), rng)
	finishBar(bar)
	if err != nil {
		return fmt.Errorf("error generating report: %w", err)
	}

	fmt.Fprintln(errOut)
	fmt.Fprint(cmd.OutOrStdout(), res.Text)

	if len(res.Files) > 0 {
		fmt.Fprintf(errOut, "Reports saved to %s/\n", cfg.Output.Directory)
		for _, f := range res.Files {
			fmt.Fprintf(errOut, "  -> %s\n", f)
		}
	}

	fmt.Fprintf(errOut, "\nSummary:\n")
	fmt.Fprintf(errOut, "  Total work items: %d\n", res.Stats["total"])
	fmt.Fprintf(errOut, "  Completed: %d\n", res.Stats["completed"])
	fmt.Fprintf(errOut, "  Completed work: %.1fh\n", res.Stats["completed_work"])
	return nil
}
