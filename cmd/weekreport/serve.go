package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Afrawles/weekreport/internal/server"
	"github.com/Afrawles/weekreport/internal/weekreport"
)

var (
	addr      string
	staticDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the weekly report API over HTTP",
	Long: `Starts an HTTP server exposing POST /api/tasks and POST /api/report.
Credentials are supplied by each request and never stored.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :3000)")
	serveCmd.Flags().StringVar(&staticDir, "static", "", "Directory of static files to serve")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = addr
	}
	if cmd.Flags().Changed("static") {
		cfg.Server.StaticDir = staticDir
	}

	app, err := weekreport.New(cfg, os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(app.Generator, cfg.Server, app.Logger)
	return srv.Start(ctx, cfg.Server.Addr)
}
