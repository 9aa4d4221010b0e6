package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/lead-personalizer/internal/server"
	"github.com/jonathan/lead-personalizer/internal/templates"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes POST /personalize, job lookup and the template catalog.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer func() { _ = a.close() }()

	deps := server.Deps{
		Personalizer: a.pipeline,
		Jobs:         a.reader,
		Catalog:      templates.DefaultCatalog(),
		HealthChecks: a.health,
	}
	if a.jobs != nil {
		deps.Lister = a.jobs
	}

	return server.New(cfg.ToServer(), deps, a.logger).Start(ctx)
}
