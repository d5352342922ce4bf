// Command taskadmin is the terminal admin console for taskweb accounts and tasks.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/nhle/taskweb/internal/admin"
	"github.com/nhle/taskweb/internal/model"
	"github.com/nhle/taskweb/internal/service"
	"github.com/nhle/taskweb/internal/store"
	"github.com/nhle/taskweb/internal/tracing"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "taskadmin: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("taskadmin", pflag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML config file")
	logFile := fs.String("log-file", "", "append logs to this file (the terminal is owned by the UI)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	var out io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger, err := cfg.Log.NewLogger(out)
	if err != nil {
		return err
	}

	shutdownTracing, err := tracing.Setup(cfg.Tracing, logger)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	console := admin.New(service.NewTaskService(db, logger), logger)
	if _, err := tea.NewProgram(console, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running console: %w", err)
	}
	return nil
}
