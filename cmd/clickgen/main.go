// Package main implements the clickgen binary, which simulates website
// clickstream data and writes it to object storage as a single file.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/arkilian/clickgen/internal/app"
	"github.com/arkilian/clickgen/internal/config"
	"github.com/arkilian/clickgen/internal/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Options are the command line flags.
type Options struct {
	Config  string  `short:"c" long:"config" description:"Path to configuration file (YAML or JSON)"`
	Seed    *uint64 `long:"seed" description:"Seed for a reproducible run"`
	DryRun  bool    `long:"dry-run" description:"Generate and preview without exporting"`
	Version bool    `long:"version" description:"Show version and exit"`
}

func main() {
	started := time.Now()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.LongDescription = "Simulates users, sessions and events and writes them to " +
		"s3://<bucket>/YYYY/MM/DD/HH/mm/clickstream_data.parquet.\n\n" +
		"Settings may also come from CLICKGEN_* environment variables or a .env file."
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("clickgen version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := config.Load(opts.Config, config.WithSeed(opts.Seed))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	application, err := app.New(cfg, app.WithLogger(log), app.WithDryRun(opts.DryRun))
	if err != nil {
		log.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx, started); err != nil {
		log.Error("run failed", "error", err)
		stop()
		os.Exit(1)
	}
}
