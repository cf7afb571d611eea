package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"NordicDataFlow/internal/app"
	"NordicDataFlow/internal/config"
	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/logging"
	"NordicDataFlow/internal/usecase"
)

const usage = `usage: nordicdataflow <command> [flags]

commands:
  run       ingest, transform and load once (default)
  setup     create buckets and warehouse tables
  serve     start the read API
  schedule  run the pipeline on the configured cron expression
  export    write gold Parquet snapshots of the warehouse tables
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(ctx, os.Args[1:], cfg, logger); err != nil {
		logger.Error("application stopped", "error", logging.RedactError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, cfg config.Config, logger *slog.Logger) error {
	command := "run"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	var opts usecase.RunOptions
	var addr string
	switch command {
	case "run":
		fs.BoolVar(&opts.SkipIngest, "skip-ingest", false, "skip the ingestion phase")
		fs.BoolVar(&opts.SkipTransform, "skip-transform", false, "skip the transformation phase")
		fs.BoolVar(&opts.SkipLoad, "skip-load", false, "skip the load phase")
	case "serve":
		fs.StringVar(&addr, "addr", cfg.API.Addr, "listen address")
	case "setup", "schedule", "export":
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	switch command {
	case "setup":
		return application.Setup(ctx)
	case "serve":
		return application.Serve(ctx, addr)
	case "schedule":
		return application.Schedule(ctx)
	case "export":
		paths, err := application.Export(ctx)
		if err != nil {
			return err
		}
		return printJSON(paths)
	default:
		report := application.Run(ctx, opts)
		if err := printJSON(report); err != nil {
			return err
		}
		if failed := failedPhases(report); len(failed) > 0 {
			return fmt.Errorf("phases failed: %v", failed)
		}
		return nil
	}
}

func failedPhases(report domain.RunReport) []string {
	var failed []string
	if report.Ingest.Status == domain.PhaseFailed {
		failed = append(failed, "ingest")
	}
	if report.Transform.Status == domain.PhaseFailed {
		failed = append(failed, "transform")
	}
	if report.Load.Status == domain.PhaseFailed {
		failed = append(failed, "load")
	}
	return failed
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
