package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"nexlyon/server/config"
	"nexlyon/server/internal/app"
	"nexlyon/server/internal/pipeline"
)

const banner = `
 _   _              _
| \ | | _____  __  | |    _   _  ___  _ __
|  \| |/ _ \ \/ /  | |   | | | |/ _ \| '_ \
| |\  |  __/>  <   | |___| |_| | (_) | | | |
|_| \_|\___/_/\_\  |______\__, |\___/|_| |_|
  Real Estate Analyzer    |___/  v2.0
`

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	// stdout carries the report
	logger := app.NewLogger(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Analysis failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	fmt.Print(banner + "\n")

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.WithError(err).Error("Failed to close application")
		}
	}()

	a.Runner.OnStep = func(step int, label string) {
		fmt.Printf("[%d/%d] %s\n", step, pipeline.StepExport, label)
	}

	result, err := a.Runner.Run(ctx)
	if err != nil {
		return err
	}

	if result.Summary.NewCount > 0 {
		fmt.Printf("  %d new properties loaded.\n", result.Summary.NewCount)
	} else {
		fmt.Println("  Properties already in database (0 new).")
	}
	fmt.Println(result.ExportStatus)

	fmt.Print("\n\n")
	fmt.Println(result.Report)
	fmt.Printf("\nReport saved to: %s\n", result.ReportFile)
	return nil
}
