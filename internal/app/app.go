package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"nexlyon/server/config"
	"nexlyon/server/internal/analyzer"
	"nexlyon/server/internal/database"
	"nexlyon/server/internal/export"
	"nexlyon/server/internal/narrative"
	"nexlyon/server/internal/pipeline"
	"nexlyon/server/internal/processor"
	"nexlyon/server/internal/queue"
	"nexlyon/server/internal/scraping"
	"nexlyon/server/internal/telegram"
)

// App holds the components shared by the server and the CLI.
type App struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Market    *config.MarketData
	DB        *database.Database
	Processor *processor.BatchProcessor
	Runner    *pipeline.Runner
}

// NewLogger returns a JSON logger at the given level, falling back to info.
func NewLogger(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("Unknown log level, using info")
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}

// New opens the database and wires every pipeline stage. Close must be
// called to flush the analysis archive.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	market, err := config.LoadMarketData(cfg.MarketFile)
	if err != nil {
		return nil, err
	}

	logger.Infof("Using database at: %s", cfg.DBPath)
	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	gormDB, err := db.Gorm()
	if err != nil {
		db.Close()
		return nil, err
	}

	archiveQueue := queue.NewAnalysisQueue(cfg.Archive.BufferSize, logger)
	proc := processor.NewBatchProcessor(gormDB, archiveQueue, cfg, logger)
	proc.Start()

	var searcher scraping.Searcher
	if cfg.Scraper.SerpAPIKey != "" {
		searcher = scraping.NewSerpClient(cfg.Scraper.BaseURL, cfg.Scraper.SerpAPIKey, cfg.Scraper.Timeout)
	}
	scraper := scraping.NewScraper(db, searcher, market, logger)

	var narrator analyzer.Narrator
	if cfg.Narrative.APIKey != "" {
		gemini, err := narrative.NewGemini(ctx, cfg.Narrative.APIKey, cfg.Narrative.Model, cfg.Narrative.Timeout, market, logger)
		if err != nil {
			logger.WithError(err).Warn("Narrative generation disabled")
		} else {
			narrator = gemini
		}
	}
	enricher := analyzer.NewEnricher(narrator, cfg.Narrative.Delay, cfg.Narrative.Limit, logger)

	runner := pipeline.NewRunner(pipeline.Deps{
		Migrator: db,
		Scraper:  scraper,
		Analyzer: analyzer.NewAnalyzer(db, proc, market, enricher, logger),
		Exporter: export.NewExporter(cfg.ExportDir, logger),
		Notifier: telegram.FromConfig(cfg, logger),
	}, market, cfg.ReportDir, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Market:    market,
		DB:        db,
		Processor: proc,
		Runner:    runner,
	}, nil
}

// Close flushes the archive and closes the database once running pipelines
// have finished.
func (a *App) Close() error {
	a.Runner.Wait()
	a.Processor.Stop()
	return a.DB.Close()
}
