package analyzer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"nexlyon/server/config"
	"nexlyon/server/internal/models"
	"nexlyon/server/internal/report"
)

// NoPropertiesReport is returned as the report when the store is empty.
const NoPropertiesReport = "  No properties in database. Run the scraper first."

// Store provides the current property snapshot and the session counters
// shown in the report header.
type Store interface {
	GetActiveProperties() ([]models.Property, error)
	GetSessionStats() (models.SessionStats, error)
}

// Archiver appends the results of one analysis run to the history.
type Archiver interface {
	Archive(records []models.AnalysisRecord) error
}

// Outcome is the result of one analysis run. Analyses keep the store order.
type Outcome struct {
	Report   string
	Analyses []models.PropertyAnalysis
	Stats    models.SessionStats
}

type Analyzer struct {
	store    Store
	archiver Archiver
	market   *config.MarketData
	enricher *Enricher
	logger   *logrus.Logger
	now      func() time.Time
}

func NewAnalyzer(store Store, archiver Archiver, market *config.MarketData, enricher *Enricher, logger *logrus.Logger) *Analyzer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if market == nil {
		market = config.DefaultMarketData()
	}

	return &Analyzer{
		store:    store,
		archiver: archiver,
		market:   market,
		enricher: enricher,
		logger:   logger,
		now:      time.Now,
	}
}

// Analyze scores every active property, enriches the best undervalued ones,
// archives the results and composes the text report.
func (a *Analyzer) Analyze(ctx context.Context) (*Outcome, error) {
	properties, err := a.store.GetActiveProperties()
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}
	if len(properties) == 0 {
		return &Outcome{Report: NoPropertiesReport}, nil
	}

	a.logger.WithField("count", len(properties)).Info("Analyzing properties")

	analyses, err := models.PairAnalyses(properties, CalculateAll(properties, a.market))
	if err != nil {
		return nil, err
	}

	if a.enricher != nil {
		a.enricher.Enrich(ctx, analyses)
	}

	analyzedAt := a.now()
	if a.archiver != nil {
		records := make([]models.AnalysisRecord, len(analyses))
		for i, pa := range analyses {
			records[i] = models.NewAnalysisRecord(pa, analyzedAt)
		}
		if err := a.archiver.Archive(records); err != nil {
			return nil, fmt.Errorf("failed to archive analyses: %w", err)
		}
	}

	stats, err := a.store.GetSessionStats()
	if err != nil {
		a.logger.WithError(err).Warn("Failed to load session stats")
	}

	text := report.Compose(analyses, report.Header{
		GeneratedAt:  analyzedAt,
		Sessions:     stats.Count,
		FirstSession: stats.First,
	})

	return &Outcome{Report: text, Analyses: analyses, Stats: stats}, nil
}
