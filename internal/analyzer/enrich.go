package analyzer

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"nexlyon/server/internal/models"
)

const (
	quotaPlaceholder = "(AI skipped: quota exceeded — try later or upgrade plan)"
	maxReasonLength  = 120
)

// Narrator produces a short investment verdict for one property.
type Narrator interface {
	Insight(ctx context.Context, p models.Property, m models.Metrics) (string, error)
}

// Enricher attaches narrative text to the top undervalued analyses. Calls
// are made one at a time, highest score first, spaced by the limiter.
type Enricher struct {
	narrator Narrator
	limiter  *rate.Limiter
	limit    int
	logger   *logrus.Logger
}

// NewEnricher creates an enricher. A nil narrator disables enrichment; a
// delay of zero or less removes the spacing between calls.
func NewEnricher(narrator Narrator, delay time.Duration, limit int, logger *logrus.Logger) *Enricher {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	return &Enricher{
		narrator: narrator,
		limiter:  limiter,
		limit:    limit,
		logger:   logger,
	}
}

// Enabled reports whether a narrator is configured.
func (e *Enricher) Enabled() bool {
	return e != nil && e.narrator != nil
}

// Enrich selects the candidates and replaces their metrics with copies
// carrying the narrative. It returns the number of analyses enriched.
// Narrator failures become placeholder text and never abort the run.
func (e *Enricher) Enrich(ctx context.Context, analyses []models.PropertyAnalysis) int {
	candidates := SelectCandidates(analyses, e.limit)
	if !e.Enabled() || len(candidates) == 0 {
		return 0
	}

	e.logger.WithField("candidates", len(candidates)).Info("Requesting AI insights for top opportunities")

	enriched := 0
	for _, idx := range candidates {
		if err := e.limiter.Wait(ctx); err != nil {
			e.logger.WithError(err).Warn("Stopping AI enrichment")
			break
		}

		pa := &analyses[idx]
		text, err := e.narrator.Insight(ctx, pa.Property, pa.Metrics)
		if err != nil {
			e.logger.WithError(err).WithField("property_id", pa.Property.ID).Warn("AI insight failed")
			text = Placeholder(err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pa.Metrics = pa.Metrics.WithInsight(text)
		enriched++
	}
	return enriched
}

// Placeholder converts a narrator failure into display text.
func Placeholder(err error) string {
	msg := err.Error()
	if IsQuotaError(err) {
		return quotaPlaceholder
	}
	if r := []rune(msg); len(r) > maxReasonLength {
		msg = string(r[:maxReasonLength])
	}
	return "(AI unavailable: " + msg + ")"
}

// IsQuotaError matches 429 responses and quota or RESOURCE_EXHAUSTED errors.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(strings.ToLower(msg), "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
