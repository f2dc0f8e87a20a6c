// Package narrative asks a Gemini model for a short investment verdict.
package narrative

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"google.golang.org/genai"

	"nexlyon/server/config"
	"nexlyon/server/internal/models"
)

const DefaultModel = "gemini-2.0-flash"

var printer = message.NewPrinter(language.English)

// Gemini implements the analyzer's Narrator on the Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	market  *config.MarketData
	logger  *logrus.Logger
}

// NewGemini creates a client for apiKey. An empty model uses DefaultModel.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration, market *config.MarketData, logger *logrus.Logger) (*Gemini, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if model == "" {
		model = DefaultModel
	}
	if market == nil {
		market = config.DefaultMarketData()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.WithField("model", model).Info("Gemini narrative client initialized")

	return &Gemini{
		client:  client,
		model:   model,
		timeout: timeout,
		market:  market,
		logger:  logger,
	}, nil
}

// Insight returns the trimmed model answer for one property.
func (g *Gemini) Insight(ctx context.Context, p models.Property, m models.Metrics) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(p, m, g.market)), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// BuildPrompt renders the analyst prompt for one property.
func BuildPrompt(p models.Property, m models.Metrics, md *config.MarketData) string {
	var b strings.Builder
	b.WriteString("You are a French real estate investment analyst for Lyon.\n")
	b.WriteString("Give a concise verdict (max 100 words) for this property:\n\n")
	fmt.Fprintf(&b, "- Title: %s\n", p.Title)
	fmt.Fprintf(&b, "- Location: %s\n", p.Arrondissement)
	fmt.Fprintf(&b, "- Price: EUR %s\n", printer.Sprintf("%d", p.Price))
	fmt.Fprintf(&b, "- Size: %s m2  |  EUR %s/m2\n", decimal(p.Size), printer.Sprintf("%d", m.PriceM2))
	fmt.Fprintf(&b, "- Market avg: EUR %s/m2 (%+.1f%%)\n", printer.Sprintf("%d", m.MarketAvgM2), m.PriceVsMarketPct)
	fmt.Fprintf(&b, "- DPE: %s (%s)\n", p.DPE, md.Label(p.DPE))
	fmt.Fprintf(&b, "- Rental yield: %s%%\n", decimal(m.RentalYieldPct))
	fmt.Fprintf(&b, "- 5yr ROI (incl. renovation): %.1f%%\n", m.ROI5yr)
	fmt.Fprintf(&b, "- Renovation cost: EUR %s\n\n", printer.Sprintf("%d", m.RenoCost))
	b.WriteString("Include: BUY/HOLD/AVOID, key risk, and one actionable tip.")
	return b.String()
}

func decimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
