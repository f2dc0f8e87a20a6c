package telegram

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"nexlyon/server/config"
	"nexlyon/server/internal/analyzer"
	"nexlyon/server/internal/models"
)

const DefaultAPIURL = "https://api.telegram.org"

var printer = message.NewPrinter(language.English)

type Service struct {
	logger  *logrus.Logger
	client  *resty.Client
	config  *models.TelegramConfig
	filters *models.TelegramFilters
}

func NewService(apiURL string, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Service{
		logger: logger,
		client: resty.New().
			SetBaseURL(strings.TrimRight(apiURL, "/")).
			SetTimeout(10 * time.Second),
		config: &models.TelegramConfig{},
	}
}

// FromConfig builds a service enabled only when both the token and the chat
// are set. Zero thresholds leave the matching filter open.
func FromConfig(cfg *config.Config, logger *logrus.Logger) *Service {
	s := NewService(DefaultAPIURL, logger)
	tg := cfg.Telegram
	s.UpdateConfig(&models.TelegramConfig{
		IsEnabled: tg.BotToken != "" && tg.ChatID != "",
		BotToken:  tg.BotToken,
		ChatID:    tg.ChatID,
	})

	filters := &models.TelegramFilters{}
	if tg.MinScore > 0 {
		minScore := tg.MinScore
		filters.MinScore = &minScore
	}
	if tg.MaxPrice > 0 {
		maxPrice := tg.MaxPrice
		filters.MaxPrice = &maxPrice
	}
	filters.Districts = cleanList(tg.Districts, strings.TrimSpace)
	filters.EnergyLabels = cleanList(tg.EnergyLabels, func(v string) string {
		return strings.ToUpper(strings.TrimSpace(v))
	})
	s.UpdateFilters(filters)
	return s
}

func cleanList(values []string, normalize func(string) string) []string {
	var out []string
	for _, v := range values {
		if v = normalize(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *Service) UpdateConfig(config *models.TelegramConfig) {
	s.config = config
}

func (s *Service) UpdateFilters(filters *models.TelegramFilters) {
	s.filters = filters
}

// Enabled reports whether notifications will be sent.
func (s *Service) Enabled() bool {
	return s.config != nil && s.config.IsEnabled
}

// SendMessage sends a message to the configured Telegram chat
func (s *Service) SendMessage(text string) error {
	if !s.Enabled() {
		return nil
	}

	if s.config.BotToken == "" {
		return errors.New("telegram bot token is not configured")
	}

	if s.config.ChatID == "" {
		return errors.New("telegram chat ID is not configured")
	}

	resp, err := s.client.R().
		SetBody(map[string]interface{}{
			"chat_id":    s.config.ChatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", s.config.BotToken))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		switch resp.StatusCode() {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", resp.String())
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found - please check your token from @BotFather")
		default:
			return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode(), resp.String())
		}
	}

	return nil
}

// NotifyCandidates sends one message per top undervalued property that
// passes the filters and returns how many were sent.
func (s *Service) NotifyCandidates(analyses []models.PropertyAnalysis) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}

	sent := 0
	for _, idx := range analyzer.SelectCandidates(analyses, analyzer.MaxCandidates) {
		pa := &analyses[idx]
		if !s.filters.IsAllowed(pa) {
			continue
		}
		if err := s.SendMessage(FormatOpportunity(pa)); err != nil {
			return sent, err
		}
		sent++
	}

	s.logger.WithField("sent", sent).Info("Telegram notifications sent")
	return sent, nil
}

// FormatOpportunity renders the notification for one property.
func FormatOpportunity(pa *models.PropertyAnalysis) string {
	p, m := pa.Property, pa.Metrics

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Undervalued property: %s</b>\n\n", models.Verdict(m.Score))
	fmt.Fprintf(&b, "🏠 %s\n", html.EscapeString(p.Title))
	fmt.Fprintf(&b, "📍 %s\n", html.EscapeString(p.Arrondissement))
	fmt.Fprintf(&b, "💰 EUR %s  |  %g m²  |  DPE %s\n", printer.Sprintf("%d", p.Price), p.Size, p.DPE)
	fmt.Fprintf(&b, "📊 %+.1f%% vs market (EUR %s/m²)\n", m.PriceVsMarketPct, printer.Sprintf("%d", m.MarketAvgM2))
	fmt.Fprintf(&b, "⭐ Score %.1f/10  |  5yr ROI %.1f%%", m.Score, m.ROI5yr)
	if m.AIInsight != "" {
		fmt.Fprintf(&b, "\n\n🤖 %s", html.EscapeString(m.AIInsight))
	}
	if p.URL != "" {
		fmt.Fprintf(&b, "\n\n🔗 <a href=\"%s\">View listing</a>", html.EscapeString(p.URL))
	}
	return b.String()
}
