package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexlyon/server/config"
	"nexlyon/server/internal/models"
)

type fakeBot struct {
	mu       sync.Mutex
	messages []map[string]interface{}
	status   int
}

func (f *fakeBot) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		f.mu.Lock()
		f.messages = append(f.messages, payload)
		status := f.status
		f.mu.Unlock()

		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write([]byte(`{"ok":true}`))
	}
}

func newTestService(t *testing.T, bot *fakeBot) *Service {
	server := httptest.NewServer(bot.handler(t))
	t.Cleanup(server.Close)

	s := NewService(server.URL, logrus.New())
	s.UpdateConfig(&models.TelegramConfig{IsEnabled: true, BotToken: "test-token", ChatID: "42"})
	return s
}

func candidates() []models.PropertyAnalysis {
	return []models.PropertyAnalysis{
		{Property: models.Property{ID: 1, Title: "T3 Vaise", Price: 168000, Arrondissement: "Lyon 9e", Size: 66, DPE: "G"},
			Metrics: models.Metrics{Score: 8.5, IsUndervalued: true, PriceVsMarketPct: -25.1, MarketAvgM2: 3400}},
		{Property: models.Property{ID: 2, Title: "T2 Part-Dieu", Price: 215000, Arrondissement: "Lyon 3e", Size: 50, DPE: "D"},
			Metrics: models.Metrics{Score: 5.0}},
		{Property: models.Property{ID: 3, Title: "Studio <Bachut>", Price: 95000, Arrondissement: "Lyon 8e", Size: 22, DPE: "E"},
			Metrics: models.Metrics{Score: 7.0, IsUndervalued: true, AIInsight: "BUY & hold"}},
	}
}

func TestSendMessage(t *testing.T) {
	bot := &fakeBot{}
	s := newTestService(t, bot)

	require.NoError(t, s.SendMessage("hello"))

	require.Len(t, bot.messages, 1)
	assert.Equal(t, "42", bot.messages[0]["chat_id"])
	assert.Equal(t, "hello", bot.messages[0]["text"])
	assert.Equal(t, "HTML", bot.messages[0]["parse_mode"])
}

func TestSendMessage_Errors(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusUnauthorized, "invalid bot token"},
		{http.StatusBadRequest, "invalid chat ID"},
		{http.StatusForbidden, "bot was blocked"},
		{http.StatusInternalServerError, "status 500"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			s := newTestService(t, &fakeBot{status: tt.status})
			err := s.SendMessage("hello")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSendMessage_Disabled(t *testing.T) {
	s := NewService("http://127.0.0.1:1", nil)

	assert.False(t, s.Enabled())
	assert.NoError(t, s.SendMessage("ignored"))

	s.UpdateConfig(&models.TelegramConfig{IsEnabled: true, ChatID: "42"})
	assert.Error(t, s.SendMessage("no token"))
}

func TestNotifyCandidates(t *testing.T) {
	bot := &fakeBot{}
	s := newTestService(t, bot)

	sent, err := s.NotifyCandidates(candidates())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	require.Len(t, bot.messages, 2)
	assert.Contains(t, bot.messages[0]["text"], "T3 Vaise")
	assert.Contains(t, bot.messages[1]["text"], "Studio &lt;Bachut&gt;")
	assert.Contains(t, bot.messages[1]["text"], "BUY &amp; hold")
}

func TestNotifyCandidates_Filters(t *testing.T) {
	bot := &fakeBot{}
	s := newTestService(t, bot)
	maxPrice := 100000
	s.UpdateFilters(&models.TelegramFilters{MaxPrice: &maxPrice})

	sent, err := s.NotifyCandidates(candidates())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Contains(t, bot.messages[0]["text"], "Bachut")
}

func TestFormatOpportunity(t *testing.T) {
	pa := candidates()[0]

	got := FormatOpportunity(&pa)

	assert.Contains(t, got, "<b>Undervalued property: BUY</b>")
	assert.Contains(t, got, "💰 EUR 168,000  |  66 m²  |  DPE G")
	assert.Contains(t, got, "📊 -25.1% vs market (EUR 3,400/m²)")
	assert.Contains(t, got, "⭐ Score 8.5/10")
	assert.NotContains(t, got, "View listing")
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{}
	assert.False(t, FromConfig(cfg, nil).Enabled())

	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = "42"
	cfg.Telegram.MaxPrice = 200000
	s := FromConfig(cfg, nil)

	assert.True(t, s.Enabled())
	require.NotNil(t, s.filters.MaxPrice)
	assert.Equal(t, 200000, *s.filters.MaxPrice)
	assert.Nil(t, s.filters.MinScore)
	assert.Empty(t, s.filters.Districts)
	assert.Empty(t, s.filters.EnergyLabels)
}

func TestFromConfig_AllowLists(t *testing.T) {
	cfg := &config.Config{}
	cfg.Telegram.BotToken = "test-token"
	cfg.Telegram.ChatID = "42"
	cfg.Telegram.Districts = []string{" Lyon 9e", "", "Lyon 3e "}
	cfg.Telegram.EnergyLabels = []string{"g", " F"}

	s := FromConfig(cfg, nil)
	assert.Equal(t, []string{"Lyon 9e", "Lyon 3e"}, s.filters.Districts)
	assert.Equal(t, []string{"G", "F"}, s.filters.EnergyLabels)

	bot := &fakeBot{}
	server := httptest.NewServer(bot.handler(t))
	defer server.Close()
	s.client.SetBaseURL(server.URL)

	sent, err := s.NotifyCandidates(candidates())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, bot.messages, 1)
	assert.Contains(t, bot.messages[0]["text"], "T3 Vaise")
}
