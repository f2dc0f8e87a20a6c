package config

import (
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Path to the SQLite database file
	DBPath string `env:"DB_PATH" envDefault:"database/lyon_real_estate.db"`

	// HTTP port for the web server
	Port string `env:"PORT" envDefault:"5000"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Optional YAML file overriding the built-in market tables
	MarketFile string `env:"MARKET_FILE"`

	// Directory where report_YYYY-MM-DD.txt files are written
	ReportDir string `env:"REPORT_DIR" envDefault:"."`

	// Directory for the xlsx workbook; empty disables the export
	ExportDir string `env:"EXPORT_DIR" envDefault:"export"`

	// Cron expression for scheduled pipeline runs (server only)
	ScheduleCron string `env:"SCHEDULE_CRON"`

	Scraper struct {
		SerpAPIKey string        `env:"SERPAPI_KEY"`
		BaseURL    string        `env:"SERPAPI_URL" envDefault:"https://serpapi.com"`
		Timeout    time.Duration `env:"SERPAPI_TIMEOUT" envDefault:"30s"`
	}

	Narrative struct {
		APIKey string `env:"GEMINI_API_KEY"`
		Model  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

		// Minimum spacing between two narrative calls
		Delay time.Duration `env:"NARRATIVE_DELAY" envDefault:"1s"`

		Timeout time.Duration `env:"NARRATIVE_TIMEOUT" envDefault:"30s"`

		// Number of candidates enriched per run, capped at 5
		Limit int `env:"NARRATIVE_LIMIT" envDefault:"5"`
	}

	Telegram struct {
		BotToken string  `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string  `env:"TELEGRAM_CHAT_ID"`
		MinScore float64 `env:"TELEGRAM_MIN_SCORE" envDefault:"0"`
		MaxPrice int     `env:"TELEGRAM_MAX_PRICE" envDefault:"0"`

		// Comma-separated allow lists, e.g. "Lyon 7e,Lyon 8e" and "E,F,G"
		Districts    []string `env:"TELEGRAM_DISTRICTS" envSeparator:","`
		EnergyLabels []string `env:"TELEGRAM_DPE" envSeparator:","`
	}

	Archive struct {
		// Number of analysis batches buffered before writes fall back to inline
		BufferSize int `env:"ARCHIVE_BUFFER" envDefault:"16"`

		MaxRetries int `env:"ARCHIVE_RETRIES" envDefault:"3"`

		RetryDelay time.Duration `env:"ARCHIVE_RETRY_DELAY" envDefault:"2s"`
	}
}

// LoadConfig reads .env (if present) and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
