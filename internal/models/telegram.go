package models

// TelegramConfig stores the bot credentials
type TelegramConfig struct {
	IsEnabled bool   `json:"is_enabled"`
	BotToken  string `json:"bot_token"`
	ChatID    string `json:"chat_id"`
}

// TelegramFilters stores the notification filter settings
type TelegramFilters struct {
	MinScore     *float64 `json:"min_score"`
	MaxPrice     *int     `json:"max_price"`
	Districts    []string `json:"districts"`
	EnergyLabels []string `json:"energy_labels"`
}

// IsAllowed checks if an analyzed property matches the filter criteria
func (f *TelegramFilters) IsAllowed(pa *PropertyAnalysis) bool {
	if f == nil {
		return true // No filters means allow all
	}

	if f.MinScore != nil && pa.Metrics.Score < *f.MinScore {
		return false
	}
	if f.MaxPrice != nil && pa.Property.Price > *f.MaxPrice {
		return false
	}

	if len(f.Districts) > 0 && !contains(f.Districts, pa.Property.Arrondissement) {
		return false
	}

	if len(f.EnergyLabels) > 0 {
		if pa.Property.DPE == "" {
			return false
		}
		if !contains(f.EnergyLabels, pa.Property.DPE) {
			return false
		}
	}

	return true
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
