package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadMarketData returns the built-in tables, overridden by the YAML file at
// path when one is given. Districts and ratings present in the file replace
// the defaults key by key.
func LoadMarketData(path string) (*MarketData, error) {
	data := DefaultMarketData()
	if path == "" {
		return data, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read market file: %w", err)
	}

	if err := yaml.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to parse market file: %w", err)
	}

	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

// Validate checks that every rating is present and the fallback is usable.
func (m *MarketData) Validate() error {
	for _, r := range Ratings {
		if _, ok := m.DPE[r]; !ok {
			return fmt.Errorf("market data is missing DPE rating %s", r)
		}
	}
	if m.Fallback.AvgPriceM2 <= 0 {
		return fmt.Errorf("market data fallback avg_price_m2 must be positive")
	}
	for name, entry := range m.Districts {
		if entry.AvgPriceM2 < 0 {
			return fmt.Errorf("district %s has a negative avg_price_m2", name)
		}
	}
	return nil
}
