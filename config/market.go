package config

import "strings"

// MarketEntry holds the reference figures for one district.
type MarketEntry struct {
	AvgPriceM2     float64 `yaml:"avg_price_m2" json:"avg_price_m2"`
	RentalYieldPct float64 `yaml:"rental_yield_pct" json:"rental_yield_pct"`
}

// DPEEntry describes one energy rating.
//
// ValueFactor is the valuation multiplier at that rating, RenoCostM2 the cost
// per m² to bring the property up to rating B.
type DPEEntry struct {
	Label        string  `yaml:"label" json:"label"`
	ValueFactor  float64 `yaml:"value_factor" json:"value_factor"`
	EnergyCostYr float64 `yaml:"energy_cost_yr" json:"energy_cost_yr"`
	RenoCostM2   float64 `yaml:"reno_cost_m2" json:"reno_cost_m2"`
}

// MarketData bundles the static reference tables used by the analyzer.
type MarketData struct {
	Fallback  MarketEntry            `yaml:"fallback"`
	Districts map[string]MarketEntry `yaml:"districts"`
	DPE       map[string]DPEEntry    `yaml:"dpe"`
}

const (
	// DefaultRating is used when a property has no usable DPE.
	DefaultRating = "D"

	// TargetRating is the post-renovation level all valuations are benchmarked against.
	TargetRating = "B"
)

// Ratings lists the DPE keys from best to worst.
var Ratings = []string{"A", "B", "C", "D", "E", "F", "G"}

// DefaultMarketData returns the Lyon 2025-2026 reference tables.
func DefaultMarketData() *MarketData {
	return &MarketData{
		Fallback: MarketEntry{AvgPriceM2: 4300, RentalYieldPct: 4.5},
		Districts: map[string]MarketEntry{
			"Lyon 1er": {AvgPriceM2: 4800, RentalYieldPct: 3.8},
			"Lyon 2e":  {AvgPriceM2: 5300, RentalYieldPct: 3.5},
			"Lyon 3e":  {AvgPriceM2: 4300, RentalYieldPct: 4.5},
			"Lyon 4e":  {AvgPriceM2: 4800, RentalYieldPct: 4.0},
			"Lyon 5e":  {AvgPriceM2: 4300, RentalYieldPct: 4.2},
			"Lyon 6e":  {AvgPriceM2: 6000, RentalYieldPct: 3.3},
			"Lyon 7e":  {AvgPriceM2: 4300, RentalYieldPct: 4.8},
			"Lyon 8e":  {AvgPriceM2: 3700, RentalYieldPct: 5.5},
			"Lyon 9e":  {AvgPriceM2: 3400, RentalYieldPct: 5.8},
		},
		DPE: map[string]DPEEntry{
			"A": {Label: "Excellent", ValueFactor: 1.10, EnergyCostYr: 250, RenoCostM2: 0},
			"B": {Label: "Very Good", ValueFactor: 1.05, EnergyCostYr: 500, RenoCostM2: 0},
			"C": {Label: "Good", ValueFactor: 1.00, EnergyCostYr: 750, RenoCostM2: 100},
			"D": {Label: "Average", ValueFactor: 0.95, EnergyCostYr: 1100, RenoCostM2: 250},
			"E": {Label: "Poor", ValueFactor: 0.88, EnergyCostYr: 1600, RenoCostM2: 450},
			"F": {Label: "Very Poor", ValueFactor: 0.80, EnergyCostYr: 2200, RenoCostM2: 650},
			"G": {Label: "Critical", ValueFactor: 0.70, EnergyCostYr: 3000, RenoCostM2: 900},
		},
	}
}

// Market returns the entry for a district, or the fallback for unknown districts.
func (m *MarketData) Market(district string) MarketEntry {
	if entry, ok := m.Districts[district]; ok {
		return entry
	}
	return m.Fallback
}

// Rating normalizes a DPE key and returns it with its table entry.
// Absent or unrecognized keys resolve to "D".
func (m *MarketData) Rating(key string) (string, DPEEntry) {
	if !IsRating(key) {
		key = DefaultRating
	}
	if entry, ok := m.DPE[key]; ok {
		return key, entry
	}
	return key, m.DPE[DefaultRating]
}

// Target returns the entry of the post-renovation rating.
func (m *MarketData) Target() DPEEntry {
	return m.DPE[TargetRating]
}

// Label returns the display label of a rating, "Unknown" when absent.
func (m *MarketData) Label(key string) string {
	if entry, ok := m.DPE[strings.ToUpper(key)]; ok && entry.Label != "" {
		return entry.Label
	}
	return "Unknown"
}

// IsRating reports whether key is one of A..G.
func IsRating(key string) bool {
	for _, r := range Ratings {
		if key == r {
			return true
		}
	}
	return false
}
