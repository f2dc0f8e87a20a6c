package models

import "errors"

var ErrLengthMismatch = errors.New("properties and metrics have different lengths")

// Metrics is the investment assessment of one property. Values are rounded
// for display; a Metrics value is never modified once built.
type Metrics struct {
	Score            float64 `json:"score"`
	PriceM2          int     `json:"price_m2"`
	MarketAvgM2      int     `json:"market_avg_m2"`
	PriceVsMarketPct float64 `json:"price_vs_market_pct"`
	MonthlyRent      int     `json:"monthly_rent"`
	AnnualRent       int     `json:"annual_rent"`
	RentalYieldPct   float64 `json:"rental_yield_pct"`
	RenoCost         int     `json:"reno_cost"`
	PostRenoValue    int     `json:"post_reno_value"`
	CapitalGain      int     `json:"capital_gain"`
	TotalInvestment  int     `json:"total_investment"`
	ROI5yr           float64 `json:"roi_5yr"`
	IsUndervalued    bool    `json:"is_undervalued"`
	AIInsight        string  `json:"ai_insight,omitempty"`
}

// WithInsight returns a copy of m carrying the narrative text.
func (m Metrics) WithInsight(text string) Metrics {
	m.AIInsight = text
	return m
}

// PropertyAnalysis pairs a property with its metrics. It marshals as a single
// flat JSON object.
type PropertyAnalysis struct {
	Property
	Metrics
}

// PairAnalyses zips parallel property and metrics lists.
func PairAnalyses(properties []Property, metrics []Metrics) ([]PropertyAnalysis, error) {
	if len(properties) != len(metrics) {
		return nil, ErrLengthMismatch
	}
	out := make([]PropertyAnalysis, len(properties))
	for i := range properties {
		out[i] = PropertyAnalysis{Property: properties[i], Metrics: metrics[i]}
	}
	return out, nil
}

// Verdict maps a score to BUY (>= 7), HOLD (>= 5) or AVOID.
func Verdict(score float64) string {
	switch {
	case score >= 7:
		return "BUY"
	case score >= 5:
		return "HOLD"
	default:
		return "AVOID"
	}
}
