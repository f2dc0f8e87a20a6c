package models

import "time"

// AnalysisRecord is one archived analysis result. Each run appends a new row.
type AnalysisRecord struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID    int64     `gorm:"column:property_id;index" json:"property_id"`
	Score         float64   `gorm:"column:score" json:"score"`
	ROI5yr        float64   `gorm:"column:roi_5yr" json:"roi_5yr"`
	IsUndervalued bool      `gorm:"column:is_undervalued" json:"is_undervalued"`
	Summary       string    `gorm:"column:summary" json:"summary"`
	AnalyzedAt    time.Time `gorm:"column:analyzed_at" json:"analyzed_at"`
}

func (AnalysisRecord) TableName() string {
	return "analyses"
}

// NewAnalysisRecord builds the archive row for a property analysis.
func NewAnalysisRecord(pa PropertyAnalysis, at time.Time) AnalysisRecord {
	return AnalysisRecord{
		PropertyID:    pa.Property.ID,
		Score:         pa.Metrics.Score,
		ROI5yr:        pa.Metrics.ROI5yr,
		IsUndervalued: pa.Metrics.IsUndervalued,
		Summary:       pa.Metrics.AIInsight,
		AnalyzedAt:    at,
	}
}

type DistrictSummary struct {
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	AvgM2     int     `json:"avg_m2"`
	MarketAvg float64 `json:"market_avg"`
	VsMarket  float64 `json:"vs_market"`
	YieldPct  float64 `json:"yield_pct"`
	AvgROI    float64 `json:"avg_roi"`
}

type Summary struct {
	Total       int     `json:"total"`
	NewCount    int     `json:"new_count"`
	AvgPrice    int     `json:"avg_price"`
	AvgSize     int     `json:"avg_size"`
	AvgM2       int     `json:"avg_m2"`
	Undervalued int     `json:"undervalued"`
	BestROI     float64 `json:"best_roi"`
}
