package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexlyon/server/internal/models"
)

var generatedAt = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

func sampleAnalyses() []models.PropertyAnalysis {
	return []models.PropertyAnalysis{
		{
			Property: models.Property{ID: 1, Title: "Appartement T3 lumineux Croix-Rousse avec balcon", Arrondissement: "Lyon 4e", Price: 225000, Size: 68, DPE: "F"},
			Metrics: models.Metrics{Score: 10.0, PriceM2: 3309, MarketAvgM2: 4300, PriceVsMarketPct: -23.1, MonthlyRent: 750, AnnualRent: 9000,
				RentalYieldPct: 4.0, RenoCost: 30600, PostRenoValue: 307020, CapitalGain: 51420, TotalInvestment: 255600, ROI5yr: 34.6,
				IsUndervalued: true, AIInsight: "BUY.\nKey risk: copro works."},
		},
		{
			Property: models.Property{ID: 2, Title: "Studio Guillotière", Arrondissement: "Lyon 7e", Price: 150000, Size: 30.5, DPE: "C"},
			Metrics: models.Metrics{Score: 6.5, PriceM2: 4918, MarketAvgM2: 4100, PriceVsMarketPct: 19.9, MonthlyRent: 637, AnnualRent: 7650,
				RentalYieldPct: 5.1, PostRenoValue: 131333, CapitalGain: -18667, TotalInvestment: 150000, ROI5yr: 22.3},
		},
		{
			Property: models.Property{ID: 3, Title: "T2 Part-Dieu", Arrondissement: "Lyon 3e", Price: 190000, Size: 45, DPE: "E"},
			Metrics: models.Metrics{Score: 6.5, PriceM2: 4222, MarketAvgM2: 4500, PriceVsMarketPct: -6.2, MonthlyRent: 713, AnnualRent: 8550,
				RentalYieldPct: 4.5, RenoCost: 11250, PostRenoValue: 212625, CapitalGain: 11375, TotalInvestment: 201250, ROI5yr: 12.4,
				IsUndervalued: true},
		},
		{
			Property: models.Property{ID: 4, Title: "Loft atypique", Price: 310000, Size: 80},
			Metrics: models.Metrics{Score: 4.0, PriceM2: 3875, MarketAvgM2: 4300, PriceVsMarketPct: -0.5, MonthlyRent: 1163, AnnualRent: 13950,
				RentalYieldPct: 4.5, RenoCost: 16000, PostRenoValue: 361200, CapitalGain: 35200, TotalInvestment: 326000, ROI5yr: -2.3},
		},
	}
}

func TestCompose_Golden(t *testing.T) {
	first := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	got := Compose(sampleAnalyses(), Header{GeneratedAt: generatedAt, Sessions: 3, FirstSession: &first})

	want, err := os.ReadFile(filepath.Join("testdata", "report.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), got)
}

func TestCompose_Empty(t *testing.T) {
	got := Compose(nil, Header{GeneratedAt: generatedAt})

	want := strings.Repeat("=", Width) + "\n" +
		"                NEX-LYON REAL ESTATE INVESTMENT REPORT            \n" +
		"                     Generated: 2026-10-19 14:30                  \n" +
		strings.Repeat("=", Width) + "\n" +
		"\n  No properties to analyze.\n"
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "MARKET OVERVIEW")
}

func TestCompose_TrackingDefaultsToToday(t *testing.T) {
	got := Compose(sampleAnalyses()[:1], Header{GeneratedAt: generatedAt, Sessions: 0})

	assert.Contains(t, got, "  Database Sessions    : 0 (tracking since 2026-10-19)")
}

func TestCompose_NoUndervalued(t *testing.T) {
	analyses := sampleAnalyses()[1:2]

	got := Compose(analyses, Header{GeneratedAt: generatedAt})

	assert.Contains(t, got, "  TOP UNDERVALUED PROPERTIES (0 found)")
	assert.Contains(t, got, "  No significantly undervalued properties detected.")
}

func TestCompose_DetailCappedAtFive(t *testing.T) {
	base := sampleAnalyses()[0]
	var analyses []models.PropertyAnalysis
	for i := 0; i < 7; i++ {
		pa := base
		pa.Property.ID = int64(i + 1)
		pa.Metrics.Score = float64(3 + i)
		pa.Metrics.AIInsight = ""
		analyses = append(analyses, pa)
	}

	got := Compose(analyses, Header{GeneratedAt: generatedAt})

	assert.Contains(t, got, "  TOP UNDERVALUED PROPERTIES (7 found)")
	assert.Contains(t, got, "  1. [SCORE 9.0/10]")
	assert.Contains(t, got, "  5. [SCORE 5.0/10]")
	assert.NotContains(t, got, "  6. [SCORE")
}

func TestCenter(t *testing.T) {
	assert.Equal(t, " ab ", center("ab", 4))
	assert.Equal(t, " ab", center("ab", 3))
	assert.Equal(t, " abc ", center("abc", 5))
	assert.Equal(t, " abc  ", center("abc", 6))
	assert.Equal(t, "toolong", center("toolong", 3))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1,234,567", thousands(1234567))
	assert.Equal(t, "-18,667", thousands(-18667))
	assert.Equal(t, "EUR 4,516", euros(4516.5))
	assert.Equal(t, "EUR 4,518", euros(4517.5))
	assert.Equal(t, "68.0", decimal(68))
	assert.Equal(t, "68.25", decimal(68.25))
	assert.Equal(t, "Guillotièr", truncate("Guillotière", 10))
}
