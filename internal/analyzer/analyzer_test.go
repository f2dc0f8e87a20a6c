package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nexlyon/server/config"
	"nexlyon/server/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetActiveProperties() ([]models.Property, error) {
	args := m.Called()
	props, _ := args.Get(0).([]models.Property)
	return props, args.Error(1)
}

func (m *MockStore) GetSessionStats() (models.SessionStats, error) {
	args := m.Called()
	return args.Get(0).(models.SessionStats), args.Error(1)
}

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(records []models.AnalysisRecord) error {
	args := m.Called(records)
	return args.Error(0)
}

func lyonListings() []models.Property {
	return []models.Property{
		{ID: 1, Title: "T3 Croix-Rousse à rénover", Arrondissement: "Lyon 4e", Price: 200000, Size: 70, DPE: "F"},
		{ID: 2, Title: "T2 Part-Dieu", Arrondissement: "Lyon 3e", Price: 215000, Size: 50, DPE: "D"},
	}
}

func TestAnalyze(t *testing.T) {
	store := &MockStore{}
	archiver := &MockArchiver{}
	narrator := &MockNarrator{}
	first := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	store.On("GetActiveProperties").Return(lyonListings(), nil)
	store.On("GetSessionStats").Return(models.SessionStats{Count: 2, First: &first}, nil)
	narrator.On("Insight", int64(1)).Return("BUY", nil).Once()

	var archived []models.AnalysisRecord
	archiver.On("Archive", mock.Anything).Run(func(args mock.Arguments) {
		archived = args.Get(0).([]models.AnalysisRecord)
	}).Return(nil)

	a := NewAnalyzer(store, archiver, config.DefaultMarketData(), NewEnricher(narrator, 0, 5, logrus.New()), logrus.New())
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return at }

	out, err := a.Analyze(context.Background())
	require.NoError(t, err)

	require.Len(t, out.Analyses, 2)
	assert.Equal(t, int64(1), out.Analyses[0].Property.ID)
	assert.True(t, out.Analyses[0].Metrics.IsUndervalued)
	assert.Equal(t, "BUY", out.Analyses[0].Metrics.AIInsight)
	assert.False(t, out.Analyses[1].Metrics.IsUndervalued)

	require.Len(t, archived, 2)
	assert.Equal(t, int64(1), archived[0].PropertyID)
	assert.Equal(t, "BUY", archived[0].Summary)
	assert.Equal(t, out.Analyses[0].Metrics.Score, archived[0].Score)
	assert.Equal(t, at, archived[1].AnalyzedAt)

	assert.Contains(t, out.Report, "Generated: 2026-10-19 09:00")
	assert.Contains(t, out.Report, "  Database Sessions    : 2 (tracking since 2026-09-01)")
	assert.Contains(t, out.Report, "     AI: BUY")
	narrator.AssertExpectations(t)
}

func TestAnalyze_NoProperties(t *testing.T) {
	store := &MockStore{}
	archiver := &MockArchiver{}
	store.On("GetActiveProperties").Return(nil, nil)

	a := NewAnalyzer(store, archiver, nil, nil, nil)
	out, err := a.Analyze(context.Background())

	require.NoError(t, err)
	assert.Equal(t, NoPropertiesReport, out.Report)
	assert.Empty(t, out.Analyses)
	archiver.AssertNotCalled(t, "Archive", mock.Anything)
}

func TestAnalyze_StoreError(t *testing.T) {
	store := &MockStore{}
	store.On("GetActiveProperties").Return(nil, errors.New("disk I/O error"))

	a := NewAnalyzer(store, nil, nil, nil, nil)
	_, err := a.Analyze(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load properties")
}

func TestAnalyze_ArchiveError(t *testing.T) {
	store := &MockStore{}
	archiver := &MockArchiver{}
	store.On("GetActiveProperties").Return(lyonListings(), nil)
	archiver.On("Archive", mock.Anything).Return(errors.New("queue closed"))

	a := NewAnalyzer(store, archiver, nil, nil, nil)
	_, err := a.Analyze(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to archive analyses")
}

func TestAnalyze_SessionStatsErrorIsNotFatal(t *testing.T) {
	store := &MockStore{}
	store.On("GetActiveProperties").Return(lyonListings(), nil)
	store.On("GetSessionStats").Return(models.SessionStats{}, errors.New("no such table"))

	a := NewAnalyzer(store, nil, nil, nil, nil)
	out, err := a.Analyze(context.Background())

	require.NoError(t, err)
	assert.Contains(t, out.Report, "  Database Sessions    : 0")
}

func TestSummarize(t *testing.T) {
	analyses := []models.PropertyAnalysis{
		{Property: models.Property{Price: 200000, Size: 70}, Metrics: models.Metrics{PriceM2: 2857, ROI5yr: -3.2, IsUndervalued: true}},
		{Property: models.Property{Price: 215000, Size: 50.5}, Metrics: models.Metrics{PriceM2: 4257, ROI5yr: -1.4}},
	}

	s := Summarize(analyses, 1)

	assert.Equal(t, models.Summary{
		Total:       2,
		NewCount:    1,
		AvgPrice:    207500,
		AvgSize:     60,
		AvgM2:       3557,
		Undervalued: 1,
		BestROI:     -1.4,
	}, s)
	assert.Equal(t, models.Summary{NewCount: 3}, Summarize(nil, 3))
}

func TestDistrictSummaries(t *testing.T) {
	analyses := []models.PropertyAnalysis{
		{Property: models.Property{Arrondissement: "Lyon 7e"}, Metrics: models.Metrics{PriceM2: 4000, PriceVsMarketPct: -2.4, RentalYieldPct: 5.0, ROI5yr: 20}},
		{Property: models.Property{Arrondissement: "Lyon 3e"}, Metrics: models.Metrics{PriceM2: 4500, PriceVsMarketPct: 4.7, RentalYieldPct: 4.5, ROI5yr: 10}},
		{Property: models.Property{Arrondissement: "Lyon 7e"}, Metrics: models.Metrics{PriceM2: 4201, PriceVsMarketPct: 2.5, RentalYieldPct: 5.0, ROI5yr: 15}},
		{Property: models.Property{}, Metrics: models.Metrics{PriceM2: 3000}},
	}
	md := config.DefaultMarketData()

	got := DistrictSummaries(analyses, md)

	require.Len(t, got, 3)
	assert.Equal(t, UnknownDistrict, got[0].Name)
	assert.Equal(t, md.Fallback.AvgPriceM2, got[0].MarketAvg)
	assert.Equal(t, "Lyon 3e", got[1].Name)
	assert.Equal(t, "Lyon 7e", got[2].Name)
	assert.Equal(t, 2, got[2].Count)
	assert.Equal(t, 4100, got[2].AvgM2)
	assert.Equal(t, 0.1, got[2].VsMarket)
	assert.Equal(t, 5.0, got[2].YieldPct)
	assert.Equal(t, 17.5, got[2].AvgROI)
	assert.Equal(t, md.Market("Lyon 7e").AvgPriceM2, got[2].MarketAvg)
}
