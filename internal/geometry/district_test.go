package geometry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexlyon/server/config"
	"nexlyon/server/internal/models"
)

func TestDistrictCollection(t *testing.T) {
	summaries := []models.DistrictSummary{
		{Name: "?", Count: 1},
		{Name: "Lyon 3e", Count: 2, AvgM2: 4200, MarketAvg: 4600, VsMarket: -8.7, YieldPct: 4.1, AvgROI: 12.3},
	}

	fc := DistrictCollection(summaries, nil)

	require.Len(t, fc.Features, len(config.LyonDistricts))

	first := fc.Features[0]
	assert.Equal(t, orb.Point{4.8292, 45.7699}, first.Geometry)
	assert.Equal(t, "Lyon 1er", first.Properties["district"])
	assert.Equal(t, 0, first.Properties["count"])
	assert.NotContains(t, first.Properties, "avg_m2")

	third := fc.Features[2]
	assert.Equal(t, "Lyon 3e", third.Properties["district"])
	assert.Equal(t, 2, third.Properties["count"])
	assert.Equal(t, 4200, third.Properties["avg_m2"])
	assert.Equal(t, -8.7, third.Properties["vs_market"])
}

func TestDistrictDocument(t *testing.T) {
	fc := DistrictCollection([]models.DistrictSummary{{Name: "Lyon 8e", Count: 3}}, config.DefaultMarketData())
	generated := time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

	doc := DistrictDocument(fc, generated)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
		Metadata struct {
			Generated    string `json:"generated"`
			Districts    int    `json:"districts"`
			WithListings int    `json:"with_listings"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "FeatureCollection", decoded.Type)
	require.Len(t, decoded.Features, 9)
	assert.Equal(t, "Point", decoded.Features[0].Geometry.Type)
	assert.Equal(t, "2026-10-19T14:30:00Z", decoded.Metadata.Generated)
	assert.Equal(t, 9, decoded.Metadata.Districts)
	assert.Equal(t, 1, decoded.Metadata.WithListings)
}
