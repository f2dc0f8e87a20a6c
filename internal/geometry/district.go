package geometry

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"nexlyon/server/config"
	"nexlyon/server/internal/models"
)

// DistrictFeature builds the map marker for one arrondissement. A nil summary
// means no listing was analyzed there.
func DistrictFeature(d config.District, summary *models.DistrictSummary, md *config.MarketData) *geojson.Feature {
	feature := geojson.NewFeature(orb.Point{d.Longitude, d.Latitude})
	feature.ID = d.Number
	feature.Properties = geojson.Properties{
		"district":   d.Name,
		"number":     d.Number,
		"market_avg": md.Market(d.Name).AvgPriceM2,
		"count":      0,
	}

	if summary != nil {
		feature.Properties["count"] = summary.Count
		feature.Properties["avg_m2"] = summary.AvgM2
		feature.Properties["vs_market"] = summary.VsMarket
		feature.Properties["yield_pct"] = summary.YieldPct
		feature.Properties["avg_roi"] = summary.AvgROI
	}
	return feature
}

// DistrictCollection returns one point feature per arrondissement, in
// arrondissement order. Summaries for unknown districts are left out.
func DistrictCollection(summaries []models.DistrictSummary, md *config.MarketData) *geojson.FeatureCollection {
	if md == nil {
		md = config.DefaultMarketData()
	}

	byName := make(map[string]*models.DistrictSummary, len(summaries))
	for i := range summaries {
		byName[summaries[i].Name] = &summaries[i]
	}

	fc := geojson.NewFeatureCollection()
	for _, d := range config.LyonDistricts {
		fc.Append(DistrictFeature(d, byName[d.Name], md))
	}
	return fc
}

// DistrictDocument wraps the collection with generation metadata.
func DistrictDocument(fc *geojson.FeatureCollection, generated time.Time) map[string]interface{} {
	withListings := 0
	for _, f := range fc.Features {
		if count, _ := f.Properties["count"].(int); count > 0 {
			withListings++
		}
	}

	return map[string]interface{}{
		"type":     "FeatureCollection",
		"features": fc.Features,
		"metadata": map[string]interface{}{
			"generated":     generated.Format(time.RFC3339),
			"description":   "Lyon arrondissement centroids with analysis summaries",
			"districts":     len(fc.Features),
			"with_listings": withListings,
		},
	}
}
