package analyzer

import (
	"sort"

	"nexlyon/server/config"
	"nexlyon/server/internal/models"
)

// UnknownDistrict groups analyses whose property has no arrondissement.
const UnknownDistrict = "?"

// Summarize computes the dashboard headline figures.
func Summarize(analyses []models.PropertyAnalysis, newCount int) models.Summary {
	s := models.Summary{Total: len(analyses), NewCount: newCount}
	if len(analyses) == 0 {
		return s
	}

	var price, size, m2 float64
	bestROI := analyses[0].Metrics.ROI5yr
	for _, pa := range analyses {
		price += float64(pa.Property.Price)
		size += pa.Property.Size
		m2 += float64(pa.Metrics.PriceM2)
		if pa.Metrics.IsUndervalued {
			s.Undervalued++
		}
		if pa.Metrics.ROI5yr > bestROI {
			bestROI = pa.Metrics.ROI5yr
		}
	}

	n := float64(len(analyses))
	s.AvgPrice = roundInt(price / n)
	s.AvgSize = roundInt(size / n)
	s.AvgM2 = roundInt(m2 / n)
	s.BestROI = round1(bestROI)
	return s
}

// DistrictSummaries groups analyses by arrondissement, sorted by name.
func DistrictSummaries(analyses []models.PropertyAnalysis, md *config.MarketData) []models.DistrictSummary {
	type acc struct {
		count              int
		m2, vs, yield, roi float64
	}
	groups := make(map[string]*acc)
	for _, pa := range analyses {
		name := DistrictKey(pa.Property)
		g, ok := groups[name]
		if !ok {
			g = &acc{}
			groups[name] = g
		}
		g.count++
		g.m2 += float64(pa.Metrics.PriceM2)
		g.vs += pa.Metrics.PriceVsMarketPct
		g.yield += pa.Metrics.RentalYieldPct
		g.roi += pa.Metrics.ROI5yr
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]models.DistrictSummary, 0, len(names))
	for _, name := range names {
		g := groups[name]
		n := float64(g.count)
		out = append(out, models.DistrictSummary{
			Name:      name,
			Count:     g.count,
			AvgM2:     roundInt(g.m2 / n),
			MarketAvg: md.Market(name).AvgPriceM2,
			VsMarket:  round1(g.vs / n),
			YieldPct:  round1(g.yield / n),
			AvgROI:    round1(g.roi / n),
		})
	}
	return out
}

// DistrictKey is the grouping key of a property.
func DistrictKey(p models.Property) string {
	if p.Arrondissement == "" {
		return UnknownDistrict
	}
	return p.Arrondissement
}
