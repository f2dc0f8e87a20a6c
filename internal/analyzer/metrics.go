package analyzer

import (
	"math"
	"strconv"

	"nexlyon/server/config"
	"nexlyon/server/internal/models"
)

// Score bounds and baseline of the heuristic investment score.
const (
	baseScore = 5.0
	minScore  = 1.0
	maxScore  = 10.0
)

// Calculate derives the investment metrics of one property from the market
// tables. It never fails: missing price counts as 0, a missing or zero size
// as 1 m², an unknown DPE as "D" and an unknown district uses the fallback
// market entry.
func Calculate(p models.Property, md *config.MarketData) models.Metrics {
	market := md.Market(p.Arrondissement)
	dpeKey, dpe := md.Rating(p.DPE)

	price := float64(p.Price)
	size := p.Size
	if size == 0 {
		size = 1
	}

	priceM2 := price / size
	marketAvg := market.AvgPriceM2

	priceRatio := 1.0
	if marketAvg != 0 {
		priceRatio = priceM2 / marketAvg
	}
	priceVsMarketPct := (priceRatio - 1) * 100

	rentalYield := market.RentalYieldPct / 100
	annualRent := price * rentalYield
	monthlyRent := annualRent / 12

	renoCost := dpe.RenoCostM2 * size
	totalInvestment := price + renoCost
	// Valued as if upgraded to the target rating, whatever the current one.
	postRenoValue := marketAvg * md.Target().ValueFactor * size

	annualNetRent := annualRent - dpe.EnergyCostYr
	totalRent5yr := annualNetRent * 5
	capitalGain := postRenoValue - totalInvestment
	roi5yr := 0.0
	if totalInvestment != 0 {
		roi5yr = ((totalRent5yr + capitalGain) / totalInvestment) * 100
	}

	return models.Metrics{
		Score:            score(priceVsMarketPct, dpeKey, capitalGain, rentalYield, roi5yr),
		PriceM2:          roundInt(priceM2),
		MarketAvgM2:      roundInt(marketAvg),
		PriceVsMarketPct: round1(priceVsMarketPct),
		MonthlyRent:      roundInt(monthlyRent),
		AnnualRent:       roundInt(annualRent),
		RentalYieldPct:   round1(rentalYield * 100),
		RenoCost:         roundInt(renoCost),
		PostRenoValue:    roundInt(postRenoValue),
		CapitalGain:      roundInt(capitalGain),
		TotalInvestment:  roundInt(totalInvestment),
		ROI5yr:           round1(roi5yr),
		IsUndervalued:    isUndervalued(priceVsMarketPct, dpeKey, capitalGain, price),
	}
}

// CalculateAll computes metrics for every property, preserving order.
func CalculateAll(properties []models.Property, md *config.MarketData) []models.Metrics {
	out := make([]models.Metrics, len(properties))
	for i, p := range properties {
		out[i] = Calculate(p, md)
	}
	return out
}

// score applies the additive rules to the unrounded intermediates.
func score(priceVsMarketPct float64, dpeKey string, capitalGain, rentalYield, roi5yr float64) float64 {
	s := baseScore

	switch {
	case priceVsMarketPct < -15:
		s += 2.5
	case priceVsMarketPct < -5:
		s += 1.5
	case priceVsMarketPct > 15:
		s -= 2.0
	case priceVsMarketPct > 5:
		s -= 1.0
	}

	if isPoorRating(dpeKey) && capitalGain > 0 {
		s += 1.5
	}
	if dpeKey == "A" || dpeKey == "B" {
		s += 0.5
	}
	if rentalYield > 0.05 {
		s += 0.5
	}

	switch {
	case roi5yr > 30:
		s += 1.0
	case roi5yr < 0:
		s -= 1.0
	}

	return math.Max(minScore, math.Min(maxScore, round1(s)))
}

// isUndervalued flags properties worth a narrative call. The thresholds are
// tuned separately from the score tiers.
func isUndervalued(priceVsMarketPct float64, dpeKey string, capitalGain, price float64) bool {
	if priceVsMarketPct < -8 {
		return true
	}
	return isPoorRating(dpeKey) && priceVsMarketPct < 0 && capitalGain > price*0.10
}

func isPoorRating(key string) bool {
	return key == "E" || key == "F" || key == "G"
}

// roundInt rounds half to even.
func roundInt(v float64) int {
	return int(math.RoundToEven(v))
}

// round1 rounds to one decimal using the exact decimal value of v, so that
// 2.25 becomes 2.2 and 2.35 (stored as 2.35000000000000008882) becomes 2.4.
func round1(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return r
}
