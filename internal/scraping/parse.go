package scraping

import (
	"regexp"
	"strconv"
	"strings"

	"nexlyon/server/config"
)

// French listings separate thousands with regular, no-break or narrow
// no-break spaces.
const spaceClass = `\s\x{00a0}\x{202f}`

var (
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d[\d` + spaceClass + `.]{2,})[` + spaceClass + `]*(?:EUR|euros?|€)`),
		regexp.MustCompile(`(?i)(?:EUR|€)[` + spaceClass + `]*(\d[\d` + spaceClass + `.]{2,})`),
		regexp.MustCompile(`(?i)(\d{5,})[` + spaceClass + `]*(?:EUR|euros?|€)`),
	}
	sizePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*m[2²]`),
		regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*m\b`),
	}
	districtPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Lyon\s*(\d{1,2})(?:e|er|eme|[eè]me)`),
		regexp.MustCompile(`690(\d{2})`),
		regexp.MustCompile(`(?i)Lyon\s+(\d)\b`),
	}
	roomsPattern    = regexp.MustCompile(`(?i)[TF](\d)`)
	piecesPattern   = regexp.MustCompile(`(?i)(\d)\s*pi[eè]ces?`)
	dpePattern      = regexp.MustCompile(`(?i)DPE[\s:]*([A-G])`)
	digitSeparators = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", ".", "", ",", "", "\t", "", "\n", "")
)

const (
	minPrice = 30_000
	maxPrice = 5_000_000
	minSize  = 8.0
	maxSize  = 500.0
)

// ParsePrice extracts an asking price in EUR, e.g. "250 000 €" or
// "EUR 250.000". Amounts outside 30k..5M are rejected.
func ParsePrice(text string) (int, bool) {
	for _, re := range pricePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		price, err := strconv.Atoi(digitSeparators.Replace(m[1]))
		if err != nil {
			continue
		}
		if price > minPrice && price < maxPrice {
			return price, true
		}
	}
	return 0, false
}

// ParseSize extracts a floor area in m², accepting a decimal comma.
func ParseSize(text string) (float64, bool) {
	for _, re := range sizePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		size, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			continue
		}
		if size > minSize && size < maxSize {
			return size, true
		}
	}
	return 0, false
}

// ParseArrondissement finds a Lyon district from "Lyon 3e", "Lyon 1er",
// a 6900x postal code or "Lyon 3", and returns its canonical name.
func ParseArrondissement(text string) (string, bool) {
	for _, re := range districtPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if name, ok := config.DistrictName(n); ok {
			return name, true
		}
	}
	return "", false
}

// ParseRooms reads T3/F3 style room counts, then "3 pièces".
func ParseRooms(text string) (int, bool) {
	for _, re := range []*regexp.Regexp{roomsPattern, piecesPattern} {
		if m := re.FindStringSubmatch(text); m != nil {
			n, _ := strconv.Atoi(m[1])
			return n, true
		}
	}
	return 0, false
}

// ParseDPE reads an energy rating such as "DPE: C".
func ParseDPE(text string) (string, bool) {
	if m := dpePattern.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1]), true
	}
	return "", false
}
