// Package report renders the fixed-width text investment report.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"nexlyon/server/internal/models"
)

const (
	// Width of banners and centered lines.
	Width = 66

	maxTitle    = 28
	maxDetailed = 5
)

// Header carries the display-only context of the report.
type Header struct {
	GeneratedAt  time.Time
	Sessions     int
	FirstSession *time.Time
}

var printer = message.NewPrinter(language.English)

// Compose renders the report for analyses, which must already carry their
// final metrics. The input order is only used to break score ties.
func Compose(analyses []models.PropertyAnalysis, h Header) string {
	now := h.GeneratedAt.Format("2006-01-02 15:04")
	first := h.GeneratedAt.Format("2006-01-02")
	if h.FirstSession != nil {
		first = h.FirstSession.Format("2006-01-02")
	}

	banner := strings.Repeat("=", Width)
	rule := strings.Repeat("-", Width)

	lines := []string{
		banner,
		center("    NEX-LYON REAL ESTATE INVESTMENT REPORT", Width),
		center("    Generated: "+now, Width),
		banner,
	}

	total := len(analyses)
	if total == 0 {
		lines = append(lines, "\n  No properties to analyze.\n")
		return strings.Join(lines, "\n")
	}

	var sumPrice, sumSize, sumM2 float64
	for _, pa := range analyses {
		sumPrice += float64(pa.Property.Price)
		sumSize += pa.Property.Size
		sumM2 += float64(pa.Metrics.PriceM2)
	}
	n := float64(total)

	lines = append(lines,
		"",
		"  MARKET OVERVIEW",
		rule,
		fmt.Sprintf("  Properties Analyzed  : %d", total),
		fmt.Sprintf("  Database Sessions    : %d (tracking since %s)", h.Sessions, first),
		"  Average Price        : "+euros(sumPrice/n),
		fmt.Sprintf("  Average Size         : %.0f m2", sumSize/n),
		"  Average Price/m2     : "+euros(sumM2/n),
	)

	lines = append(lines, "", "  BY ARRONDISSEMENT", rule)
	lines = append(lines, districtTable(analyses)...)

	ranked := make([]models.PropertyAnalysis, total)
	copy(ranked, analyses)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Metrics.Score > ranked[j].Metrics.Score
	})

	lines = append(lines,
		"",
		"  ALL PROPERTIES (ranked by score)",
		rule,
		fmt.Sprintf("  %2s %5s  %-30s %8s %4s %8s", "#", "Score", "Title", "EUR/m2", "DPE", "5yr ROI"),
		fmt.Sprintf("  %2s %5s  %-30s %8s %4s %8s", "--", "-----", "-----", "------", "---", "-------"),
	)
	var undervalued []models.PropertyAnalysis
	for i, pa := range ranked {
		flag := "  "
		if pa.Metrics.IsUndervalued {
			flag = " *"
			undervalued = append(undervalued, pa)
		}
		lines = append(lines, fmt.Sprintf("  %2d %5.1f  %-30s %7s %4s %7.1f%%%s",
			i+1, pa.Metrics.Score, truncate(pa.Property.Title, maxTitle),
			thousands(pa.Metrics.PriceM2), rating(pa.Property.DPE), pa.Metrics.ROI5yr, flag))
	}
	lines = append(lines, "  (* = undervalued)")

	lines = append(lines,
		"",
		fmt.Sprintf("  TOP UNDERVALUED PROPERTIES (%d found)", len(undervalued)),
		rule,
	)
	if len(undervalued) == 0 {
		lines = append(lines, "  No significantly undervalued properties detected.")
	}
	for i, pa := range undervalued {
		if i == maxDetailed {
			break
		}
		lines = append(lines, "")
		lines = append(lines, detail(i+1, pa)...)
	}

	lines = append(lines,
		"",
		banner,
		"  Disclaimer: Estimates only. Consult a licensed advisor.",
		banner,
	)
	return strings.Join(lines, "\n")
}

func districtTable(analyses []models.PropertyAnalysis) []string {
	type group struct {
		count         int
		m2, vs, yield float64
	}
	groups := make(map[string]*group)
	for _, pa := range analyses {
		key := pa.Property.Arrondissement
		if key == "" {
			key = "?"
		}
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		g.count++
		g.m2 += float64(pa.Metrics.PriceM2)
		g.vs += pa.Metrics.PriceVsMarketPct
		g.yield += pa.Metrics.RentalYieldPct
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{
		fmt.Sprintf("  %-14s %3s %12s %11s %7s", "Area", "#", "Avg EUR/m2", "vs Market", "Yield"),
		fmt.Sprintf("  %-14s %3s %12s %11s %7s", "---", "--", "----------", "---------", "-----"),
	}
	for _, name := range names {
		g := groups[name]
		n := float64(g.count)
		vs := g.vs / n
		sign := ""
		if vs >= 0 {
			sign = "+"
		}
		lines = append(lines, fmt.Sprintf("  %-14s %3d %12s %11s %7s",
			name, g.count, euros(g.m2/n),
			fmt.Sprintf("%s%.1f%%", sign, vs),
			fmt.Sprintf("%.1f%%", g.yield/n)))
	}
	return lines
}

func detail(rank int, pa models.PropertyAnalysis) []string {
	p, m := pa.Property, pa.Metrics
	lines := []string{
		fmt.Sprintf("  %d. [SCORE %s/10] %s", rank, decimal(m.Score), p.Title),
		fmt.Sprintf("     Price: EUR %s  |  %s m2  |  EUR %s/m2  |  DPE: %s",
			thousands(p.Price), decimal(p.Size), thousands(m.PriceM2), rating(p.DPE)),
		fmt.Sprintf("     %+.1f%% vs market avg (EUR %s/m2) for %s",
			m.PriceVsMarketPct, thousands(m.MarketAvgM2), p.Arrondissement),
		fmt.Sprintf("     Est. Rent: EUR %s/mo  |  Yield: %s%%  |  5yr ROI: %.1f%%",
			thousands(m.MonthlyRent), decimal(m.RentalYieldPct), m.ROI5yr),
	}
	if m.RenoCost > 0 {
		lines = append(lines, fmt.Sprintf("     Renovation: EUR %s -> Post-reno value: EUR %s (gain: EUR %s)",
			thousands(m.RenoCost), thousands(m.PostRenoValue), thousands(m.CapitalGain)))
	}
	if m.AIInsight != "" {
		lines = append(lines, "     AI: "+strings.ReplaceAll(m.AIInsight, "\n", " "))
	}
	return lines
}

// center pads s on both sides to width; an odd margin puts the extra space
// on the left only when width is odd.
func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	margin := width - n
	left := margin/2 + (margin & width & 1)
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", margin-left)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit])
	}
	return s
}

func rating(dpe string) string {
	if dpe == "" {
		return "?"
	}
	return dpe
}

// euros formats an average as a whole amount with thousands separators.
func euros(v float64) string {
	rounded, _ := strconv.ParseInt(strconv.FormatFloat(v, 'f', 0, 64), 10, 64)
	return "EUR " + thousands(rounded)
}

func thousands[T int | int64](n T) string {
	return printer.Sprintf("%d", n)
}

// decimal prints the shortest form of v, always with a fractional part.
func decimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
