// Package export writes the analysis workbook.
package export

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"nexlyon/server/internal/models"
)

const (
	WorkbookFile = "nexlyon_lyon.xlsx"

	PropertiesSheet = "Properties"
	AnalysisSheet   = "Analysis"
	HistorySheet    = "History"

	maxDescription = 200
)

var (
	propertyHeaders = []string{
		"ID", "Title", "Price (EUR)", "Arrondissement", "Size (m²)",
		"Rooms", "DPE", "Price/m² (EUR)", "Description", "URL",
		"First Seen", "Last Seen", "Active",
	}
	analysisHeaders = []string{
		"ID", "Title", "Arrondissement", "Score", "Verdict",
		"Price (EUR)", "Price/m²", "Market Avg/m²", "vs Market %",
		"Monthly Rent", "Yield %", "5yr ROI %",
		"Reno Cost", "Post-Reno Value", "Capital Gain",
		"DPE", "Undervalued?",
	}
	historyHeaders = []string{"Run Date", "Total Properties", "Sessions", "Tracking Since"}
)

// Exporter keeps one workbook in a directory. The Properties and Analysis
// sheets are rewritten on each run; History gains one row per run.
type Exporter struct {
	dir    string
	logger *logrus.Logger
	now    func() time.Time
}

func NewExporter(dir string, logger *logrus.Logger) *Exporter {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Exporter{dir: dir, logger: logger, now: time.Now}
}

// Dir is the export location, empty when exporting is disabled.
func (e *Exporter) Dir() string {
	return e.dir
}

// Path is the workbook location.
func (e *Exporter) Path() string {
	return filepath.Join(e.dir, WorkbookFile)
}

// Sync exports everything and returns a status line for the console.
// Failures are reported in the status rather than returned.
func (e *Exporter) Sync(analyses []models.PropertyAnalysis, stats models.SessionStats) string {
	if e.dir == "" {
		return "  Skipped: No EXPORT_DIR configured"
	}

	count, err := e.Export(analyses, stats)
	if err != nil {
		e.logger.WithError(err).Error("Export failed")
		return fmt.Sprintf("  Export error: %v", err)
	}
	return fmt.Sprintf("  Exported %d properties\n  Workbook: %s", count, e.Path())
}

// Export writes the three sheets and returns the number of property rows.
func (e *Exporter) Export(analyses []models.PropertyAnalysis, stats models.SessionStats) (int, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := e.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := writeSheet(f, PropertiesSheet, propertyHeaders, propertyRows(analyses)); err != nil {
		return 0, err
	}
	if err := writeSheet(f, AnalysisSheet, analysisHeaders, analysisRows(analyses)); err != nil {
		return 0, err
	}

	now := e.now()
	first := now
	if stats.First != nil {
		first = *stats.First
	}
	err = appendHistory(f, []interface{}{
		now.Format("2006-01-02 15:04"),
		len(analyses),
		stats.Count,
		first.Format("2006-01-02"),
	})
	if err != nil {
		return 0, err
	}

	if err := f.SaveAs(e.Path()); err != nil {
		return 0, fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"workbook":   e.Path(),
		"properties": len(analyses),
	}).Info("Workbook exported")
	return len(analyses), nil
}

// open loads the existing workbook, or starts a new one whose default sheet
// becomes Properties.
func (e *Exporter) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(e.Path())
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	f = excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), PropertiesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create workbook: %w", err)
	}
	return f, nil
}

// ensureSheet creates the sheet if needed and writes a bold, frozen header.
// It returns the number of rows the sheet held before.
func ensureSheet(f *excelize.File, name string, headers []string) (int, error) {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return 0, err
	}
	if idx == -1 {
		if _, err := f.NewSheet(name); err != nil {
			return 0, fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return 0, fmt.Errorf("failed to write %s header: %w", name, err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}
	if err := f.SetRowStyle(name, 1, 1, bold); err != nil {
		return 0, err
	}
	err = f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// writeSheet replaces everything below the header with rows.
func writeSheet(f *excelize.File, name string, headers []string, rows [][]interface{}) error {
	previous, err := ensureSheet(f, name, headers)
	if err != nil {
		return err
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", name, i+2, err)
		}
	}

	// drop rows left over from a longer previous export
	for r := previous; r > len(rows)+1; r-- {
		if err := f.RemoveRow(name, r); err != nil {
			return fmt.Errorf("failed to clear %s row %d: %w", name, r, err)
		}
	}
	return nil
}

func appendHistory(f *excelize.File, row []interface{}) error {
	previous, err := ensureSheet(f, HistorySheet, historyHeaders)
	if err != nil {
		return err
	}

	next := previous + 1
	if previous == 0 {
		next = 2
	}
	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(HistorySheet, cell, &row); err != nil {
		return fmt.Errorf("failed to append %s: %w", HistorySheet, err)
	}
	return nil
}

func propertyRows(analyses []models.PropertyAnalysis) [][]interface{} {
	rows := make([][]interface{}, 0, len(analyses))
	for _, pa := range analyses {
		p := pa.Property
		active := "No"
		if p.IsActive {
			active = "Yes"
		}
		rows = append(rows, []interface{}{
			p.ID,
			p.Title,
			p.Price,
			p.Arrondissement,
			p.Size,
			p.Rooms,
			p.DPE,
			int(math.RoundToEven(p.PricePerM2)),
			truncate(p.Description, maxDescription),
			p.URL,
			timestamp(p.FirstSeen),
			timestamp(p.LastSeen),
			active,
		})
	}
	return rows
}

func analysisRows(analyses []models.PropertyAnalysis) [][]interface{} {
	ranked := make([]models.PropertyAnalysis, len(analyses))
	copy(ranked, analyses)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Metrics.Score > ranked[j].Metrics.Score
	})

	rows := make([][]interface{}, 0, len(ranked))
	for _, pa := range ranked {
		p, m := pa.Property, pa.Metrics
		undervalued := ""
		if m.IsUndervalued {
			undervalued = "YES"
		}
		rows = append(rows, []interface{}{
			p.ID,
			p.Title,
			p.Arrondissement,
			m.Score,
			models.Verdict(m.Score),
			p.Price,
			m.PriceM2,
			m.MarketAvgM2,
			m.PriceVsMarketPct,
			m.MonthlyRent,
			m.RentalYieldPct,
			m.ROI5yr,
			m.RenoCost,
			m.PostRenoValue,
			m.CapitalGain,
			p.DPE,
			undervalued,
		})
	}
	return rows
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02T15:04:05")
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit])
	}
	return s
}
